package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"canvass-data/internal/repository"
	"canvass-data/internal/service"

	"go.uber.org/zap"
)

// AdminHandler serves the back-office surface: per-agent summaries as JSON
// and the contacts export as a direct file download. Guarded by basic auth
// against the same credentials the chat admin login uses.
type AdminHandler struct {
	canvass    repository.CanvassRepository
	reports    *service.ReportService
	membership *service.MembershipService
	sessions   *service.SessionStore
	logger     *zap.Logger
}

func NewAdminHandler(canvass repository.CanvassRepository, reports *service.ReportService, membership *service.MembershipService, sessions *service.SessionStore, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		canvass:    canvass,
		reports:    reports,
		membership: membership,
		sessions:   sessions,
		logger:     logger,
	}
}

func (h *AdminHandler) authorized(w http.ResponseWriter, r *http.Request) bool {
	login, password, ok := r.BasicAuth()
	if !ok || !h.membership.CheckAdminCredentials(login, password) {
		w.Header().Set("WWW-Authenticate", `Basic realm="canvass-data admin"`)
		writeJSON(w, http.StatusUnauthorized, Fail("unauthorized"))
		return false
	}
	return true
}

type statsRow struct {
	AgentID  string `json:"agent_id"`
	ChatID   int64  `json:"chat_id"`
	Username string `json:"username,omitempty"`
	Name     string `json:"name,omitempty"`
	Total    int    `json:"total"`
	Consent  int    `json:"consent"`
	Refusal  int    `json:"refusal"`
	NoOne    int    `json:"no_one"`
	Hand     int    `json:"hand"`
	Mailbox  int    `json:"mailbox"`
	None     int    `json:"none"`
	HomeYes  int    `json:"home_yes"`
}

func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	days := parseDays(r)
	stats, err := h.reports.AgentsStatsForPeriod(r.Context(), days)
	if err != nil {
		h.logger.Error("stats query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
		return
	}
	rows := make([]statsRow, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, statsRow{
			AgentID:  st.AgentID,
			ChatID:   st.ChatID,
			Username: st.Username,
			Name:     st.Name,
			Total:    st.Total,
			Consent:  st.Consent,
			Refusal:  st.Refusal,
			NoOne:    st.NoOne,
			Hand:     st.Hand,
			Mailbox:  st.Mailbox,
			None:     st.None,
			HomeYes:  st.HomeYes,
		})
	}
	writeJSON(w, http.StatusOK, Ok(rows))
}

// GetSessions lists the in-flight conversations: which chats hold a live
// session and the step each one is parked at.
func (h *AdminHandler) GetSessions(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(w, r) {
		return
	}
	active, err := h.sessions.ListActive(r.Context())
	if err != nil {
		h.logger.Error("session scan failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(active))
}

func (h *AdminHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "xlsx")
}

func (h *AdminHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "csv")
}

func (h *AdminHandler) export(w http.ResponseWriter, r *http.Request, format string) {
	if !h.authorized(w, r) {
		return
	}
	days := parseDays(r)
	rows, err := h.canvass.ListContactsForPeriod(r.Context(), days)
	if err != nil {
		h.logger.Error("export query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
		return
	}

	var content []byte
	var contentType string
	switch format {
	case "csv":
		content, err = service.RenderContactsCSV(rows)
		contentType = "text/csv; charset=utf-8"
	default:
		var stats []*service.AgentPeriodStats
		stats, err = h.reports.AgentsStatsForPeriod(r.Context(), days)
		if err == nil {
			label := "Весь период"
			if days != nil {
				label = fmt.Sprintf("%d дней", *days)
			}
			content, err = service.RenderContactsXLSX(rows, stats, label)
		}
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		h.logger.Error("export rendering failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("internal error"))
		return
	}

	period := "all"
	if days != nil {
		period = fmt.Sprintf("%dd", *days)
	}
	filename := fmt.Sprintf("export_%s_%s.%s", period, time.Now().UTC().Format("20060102_150405"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
