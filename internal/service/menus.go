package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"canvass-data/internal/domain"

	"go.uber.org/zap"
)

const (
	msgGreeting       = "Здравствуйте! Это помощник обхода. Выберите действие."
	msgMainMenu       = "Главное меню."
	msgNotAdmin       = "Требуется вход администратора (меню «Доступ»)."
	msgNotBrig        = "Требуется вход бригадира (меню «Доступ»)."
	msgNotAllowed     = "Вас нет в списке бригадиров. Обратитесь к администратору."
	msgAskLogin       = "Введите логин администратора:"
	msgAskPassword    = "Введите пароль:"
	msgBadCreds       = "Неверный логин или пароль."
	msgAskUsername    = "Отправьте @username пользователя."
	msgUnknownUser    = "Этот пользователь ещё не писал боту. Попросите его отправить /start и повторите."
	msgPickPeriod     = "Выберите период."
	msgExportPrepared = "Выгрузка готова."

	msgHelp = "Как работает опрос: начните «Новый опрос (квартира)», " +
		"прикрепите фото подъезда, затем вводите данные по подсказкам. " +
		"Шаги с фото и номером флаера пропустить нельзя. " +
		"Кнопка «Отмена» возвращает в главное меню."
)

func (s *SurveyService) mainMenu(ctx context.Context, agent *domain.Agent, prefix string) (*Reply, error) {
	isBrig, err := s.membership.IsBrigLoggedIn(ctx, agent.ChatID)
	if err != nil {
		return nil, err
	}
	var messages []string
	if prefix != "" {
		messages = append(messages, prefix)
	}
	messages = append(messages, msgMainMenu)
	return reply(kbMain(agent.AdminLoggedIn, isBrig), messages...), nil
}

func (s *SurveyService) requireAdmin(agent *domain.Agent) *Reply {
	if agent.AdminLoggedIn {
		return nil
	}
	return reply(kbAccessMenu(false, false), msgNotAdmin)
}

func (s *SurveyService) requireBrig(ctx context.Context, agent *domain.Agent) (*Reply, error) {
	logged, err := s.membership.IsBrigLoggedIn(ctx, agent.ChatID)
	if err != nil {
		return nil, err
	}
	if logged {
		return nil, nil
	}
	return reply(kbAccessMenu(false, agent.AdminLoggedIn), msgNotBrig), nil
}

func (s *SurveyService) toStep(ctx context.Context, chatID int64, sess *Session, kb [][]string, messages ...string) (*Reply, error) {
	if err := s.sessions.Save(ctx, chatID, sess); err != nil {
		return nil, err
	}
	return reply(kb, messages...), nil
}

func (s *SurveyService) handleMenu(ctx context.Context, agent *domain.Agent, ev Event) (*Reply, error) {
	switch ev.Text {
	case "/start":
		blocked, err := s.membership.IsBlocked(ctx, agent.ChatID)
		if err != nil {
			return nil, err
		}
		if blocked {
			return replyBare(msgBlocked), nil
		}
		return s.mainMenu(ctx, agent, msgGreeting)

	case BtnNew:
		return s.startSurvey(ctx, agent)

	case BtnHelp, BtnBrigHelp:
		return s.mainMenu(ctx, agent, msgHelp)

	case BtnMyStats:
		st, err := s.reports.AgentStatsLast24h(ctx, agent)
		if err != nil {
			return nil, err
		}
		return s.mainMenu(ctx, agent, "Сводка за 24 часа:\n"+formatStats(st))

	case BtnAgentExport:
		sess := &Session{Step: StepAgentExportRange, ExportFormat: "xlsx"}
		return s.toStep(ctx, ev.ChatID, sess, kbExportRanges(), msgPickPeriod)

	case BtnAccess:
		brigLogged, err := s.membership.IsBrigLoggedIn(ctx, agent.ChatID)
		if err != nil {
			return nil, err
		}
		return reply(kbAccessMenu(brigLogged, agent.AdminLoggedIn), "Доступы:"), nil

	case BtnAdminLogin:
		sess := &Session{Step: StepAdminLogin}
		return s.toStep(ctx, ev.ChatID, sess, kbCancel(), msgAskLogin)

	case BtnAdminLogout:
		if err := s.agents.SetAdminLogin(ctx, agent.ChatID, false); err != nil {
			return nil, err
		}
		agent.AdminLoggedIn = false
		return s.mainMenu(ctx, agent, "Вы вышли из админ-режима.")

	case BtnBrigLogin:
		allowed, err := s.membership.IsBrigadier(ctx, agent.ChatID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return s.mainMenu(ctx, agent, msgNotAllowed)
		}
		if err := s.membership.SetBrigLogin(ctx, agent.ChatID, true); err != nil {
			return nil, err
		}
		return reply(kbBrigMenu(), "Вы вошли как бригадир."), nil

	case BtnBrigLogout:
		if err := s.membership.SetBrigLogin(ctx, agent.ChatID, false); err != nil {
			return nil, err
		}
		return s.mainMenu(ctx, agent, "Вы вышли из режима бригадира.")

	case BtnAdminMenu:
		if r := s.requireAdmin(agent); r != nil {
			return r, nil
		}
		return reply(kbAdminMenu(), "Админ-меню."), nil

	case BtnAdminAccess:
		if r := s.requireAdmin(agent); r != nil {
			return r, nil
		}
		return reply(kbAdminAccessMenu(), "Управление бригадирами."), nil

	case BtnAccessAddBrig:
		if r := s.requireAdmin(agent); r != nil {
			return r, nil
		}
		sess := &Session{Step: StepAddBrigUsername}
		return s.toStep(ctx, ev.ChatID, sess, kbCancel(), msgAskUsername)

	case BtnAccessAttachMember:
		if r := s.requireAdmin(agent); r != nil {
			return r, nil
		}
		sess := &Session{Step: StepAttachBrigUsername}
		return s.toStep(ctx, ev.ChatID, sess, kbCancel(), "Отправьте @username бригадира.")

	case BtnAccessDemote:
		if r := s.requireAdmin(agent); r != nil {
			return r, nil
		}
		sess := &Session{Step: StepDemoteBrigUsername}
		return s.toStep(ctx, ev.ChatID, sess, kbCancel(), "Отправьте @username или числовой id бригадира.")

	case BtnAccessList:
		if r := s.requireAdmin(agent); r != nil {
			return r, nil
		}
		infos, err := s.membership.ListBrigadiers(ctx)
		if err != nil {
			return nil, err
		}
		return reply(kbAdminAccessMenu(), formatBrigadiers(infos)), nil

	case BtnAdminStatsAll:
		if r := s.requireAdmin(agent); r != nil {
			return r, nil
		}
		sess := &Session{Step: StepAdminStatsRange}
		return s.toStep(ctx, ev.ChatID, sess, kbExportRanges(), msgPickPeriod)

	case BtnAdminExportXLSX, BtnXLSXAll:
		if r := s.requireAdmin(agent); r != nil {
			return r, nil
		}
		if ev.Text == BtnXLSXAll {
			return s.adminExport(ctx, nil, "xlsx")
		}
		sess := &Session{Step: StepAdminExportRange, ExportFormat: "xlsx"}
		return s.toStep(ctx, ev.ChatID, sess, kbExportRanges(), msgPickPeriod)

	case BtnAdminExportCSV, BtnCSVAll:
		if r := s.requireAdmin(agent); r != nil {
			return r, nil
		}
		if ev.Text == BtnCSVAll {
			return s.adminExport(ctx, nil, "csv")
		}
		sess := &Session{Step: StepAdminExportRange, ExportFormat: "csv"}
		return s.toStep(ctx, ev.ChatID, sess, kbExportRanges(), msgPickPeriod)

	case BtnBrigMenu:
		if r, err := s.requireBrig(ctx, agent); r != nil || err != nil {
			return r, err
		}
		return reply(kbBrigMenu(), "Меню бригадира."), nil

	case BtnBrigMembers:
		if r, err := s.requireBrig(ctx, agent); r != nil || err != nil {
			return r, err
		}
		members, unknown, err := s.membership.ListMembers(ctx, agent.ChatID)
		if err != nil {
			return nil, err
		}
		return reply(kbBrigMenu(), formatMembers(members, unknown)), nil

	case BtnBrigAttach:
		if r, err := s.requireBrig(ctx, agent); r != nil || err != nil {
			return r, err
		}
		sess := &Session{Step: StepBrigAttachUsername}
		return s.toStep(ctx, ev.ChatID, sess, kbCancel(), msgAskUsername)

	case BtnBrigDetach:
		if r, err := s.requireBrig(ctx, agent); r != nil || err != nil {
			return r, err
		}
		sess := &Session{Step: StepBrigDetachUsername}
		return s.toStep(ctx, ev.ChatID, sess, kbCancel(), msgAskUsername)

	case BtnBrigBlacklist:
		if r, err := s.requireBrig(ctx, agent); r != nil || err != nil {
			return r, err
		}
		return reply(kbBrigBlacklist(), "Чёрный список:"), nil

	case BtnBrigBlock:
		if r, err := s.requireBrig(ctx, agent); r != nil || err != nil {
			return r, err
		}
		sess := &Session{Step: StepBrigBlockUsername}
		return s.toStep(ctx, ev.ChatID, sess, kbCancel(), msgAskUsername)

	case BtnBrigUnblock:
		if r, err := s.requireBrig(ctx, agent); r != nil || err != nil {
			return r, err
		}
		sess := &Session{Step: StepBrigUnblockUsername}
		return s.toStep(ctx, ev.ChatID, sess, kbCancel(), msgAskUsername)

	case BtnBrigStats:
		if r, err := s.requireBrig(ctx, agent); r != nil || err != nil {
			return r, err
		}
		sess := &Session{Step: StepBrigStatsRange}
		return s.toStep(ctx, ev.ChatID, sess, kbExportRanges(), msgPickPeriod)

	case BtnBrigExportXLSX:
		if r, err := s.requireBrig(ctx, agent); r != nil || err != nil {
			return r, err
		}
		sess := &Session{Step: StepBrigExportRange, ExportFormat: "xlsx"}
		return s.toStep(ctx, ev.ChatID, sess, kbExportRanges(), msgPickPeriod)

	case BtnBack, BtnMainMenu:
		return s.mainMenu(ctx, agent, "")
	}

	return s.mainMenu(ctx, agent, "Не понял команду.")
}

func (s *SurveyService) stepAdminAuth(ctx context.Context, agent *domain.Agent, sess *Session, ev Event) (*Reply, error) {
	if sess.Step == StepAdminLogin {
		sess.AdminLoginInput = ev.Text
		sess.Step = StepAdminPassword
		return s.toStep(ctx, ev.ChatID, sess, kbCancel(), msgAskPassword)
	}

	ok := s.membership.CheckAdminCredentials(sess.AdminLoginInput, ev.Text)
	if err := s.sessions.Clear(ctx, ev.ChatID); err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn("admin login rejected", zap.Int64("chat_id", ev.ChatID))
		return s.mainMenu(ctx, agent, msgBadCreds)
	}
	if err := s.agents.SetAdminLogin(ctx, agent.ChatID, true); err != nil {
		return nil, err
	}
	agent.AdminLoggedIn = true
	s.logger.Info("admin login accepted", zap.Int64("chat_id", ev.ChatID))
	return reply(kbAdminMenu(), "Вы вошли как администратор."), nil
}

// periodForButton maps a range button to the export period selector
// (nil = all time) and a human label for captions and summary rows.
func periodForButton(text string) (*int, string, bool) {
	switch text {
	case BtnExpToday:
		days := 1
		return &days, "Сегодня", true
	case BtnExp7:
		days := 7
		return &days, "7 дней", true
	case BtnExp30:
		days := 30
		return &days, "30 дней", true
	case BtnExpAll:
		return nil, "Весь период", true
	}
	return nil, "", false
}

func exportFilename(prefix string, days *int, ext string) string {
	period := "all"
	if days != nil {
		period = fmt.Sprintf("%dd", *days)
	}
	return fmt.Sprintf("%s_%s_%s.%s", prefix, period, time.Now().UTC().Format("20060102_150405"), ext)
}

func (s *SurveyService) stepRange(ctx context.Context, agent *domain.Agent, sess *Session, ev Event) (*Reply, error) {
	if ev.Text == BtnBack {
		if err := s.sessions.Clear(ctx, ev.ChatID); err != nil {
			return nil, err
		}
		return s.mainMenu(ctx, agent, "")
	}
	days, label, ok := periodForButton(ev.Text)
	if !ok {
		return reply(kbExportRanges(), msgPickPeriod), nil
	}
	step := sess.Step
	format := sess.ExportFormat
	if err := s.sessions.Clear(ctx, ev.ChatID); err != nil {
		return nil, err
	}

	switch step {
	case StepAdminExportRange:
		return s.adminExport(ctx, days, format)

	case StepAdminStatsRange:
		stats, err := s.reports.AgentsStatsForPeriod(ctx, days)
		if err != nil {
			return nil, err
		}
		return reply(kbAdminMenu(), "Сводка ("+label+"):\n"+formatAllStats(stats)), nil

	case StepAgentExportRange:
		st, err := s.reports.AgentStatsForPeriod(ctx, agent, days)
		if err != nil {
			return nil, err
		}
		content, err := RenderSummaryXLSX([]*AgentPeriodStats{st}, label)
		if err != nil {
			return nil, fmt.Errorf("failed to render workbook: %w", err)
		}
		r, err := s.mainMenu(ctx, agent, msgExportPrepared)
		if err != nil {
			return nil, err
		}
		r.Documents = append(r.Documents, &Document{
			Filename: exportFilename("my_stats", days, "xlsx"),
			Content:  content,
			Caption:  "Моя сводка: " + label,
		})
		return r, nil

	case StepBrigStatsRange:
		stats, err := s.brigMemberStats(ctx, agent.ChatID, days)
		if err != nil {
			return nil, err
		}
		return reply(kbBrigMenu(), "Сводка по участникам ("+label+"):\n"+formatAllStats(stats)), nil

	case StepBrigExportRange:
		stats, err := s.brigMemberStats(ctx, agent.ChatID, days)
		if err != nil {
			return nil, err
		}
		content, err := RenderSummaryXLSX(stats, label)
		if err != nil {
			return nil, fmt.Errorf("failed to render workbook: %w", err)
		}
		r := reply(kbBrigMenu(), msgExportPrepared)
		r.Documents = append(r.Documents, &Document{
			Filename: exportFilename("brig_stats", days, "xlsx"),
			Content:  content,
			Caption:  "Сводка бригады: " + label,
		})
		return r, nil
	}
	return s.mainMenu(ctx, agent, "")
}

// adminExport renders the full contacts export with the per-agent summary.
func (s *SurveyService) adminExport(ctx context.Context, days *int, format string) (*Reply, error) {
	rows, err := s.canvass.ListContactsForPeriod(ctx, days)
	if err != nil {
		return nil, err
	}
	_, label, _ := periodLabel(days)

	var content []byte
	var ext string
	switch format {
	case "csv":
		content, err = RenderContactsCSV(rows)
		ext = "csv"
	default:
		var stats []*AgentPeriodStats
		stats, err = s.reports.AgentsStatsForPeriod(ctx, days)
		if err != nil {
			return nil, err
		}
		content, err = RenderContactsXLSX(rows, stats, label)
		ext = "xlsx"
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render export: %w", err)
	}

	r := reply(kbAdminMenu(), fmt.Sprintf("%s Записей: %d.", msgExportPrepared, len(rows)))
	r.Documents = append(r.Documents, &Document{
		Filename: exportFilename("export", days, ext),
		Content:  content,
		Caption:  "Экспорт: " + label,
	})
	return r, nil
}

func periodLabel(days *int) (*int, string, bool) {
	if days == nil {
		return nil, "Весь период", true
	}
	switch *days {
	case 1:
		return days, "Сегодня", true
	case 7:
		return days, "7 дней", true
	case 30:
		return days, "30 дней", true
	}
	return days, fmt.Sprintf("%d дней", *days), true
}

func (s *SurveyService) brigMemberStats(ctx context.Context, brigChatID int64, days *int) ([]*AgentPeriodStats, error) {
	memberChatIDs, err := s.membership.MemberChatIDs(ctx, brigChatID)
	if err != nil {
		return nil, err
	}
	return s.reports.MembersStatsForPeriod(ctx, memberChatIDs, days)
}

func (s *SurveyService) stepUsername(ctx context.Context, agent *domain.Agent, sess *Session, ev Event) (*Reply, error) {
	step := sess.Step

	// The attach flow is two-step: brigadier handle first, member second.
	if step == StepAttachBrigUsername {
		if CleanUsername(ev.Text) == "" {
			return reply(kbCancel(), msgAskUsername), nil
		}
		sess.PendingUsername = ev.Text
		sess.Step = StepAttachMemberUsername
		return s.toStep(ctx, ev.ChatID, sess, kbCancel(), "Теперь отправьте @username участника.")
	}

	var (
		target  *domain.Agent
		confirm string
		kb      [][]string
		err     error
	)
	switch step {
	case StepAddBrigUsername:
		kb = kbAdminAccessMenu()
		target, err = s.membership.AddBrigadierByUsername(ctx, ev.Text)
		if target != nil {
			confirm = fmt.Sprintf("@%s назначен бригадиром.", target.Username)
		}

	case StepAttachMemberUsername:
		kb = kbAdminAccessMenu()
		err = s.membership.AttachMember(ctx, sess.PendingUsername, ev.Text)
		confirm = "Участник привязан к бригадиру."

	case StepDemoteBrigUsername:
		kb = kbAdminAccessMenu()
		var chatID int64
		chatID, err = s.membership.DemoteBrigadier(ctx, ev.Text)
		confirm = fmt.Sprintf("Бригадир %d разжалован, участники отвязаны.", chatID)

	case StepBrigAttachUsername:
		kb = kbBrigMenu()
		target, err = s.membership.AttachMemberTo(ctx, agent.ChatID, ev.Text)
		if target != nil {
			confirm = fmt.Sprintf("@%s привязан к вашей бригаде.", target.Username)
		}

	case StepBrigDetachUsername:
		kb = kbBrigMenu()
		target, err = s.membership.DetachMemberFrom(ctx, agent.ChatID, ev.Text)
		if target != nil {
			confirm = fmt.Sprintf("@%s отвязан от бригады.", target.Username)
		}

	case StepBrigBlockUsername:
		kb = kbBrigBlacklist()
		target, err = s.membership.BlockByUsername(ctx, agent.ChatID, ev.Text)
		if target != nil {
			confirm = fmt.Sprintf("@%s заблокирован.", target.Username)
		}

	case StepBrigUnblockUsername:
		kb = kbBrigBlacklist()
		target, err = s.membership.UnblockByUsername(ctx, ev.Text)
		if target != nil {
			confirm = fmt.Sprintf("@%s разблокирован.", target.Username)
		}

	default:
		if err := s.sessions.Clear(ctx, ev.ChatID); err != nil {
			return nil, err
		}
		return s.mainMenu(ctx, agent, "")
	}

	if err != nil {
		if errors.Is(err, ErrUnknownUsername) {
			// Session stays put: the admin can paste another handle.
			return reply(kbCancel(), msgUnknownUser), nil
		}
		return nil, err
	}
	if err := s.sessions.Clear(ctx, ev.ChatID); err != nil {
		return nil, err
	}
	return reply(kb, confirm), nil
}

func formatStats(st *AgentPeriodStats) string {
	return fmt.Sprintf(
		"Всего: %d\nСогласие: %d\nОтказ: %d\nНикого нет: %d\n"+
			"Флаер на руки: %d\nФлаер в ящик: %d\nБез флаера: %d\nГолосование на дому: %d",
		st.Total, st.Consent, st.Refusal, st.NoOne,
		st.Hand, st.Mailbox, st.None, st.HomeYes)
}

func formatAllStats(stats []*AgentPeriodStats) string {
	if len(stats) == 0 {
		return "Пока нет данных."
	}
	var b strings.Builder
	for _, st := range stats {
		who := st.Username
		if who == "" {
			who = st.Name
		}
		if who == "" {
			who = st.AgentID
		}
		fmt.Fprintf(&b, "%s: всего %d, согласие %d, отказ %d, никого %d, на дому %d\n",
			who, st.Total, st.Consent, st.Refusal, st.NoOne, st.HomeYes)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatBrigadiers(infos []*domain.BrigadierInfo) string {
	if len(infos) == 0 {
		return "Бригадиров пока нет."
	}
	var b strings.Builder
	b.WriteString("Бригадиры:\n")
	for _, info := range infos {
		who := info.Name
		if info.Username != "" {
			who = "@" + info.Username
		}
		if who == "" {
			who = fmt.Sprintf("id %d", info.BrigChatID)
		}
		fmt.Fprintf(&b, "• %s — участников: %d\n", who, len(info.Members))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatMembers(members []*domain.Agent, unknown []int64) string {
	if len(members) == 0 && len(unknown) == 0 {
		return "В бригаде пока нет участников."
	}
	var b strings.Builder
	b.WriteString("Участники бригады:\n")
	for _, m := range members {
		who := m.Name
		if m.Username != "" {
			who = "@" + m.Username
		}
		fmt.Fprintf(&b, "• %s\n", who)
	}
	for _, chatID := range unknown {
		fmt.Fprintf(&b, "• id %d (ещё не писал боту)\n", chatID)
	}
	return strings.TrimRight(b.String(), "\n")
}
