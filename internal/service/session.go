package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"canvass-data/internal/store"
)

// Step tags the session's current position in a conversation.
type Step string

const (
	// survey
	StepDoorPhoto    Step = "door_photo"
	StepFullName     Step = "full_name"
	StepPhone        Step = "phone"
	StepRepeatTouch  Step = "repeat_touch"
	StepTalkStatus   Step = "talk_status"
	StepFlyerMethod  Step = "flyer_method"
	StepMailboxPhoto Step = "mailbox_photo"
	StepFlyerNumber  Step = "flyer_number"
	StepHomeVoting   Step = "home_voting"
	StepFinishChoice Step = "finish_choice"

	// admin auth
	StepAdminLogin    Step = "admin_login"
	StepAdminPassword Step = "admin_password"

	// range pickers
	StepAdminExportRange Step = "admin_export_range"
	StepAdminStatsRange  Step = "admin_stats_range"
	StepAgentExportRange Step = "agent_export_range"
	StepBrigStatsRange   Step = "brig_stats_range"
	StepBrigExportRange  Step = "brig_export_range"

	// username entry
	StepAddBrigUsername      Step = "add_brig_username"
	StepAttachBrigUsername   Step = "attach_brig_username"
	StepAttachMemberUsername Step = "attach_member_username"
	StepDemoteBrigUsername   Step = "demote_brig_username"
	StepBrigAttachUsername   Step = "brig_attach_username"
	StepBrigDetachUsername   Step = "brig_detach_username"
	StepBrigBlockUsername    Step = "brig_block_username"
	StepBrigUnblockUsername  Step = "brig_unblock_username"
)

// Cancellation is intercepted at these steps: the required action (photo
// proof, flyer number) must be completed, not skipped.
func strictStep(s Step) bool {
	switch s {
	case StepDoorPhoto, StepMailboxPhoto, StepFlyerNumber:
		return true
	}
	return false
}

// Session is the per-identity conversation state spanning inbound events.
// Volatile: a process restart or TTL expiry loses the in-flight interview,
// which is accepted.
type Session struct {
	Step Step `json:"step"`

	// survey accumulator
	VisitID             string `json:"visit_id,omitempty"`
	AgentID             string `json:"agent_id,omitempty"`
	ContactID           string `json:"contact_id,omitempty"`
	FullName            string `json:"full_name,omitempty"`
	Phone               string `json:"phone,omitempty"`
	LotteryCode         string `json:"lottery_code,omitempty"`
	Additional          bool   `json:"additional,omitempty"`
	WebhookSent         bool   `json:"webhook_sent,omitempty"`
	LastClosedContactID string `json:"last_closed_contact_id,omitempty"`

	// admin/brigadier accumulator
	AdminLoginInput string `json:"admin_login_input,omitempty"`
	PendingUsername string `json:"pending_username,omitempty"` // brigadier picked in the attach flow
	ExportFormat    string `json:"export_format,omitempty"`    // "xlsx" | "csv"
}

// SessionStore keeps sessions in the KV, JSON-encoded, one key per chat id.
// The TTL is rolling: every save pushes expiry out again.
type SessionStore struct {
	kv  store.KV
	ttl time.Duration
}

func NewSessionStore(kv store.KV, ttl time.Duration) *SessionStore {
	return &SessionStore{kv: kv, ttl: ttl}
}

func sessionKey(chatID int64) string {
	return "session:" + strconv.FormatInt(chatID, 10)
}

// Get returns nil without error when no session exists.
func (s *SessionStore) Get(ctx context.Context, chatID int64) (*Session, error) {
	raw, err := s.kv.Get(ctx, sessionKey(chatID))
	if err != nil {
		if errors.Is(err, store.ErrMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		// A corrupt session is dropped rather than wedging the chat.
		_ = s.kv.Del(ctx, sessionKey(chatID))
		return nil, nil
	}
	return &sess, nil
}

func (s *SessionStore) Save(ctx context.Context, chatID int64, sess *Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.kv.Set(ctx, sessionKey(chatID), string(raw), s.ttl); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// ActiveSession is one in-flight conversation, for back-office inspection.
type ActiveSession struct {
	ChatID int64 `json:"chat_id"`
	Step   Step  `json:"step"`
}

// ListActive scans the live session keys and reports each chat's current
// step. Keys that expire or get cleared mid-scan are skipped.
func (s *SessionStore) ListActive(ctx context.Context) ([]ActiveSession, error) {
	keys, err := s.kv.ScanKeys(ctx, "session:*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	out := make([]ActiveSession, 0, len(keys))
	for _, key := range keys {
		chatID, err := strconv.ParseInt(strings.TrimPrefix(key, "session:"), 10, 64)
		if err != nil {
			continue
		}
		sess, err := s.Get(ctx, chatID)
		if err != nil {
			return nil, err
		}
		if sess == nil {
			continue
		}
		out = append(out, ActiveSession{ChatID: chatID, Step: sess.Step})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChatID < out[j].ChatID })
	return out, nil
}

func (s *SessionStore) Clear(ctx context.Context, chatID int64) error {
	if err := s.kv.Del(ctx, sessionKey(chatID)); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
