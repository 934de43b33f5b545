package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"canvass-data/internal/domain"
	"canvass-data/internal/repository"

	"go.uber.org/zap"
)

// Event is one inbound chat message, already stripped of transport detail.
// ContactPhone is set when the user shared a contact card instead of typing
// the number.
type Event struct {
	ChatID   int64  `json:"chat_id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`

	Text            string `json:"text,omitempty"`
	HasPhoto        bool   `json:"has_photo,omitempty"`
	IsImageDocument bool   `json:"is_image_document,omitempty"`
	ContactPhone    string `json:"contact_phone,omitempty"`
}

// Document is a file attached to a reply (an export spreadsheet).
type Document struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
	Caption  string `json:"caption,omitempty"`
}

// Reply is what the transport renders back: one or more messages, an
// optional reply keyboard (rows of button texts) and optional attachments.
type Reply struct {
	Messages       []string   `json:"messages"`
	Options        [][]string `json:"options,omitempty"`
	RemoveKeyboard bool       `json:"remove_keyboard,omitempty"`
	Documents      []*Document `json:"documents,omitempty"`
}

func reply(kb [][]string, messages ...string) *Reply {
	return &Reply{Messages: messages, Options: kb}
}

func replyBare(messages ...string) *Reply {
	return &Reply{Messages: messages, RemoveKeyboard: true}
}

// SurveyService is the conversation engine: it owns session transitions and
// calls out to the repositories, the allocator, the lottery sink and the
// report renderers. One call per inbound event.
type SurveyService struct {
	sessions   *SessionStore
	agents     repository.AgentsRepository
	canvass    repository.CanvassRepository
	membership *MembershipService
	allocator  *FlyerAllocator
	lottery    LotteryNotifier
	reports    *ReportService
	logger     *zap.Logger
}

func NewSurveyService(
	sessions *SessionStore,
	agents repository.AgentsRepository,
	canvass repository.CanvassRepository,
	membership *MembershipService,
	allocator *FlyerAllocator,
	lottery LotteryNotifier,
	reports *ReportService,
	logger *zap.Logger,
) *SurveyService {
	return &SurveyService{
		sessions:   sessions,
		agents:     agents,
		canvass:    canvass,
		membership: membership,
		allocator:  allocator,
		lottery:    lottery,
		reports:    reports,
		logger:     logger,
	}
}

const (
	msgBlocked        = "⛔️ Доступ ограничен. Обратитесь к бригадиру."
	msgCancelled      = "Отменено."
	msgStrictCancel   = "Этот шаг нельзя пропустить."
	msgNeedDoorPhoto  = "Прикрепите фото подъезда или двери, чтобы начать опрос."
	msgNeedMailPhoto  = "Прикрепите фото почтового ящика с флаером."
	msgAskFullName    = "Введите ФИО избирателя: Фамилия Имя Отчество (кириллицей)."
	msgBadFullName    = "Не понял. Нужно ровно три слова кириллицей, например: Иванов Иван Иванович."
	msgAskPhone       = "Отправьте номер телефона избирателя (текстом или контактом)."
	msgBadPhone       = "Не похоже на российский номер. Примеры: 89991234567, +7 999 123-45-67."
	msgAskRepeat      = "Это первичное или повторное касание?"
	msgAskStatus      = "Каков итог общения?"
	msgAskFlyerMethod = "Как передан флаер?"
	msgAskHomeVoting  = "Избиратель просит голосование на дому?"
	msgContactClosed  = "Запись по избирателю сохранена."
	msgFinishChoice   = "Что дальше?"
	msgVisitClosed    = "Обход завершён. Спасибо!"
	msgUseButtons     = "Пожалуйста, выберите вариант кнопкой."
)

// HandleEvent routes one inbound event. The rule is simple: an active
// session step wins; otherwise the text is matched against menu commands.
// Cancel is honored everywhere except the strict steps.
func (s *SurveyService) HandleEvent(ctx context.Context, ev Event) (*Reply, error) {
	agent, err := s.agents.GetOrCreateAgent(ctx, ev.ChatID, ev.Name, ev.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve agent: %w", err)
	}

	sess, err := s.sessions.Get(ctx, ev.ChatID)
	if err != nil {
		return nil, err
	}

	if sess != nil && sess.Step != "" {
		if ev.Text == BtnCancel {
			if strictStep(sess.Step) {
				return reply(nil, msgStrictCancel, s.strictPrompt(sess.Step)), nil
			}
			if err := s.sessions.Clear(ctx, ev.ChatID); err != nil {
				return nil, err
			}
			return s.mainMenu(ctx, agent, msgCancelled)
		}
		return s.handleStep(ctx, agent, sess, ev)
	}

	return s.handleMenu(ctx, agent, ev)
}

func (s *SurveyService) strictPrompt(step Step) string {
	switch step {
	case StepDoorPhoto:
		return msgNeedDoorPhoto
	case StepMailboxPhoto:
		return msgNeedMailPhoto
	case StepFlyerNumber:
		return "Введите номер флаера числом от 1 до 60000."
	}
	return msgUseButtons
}

func (s *SurveyService) handleStep(ctx context.Context, agent *domain.Agent, sess *Session, ev Event) (*Reply, error) {
	switch sess.Step {
	case StepDoorPhoto:
		return s.stepDoorPhoto(ctx, agent, sess, ev)
	case StepFullName:
		return s.stepFullName(ctx, sess, ev)
	case StepPhone:
		return s.stepPhone(ctx, sess, ev)
	case StepRepeatTouch:
		return s.stepRepeatTouch(ctx, sess, ev)
	case StepTalkStatus:
		return s.stepTalkStatus(ctx, sess, ev)
	case StepFlyerMethod:
		return s.stepFlyerMethod(ctx, sess, ev)
	case StepMailboxPhoto:
		return s.stepMailboxPhoto(ctx, sess, ev)
	case StepFlyerNumber:
		return s.stepFlyerNumber(ctx, sess, ev)
	case StepHomeVoting:
		return s.stepHomeVoting(ctx, sess, ev)
	case StepFinishChoice:
		return s.stepFinishChoice(ctx, agent, sess, ev)

	case StepAdminLogin, StepAdminPassword:
		return s.stepAdminAuth(ctx, agent, sess, ev)

	case StepAdminExportRange, StepAdminStatsRange, StepAgentExportRange,
		StepBrigStatsRange, StepBrigExportRange:
		return s.stepRange(ctx, agent, sess, ev)

	case StepAddBrigUsername, StepAttachBrigUsername, StepAttachMemberUsername,
		StepDemoteBrigUsername, StepBrigAttachUsername, StepBrigDetachUsername,
		StepBrigBlockUsername, StepBrigUnblockUsername:
		return s.stepUsername(ctx, agent, sess, ev)
	}

	// Unknown step tag (older session format): drop it and re-show the menu.
	if err := s.sessions.Clear(ctx, ev.ChatID); err != nil {
		return nil, err
	}
	return s.mainMenu(ctx, agent, "")
}

// startSurvey begins the interview at the door-photo gate. The visit record
// is created only once the photo arrives.
func (s *SurveyService) startSurvey(ctx context.Context, agent *domain.Agent) (*Reply, error) {
	blocked, err := s.membership.IsBlocked(ctx, agent.ChatID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return replyBare(msgBlocked), nil
	}
	sess := &Session{Step: StepDoorPhoto, AgentID: agent.AgentID}
	if err := s.sessions.Save(ctx, agent.ChatID, sess); err != nil {
		return nil, err
	}
	return replyBare(msgNeedDoorPhoto), nil
}

func (s *SurveyService) stepDoorPhoto(ctx context.Context, agent *domain.Agent, sess *Session, ev Event) (*Reply, error) {
	if !ev.HasPhoto && !ev.IsImageDocument {
		return replyBare(msgNeedDoorPhoto), nil
	}
	visit, err := s.canvass.CreateVisit(ctx, agent.AgentID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create visit: %w", err)
	}
	sess.VisitID = visit.VisitID
	sess.Step = StepFullName
	if err := s.sessions.Save(ctx, ev.ChatID, sess); err != nil {
		return nil, err
	}
	return reply(kbCancel(), "Фото принято, обход начат.", msgAskFullName), nil
}

func (s *SurveyService) stepFullName(ctx context.Context, sess *Session, ev Event) (*Reply, error) {
	name, ok := domain.ParseFullName(ev.Text)
	if !ok {
		return reply(kbCancel(), msgBadFullName), nil
	}
	sess.FullName = name
	sess.Step = StepPhone
	if err := s.sessions.Save(ctx, ev.ChatID, sess); err != nil {
		return nil, err
	}
	return reply(kbCancel(), msgAskPhone), nil
}

func (s *SurveyService) stepPhone(ctx context.Context, sess *Session, ev Event) (*Reply, error) {
	raw := ev.ContactPhone
	if raw == "" {
		raw = ev.Text
	}
	phone := domain.NormalizePhone(raw)
	if phone == "" {
		return reply(kbCancel(), msgBadPhone), nil
	}

	// Point of persistence: the contact exists from here on, already
	// carrying the door-photo proof flag.
	contact, err := s.canvass.CreateContact(ctx, sess.VisitID, sess.AgentID, sess.FullName, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	doorPhoto := true
	if err := s.canvass.UpdateContact(ctx, contact.ContactID, repository.ContactUpdate{DoorPhoto: &doorPhoto}); err != nil {
		return nil, fmt.Errorf("failed to flag door photo: %w", err)
	}

	sess.ContactID = contact.ContactID
	sess.Phone = phone
	sess.LotteryCode = ""
	sess.WebhookSent = false

	// Voters added via "add more" skip repeat touch and talk status.
	if sess.Additional {
		sess.Step = StepFlyerMethod
		if err := s.sessions.Save(ctx, ev.ChatID, sess); err != nil {
			return nil, err
		}
		return reply(kbFlyerMethod(), msgAskFlyerMethod), nil
	}
	sess.Step = StepRepeatTouch
	if err := s.sessions.Save(ctx, ev.ChatID, sess); err != nil {
		return nil, err
	}
	return reply(kbRepeatTouch(), msgAskRepeat), nil
}

func (s *SurveyService) stepRepeatTouch(ctx context.Context, sess *Session, ev Event) (*Reply, error) {
	var touch domain.RepeatTouch
	switch ev.Text {
	case BtnPrimary:
		touch = domain.RepeatPrimary
	case BtnSecondary:
		touch = domain.RepeatSecondary
	default:
		return reply(kbRepeatTouch(), msgUseButtons), nil
	}
	if err := s.canvass.UpdateContact(ctx, sess.ContactID, repository.ContactUpdate{RepeatTouch: &touch}); err != nil {
		return nil, fmt.Errorf("failed to save repeat touch: %w", err)
	}
	sess.Step = StepTalkStatus
	if err := s.sessions.Save(ctx, ev.ChatID, sess); err != nil {
		return nil, err
	}
	return reply(kbStatus(), msgAskStatus), nil
}

func (s *SurveyService) stepTalkStatus(ctx context.Context, sess *Session, ev Event) (*Reply, error) {
	var status domain.TalkStatus
	switch ev.Text {
	case BtnNoOne:
		status = domain.TalkNoOne
	case BtnRefusal:
		status = domain.TalkRefusal
	case BtnConsent:
		status = domain.TalkConsent
	default:
		return reply(kbStatus(), msgUseButtons), nil
	}
	if err := s.canvass.UpdateContact(ctx, sess.ContactID, repository.ContactUpdate{TalkStatus: &status}); err != nil {
		return nil, fmt.Errorf("failed to save talk status: %w", err)
	}

	// No one home on a primary touch ends the interview right here.
	if status == domain.TalkNoOne {
		contact, err := s.canvass.GetContact(ctx, sess.ContactID)
		if err != nil {
			return nil, fmt.Errorf("failed to load contact: %w", err)
		}
		if contact.RepeatTouch != nil && *contact.RepeatTouch == domain.RepeatPrimary {
			return s.closeContact(ctx, sess, ev.ChatID, nil)
		}
	}
	sess.Step = StepFlyerMethod
	if err := s.sessions.Save(ctx, ev.ChatID, sess); err != nil {
		return nil, err
	}
	return reply(kbFlyerMethod(), msgAskFlyerMethod), nil
}

func (s *SurveyService) stepFlyerMethod(ctx context.Context, sess *Session, ev Event) (*Reply, error) {
	var method domain.FlyerMethod
	switch ev.Text {
	case BtnHand:
		method = domain.FlyerHand
	case BtnMailbox:
		method = domain.FlyerMailbox
	case BtnNo:
		method = domain.FlyerNone
	default:
		return reply(kbFlyerMethod(), msgUseButtons), nil
	}
	if err := s.canvass.UpdateContact(ctx, sess.ContactID, repository.ContactUpdate{FlyerMethod: &method}); err != nil {
		return nil, fmt.Errorf("failed to save flyer method: %w", err)
	}
	switch method {
	case domain.FlyerMailbox:
		sess.Step = StepMailboxPhoto
		if err := s.sessions.Save(ctx, ev.ChatID, sess); err != nil {
			return nil, err
		}
		return replyBare(msgNeedMailPhoto), nil
	case domain.FlyerNone:
		sess.Step = StepHomeVoting
		if err := s.sessions.Save(ctx, ev.ChatID, sess); err != nil {
			return nil, err
		}
		return reply(kbYesNo(), msgAskHomeVoting), nil
	}
	return s.toFlyerNumber(ctx, sess, ev.ChatID)
}

func (s *SurveyService) stepMailboxPhoto(ctx context.Context, sess *Session, ev Event) (*Reply, error) {
	if !ev.HasPhoto && !ev.IsImageDocument {
		return replyBare(msgNeedMailPhoto), nil
	}
	mailboxPhoto := true
	if err := s.canvass.UpdateContact(ctx, sess.ContactID, repository.ContactUpdate{MailboxPhoto: &mailboxPhoto}); err != nil {
		return nil, fmt.Errorf("failed to flag mailbox photo: %w", err)
	}
	return s.toFlyerNumber(ctx, sess, ev.ChatID)
}

func (s *SurveyService) toFlyerNumber(ctx context.Context, sess *Session, chatID int64) (*Reply, error) {
	sess.Step = StepFlyerNumber
	if err := s.sessions.Save(ctx, chatID, sess); err != nil {
		return nil, err
	}
	prompt := "Введите номер флаера (число от 1 до 60000)."
	if next, err := s.allocator.Next(ctx); err == nil {
		prompt = fmt.Sprintf("Введите номер флаера (число от 1 до 60000). Свободный номер: %d.", next)
	}
	return replyBare(prompt), nil
}

func (s *SurveyService) stepFlyerNumber(ctx context.Context, sess *Session, ev Event) (*Reply, error) {
	num, ok := parseFlyerValue(ev.Text)
	if !ok || num < FlyerMin || num > FlyerMax {
		return replyBare(fmt.Sprintf("Номер должен быть целым числом от %d до %d. Попробуйте ещё раз.", FlyerMin, FlyerMax)), nil
	}
	used, err := s.allocator.Exists(ctx, num)
	if err != nil {
		return nil, fmt.Errorf("failed to check flyer number: %w", err)
	}
	if used {
		return s.flyerRetryPrompt(ctx, num)
	}

	value := strconv.Itoa(num)
	err = s.canvass.UpdateContact(ctx, sess.ContactID, repository.ContactUpdate{FlyerNumber: &value})
	if err != nil {
		// Lost the check-then-write race; the unique index caught it.
		if errors.Is(err, repository.ErrDuplicateFlyerNumber) {
			return s.flyerRetryPrompt(ctx, num)
		}
		return nil, fmt.Errorf("failed to save flyer number: %w", err)
	}

	sess.LotteryCode = value
	sess.Step = StepHomeVoting
	if err := s.sessions.Save(ctx, ev.ChatID, sess); err != nil {
		return nil, err
	}
	return reply(kbYesNo(), fmt.Sprintf("Номер %d принят.", num), msgAskHomeVoting), nil
}

func (s *SurveyService) flyerRetryPrompt(ctx context.Context, num int) (*Reply, error) {
	msg := fmt.Sprintf("Номер %d уже использован. Введите другой.", num)
	if next, err := s.allocator.Next(ctx); err == nil {
		msg = fmt.Sprintf("Номер %d уже использован. Свободный номер: %d.", num, next)
	}
	return replyBare(msg), nil
}

func (s *SurveyService) stepHomeVoting(ctx context.Context, sess *Session, ev Event) (*Reply, error) {
	var votingAtHome bool
	switch ev.Text {
	case BtnYes:
		votingAtHome = true
	case BtnNot:
		votingAtHome = false
	default:
		return reply(kbYesNo(), msgUseButtons), nil
	}
	return s.closeContact(ctx, sess, ev.ChatID, &votingAtHome)
}

// closeContact finishes one interview: fires the lottery notification at
// most once, stamps home voting when answered, closes the record and moves
// to the finish choice. Notification failure never blocks the close.
func (s *SurveyService) closeContact(ctx context.Context, sess *Session, chatID int64, votingAtHome *bool) (*Reply, error) {
	var warnings []string
	if votingAtHome != nil {
		if !sess.WebhookSent && sess.Phone != "" {
			// Persist the guard first so a failed contact update and the
			// user's retry cannot fire the notification a second time.
			sess.WebhookSent = true
			if err := s.sessions.Save(ctx, chatID, sess); err != nil {
				return nil, err
			}
			result := s.lottery.SendCode(ctx, sess.Phone, sess.LotteryCode, *votingAtHome)
			if !result.OK {
				warnings = append(warnings, "⚠️ Не удалось уведомить лотерею: "+result.Message)
			}
		}
		if err := s.canvass.UpdateContact(ctx, sess.ContactID, repository.ContactUpdate{HomeVoting: votingAtHome}); err != nil {
			return nil, fmt.Errorf("failed to save home voting: %w", err)
		}
	}
	if err := s.canvass.CloseContact(ctx, sess.ContactID); err != nil {
		return nil, fmt.Errorf("failed to close contact: %w", err)
	}

	sess.LastClosedContactID = sess.ContactID
	sess.ContactID = ""
	sess.FullName = ""
	sess.Phone = ""
	sess.LotteryCode = ""
	sess.WebhookSent = false
	sess.Step = StepFinishChoice
	if err := s.sessions.Save(ctx, chatID, sess); err != nil {
		return nil, err
	}
	messages := append([]string{msgContactClosed}, warnings...)
	messages = append(messages, msgFinishChoice)
	return reply(kbFinishOrAdd(), messages...), nil
}

func (s *SurveyService) stepFinishChoice(ctx context.Context, agent *domain.Agent, sess *Session, ev Event) (*Reply, error) {
	switch ev.Text {
	case BtnFinish:
		if err := s.canvass.CloseVisit(ctx, sess.VisitID); err != nil {
			return nil, fmt.Errorf("failed to close visit: %w", err)
		}
		if err := s.sessions.Clear(ctx, ev.ChatID); err != nil {
			return nil, err
		}
		return s.mainMenu(ctx, agent, msgVisitClosed)

	case BtnAddMore:
		next := &Session{
			Step:       StepFullName,
			VisitID:    sess.VisitID,
			AgentID:    sess.AgentID,
			Additional: true,
		}
		if err := s.sessions.Save(ctx, ev.ChatID, next); err != nil {
			return nil, err
		}
		return reply(kbCancel(), msgAskFullName), nil

	case BtnMainMenu:
		// The visit stays open on purpose: reporting keys off contacts.
		if err := s.sessions.Clear(ctx, ev.ChatID); err != nil {
			return nil, err
		}
		return s.mainMenu(ctx, agent, "")
	}
	return reply(kbFinishOrAdd(), msgUseButtons), nil
}
