package service

import (
	"context"
	"fmt"
	"strings"

	"canvass-data/internal/config"
	"canvass-data/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// NotifyResult is the structured outcome of a lottery notification.
// Failure is data, not an error: the interview closes either way and the
// message is rendered to the agent as a soft warning.
type NotifyResult struct {
	OK      bool
	Message string
}

// LotteryNotifier posts an interview outcome to the external lottery system.
type LotteryNotifier interface {
	SendCode(ctx context.Context, rawPhone, code string, votingAtHome bool) NotifyResult
}

type lotteryPayload struct {
	Phone        string `json:"phone"`
	Code         string `json:"code"`
	VotingAtHome bool   `json:"voting_at_home"`
}

// LotteryClient is the HTTP implementation of LotteryNotifier.
type LotteryClient struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

func NewLotteryClient(cfg config.LotteryConfig, logger *zap.Logger) *LotteryClient {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	return &LotteryClient{
		httpClient: client,
		url:        cfg.URL,
		logger:     logger,
	}
}

var _ LotteryNotifier = (*LotteryClient)(nil)

// SendCode normalizes the phone, then performs a single POST. Best-effort:
// no retries, every failure path comes back as a NotifyResult.
func (c *LotteryClient) SendCode(ctx context.Context, rawPhone, code string, votingAtHome bool) NotifyResult {
	e164 := domain.NormalizePhone(rawPhone)
	if e164 == "" {
		return NotifyResult{Message: fmt.Sprintf("lottery: phone is empty or invalid after normalization (raw=%q)", rawPhone)}
	}
	phone10 := domain.PhoneForAPI(e164)
	if phone10 == "" {
		return NotifyResult{Message: "lottery: cannot build 10-digit phone for API"}
	}

	payload := lotteryPayload{
		Phone:        phone10,
		Code:         strings.TrimSpace(code),
		VotingAtHome: votingAtHome,
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(payload).
		Post(c.url)
	if err != nil {
		c.logger.Warn("lottery notification failed",
			zap.Error(err),
		)
		return NotifyResult{Message: fmt.Sprintf("lottery: %v", err)}
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		c.logger.Warn("lottery notification rejected",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		return NotifyResult{Message: fmt.Sprintf("lottery: HTTP %d: %s", resp.StatusCode(), resp.String())}
	}

	c.logger.Info("lottery notification sent",
		zap.String("code", payload.Code),
		zap.Bool("voting_at_home", votingAtHome),
	)
	return NotifyResult{OK: true, Message: "lottery: ok"}
}
