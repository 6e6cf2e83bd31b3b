package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/spec-kit/cover-rota/internal/config"
	"github.com/spec-kit/cover-rota/internal/events"
)

// DefaultWebhookTimeout bounds one webhook post so a slow Slack does not hold up the request
// that published the event.
const DefaultWebhookTimeout = 3 * time.Second

// WebhookPoster delivers a message to an incoming webhook.
type WebhookPoster func(ctx context.Context, url string, msg *slack.WebhookMessage) error

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	post       WebhookPoster
	timeout    time.Duration
}

// NewNotificationService creates the service. Messages go to the Slack webhook when one is
// configured and are logged either way.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     loggerOrNop(logger),
		cfg:        cfg,
		post:       slack.PostWebhookContext,
		timeout:    DefaultWebhookTimeout,
	}
}

// WithPoster replaces the webhook transport.
func (n *NotificationService) WithPoster(post WebhookPoster) *NotificationService {
	n.post = post
	return n
}

// WithTimeout changes the per-post deadline.
func (n *NotificationService) WithTimeout(d time.Duration) *NotificationService {
	n.timeout = d
	return n
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAbsenceLogged, n.handleAbsenceLogged)
	n.dispatcher.Subscribe(events.EventCoverAssigned, n.handleCoverAssigned)
	n.dispatcher.Subscribe(events.EventCoverUnassigned, n.handleCoverUnassigned)
}

func (n *NotificationService) handleAbsenceLogged(ctx context.Context, event events.Event) error {
	n.logger.Info("AbsenceLogged", zap.Int64("absence_id", event.AbsenceID), zap.Any("payload", event.Payload))
	payload, ok := event.Payload.(events.AbsenceLoggedPayload)
	if !ok {
		return nil
	}
	verb := "is absent"
	if payload.Updated {
		verb = "absence updated"
	}
	return n.sendWebhook(ctx, event, fmt.Sprintf(":calendar: %s %s on %s, periods %d-%d",
		payload.StaffName, verb, payload.Date, payload.StartPeriod, payload.EndPeriod))
}

func (n *NotificationService) handleCoverAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("CoverAssigned", zap.Int64("absence_id", event.AbsenceID), zap.Any("payload", event.Payload))
	payload, ok := event.Payload.(events.CoverAssignedPayload)
	if !ok {
		return nil
	}
	periods := make([]string, 0, len(payload.Periods))
	for _, p := range payload.Periods {
		periods = append(periods, fmt.Sprint(p))
	}
	return n.sendWebhook(ctx, event, fmt.Sprintf(":white_check_mark: %s covers %s on %s, periods %s",
		payload.CoveringName, payload.AbsentName, payload.Date, strings.Join(periods, ", ")))
}

func (n *NotificationService) handleCoverUnassigned(ctx context.Context, event events.Event) error {
	n.logger.Info("CoverUnassigned", zap.Int64("absence_id", event.AbsenceID), zap.Any("payload", event.Payload))
	payload, ok := event.Payload.(events.CoverUnassignedPayload)
	if !ok {
		return nil
	}
	return n.sendWebhook(ctx, event, fmt.Sprintf(":warning: period %d for %s on %s needs cover again",
		payload.Period, payload.AbsentName, payload.Date))
}

func (n *NotificationService) sendWebhook(ctx context.Context, event events.Event, text string) error {
	url := strings.TrimSpace(n.cfg.SlackWebhookURL)
	if url == "" {
		return nil
	}
	postCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	if err := n.post(postCtx, url, &slack.WebhookMessage{Text: text}); err != nil {
		n.logger.Warn("slack webhook failed",
			zap.Int64("absence_id", event.AbsenceID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	n.logger.Debug("slack webhook sent",
		zap.Int64("absence_id", event.AbsenceID),
		zap.String("event_type", string(event.Type)))
	return nil
}
