package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/medinsight/staff-admin/internal/config"
	"github.com/medinsight/staff-admin/internal/events"
)

// Enqueuer schedules run in the background and reports whether it was accepted.
type Enqueuer func(name string, run func(context.Context) error) bool

// NotificationService turns staff events into outbound notifications: the
// initial-credentials email for new local accounts and a webhook per event.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	httpClient *http.Client
}

func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// RegisterHandlers subscribes to every staff event. Deliveries go through
// enqueue; a nil enqueue delivers inline.
func (n *NotificationService) RegisterHandlers(enqueue Enqueuer) {
	if n.dispatcher == nil {
		return
	}
	if enqueue == nil {
		enqueue = func(_ string, run func(context.Context) error) bool {
			if err := run(context.Background()); err != nil {
				n.logger.Warn("notification delivery failed", zap.Error(err))
			}
			return true
		}
	}
	handle := func(_ context.Context, event events.Event) error {
		n.logger.Info("staff event",
			zap.String("event_type", string(event.Type)),
			zap.Int64("staff_id", event.StaffID),
			zap.String("actor", event.Actor.Username))

		if p, ok := event.Payload.(events.StaffCreatedPayload); ok && p.InitialPassword != "" {
			n.sendCredentialsEmail(event, p)
		}
		if strings.TrimSpace(n.cfg.WebhookURL) != "" {
			if !enqueue("webhook:"+string(event.Type), func(ctx context.Context) error {
				return n.postWebhook(ctx, event)
			}) {
				n.logger.Warn("webhook delivery dropped", zap.String("event_id", event.ID))
			}
		}
		return nil
	}
	for _, t := range []events.EventType{events.EventStaffCreated, events.EventStaffUpdated, events.EventStaffDeleted} {
		n.dispatcher.Subscribe(t, handle)
	}
}

// sendCredentialsEmail is logged only: no mail transport is configured.
// The password itself never reaches the log.
func (n *NotificationService) sendCredentialsEmail(event events.Event, p events.StaffCreatedPayload) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || p.Email == "" {
		return
	}
	n.logger.Info("initial credentials email queued",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", p.Email),
		zap.String("account_id", p.AccountID),
		zap.Int64("staff_id", event.StaffID))
}

func (n *NotificationService) postWebhook(ctx context.Context, event events.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", string(event.Type))
	req.Header.Set("X-Event-Id", event.ID)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	n.logger.Debug("webhook delivered", zap.String("event_id", event.ID), zap.Int("status", resp.StatusCode))
	return nil
}
