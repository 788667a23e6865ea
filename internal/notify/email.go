package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/diegojoyero/joyeria-backend/internal/checkout"
	"github.com/diegojoyero/joyeria-backend/pkg/config"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
	"github.com/diegojoyero/joyeria-backend/pkg/metrics"
)

const (
	defaultFailureMessage  = "No se pudo enviar la confirmación de pedido."
	responseReadLimit      = 64 << 10
	breakerConsecutiveFail = 5
)

type notificationRecorder interface {
	IncNotification(outcome string)
}

type payload struct {
	Template string                `json:"template"`
	Brand    string                `json:"brand"`
	Payload  checkout.OrderSummary `json:"payload"`
}

// EmailNotifier posts order confirmations to the mail endpoint.
type EmailNotifier struct {
	endpoint   string
	brand      string
	template   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[struct{}]
	metrics    notificationRecorder
	logg       *logger.Logger
}

// Option configures an EmailNotifier.
type Option func(*EmailNotifier)

// WithHTTPClient replaces the default client.
func WithHTTPClient(client *http.Client) Option {
	return func(n *EmailNotifier) {
		if client != nil {
			n.httpClient = client
		}
	}
}

// WithMetrics records one outcome per notification.
func WithMetrics(m notificationRecorder) Option {
	return func(n *EmailNotifier) { n.metrics = m }
}

// WithLogger sets the logger used for breaker transitions.
func WithLogger(logg *logger.Logger) Option {
	return func(n *EmailNotifier) { n.logg = logg }
}

// NewEmailNotifier builds the notifier. With no endpoint configured Notify is a no-op.
func NewEmailNotifier(cfg config.NotificationConfig, opts ...Option) *EmailNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	n := &EmailNotifier{
		endpoint:   strings.TrimSpace(cfg.Endpoint),
		brand:      cfg.Brand,
		template:   cfg.Template,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	n.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "order-notification",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerConsecutiveFail
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ctx := n.logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			n.logg.Warn(ctx, "notify.breaker_state_changed")
		},
	})
	return n
}

// Enabled reports whether an endpoint is configured.
func (n *EmailNotifier) Enabled() bool {
	return n != nil && n.endpoint != ""
}

// Notify sends the order summary. A non-2xx reply is an error carrying the
// reply text.
func (n *EmailNotifier) Notify(ctx context.Context, summary checkout.OrderSummary) error {
	if !n.Enabled() {
		n.record(metrics.OutcomeSkipped)
		return nil
	}

	body, err := json.Marshal(payload{Template: n.template, Brand: n.brand, Payload: summary})
	if err != nil {
		n.record(metrics.OutcomeFailure)
		return fmt.Errorf("encoding notification: %w", err)
	}

	_, err = n.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, n.post(ctx, body)
	})
	if err != nil {
		n.record(metrics.OutcomeFailure)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, defaultFailureMessage)
		}
		return err
	}
	n.record(metrics.OutcomeSuccess)
	return nil
}

func (n *EmailNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUpstream, err, defaultFailureMessage)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
		msg := strings.TrimSpace(string(text))
		if msg == "" {
			msg = defaultFailureMessage
		}
		return pkgerrors.New(pkgerrors.CodeUpstream, msg).WithStatus(http.StatusBadGateway)
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, responseReadLimit))
	return nil
}

func (n *EmailNotifier) record(outcome string) {
	if n == nil || n.metrics == nil {
		return
	}
	n.metrics.IncNotification(outcome)
}
