package cloudinary

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/diegojoyero/joyeria-backend/pkg/config"
	pkgerrors "github.com/diegojoyero/joyeria-backend/pkg/errors"
	"github.com/diegojoyero/joyeria-backend/pkg/logger"
	"github.com/diegojoyero/joyeria-backend/pkg/metrics"
)

const (
	defaultBaseURL         = "https://api.cloudinary.com/v1_1"
	defaultFolder          = "DiegoJoyero"
	responseReadLimit      = 64 * 1024
	breakerConsecutiveFail = 5
)

var errUnreachable = errors.New("cloudinary unreachable")

// Client talks to the image host for product photos.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cfg        config.CloudinaryConfig
	breaker    *gobreaker.CircuitBreaker[*rawResponse]
	metrics    *metrics.Storefront
	logg       *logger.Logger
	now        func() time.Time
	randomID   func() string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithMetrics records upload and destroy outcomes.
func WithMetrics(m *metrics.Storefront) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger attaches a logger for breaker state changes.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// WithClock overrides the time source used for signatures and public ids.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRandomID overrides the random chunk embedded in generated public ids.
func WithRandomID(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.randomID = fn
		}
	}
}

// NewClient builds the client. Missing credentials are reported when an
// operation needs them, not here.
func NewClient(cfg config.CloudinaryConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		cfg:        trimConfig(cfg),
		now:        time.Now,
		randomID:   randomChunk,
	}
	if base := strings.TrimSpace(cfg.APIBaseURL); base != "" {
		client.baseURL = base
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	client.breaker = gobreaker.NewCircuitBreaker[*rawResponse](gobreaker.Settings{
		Name:        "cloudinary",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerConsecutiveFail
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ctx := client.logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			client.logg.Warn(ctx, "cloudinary.breaker_state_changed")
		},
	})
	return client
}

// Configured reports whether unsigned uploads are possible.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.UploadConfigured()
}

// BaseFolder returns the configured root folder, defaulting to DiegoJoyero.
func (c *Client) BaseFolder() string {
	if c == nil {
		return defaultFolder
	}
	folder := strings.Trim(strings.ReplaceAll(c.cfg.BaseFolder, "\\", "/"), "/")
	if folder == "" {
		return defaultFolder
	}
	return folder
}

type rawResponse struct {
	status int
	body   []byte
}

func (r *rawResponse) ok() bool {
	return r.status >= 200 && r.status < 300
}

// send executes the request through the breaker. Only transport failures trip it.
func (c *Client) send(req *http.Request) (*rawResponse, error) {
	return c.breaker.Execute(func() (*rawResponse, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errUnreachable, err)
		}
		defer func() { _ = resp.Body.Close() }()
		body, err := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
		if err != nil {
			return nil, fmt.Errorf("%w: reading body: %v", errUnreachable, err)
		}
		return &rawResponse{status: resp.StatusCode, body: body}, nil
	})
}

func (c *Client) endpoint(action string) string {
	return fmt.Sprintf("%s/%s/image/%s", strings.TrimRight(c.baseURL, "/"), c.cfg.CloudName, action)
}

func (c *Client) record(operation string, err error) {
	if c == nil {
		return
	}
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeFailure
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
			outcome = metrics.OutcomeRejected
		}
	}
	c.metrics.IncImageOperation(operation, outcome)
}

func newFormRequest(ctx context.Context, url string, body *bytes.Buffer, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func trimConfig(cfg config.CloudinaryConfig) config.CloudinaryConfig {
	cfg.CloudName = strings.TrimSpace(cfg.CloudName)
	cfg.UploadPreset = strings.TrimSpace(cfg.UploadPreset)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.APISecret = strings.TrimSpace(cfg.APISecret)
	cfg.BaseFolder = strings.TrimSpace(cfg.BaseFolder)
	return cfg
}
