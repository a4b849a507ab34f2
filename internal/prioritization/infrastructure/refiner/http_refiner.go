// Package refiner calls a remote analysis service to improve locally computed results.
package refiner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/application/services"
	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const maxResponseBytes = 1 << 20

// Config configures the HTTP refiner.
type Config struct {
	// Endpoint receives POST requests with the task and local result.
	Endpoint string

	// APIKey is sent as a bearer token when client credentials are not configured.
	APIKey string

	// ClientID, ClientSecret and TokenURL enable the OAuth2 client credentials flow.
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string

	// Timeout bounds a single HTTP call.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32

	// OpenTimeout is how long the breaker stays open.
	OpenTimeout time.Duration
}

// DefaultConfig returns the breaker and timeout defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      60 * time.Second,
	}
}

type refineRequest struct {
	Input  domain.TaskInput      `json:"input"`
	Result domain.PriorityResult `json:"result"`
}

// HTTPRefiner implements services.Refiner over HTTP with a circuit breaker.
type HTTPRefiner struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[services.Refinement]
	logger   *slog.Logger
}

// NewHTTPRefiner creates a refiner for cfg.Endpoint.
func NewHTTPRefiner(cfg Config, logger *slog.Logger) (*HTTPRefiner, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("refiner endpoint is required")
	}
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = defaults.FailureThreshold
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaults.OpenTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &HTTPRefiner{
		endpoint: cfg.Endpoint,
		client:   newHTTPClient(cfg),
		logger:   logger,
	}
	r.breaker = gobreaker.NewCircuitBreaker[services.Refinement](gobreaker.Settings{
		Name:    "refiner",
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
	return r, nil
}

func newHTTPClient(cfg Config) *http.Client {
	ctx := context.Background()
	var client *http.Client
	switch {
	case cfg.ClientID != "" && cfg.TokenURL != "":
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		client = cc.Client(ctx)
	case cfg.APIKey != "":
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey}))
	default:
		client = &http.Client{}
	}
	client.Timeout = cfg.Timeout
	return client
}

// Refine sends the task and the local result to the remote service.
func (r *HTTPRefiner) Refine(ctx context.Context, input domain.TaskInput, local domain.PriorityResult) (services.Refinement, error) {
	ctx, span := otel.Tracer("prioritiai/refiner").Start(ctx, "refiner.refine")
	defer span.End()
	span.SetAttributes(
		attribute.String("request_id", input.ID),
		attribute.String("urgency_level", string(local.UrgencyLevel)),
	)

	ref, err := r.breaker.Execute(func() (services.Refinement, error) {
		return r.call(ctx, input, local)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Debug("refiner call failed",
			slog.String("request_id", input.ID),
			slog.String("error", err.Error()),
		)
		return services.Refinement{}, fmt.Errorf("%w: %w", services.ErrRefinerUnavailable, err)
	}
	return ref, nil
}

func (r *HTTPRefiner) call(ctx context.Context, input domain.TaskInput, local domain.PriorityResult) (services.Refinement, error) {
	body, err := json.Marshal(refineRequest{Input: input, Result: local})
	if err != nil {
		return services.Refinement{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return services.Refinement{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return services.Refinement{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return services.Refinement{}, fmt.Errorf("refiner returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var ref services.Refinement
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&ref); err != nil {
		return services.Refinement{}, fmt.Errorf("failed to decode refinement: %w", err)
	}
	return ref, nil
}
