package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/sipadu-ai/evidence-service/pkg/circuitbreaker"
	"github.com/sipadu-ai/evidence-service/pkg/logger"
	"github.com/sipadu-ai/evidence-service/pkg/retry"
)

// ErrInvalidToken means SIPADU rejected the token. Not retryable.
var ErrInvalidToken = errors.New("invalid session token")

type UserInfo struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Validator checks SSO tokens against the SIPADU dashboard API.
type Validator struct {
	httpClient  *http.Client
	apiBase     string
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewValidator(apiBase string, timeout time.Duration) *Validator {
	cb := circuitbreaker.NewCircuitBreaker("sipadu", circuitbreaker.Config{
		MaxRequests:      5,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Retryable: func(err error) bool {
			return !errors.Is(err, ErrInvalidToken)
		},
		Logger: logger.GetLogger(),
	}

	logger.Info("SIPADU validator initialized", zap.String("api_base", apiBase))

	return &Validator{
		httpClient:  &http.Client{Timeout: timeout},
		apiBase:     apiBase,
		cb:          cb,
		retryConfig: retryConfig,
	}
}

// Validate resolves a token to its SIPADU user. Transport failures are
// retried with backoff; a rejected token returns ErrInvalidToken straight
// away.
func (v *Validator) Validate(ctx context.Context, token string) (*UserInfo, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	return retry.DoWithResult(ctx, v.retryConfig, func() (*UserInfo, error) {
		var user *UserInfo
		err := v.cb.Execute(ctx, func() error {
			var err error
			user, err = v.validateOnce(ctx, token)
			return err
		})
		return user, err
	})
}

func (v *Validator) validateOnce(ctx context.Context, token string) (*UserInfo, error) {
	endpoint := fmt.Sprintf("%s/api/validate-token?%s", v.apiBase,
		url.Values{"token": {token}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build validation request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("validation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("SIPADU returned status %d", resp.StatusCode)
	}

	var body struct {
		Success bool     `json:"success"`
		User    UserInfo `json:"user"`
		Message string   `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode validation response: %w", err)
	}

	if !body.Success {
		logger.Warn("Token validation rejected", zap.String("message", body.Message))
		return nil, ErrInvalidToken
	}

	logger.Info("Token validated", zap.String("username", body.User.Username))
	return &body.User, nil
}
