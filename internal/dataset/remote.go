package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jpillora/backoff"

	"mechdash/internal"
	"mechdash/internal/config"
)

const remoteMaxAttempts = 5

// Remote fetches the dataset as JSON from an HTTP endpoint.
type Remote struct {
	url        string
	token      string
	httpClient *http.Client
	limiter    *RateLimiter
}

func NewRemote(cfg config.Config) *Remote {
	return &Remote{
		url:        cfg.DatasetURL,
		token:      cfg.DatasetToken,
		httpClient: &http.Client{Timeout: time.Duration(cfg.DatasetTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.DatasetRateLimitRPS),
	}
}

func (s *Remote) Name() string { return KindRemote + ":" + s.url }

func (s *Remote) Load(ctx context.Context) ([]internal.RawRecord, error) {
	body, err := s.fetch(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	rows, err := DecodeRecords(body)
	if err != nil {
		return nil, unavailable("decode remote dataset: %v", err)
	}
	return rows, nil
}

func (s *Remote) fetch(ctx context.Context) ([]byte, error) {
	retry := &backoff.Backoff{Min: 250 * time.Millisecond, Max: 4 * time.Second, Factor: 2, Jitter: true}
	var lastErr error
	for attempt := 1; attempt <= remoteMaxAttempts; attempt++ {
		if err := s.limiter.WaitTurn(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(s.token) != "" {
			req.Header.Set("Authorization", "Bearer "+s.token)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if isRetryableStatus(resp.StatusCode) && attempt < remoteMaxAttempts {
				lastErr = fmt.Errorf("dataset endpoint status %d", resp.StatusCode)
				if err := sleepContext(ctx, retry.Duration()); err != nil {
					return nil, err
				}
				continue
			}
			return nil, fmt.Errorf("dataset endpoint error: status=%d body=%s", resp.StatusCode, truncate(string(body), 200))
		}
		return body, nil
	}

	if lastErr == nil {
		lastErr = errors.New("dataset request failed")
	}
	return nil, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isRetryableStatus(status int) bool {
	switch status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
