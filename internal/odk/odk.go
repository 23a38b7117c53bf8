// Package odk pulls verbal-autopsy submissions from an ODK Central
// server. Only submissions inside the resume window are returned; the
// store's duplicate gate handles the deliberate one-day overlap.
package odk

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/openva-pipeline/vapipe/internal/model"
)

// Client talks to one ODK Central project.
type Client struct {
	cfg        model.ODKConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewClient builds a Client from a validated ODK configuration.
func NewClient(cfg model.ODKConfig) (*Client, error) {
	if !cfg.UseCentral {
		return nil, eris.New("odk: only ODK Central servers are supported")
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:    rate.NewLimiter(5, 5),
		maxRetries: 3,
	}, nil
}

// Export downloads the form's submissions as CSV and returns the ones
// dated inside the window.
func (c *Client) Export(ctx context.Context, window model.ResumeWindow) ([]model.Submission, error) {
	url := fmt.Sprintf("%s/v1/projects/%s/forms/%s/submissions.csv",
		c.cfg.URL, c.cfg.ProjectNumber, c.cfg.FormID)

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close() //nolint:errcheck

	subs, err := parseExport(body, window)
	if err != nil {
		return nil, err
	}
	zap.L().Info("odk: export complete",
		zap.String("form", c.cfg.FormID),
		zap.String("since", window.MarginDate()),
		zap.Int("submissions", len(subs)),
	)
	return subs, nil
}

func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "odk: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, eris.Wrap(err, "odk: create request")
		}
		req.SetBasicAuth(c.cfg.User, c.cfg.Password)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			zap.L().Warn("odk: request failed, retrying",
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			c.backoff(ctx, attempt)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return resp.Body, nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			_ = resp.Body.Close()
			return nil, eris.Errorf("odk: authentication rejected (%d)", resp.StatusCode)
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			_ = resp.Body.Close()
			lastErr = eris.Errorf("odk: http %d from %s", resp.StatusCode, url)
			zap.L().Warn("odk: server error, retrying",
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			c.backoff(ctx, attempt)
			continue
		default:
			_ = resp.Body.Close()
			return nil, eris.Errorf("odk: unexpected status %d from %s", resp.StatusCode, url)
		}
	}
	return nil, eris.Wrap(lastErr, "odk: all retries exhausted")
}

func (c *Client) backoff(ctx context.Context, attempt int) {
	base := time.Second
	maxBackoff := 30 * time.Second
	d := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	d += time.Duration(rand.Int63n(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
