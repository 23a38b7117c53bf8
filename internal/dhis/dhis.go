// Package dhis delivers coded verbal-autopsy events to a DHIS2 server's
// Verbal Autopsy program.
package dhis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/openva-pipeline/vapipe/internal/model"
)

// DHIS2 Verbal Autopsy program metadata shipped with the standard
// va-program package.
const (
	vaProgramID   = "sv91bCroFFx"
	causeOfDeath  = "eCVDarlB4xv"
	autopsyRecord = "XLHIBoLtjGt"
)

// Event is one DHIS2 tracker event.
type Event struct {
	Event       string      `json:"event"`
	Program     string      `json:"program"`
	OrgUnit     string      `json:"orgUnit"`
	EventDate   string      `json:"eventDate"`
	Status      string      `json:"status"`
	DataValues  []DataValue `json:"dataValues"`
	StoredBy    string      `json:"storedBy,omitempty"`
	CompletedAt string      `json:"completedDate,omitempty"`
}

// DataValue is one data element on an event.
type DataValue struct {
	DataElement string `json:"dataElement"`
	Value       string `json:"value"`
}

// Client posts VA events to one DHIS2 server.
type Client struct {
	cfg        model.DHISConfig
	codes      map[string]string
	httpClient *http.Client
	limiter    *rate.Limiter
	workers    int
}

// NewClient builds a Client from a validated DHIS configuration and the
// cause-of-death code list matching the run's algorithm.
func NewClient(cfg model.DHISConfig, codes map[string]string) *Client {
	return &Client{
		cfg:   cfg,
		codes: codes,
		httpClient: &http.Client{
			Timeout: time.Minute,
		},
		limiter: rate.NewLimiter(10, 10),
		workers: 4,
	}
}

// Upload posts every record as an event and reports the ids that landed.
// Records upload concurrently; one failed record fails the batch, and the
// caller retries the whole pending set next run (event UIDs make the
// replay idempotent on the server).
func (c *Client) Upload(ctx context.Context, records []model.VARecord) ([]string, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	uploaded := make([]string, len(records))
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			if err := c.postEvent(ctx, rec); err != nil {
				return err
			}
			uploaded[i] = rec.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Partial progress still counts: MarkUploaded for the ids that
		// made it keeps the next retry batch small.
		var done []string
		for _, id := range uploaded {
			if id != "" {
				done = append(done, id)
			}
		}
		return done, err
	}
	zap.L().Info("dhis: upload complete", zap.Int("events", len(records)))
	return uploaded, nil
}

func (c *Client) postEvent(ctx context.Context, rec model.VARecord) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "dhis: rate limiter wait")
	}

	code, ok := c.codes[rec.Cause]
	if !ok {
		return eris.Errorf("dhis: no cause-of-death code for %q (record %s)", rec.Cause, rec.ID)
	}

	ev := Event{
		Event:     EventUID(rec.ID),
		Program:   vaProgramID,
		OrgUnit:   c.cfg.OrgUnit,
		EventDate: rec.DateEntered.Format("2006-01-02"),
		Status:    "COMPLETED",
		DataValues: []DataValue{
			{DataElement: causeOfDeath, Value: code},
			{DataElement: autopsyRecord, Value: string(rec.Record)},
		},
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return eris.Wrap(err, "dhis: marshal event")
	}

	url := fmt.Sprintf("%s/api/events/%s", c.cfg.URL, ev.Event)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "dhis: create request")
	}
	req.SetBasicAuth(c.cfg.User, c.cfg.Password)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrapf(err, "dhis: post event %s", ev.Event)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return eris.Errorf("dhis: event %s rejected with status %d", ev.Event, resp.StatusCode)
	}
	return nil
}
