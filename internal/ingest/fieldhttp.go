package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lox/pointcast/internal/grid"
	"github.com/lox/pointcast/internal/httputil"
	"github.com/lox/pointcast/internal/metrics"
)

// HTTPFieldSource fetches field documents from an HTTP endpoint where the
// inference job publishes one JSON document per cycle.
type HTTPFieldSource struct {
	baseURL string
	client  *http.Client
}

func NewHTTPFieldSource(baseURL string) *HTTPFieldSource {
	return &HTTPFieldSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httputil.NewClient(),
	}
}

func (s *HTTPFieldSource) FetchField(ctx context.Context, initTime time.Time) (*grid.Field, error) {
	url := s.baseURL + "/" + fieldDocumentName(initTime)

	var body []byte
	start := time.Now()
	operation := func() error {
		req, err := httputil.NewRequest(url)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := s.client.Do(req.WithContext(ctx))
		if err != nil {
			return fmt.Errorf("fetch field: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(ErrCycleUnavailable)
		}
		if resp.StatusCode != http.StatusOK {
			b, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(fmt.Errorf("fetch field: status %d: %s", resp.StatusCode, string(b)))
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Minute
	err := backoff.Retry(operation, backoff.WithContext(bo, ctx))
	metrics.FieldFetchLatency.WithLabelValues("http").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FieldFetchesTotal.WithLabelValues("http", "error").Inc()
		return nil, err
	}

	field, err := grid.Decode(body)
	if err != nil {
		metrics.FieldFetchesTotal.WithLabelValues("http", "error").Inc()
		return nil, err
	}
	metrics.FieldFetchesTotal.WithLabelValues("http", "ok").Inc()
	return field, nil
}
