package ingest

import (
	"context"
	"fmt"
	"io"
	"net/textproto"
	"path"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/lox/pointcast/internal/grid"
	"github.com/lox/pointcast/internal/metrics"
)

// FTPFieldSource fetches field documents from an anonymous FTP mirror of the
// inference job's output directory.
type FTPFieldSource struct {
	host string
	dir  string
}

func NewFTPFieldSource(host, dir string) *FTPFieldSource {
	if dir == "" {
		dir = "/"
	}
	return &FTPFieldSource{host: host, dir: dir}
}

func (s *FTPFieldSource) FetchField(ctx context.Context, initTime time.Time) (*grid.Field, error) {
	conn, err := ftp.Dial(s.host, ftp.DialWithTimeout(30*time.Second), ftp.DialWithContext(ctx))
	if err != nil {
		metrics.FieldFetchesTotal.WithLabelValues("ftp", "error").Inc()
		return nil, fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		metrics.FieldFetchesTotal.WithLabelValues("ftp", "error").Inc()
		return nil, fmt.Errorf("ftp login: %w", err)
	}

	start := time.Now()
	resp, err := conn.Retr(path.Join(s.dir, fieldDocumentName(initTime)))
	if err != nil {
		if protoErr, ok := err.(*textproto.Error); ok && protoErr.Code == ftp.StatusFileUnavailable {
			metrics.FieldFetchesTotal.WithLabelValues("ftp", "missing").Inc()
			return nil, ErrCycleUnavailable
		}
		metrics.FieldFetchesTotal.WithLabelValues("ftp", "error").Inc()
		return nil, fmt.Errorf("ftp retr: %w", err)
	}
	defer resp.Close()

	body, err := io.ReadAll(resp)
	metrics.FieldFetchLatency.WithLabelValues("ftp").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FieldFetchesTotal.WithLabelValues("ftp", "error").Inc()
		return nil, fmt.Errorf("read body: %w", err)
	}

	field, err := grid.Decode(body)
	if err != nil {
		metrics.FieldFetchesTotal.WithLabelValues("ftp", "error").Inc()
		return nil, err
	}
	metrics.FieldFetchesTotal.WithLabelValues("ftp", "ok").Inc()
	return field, nil
}
