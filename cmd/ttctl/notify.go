package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	applog "timetracker/internal/log"
	"timetracker/internal/services"
)

const purgeTimeout = 5 * time.Second

// serverPurger asks a running server to drop its cached views after a
// write made from this process.
type serverPurger struct {
	url    string
	client *http.Client
	logger *applog.Logger
}

// invalidator returns nil when no server is configured.
func (o *rootOptions) invalidator(logger *applog.Logger) services.Invalidator {
	base := strings.TrimRight(strings.TrimSpace(o.server), "/")
	if base == "" {
		return nil
	}
	return &serverPurger{
		url:    base + "/api/cache",
		client: &http.Client{Timeout: purgeTimeout},
		logger: logger,
	}
}

// InvalidateEntry purges every view; the server has no per-entry purge endpoint.
func (p *serverPurger) InvalidateEntry(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()
	if err := p.purge(ctx); err != nil {
		p.logger.Warn("Failed to purge server caches",
			applog.FieldEntryID, id,
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeNetwork)
	}
}

func (p *serverPurger) purge(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.url, nil)
	if err != nil {
		return fmt.Errorf("build purge request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("purge %s: %w", p.url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("purge %s: status %d", p.url, resp.StatusCode)
	}
	return nil
}
