package http

import (
	"context"
	"strings"
	"time"
)

// readTimeout bounds every store round trip made while serving a request.
const readTimeout = 7 * time.Second

// sanitizeInput removes control characters except tab, newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func withReadTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, readTimeout)
}

func rangeKey(start, end string) string {
	return "range:" + start + ":" + end
}
