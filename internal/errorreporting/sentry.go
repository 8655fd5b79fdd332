// Package errorreporting forwards refresh failures to Sentry.
package errorreporting

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/IvanBrykalov/freshcache/cache"
)

// Patterns scrubbed from outgoing messages; upstream errors often echo URLs
// with credentials in them.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`),
	regexp.MustCompile(`(?i)(api[_-]?key|token|secret|password)(["\s:=]+)[^\s&"]{8,}`),
	regexp.MustCompile(`://[^/\s:@]+:[^/\s@]+@`),
}

// Init configures the Sentry client. An empty dsn leaves reporting off.
func Init(dsn, environment, release string) error {
	if dsn == "" {
		return nil
	}
	if release == "" {
		release = "dev"
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
		BeforeSend:       beforeSend,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	return nil
}

func beforeSend(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	for i := range event.Exception {
		event.Exception[i].Value = Scrub(event.Exception[i].Value)
	}
	event.Message = Scrub(event.Message)
	return event
}

// Scrub redacts credentials from text.
func Scrub(text string) string {
	text = secretPatterns[0].ReplaceAllString(text, "bearer [REDACTED]")
	text = secretPatterns[1].ReplaceAllString(text, "$1$2[REDACTED]")
	return secretPatterns[2].ReplaceAllString(text, "://[REDACTED]@")
}

// RefreshFailure is a cache.Options.OnRefreshError hook that reports the
// failure to Sentry, tagged with the category.
func RefreshFailure(category string, err error) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("cache.category", category)
		var re *cache.RefreshError
		if errors.As(err, &re) {
			scope.SetFingerprint([]string{"cache-refresh", re.Category})
		}
		sentry.CaptureException(err)
	})
}

// Flush waits for buffered events to be sent.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}
