// Package notify defines the push notification capability the list engine
// fans out to. Transport is pluggable; the default notifier only logs.
package notify

import (
	"context"

	"github.com/rs/zerolog"
)

type Notification struct {
	Title string            `json:"title"`
	URL   string            `json:"url"`
	Tag   string            `json:"tag"`
	Data  map[string]string `json:"data,omitempty"`
}

type Notifier interface {
	Send(ctx context.Context, userID string, n Notification) error
}

type logNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier returns a Notifier that writes every notification to the log
// instead of delivering it.
func NewLogNotifier(logger zerolog.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Send(_ context.Context, userID string, notification Notification) error {
	n.logger.Info().
		Str("user_id", userID).
		Str("title", notification.Title).
		Str("url", notification.URL).
		Str("tag", notification.Tag).
		Msg("notification")
	return nil
}
