package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-lists/internal/models"
	"github.com/adanyl0v/go-todo-lists/internal/notify"
)

type fanout struct {
	logger   zerolog.Logger
	notifier notify.Notifier
}

func newFanout(logger zerolog.Logger, notifier notify.Notifier) *fanout {
	return &fanout{
		logger:   logger,
		notifier: notifier,
	}
}

// notify sends message to every member of the list except the actor. Sends run
// concurrently; failures are logged and dropped.
func (f *fanout) notify(ctx context.Context, message string, list *models.List, actor Actor, taskID string) {
	if list == nil || f.notifier == nil {
		return
	}
	if list.Type != models.ListTypeInbox && list.Type != models.ListTypeDefault {
		return
	}
	if len(list.Members) <= 1 {
		return
	}

	notification := notify.Notification{
		Title: message,
		URL:   "/lists/" + list.ID,
		Tag:   list.ID,
		Data:  map[string]string{"listId": list.ID},
	}
	if taskID != "" {
		notification.Data["taskId"] = taskID
	}

	recipients := make([]string, 0, len(list.Members)-1)
	for _, member := range list.Members {
		if member != actor.UserID {
			recipients = append(recipients, member)
		}
	}

	err := runBatch(recipients, func(userID string) error {
		err := f.notifier.Send(ctx, userID, notification)
		if err != nil {
			f.logger.Warn().
				Err(err).
				Str("user_id", userID).
				Str("list_id", list.ID).
				Msg("failed to send notification")
		}
		return err
	})
	f.logger.Debug().
		Str("list_id", list.ID).
		Int("recipients", len(recipients)).
		AnErr("error", err).
		Msg("fanned out notification")
}
