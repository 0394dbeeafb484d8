package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-lists/internal/models"
	"github.com/adanyl0v/go-todo-lists/internal/notify"
	"github.com/adanyl0v/go-todo-lists/internal/storage"
)

// engine is the state shared by the list and task controllers.
type engine struct {
	logger  zerolog.Logger
	store   storage.Store
	members *membership
	virtual *synthesizer
	fanout  *fanout
	now     func() time.Time
}

func newEngine(logger zerolog.Logger, store storage.Store, notifier notify.Notifier, opts []Option) *engine {
	o := applyOptions(opts)
	return &engine{
		logger:  logger,
		store:   store,
		members: newMembership(logger, store),
		virtual: newSynthesizer(logger, store, o.now),
		fanout:  newFanout(logger, notifier),
		now:     o.now,
	}
}

func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (e *engine) loadUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := e.store.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			e.logger.Error().
				Str("user_id", userID).
				Msg("user not found")
			return nil, accessError(msgInvalidUserID)
		}
		e.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select user")
		return nil, err
	}
	return user, nil
}

// loadMemberList returns the list when the actor is one of its members.
// Missing lists and foreign lists both yield AccessError(msg).
func (e *engine) loadMemberList(ctx context.Context, actor Actor, listID, msg string) (*models.List, error) {
	list, err := e.store.FindListByID(ctx, listID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, accessError(msg)
		}
		e.logger.Error().
			Err(err).
			Str("list_id", listID).
			Msg("failed to select list")
		return nil, err
	}
	if !list.HasMember(actor.UserID) {
		e.logger.Debug().
			Str("list_id", listID).
			Str("user_id", actor.UserID).
			Msg("user is not a list member")
		return nil, accessError(msg)
	}
	return list, nil
}

// loadTask returns the task and the list that currently holds it.
func (e *engine) loadTask(ctx context.Context, taskID string) (*models.Task, *models.List, error) {
	task, err := e.store.FindTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, accessError(msgInvalidTaskID)
		}
		e.logger.Error().
			Err(err).
			Str("task_id", taskID).
			Msg("failed to select task")
		return nil, nil, err
	}

	list, err := e.store.FindListByID(ctx, task.List)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			e.logger.Warn().
				Str("task_id", taskID).
				Str("list_id", task.List).
				Msg("task references a missing list")
			return nil, nil, accessError(msgInvalidTaskID)
		}
		e.logger.Error().
			Err(err).
			Str("list_id", task.List).
			Msg("failed to select list")
		return nil, nil, err
	}
	return task, list, nil
}

// view populates members and tasks of a real list.
func (e *engine) view(ctx context.Context, list *models.List, opts ViewOptions) (*models.ListView, error) {
	users, err := e.store.FindUsersByIDs(ctx, list.Members)
	if err != nil {
		e.logger.Error().
			Err(err).
			Str("list_id", list.ID).
			Msg("failed to select list members")
		return nil, err
	}
	members := make([]models.MemberSummary, 0, len(users))
	for _, u := range users {
		members = append(members, models.MemberSummary{
			ID:      u.ID,
			Name:    u.Name,
			Email:   u.Email,
			Picture: u.Picture,
		})
	}

	tasks, err := e.findTasks(ctx, list.Tasks)
	if err != nil {
		return nil, err
	}

	view := &models.ListView{
		ID:             list.ID,
		Title:          list.Title,
		Owner:          list.Owner,
		Members:        members,
		Type:           list.Type,
		Tasks:          tasks,
		CompletedTasks: []models.Task{},
		Color:          list.Color,
	}
	if opts.IncludeCompleted {
		view.CompletedTasks, err = e.findTasks(ctx, list.CompletedTasks)
		if err != nil {
			return nil, err
		}
	} else {
		view.AdditionalTasks = len(list.CompletedTasks)
	}
	return view, nil
}

func (e *engine) findTasks(ctx context.Context, ids []string) ([]models.Task, error) {
	out := make([]models.Task, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	tasks, err := e.store.FindTasksByIDs(ctx, ids)
	if err != nil {
		e.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}
	for _, t := range tasks {
		out = append(out, *t)
	}
	return out, nil
}
