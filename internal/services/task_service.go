package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-lists/internal/models"
	"github.com/adanyl0v/go-todo-lists/internal/notify"
	"github.com/adanyl0v/go-todo-lists/internal/storage"
)

const (
	msgTaskCreated   = "%s added %q to %s"
	msgTaskUpdated   = "%s updated %q"
	msgTaskCompleted = "%s completed %q"
	msgTaskReopened  = "%s reopened %q"
	msgTaskDeleted   = "%s deleted %q"
)

type taskServiceImpl struct {
	*engine
}

func NewTaskService(
	logger zerolog.Logger,
	store storage.Store,
	notifier notify.Notifier,
	opts ...Option,
) TaskService {
	return &taskServiceImpl{
		engine: newEngine(logger, store, notifier, opts),
	}
}

// CreateTask stores a task in the referenced list. A virtual reference places
// the task in the actor's inbox with fields that satisfy the virtual list.
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	actor Actor,
	ref models.ListRef,
	params CreateTaskParams,
) (*models.Task, error) {
	id, err := newID()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task id")
		return nil, err
	}

	now := s.now()
	task := &models.Task{
		ID:           id,
		Title:        params.Title,
		Notes:        params.Notes,
		CreatedBy:    actor.UserID,
		IsCompleted:  params.IsCompleted,
		Priority:     params.Priority,
		Subtasks:     slices.Clone(params.Subtasks),
		CreationDate: now,
	}
	if params.DueDate != nil {
		due := params.DueDate.resolve(actor.location())
		task.DueDate = &due
	}
	if task.IsCompleted {
		task.CompletionDate = &now
	}

	var list *models.List
	if kind, ok := ref.Virtual(); ok {
		list, err = s.store.FindOneList(ctx, storage.ListFilter{
			Owner: actor.UserID,
			Type:  models.ListTypeInbox,
		})
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.logger.Error().
					Str("user_id", actor.UserID).
					Msg("inbox not found")
				return nil, accessError(msgInvalidListID)
			}
			s.logger.Error().
				Err(err).
				Str("user_id", actor.UserID).
				Msg("failed to select inbox")
			return nil, err
		}
		s.virtual.rewrite(kind, task, actor.location())
	} else {
		list, err = s.loadMemberList(ctx, actor, ref.ID(), msgInvalidListID)
		if err != nil {
			return nil, err
		}
	}
	task.List = list.ID

	normalizeTask(task)
	err = validateTask(task)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Str("list_id", list.ID).
			Msg("rejected task")
		return nil, err
	}

	err = s.store.CreateTask(ctx, task)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to insert task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("inserted task")

	err = s.members.addTaskToList(ctx, task, list.ID)
	if err != nil {
		return nil, err
	}

	s.fanout.notify(ctx, fmt.Sprintf(msgTaskCreated, actor.displayName(), task.Title, list.Title), list, actor, task.ID)

	s.logger.Info().
		Str("task_id", task.ID).
		Str("list_id", list.ID).
		Str("user_id", actor.UserID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) GetTask(ctx context.Context, actor Actor, taskID string) (*models.Task, error) {
	task, list, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !list.HasMember(actor.UserID) {
		return nil, accessError(msgInvalidTaskID)
	}
	return task, nil
}

// UpdateTask merges an allow-listed patch. A move between lists or a change of
// completion state goes through the membership edges so the list arrays move
// with the task.
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	actor Actor,
	taskID string,
	params UpdateTaskParams,
) (*models.Task, error) {
	task, list, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !list.HasMember(actor.UserID) {
		s.logger.Debug().
			Str("task_id", task.ID).
			Str("user_id", actor.UserID).
			Msg("user is not a member of the task list")
		return nil, permissionsError(msgUnauthorizedTask)
	}

	err = checkImmutable(task, params)
	if err != nil {
		return nil, err
	}

	updated := task.Clone()
	if params.Title != nil {
		updated.Title = *params.Title
	}
	if params.Notes != nil {
		updated.Notes = *params.Notes
	}
	if params.Priority != nil {
		updated.Priority = *params.Priority
	}
	if params.Subtasks != nil {
		updated.Subtasks = slices.Clone(params.Subtasks)
	}
	switch {
	case params.ClearDueDate:
		updated.DueDate = nil
	case params.DueDate != nil:
		due := params.DueDate.resolve(actor.location())
		updated.DueDate = &due
	}

	dest := list
	moving := params.List != nil && *params.List != task.List
	if moving {
		dest, err = s.store.FindListByID(ctx, *params.List)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error().
				Err(err).
				Str("list_id", *params.List).
				Msg("failed to select list")
			return nil, err
		}
		if err != nil || !dest.HasMember(actor.UserID) {
			return nil, permissionsError(msgUnauthorizedList)
		}
		updated.List = dest.ID
	}

	completionChanged := params.IsCompleted != nil && *params.IsCompleted != task.IsCompleted
	if completionChanged {
		updated.IsCompleted = *params.IsCompleted
		if updated.IsCompleted {
			now := s.now()
			updated.CompletionDate = &now
		}
	}

	normalizeTask(updated)
	err = validateTask(updated)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Str("task_id", task.ID).
			Msg("rejected task update")
		return nil, err
	}

	// Edges move before the task document. A failure leaves the stored task
	// pointing at its old list, and repeating the update converges since
	// placing and pulling are idempotent.
	switch {
	case moving:
		err = s.members.addTaskToList(ctx, updated, dest.ID)
		if err != nil {
			return nil, err
		}
		err = s.members.removeTaskFromList(ctx, task.ID, list.ID)
	case completionChanged && updated.IsCompleted:
		err = s.members.setTaskComplete(ctx, task.ID, list.ID)
	case completionChanged:
		err = s.members.setTaskIncomplete(ctx, task.ID, list.ID)
	}
	if err != nil {
		return nil, err
	}

	err = s.store.SaveTask(ctx, updated)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("updated task")

	message := msgTaskUpdated
	if completionChanged {
		message = msgTaskReopened
		if updated.IsCompleted {
			message = msgTaskCompleted
		}
	}
	s.fanout.notify(ctx, fmt.Sprintf(message, actor.displayName(), updated.Title), dest, actor, task.ID)

	s.logger.Info().
		Str("task_id", task.ID).
		Str("list_id", dest.ID).
		Str("user_id", actor.UserID).
		Bool("moved", moving).
		Bool("completion_changed", completionChanged).
		Msg("updated task")
	return updated, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, actor Actor, taskID string) error {
	task, list, err := s.loadTask(ctx, taskID)
	if err != nil {
		return err
	}
	if !list.HasMember(actor.UserID) {
		return accessError(msgInvalidTaskID)
	}

	err = s.members.removeTaskFromList(ctx, task.ID, list.ID)
	if err != nil {
		return err
	}

	err = s.store.DeleteTask(ctx, task.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return accessError(msgInvalidTaskID)
		}
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to delete task")
		return err
	}

	s.fanout.notify(ctx, fmt.Sprintf(msgTaskDeleted, actor.displayName(), task.Title), list, actor, task.ID)

	s.logger.Info().
		Str("task_id", task.ID).
		Str("list_id", list.ID).
		Str("user_id", actor.UserID).
		Msg("deleted task")
	return nil
}

// checkImmutable accepts createdBy and creationDate only when they repeat the
// stored values.
func checkImmutable(task *models.Task, params UpdateTaskParams) error {
	var fields []FieldError
	if params.CreatedBy != nil && *params.CreatedBy != task.CreatedBy {
		fields = append(fields, FieldError{
			Field:   "createdBy",
			Message: fmt.Sprintf(msgImmutableFieldFormat, "createdBy"),
		})
	}
	if params.CreationDate != nil && !params.CreationDate.Equal(task.CreationDate) {
		fields = append(fields, FieldError{
			Field:   "creationDate",
			Message: fmt.Sprintf(msgImmutableFieldFormat, "creationDate"),
		})
	}
	if len(fields) == 0 {
		return nil
	}
	return validationError(fields[0].Message, fields...)
}
