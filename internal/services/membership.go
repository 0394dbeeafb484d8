package services

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-lists/internal/models"
	"github.com/adanyl0v/go-todo-lists/internal/storage"
)

// membership owns both sides of every relationship edge: user.lists against
// list.members, and task.list against list.tasks/list.completedTasks. Callers
// never splice those arrays themselves.
//
// Every operation is idempotent by id, so a failed multi-member batch can be
// retried as a whole.
type membership struct {
	logger zerolog.Logger
	store  storage.Store
}

func newMembership(logger zerolog.Logger, store storage.Store) *membership {
	return &membership{
		logger: logger,
		store:  store,
	}
}

func (m *membership) addListToUser(ctx context.Context, listID, userID string) error {
	err := m.store.AddUserList(ctx, userID, listID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			m.logger.Error().
				Str("user_id", userID).
				Msg("user not found")
			return accessError(msgInvalidUserID)
		}
		m.logger.Error().
			Err(err).
			Str("user_id", userID).
			Str("list_id", listID).
			Msg("failed to add list to user")
		return err
	}
	m.logger.Debug().
		Str("user_id", userID).
		Str("list_id", listID).
		Msg("added list to user")
	return nil
}

func (m *membership) removeListFromUser(ctx context.Context, listID, userID string) error {
	err := m.store.RemoveUserList(ctx, userID, listID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			m.logger.Error().
				Str("user_id", userID).
				Msg("user not found")
			return accessError(msgInvalidUserID)
		}
		m.logger.Error().
			Err(err).
			Str("user_id", userID).
			Str("list_id", listID).
			Msg("failed to remove list from user")
		return err
	}
	m.logger.Debug().
		Str("user_id", userID).
		Str("list_id", listID).
		Msg("removed list from user")
	return nil
}

// addTaskToList places the task id at the front of tasks or completedTasks
// according to the task's completion state.
func (m *membership) addTaskToList(ctx context.Context, task *models.Task, listID string) error {
	return m.placeTask(ctx, task.ID, listID, task.IsCompleted)
}

func (m *membership) setTaskComplete(ctx context.Context, taskID, listID string) error {
	return m.placeTask(ctx, taskID, listID, true)
}

func (m *membership) setTaskIncomplete(ctx context.Context, taskID, listID string) error {
	return m.placeTask(ctx, taskID, listID, false)
}

func (m *membership) placeTask(ctx context.Context, taskID, listID string, completed bool) error {
	err := m.store.PlaceListTask(ctx, listID, taskID, completed)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return accessError(msgInvalidListID)
		}
		m.logger.Error().
			Err(err).
			Str("list_id", listID).
			Str("task_id", taskID).
			Msg("failed to place task")
		return err
	}
	m.logger.Debug().
		Str("list_id", listID).
		Str("task_id", taskID).
		Bool("completed", completed).
		Msg("placed task")
	return nil
}

// removeTaskFromList strips the id from both task arrays.
func (m *membership) removeTaskFromList(ctx context.Context, taskID, listID string) error {
	err := m.store.PullListTask(ctx, listID, taskID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return accessError(msgInvalidListID)
		}
		m.logger.Error().
			Err(err).
			Str("list_id", listID).
			Str("task_id", taskID).
			Msg("failed to pull task")
		return err
	}
	m.logger.Debug().
		Str("list_id", listID).
		Str("task_id", taskID).
		Msg("pulled task")
	return nil
}

// reconcileMembers applies the user side of a members change and returns the
// normalized member set the caller must commit on the list. The owner may not
// be dropped. On error some users may already carry the change; retrying the
// same update converges because every step is idempotent.
func (m *membership) reconcileMembers(ctx context.Context, list *models.List, updated []string) ([]string, error) {
	if !slices.Contains(updated, list.Owner) {
		return nil, validationError(msgOwnerRemoval, FieldError{Field: "members", Message: msgOwnerRemoval})
	}

	added, removed := diffMembers(list.Members, updated)
	if len(added) == 0 && len(removed) == 0 {
		return list.Members, nil
	}

	var (
		wg                sync.WaitGroup
		addErr, removeErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		addErr = runBatch(added, func(userID string) error {
			return m.addListToUser(ctx, list.ID, userID)
		})
	}()
	go func() {
		defer wg.Done()
		removeErr = runBatch(removed, func(userID string) error {
			return m.removeListFromUser(ctx, list.ID, userID)
		})
	}()
	wg.Wait()

	err := errors.Join(addErr, removeErr)
	if err != nil {
		m.logger.Error().
			Err(err).
			Str("list_id", list.ID).
			Strs("added", added).
			Strs("removed", removed).
			Msg("failed to reconcile members")
		return nil, firstEngineError(err)
	}

	m.logger.Debug().
		Str("list_id", list.ID).
		Strs("added", added).
		Strs("removed", removed).
		Msg("reconciled members")
	return uniqueIDs(updated), nil
}

// diffMembers returns the ids only in updated and the ids only in current.
func diffMembers(current, updated []string) (added, removed []string) {
	for _, id := range uniqueIDs(updated) {
		if !slices.Contains(current, id) {
			added = append(added, id)
		}
	}
	for _, id := range uniqueIDs(current) {
		if !slices.Contains(updated, id) {
			removed = append(removed, id)
		}
	}
	return added, removed
}

// runBatch calls fn for every id concurrently and joins the errors. Order
// between ids is not significant.
func runBatch(ids []string, fn func(id string) error) error {
	if len(ids) == 0 {
		return nil
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(id); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// firstEngineError surfaces an engine error from a joined batch error
// unchanged, so callers still see e.g. AccessError("Invalid user ID").
func firstEngineError(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return err
}
