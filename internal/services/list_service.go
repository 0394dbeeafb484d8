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
	msgListMembersUpdated = "%s updated the members of %s"
	msgListDeleted        = "%s deleted %s"
)

type listServiceImpl struct {
	*engine
}

func NewListService(
	logger zerolog.Logger,
	store storage.Store,
	notifier notify.Notifier,
	opts ...Option,
) ListService {
	return &listServiceImpl{
		engine: newEngine(logger, store, notifier, opts),
	}
}

func (s *listServiceImpl) GetLists(ctx context.Context, actor Actor, opts ViewOptions) ([]models.ListView, error) {
	user, err := s.loadUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	views := make([]models.ListView, 0, len(models.VirtualKinds)+len(user.Lists))
	for _, kind := range models.VirtualKinds {
		view, err := s.virtual.build(ctx, user, actor, kind, opts)
		if err != nil {
			return nil, err
		}
		if view != nil {
			views = append(views, *view)
		}
	}

	for _, listID := range user.Lists {
		list, err := s.store.FindListByID(ctx, listID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.logger.Warn().
					Str("user_id", user.ID).
					Str("list_id", listID).
					Msg("user references a missing list")
				continue
			}
			s.logger.Error().
				Err(err).
				Str("list_id", listID).
				Msg("failed to select list")
			return nil, err
		}
		if !list.HasMember(user.ID) {
			s.logger.Warn().
				Str("user_id", user.ID).
				Str("list_id", listID).
				Msg("user references a list it is not a member of")
			continue
		}

		view, err := s.view(ctx, list, opts)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}

	s.logger.Debug().
		Str("user_id", user.ID).
		Int("lists", len(views)).
		Msg("selected lists")
	return views, nil
}

func (s *listServiceImpl) GetList(
	ctx context.Context,
	actor Actor,
	ref models.ListRef,
	opts ViewOptions,
) (*models.ListView, error) {
	if kind, ok := ref.Virtual(); ok {
		user, err := s.loadUser(ctx, actor.UserID)
		if err != nil {
			return nil, err
		}
		view, err := s.virtual.build(ctx, user, actor, kind, opts)
		if err != nil {
			return nil, err
		}
		if view == nil {
			return nil, accessError(msgInvalidListID)
		}
		return view, nil
	}

	list, err := s.loadMemberList(ctx, actor, ref.ID(), msgInvalidListID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, list, opts)
}

func (s *listServiceImpl) CreateList(ctx context.Context, actor Actor, params CreateListParams) (*models.ListView, error) {
	_, err := s.loadUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	id, err := newID()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate list id")
		return nil, err
	}

	now := s.now()
	list := &models.List{
		ID:             id,
		Title:          params.Title,
		Owner:          actor.UserID,
		Members:        []string{actor.UserID},
		Type:           models.ListTypeDefault,
		Tasks:          []string{},
		CompletedTasks: []string{},
		Color:          params.Color,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	normalizeList(list)
	err = validateList(list)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Str("user_id", actor.UserID).
			Msg("rejected list")
		return nil, err
	}

	// The store attaches the list to the owner in the same write.
	err = s.store.CreateList(ctx, list)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Error().
				Str("user_id", actor.UserID).
				Msg("user not found")
			return nil, accessError(msgInvalidUserID)
		}
		s.logger.Error().
			Err(err).
			Str("list_id", list.ID).
			Msg("failed to insert list")
		return nil, err
	}
	s.logger.Debug().
		Str("list_id", list.ID).
		Msg("inserted list")

	s.logger.Info().
		Str("list_id", list.ID).
		Str("user_id", actor.UserID).
		Msg("created list")
	return s.view(ctx, list, ViewOptions{})
}

// UpdateList applies an allow-listed patch. Every check runs before the first
// write; an inbox only accepts a reordering of its tasks.
//
// Only the patched fields are written. Task placement and member edges that
// other requests change in the meantime are kept, and a reorder that no longer
// matches the stored tasks is rejected without touching the list.
func (s *listServiceImpl) UpdateList(
	ctx context.Context,
	actor Actor,
	ref models.ListRef,
	params UpdateListParams,
) (*models.ListView, error) {
	if ref.IsZero() {
		return nil, accessError(msgInvalidListID)
	}
	if _, ok := ref.Virtual(); ok {
		return nil, accessError(msgInvalidListID)
	}

	list, err := s.loadMemberList(ctx, actor, ref.ID(), msgInvalidListID)
	if err != nil {
		return nil, err
	}

	updated := list.Clone()
	if params.Tasks != nil {
		if !isPermutation(list.Tasks, params.Tasks) {
			s.logger.Debug().
				Str("list_id", list.ID).
				Strs("tasks", params.Tasks).
				Msg("rejected tasks reorder")
			return nil, accessError(msgInvalidTasksModification)
		}
		updated.Tasks = slices.Clone(params.Tasks)
	}

	var added, removed []string
	if list.Type != models.ListTypeInbox {
		if params.Title != nil {
			updated.Title = *params.Title
		}
		if params.Color != nil {
			updated.Color = *params.Color
		}
		if params.Members != nil {
			if !slices.Contains(params.Members, list.Owner) {
				return nil, validationError(msgOwnerRemoval, FieldError{Field: "members", Message: msgOwnerRemoval})
			}
			added, removed = diffMembers(list.Members, params.Members)
			updated.Members = slices.Clone(params.Members)
		}
	}
	membersChanged := len(added) > 0 || len(removed) > 0

	normalizeList(updated)
	err = validateList(updated)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Str("list_id", list.ID).
			Msg("rejected list update")
		return nil, err
	}

	now := s.now()
	patch := storage.ListPatch{UpdatedAt: now}
	if params.Tasks != nil {
		patch.Tasks = updated.Tasks
	}
	if list.Type != models.ListTypeInbox {
		if params.Title != nil {
			patch.Title = &updated.Title
		}
		if params.Color != nil {
			patch.Color = &updated.Color
		}
	}

	if patch.Title != nil || patch.Color != nil || patch.Tasks != nil {
		err = s.store.PatchList(ctx, list.ID, patch)
		if err != nil {
			switch {
			case errors.Is(err, storage.ErrConflict):
				s.logger.Debug().
					Str("list_id", list.ID).
					Strs("tasks", patch.Tasks).
					Msg("rejected stale tasks reorder")
				return nil, accessError(msgInvalidTasksModification)
			case errors.Is(err, storage.ErrNotFound):
				return nil, accessError(msgInvalidListID)
			}
			s.logger.Error().
				Err(err).
				Str("list_id", list.ID).
				Msg("failed to patch list")
			return nil, err
		}
		s.logger.Debug().
			Str("list_id", list.ID).
			Msg("patched list")
	}

	if membersChanged {
		_, err = s.members.reconcileMembers(ctx, list, updated.Members)
		if err != nil {
			return nil, err
		}

		err = s.store.UpdateListMembers(ctx, list.ID, added, removed, now)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, accessError(msgInvalidListID)
			}
			s.logger.Error().
				Err(err).
				Str("list_id", list.ID).
				Strs("added", added).
				Strs("removed", removed).
				Msg("failed to update list members")
			return nil, err
		}
		s.logger.Debug().
			Str("list_id", list.ID).
			Msg("updated list members")
	}

	fresh, err := s.store.FindListByID(ctx, list.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, accessError(msgInvalidListID)
		}
		s.logger.Error().
			Err(err).
			Str("list_id", list.ID).
			Msg("failed to reload list")
		return nil, err
	}

	if membersChanged {
		s.fanout.notify(ctx, fmt.Sprintf(msgListMembersUpdated, actor.displayName(), fresh.Title), fresh, actor, "")
	}

	s.logger.Info().
		Str("list_id", list.ID).
		Str("user_id", actor.UserID).
		Bool("members_changed", membersChanged).
		Msg("updated list")
	return s.view(ctx, fresh, ViewOptions{})
}

// DeleteList removes a default list the actor belongs to, detaches it from
// every member and deletes its tasks.
func (s *listServiceImpl) DeleteList(ctx context.Context, actor Actor, ref models.ListRef) error {
	if ref.IsZero() {
		return accessError(msgInvalidListID)
	}
	if _, ok := ref.Virtual(); ok {
		return accessError(msgInvalidListID)
	}

	list, err := s.store.DeleteList(ctx, storage.ListFilter{
		ID:     ref.ID(),
		Member: actor.UserID,
		Type:   models.ListTypeDefault,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Debug().
				Str("list_id", ref.ID()).
				Str("user_id", actor.UserID).
				Msg("no deletable list matched")
			return accessError(msgInvalidListID)
		}
		s.logger.Error().
			Err(err).
			Str("list_id", ref.ID()).
			Msg("failed to delete list")
		return err
	}

	err = runBatch(list.Members, func(userID string) error {
		return s.members.removeListFromUser(ctx, list.ID, userID)
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("list_id", list.ID).
			Msg("failed to detach list from members")
		return firstEngineError(err)
	}

	deleted, err := s.store.DeleteTasksByList(ctx, list.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("list_id", list.ID).
			Msg("failed to delete list tasks")
		return err
	}

	s.fanout.notify(ctx, fmt.Sprintf(msgListDeleted, actor.displayName(), list.Title), list, actor, "")

	s.logger.Info().
		Str("list_id", list.ID).
		Str("user_id", actor.UserID).
		Int64("tasks_deleted", deleted).
		Msg("deleted list")
	return nil
}

// isPermutation reports whether next holds exactly the ids of current in any
// order.
func isPermutation(current, next []string) bool {
	if len(current) != len(next) {
		return false
	}
	seen := make(map[string]struct{}, len(next))
	for _, id := range next {
		if _, dup := seen[id]; dup {
			return false
		}
		if !slices.Contains(current, id) {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}
