package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-lists/internal/models"
	"github.com/adanyl0v/go-todo-lists/internal/storage"
)

// synthesizer builds the today, tomorrow and highPriority lists from task
// queries. Nothing it returns is persisted.
type synthesizer struct {
	logger zerolog.Logger
	store  storage.Store
	now    func() time.Time
}

func newSynthesizer(logger zerolog.Logger, store storage.Store, now func() time.Time) *synthesizer {
	return &synthesizer{
		logger: logger,
		store:  store,
		now:    now,
	}
}

func (s *synthesizer) filter(kind models.VirtualKind, loc *time.Location) storage.TaskFilter {
	switch kind {
	case models.VirtualHighPriority:
		return storage.TaskFilter{Priority: models.PriorityHigh}
	case models.VirtualTomorrow:
		from, to := dayWindow(s.now(), loc, 1)
		return storage.TaskFilter{DueFrom: &from, DueTo: &to}
	default:
		from, to := dayWindow(s.now(), loc, 0)
		return storage.TaskFilter{DueFrom: &from, DueTo: &to}
	}
}

// build returns nil when the user has switched the virtual list off.
func (s *synthesizer) build(
	ctx context.Context,
	user *models.User,
	actor Actor,
	kind models.VirtualKind,
	opts ViewOptions,
) (*models.ListView, error) {
	if !user.CustomListEnabled(kind) {
		s.logger.Debug().
			Str("user_id", user.ID).
			Str("kind", string(kind)).
			Msg("virtual list disabled")
		return nil, nil
	}

	view := &models.ListView{
		ID:             string(kind),
		Title:          kind.Title(),
		Type:           models.ListType(kind),
		Members:        []models.MemberSummary{},
		Tasks:          []models.Task{},
		CompletedTasks: []models.Task{},
	}

	listIDs, err := s.store.FindListIDsByMember(ctx, actor.UserID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", actor.UserID).
			Msg("failed to select member lists")
		return nil, err
	}
	if len(listIDs) == 0 {
		return view, nil
	}

	filter := s.filter(kind, actor.location())
	filter.ListIDs = listIDs
	tasks, err := s.store.FindTasks(ctx, filter)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("kind", string(kind)).
			Msg("failed to select virtual list tasks")
		return nil, err
	}

	for _, task := range tasks {
		switch {
		case !task.IsCompleted:
			view.Tasks = append(view.Tasks, *task)
		case opts.IncludeCompleted:
			view.CompletedTasks = append(view.CompletedTasks, *task)
		default:
			view.AdditionalTasks++
		}
	}

	s.logger.Debug().
		Str("user_id", actor.UserID).
		Str("kind", string(kind)).
		Int("tasks", len(view.Tasks)).
		Int("completed", len(view.CompletedTasks)+view.AdditionalTasks).
		Msg("built virtual list")
	return view, nil
}

// rewrite makes a task created through a virtual list satisfy that list's
// predicate.
func (s *synthesizer) rewrite(kind models.VirtualKind, task *models.Task, loc *time.Location) {
	switch kind {
	case models.VirtualHighPriority:
		task.Priority = models.PriorityHigh
	case models.VirtualToday:
		due, _ := dayWindow(s.now(), loc, 0)
		task.DueDate = &due
	case models.VirtualTomorrow:
		due, _ := dayWindow(s.now(), loc, 1)
		task.DueDate = &due
	}
}
