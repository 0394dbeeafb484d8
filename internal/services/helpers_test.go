package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-lists/internal/models"
	"github.com/adanyl0v/go-todo-lists/internal/notify"
	"github.com/adanyl0v/go-todo-lists/internal/storage"
	"github.com/adanyl0v/go-todo-lists/internal/storage/memory"
)

type sentNotification struct {
	UserID       string
	Notification notify.Notification
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	fail map[string]error
}

func (r *recordingNotifier) Send(_ context.Context, userID string, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[userID]; err != nil {
		return err
	}
	r.sent = append(r.sent, sentNotification{UserID: userID, Notification: n})
	return nil
}

// take returns the recorded notifications and clears them.
func (r *recordingNotifier) take() []sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	sent := r.sent
	r.sent = nil
	return sent
}

var testNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

type fixture struct {
	ctx      context.Context
	store    *memory.Store
	notifier *recordingNotifier
	users    UserService
	lists    ListService
	tasks    TaskService
	userIDs  []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	return newFixtureOver(t, store, store)
}

// newFixtureOver wires the services to backend. Assertions keep reading store
// directly, so backend is usually a wrapper around it.
func newFixtureOver(t *testing.T, store *memory.Store, backend storage.Store) *fixture {
	t.Helper()
	notifier := &recordingNotifier{fail: make(map[string]error)}
	clock := WithClock(func() time.Time { return testNow })
	logger := zerolog.Nop()
	return &fixture{
		ctx:      context.Background(),
		store:    store,
		notifier: notifier,
		users:    NewUserService(logger, backend, clock),
		lists:    NewListService(logger, backend, notifier, clock),
		tasks:    NewTaskService(logger, backend, notifier, clock),
	}
}

func (f *fixture) createUser(t *testing.T, name string) Actor {
	t.Helper()
	user, err := f.users.CreateUser(f.ctx, CreateUserParams{
		Email: name + "@example.com",
		Name:  name,
	})
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", name, err)
	}
	f.userIDs = append(f.userIDs, user.ID)
	return Actor{UserID: user.ID, Name: name}
}

func (f *fixture) createList(t *testing.T, actor Actor, title string) string {
	t.Helper()
	view, err := f.lists.CreateList(f.ctx, actor, CreateListParams{Title: title})
	if err != nil {
		t.Fatalf("CreateList(%s): %v", title, err)
	}
	return view.ID
}

func (f *fixture) createTask(t *testing.T, actor Actor, ref models.ListRef, params CreateTaskParams) *models.Task {
	t.Helper()
	task, err := f.tasks.CreateTask(f.ctx, actor, ref, params)
	if err != nil {
		t.Fatalf("CreateTask(%s): %v", params.Title, err)
	}
	return task
}

func (f *fixture) share(t *testing.T, owner Actor, listID string, members ...Actor) {
	t.Helper()
	ids := []string{owner.UserID}
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	_, err := f.lists.UpdateList(f.ctx, owner, models.RealList(listID), UpdateListParams{Members: ids})
	if err != nil {
		t.Fatalf("share %s: %v", listID, err)
	}
	f.notifier.take()
}

func (f *fixture) list(t *testing.T, id string) *models.List {
	t.Helper()
	list, err := f.store.FindListByID(f.ctx, id)
	if err != nil {
		t.Fatalf("FindListByID(%s): %v", id, err)
	}
	return list
}

func (f *fixture) user(t *testing.T, id string) *models.User {
	t.Helper()
	user, err := f.store.FindUserByID(f.ctx, id)
	if err != nil {
		t.Fatalf("FindUserByID(%s): %v", id, err)
	}
	return user
}

func (f *fixture) inbox(t *testing.T, actor Actor) *models.List {
	t.Helper()
	inbox, err := f.store.FindOneList(f.ctx, storage.ListFilter{Owner: actor.UserID, Type: models.ListTypeInbox})
	if err != nil {
		t.Fatalf("inbox of %s: %v", actor.Name, err)
	}
	return inbox
}

// checkInvariants asserts the relationship invariants over every stored
// document reachable from the fixture's users.
func (f *fixture) checkInvariants(t *testing.T) {
	t.Helper()

	listIDs := map[string]struct{}{}
	for _, userID := range f.userIDs {
		user := f.user(t, userID)
		memberOf, err := f.store.FindListIDsByMember(f.ctx, userID)
		if err != nil {
			t.Fatalf("FindListIDsByMember: %v", err)
		}
		for _, id := range memberOf {
			listIDs[id] = struct{}{}
			if !slices.Contains(user.Lists, id) {
				t.Errorf("user %s is a member of list %s but does not reference it", userID, id)
			}
		}
		for _, id := range user.Lists {
			if !slices.Contains(memberOf, id) {
				t.Errorf("user %s references list %s without being a member", userID, id)
			}
		}
	}

	for id := range listIDs {
		list := f.list(t, id)
		if !list.HasMember(list.Owner) {
			t.Errorf("list %s lost its owner %s", id, list.Owner)
		}
		for _, taskID := range append(slices.Clone(list.Tasks), list.CompletedTasks...) {
			task, err := f.store.FindTaskByID(f.ctx, taskID)
			if err != nil {
				t.Errorf("list %s references missing task %s", id, taskID)
				continue
			}
			if task.List != id {
				t.Errorf("list %s references task %s that belongs to %s", id, taskID, task.List)
			}
		}
	}

	tasks, err := f.store.FindTasks(f.ctx, storage.TaskFilter{})
	if err != nil {
		t.Fatalf("FindTasks: %v", err)
	}
	for _, task := range tasks {
		list := f.list(t, task.List)
		inTasks := countOf(list.Tasks, task.ID)
		inCompleted := countOf(list.CompletedTasks, task.ID)
		if inTasks+inCompleted != 1 {
			t.Errorf("task %s appears %d times in list %s", task.ID, inTasks+inCompleted, list.ID)
			continue
		}
		if task.IsCompleted != (inCompleted == 1) {
			t.Errorf("task %s completed=%v sits in the wrong array", task.ID, task.IsCompleted)
		}
	}
}

func countOf(ids []string, id string) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}
	return n
}

func assertEngineError(t *testing.T, err, kind error, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v %q, got nil", kind, msg)
	}
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
	if got := Message(err); got != msg {
		t.Fatalf("expected message %q, got %q", msg, got)
	}
}

func taskIDs(tasks []models.Task) []string {
	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}
