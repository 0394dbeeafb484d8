// Package memory is an in-process implementation of storage.Store.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/adanyl0v/go-todo-lists/internal/models"
	"github.com/adanyl0v/go-todo-lists/internal/storage"
)

// Store keeps every document in maps guarded by one mutex. Values are cloned on
// the way in and out so callers never share memory with the store.
type Store struct {
	mu    sync.RWMutex
	users map[string]*models.User
	lists map[string]*models.List
	tasks map[string]*models.Task

	sessions map[string]*models.Session

	// Error injection for testing, keyed by user id.
	AddUserListErr    map[string]error
	RemoveUserListErr map[string]error
}

var (
	_ storage.Store        = (*Store)(nil)
	_ storage.SessionStore = (*Store)(nil)
)

func New() *Store {
	return &Store{
		users:             make(map[string]*models.User),
		lists:             make(map[string]*models.List),
		tasks:             make(map[string]*models.Task),
		sessions:          make(map[string]*models.Session),
		AddUserListErr:    make(map[string]error),
		RemoveUserListErr: make(map[string]error),
	}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Lists = slices.Clone(u.Lists)
	c.PushSubscriptions = slices.Clone(u.PushSubscriptions)
	c.CustomLists = maps.Clone(u.CustomLists)
	return &c
}

func (s *Store) FindUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) findUser(match func(*models.User) bool) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return email != "" && u.Email == email })
}

func (s *Store) FindUserByGoogleID(_ context.Context, googleID string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return googleID != "" && u.GoogleID == googleID })
}

func (s *Store) FindUsersByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, cloneUser(u))
		}
	}
	return users, nil
}

func (s *Store) CreateUserWithInbox(_ context.Context, user *models.User, inbox *models.List) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return storage.ErrDuplicate
	}
	for _, u := range s.users {
		if user.Email != "" && u.Email == user.Email {
			return storage.ErrDuplicate
		}
		if user.GoogleID != "" && u.GoogleID == user.GoogleID {
			return storage.ErrDuplicate
		}
	}
	for _, l := range s.lists {
		if l.ID == inbox.ID || (l.Owner == inbox.Owner && l.Type == models.ListTypeInbox) {
			return storage.ErrDuplicate
		}
	}
	s.users[user.ID] = cloneUser(user)
	s.lists[inbox.ID] = inbox.Clone()
	return nil
}

func (s *Store) SaveUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[user.ID]
	if !ok {
		return storage.ErrNotFound
	}
	u.Name = user.Name
	u.Picture = user.Picture
	u.Timezone = user.Timezone
	u.CustomLists = maps.Clone(user.CustomLists)
	u.UpdatedAt = user.UpdatedAt
	return nil
}

func (s *Store) updateUser(id string, fn func(*models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	fn(u)
	return nil
}

func (s *Store) AddUserList(_ context.Context, userID, listID string) error {
	if err := s.injected(s.AddUserListErr, userID); err != nil {
		return err
	}
	return s.updateUser(userID, func(u *models.User) {
		if !slices.Contains(u.Lists, listID) {
			u.Lists = append(u.Lists, listID)
		}
	})
}

func (s *Store) RemoveUserList(_ context.Context, userID, listID string) error {
	if err := s.injected(s.RemoveUserListErr, userID); err != nil {
		return err
	}
	return s.updateUser(userID, func(u *models.User) {
		u.Lists = slices.DeleteFunc(u.Lists, func(id string) bool { return id == listID })
	})
}

func (s *Store) AddPushSubscription(_ context.Context, userID, endpoint string) error {
	return s.updateUser(userID, func(u *models.User) {
		if !slices.Contains(u.PushSubscriptions, endpoint) {
			u.PushSubscriptions = append(u.PushSubscriptions, endpoint)
		}
	})
}

func (s *Store) RemovePushSubscription(_ context.Context, userID, endpoint string) error {
	return s.updateUser(userID, func(u *models.User) {
		u.PushSubscriptions = slices.DeleteFunc(u.PushSubscriptions, func(e string) bool { return e == endpoint })
	})
}

func (s *Store) injected(errs map[string]error, userID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return errs[userID]
}

func (s *Store) FindListByID(_ context.Context, id string) (*models.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lists[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return l.Clone(), nil
}

func (s *Store) FindOneList(_ context.Context, filter storage.ListFilter) (*models.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.lists {
		if filter.Match(l) {
			return l.Clone(), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) FindListIDsByMember(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for _, l := range s.lists {
		if l.HasMember(userID) {
			ids = append(ids, l.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) CreateList(_ context.Context, list *models.List) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.users[list.Owner]
	if !ok {
		return storage.ErrNotFound
	}
	if _, ok := s.lists[list.ID]; ok {
		return storage.ErrDuplicate
	}
	s.lists[list.ID] = list.Clone()
	if !slices.Contains(owner.Lists, list.ID) {
		owner.Lists = append(owner.Lists, list.ID)
	}
	return nil
}

func (s *Store) PatchList(_ context.Context, id string, patch storage.ListPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[id]
	if !ok {
		return storage.ErrNotFound
	}
	if patch.Tasks != nil && !sameIDs(l.Tasks, patch.Tasks) {
		return storage.ErrConflict
	}

	if patch.Title != nil {
		l.Title = *patch.Title
	}
	if patch.Color != nil {
		l.Color = *patch.Color
	}
	if patch.Tasks != nil {
		l.Tasks = slices.Clone(patch.Tasks)
	}
	l.UpdatedAt = patch.UpdatedAt
	return nil
}

func (s *Store) UpdateListMembers(_ context.Context, id string, added, removed []string, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[id]
	if !ok {
		return storage.ErrNotFound
	}
	l.Members = slices.DeleteFunc(l.Members, func(m string) bool { return slices.Contains(removed, m) })
	for _, m := range added {
		if !slices.Contains(l.Members, m) {
			l.Members = append(l.Members, m)
		}
	}
	l.UpdatedAt = updatedAt
	return nil
}

// sameIDs reports whether order holds exactly the ids of stored.
func sameIDs(stored, order []string) bool {
	if len(stored) != len(order) {
		return false
	}
	for _, id := range order {
		if !slices.Contains(stored, id) {
			return false
		}
	}
	return true
}

func (s *Store) DeleteList(_ context.Context, filter storage.ListFilter) (*models.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, l := range s.lists {
		if filter.Match(l) {
			delete(s.lists, id)
			return l, nil
		}
	}
	return nil, storage.ErrNotFound
}

func without(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(v string) bool { return v == id })
}

func (s *Store) PlaceListTask(_ context.Context, listID, taskID string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[listID]
	if !ok {
		return storage.ErrNotFound
	}
	l.Tasks = without(l.Tasks, taskID)
	l.CompletedTasks = without(l.CompletedTasks, taskID)
	if completed {
		l.CompletedTasks = append([]string{taskID}, l.CompletedTasks...)
	} else {
		l.Tasks = append([]string{taskID}, l.Tasks...)
	}
	return nil
}

func (s *Store) PullListTask(_ context.Context, listID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.lists[listID]
	if !ok {
		return storage.ErrNotFound
	}
	l.Tasks = without(l.Tasks, taskID)
	l.CompletedTasks = without(l.CompletedTasks, taskID)
	return nil
}

func (s *Store) FindTaskByID(_ context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return t.Clone(), nil
}

func (s *Store) FindTasksByIDs(_ context.Context, ids []string) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks := make([]*models.Task, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.tasks[id]; ok {
			tasks = append(tasks, t.Clone())
		}
	}
	return tasks, nil
}

func (s *Store) FindTasks(_ context.Context, filter storage.TaskFilter) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var tasks []*models.Task
	for _, t := range s.tasks {
		if filter.ListIDs != nil && !slices.Contains(filter.ListIDs, t.List) {
			continue
		}
		if filter.Priority != "" && t.Priority != filter.Priority {
			continue
		}
		if filter.DueFrom != nil || filter.DueTo != nil {
			if t.DueDate == nil {
				continue
			}
			if filter.DueFrom != nil && t.DueDate.Before(*filter.DueFrom) {
				continue
			}
			if filter.DueTo != nil && !t.DueDate.Before(*filter.DueTo) {
				continue
			}
		}
		tasks = append(tasks, t.Clone())
	}
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreationDate.Equal(tasks[j].CreationDate) {
			return tasks[i].CreationDate.Before(tasks[j].CreationDate)
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

func (s *Store) CreateTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; ok {
		return storage.ErrDuplicate
	}
	s.tasks[task.ID] = task.Clone()
	return nil
}

func (s *Store) SaveTask(_ context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return storage.ErrNotFound
	}
	s.tasks[task.ID] = task.Clone()
	return nil
}

func (s *Store) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *Store) DeleteTasksByList(_ context.Context, listID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, t := range s.tasks {
		if t.List == listID {
			delete(s.tasks, id)
			n++
		}
	}
	return n, nil
}
