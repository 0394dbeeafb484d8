// Package storage defines the entity store the list engine persists through.
//
// Besides plain find/create/save/delete, the store exposes narrow edge
// primitives (set-add, set-remove, place, pull) that implementations must
// apply atomically per document, so that overlapping operations converge.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/adanyl0v/go-todo-lists/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate")
	ErrConflict  = errors.New("conflict")
)

type Store interface {
	UserStore
	ListStore
	TaskStore
}

type UserStore interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	FindUsersByIDs(ctx context.Context, ids []string) ([]*models.User, error)

	// CreateUserWithInbox stores the user and its inbox list as one unit.
	CreateUserWithInbox(ctx context.Context, user *models.User, inbox *models.List) error
	// SaveUser writes the profile fields only: name, picture, timezone,
	// customLists and updatedAt. Lists and push subscriptions change through
	// their own primitives.
	SaveUser(ctx context.Context, user *models.User) error

	// AddUserList appends listID to user.lists unless present.
	AddUserList(ctx context.Context, userID, listID string) error
	// RemoveUserList strips listID from user.lists.
	RemoveUserList(ctx context.Context, userID, listID string) error

	AddPushSubscription(ctx context.Context, userID, endpoint string) error
	RemovePushSubscription(ctx context.Context, userID, endpoint string) error
}

// ListFilter matches lists on every non-empty field.
type ListFilter struct {
	ID     string
	Owner  string
	Member string
	Type   models.ListType
}

func (f ListFilter) Match(l *models.List) bool {
	if f.ID != "" && l.ID != f.ID {
		return false
	}
	if f.Owner != "" && l.Owner != f.Owner {
		return false
	}
	if f.Member != "" && !l.HasMember(f.Member) {
		return false
	}
	if f.Type != "" && l.Type != f.Type {
		return false
	}
	return true
}

// ListPatch carries the scalar list fields and an optional reorder of the
// incomplete tasks. Nil fields are left alone.
type ListPatch struct {
	Title     *string
	Color     *string
	Tasks     []string
	UpdatedAt time.Time
}

type ListStore interface {
	FindListByID(ctx context.Context, id string) (*models.List, error)
	FindOneList(ctx context.Context, filter ListFilter) (*models.List, error)
	// FindListIDsByMember returns ids of every list the user is a member of.
	FindListIDsByMember(ctx context.Context, userID string) ([]string, error)
	// CreateList inserts the list and appends its id to the owner's lists as
	// one unit. A missing owner is ErrNotFound.
	CreateList(ctx context.Context, list *models.List) error
	// PatchList writes the set fields of patch and nothing else. A reorder is
	// applied only while patch.Tasks is still a permutation of the stored
	// tasks; otherwise nothing is written and ErrConflict is returned.
	PatchList(ctx context.Context, id string, patch ListPatch) error
	// UpdateListMembers appends added and strips removed from members,
	// leaving concurrent changes to other ids in place.
	UpdateListMembers(ctx context.Context, id string, added, removed []string, updatedAt time.Time) error
	// DeleteList removes the single list matching filter and returns it.
	DeleteList(ctx context.Context, filter ListFilter) (*models.List, error)

	// PlaceListTask strips taskID from both task arrays of the list and
	// prepends it to completedTasks or tasks depending on completed.
	PlaceListTask(ctx context.Context, listID, taskID string, completed bool) error
	// PullListTask strips taskID from both task arrays of the list.
	PullListTask(ctx context.Context, listID, taskID string) error
}

// TaskFilter matches tasks on every set field. DueFrom is inclusive, DueTo
// exclusive.
type TaskFilter struct {
	ListIDs  []string
	Priority models.Priority
	DueFrom  *time.Time
	DueTo    *time.Time
}

type TaskStore interface {
	FindTaskByID(ctx context.Context, id string) (*models.Task, error)
	FindTasksByIDs(ctx context.Context, ids []string) ([]*models.Task, error)
	FindTasks(ctx context.Context, filter TaskFilter) ([]*models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) error
	SaveTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error
	DeleteTasksByList(ctx context.Context, listID string) (int64, error)
}

type SessionStore interface {
	FindSessionByID(ctx context.Context, id string) (*models.Session, error)
	FindSessionByRefreshToken(ctx context.Context, refreshToken, fingerprint string) (*models.Session, error)
	// ReplaceUserSessions deletes every session of the user and stores the
	// given one as a single unit.
	ReplaceUserSessions(ctx context.Context, session *models.Session) error
	CreateSession(ctx context.Context, session *models.Session) error
	// RotateSession stores a new refresh token and expiry for the session.
	RotateSession(ctx context.Context, session *models.Session) error
	DeleteUserSessions(ctx context.Context, userID string) (int64, error)
}
