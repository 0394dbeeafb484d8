package services

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/go-todo-lists/internal/models"
)

// Actor is the authenticated caller of an engine operation.
type Actor struct {
	UserID   string
	Name     string
	Location *time.Location
}

func (a Actor) location() *time.Location {
	if a.Location == nil {
		return time.UTC
	}
	return a.Location
}

func (a Actor) displayName() string {
	if a.Name == "" {
		return "Someone"
	}
	return a.Name
}

type AuthService interface {
	// Login authenticates the user by email and password.
	//
	// It deletes all sessions with the same user ID and creates
	// a new session and generates a new JWT token pair.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Refresh updates the session with the given refresh token.
	//
	// It returns ErrSessionNotFound if the session with the
	// given refresh token doesn't exist or ErrSessionExpired
	// if the session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// Register creates a user, together with its inbox list, and
	// opens a session for it.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists.
	Register(ctx context.Context, params RegisterParams) (*LoginResult, error)

	// GoogleAuthURL returns the consent page URL for the given state.
	GoogleAuthURL(state string) (string, error)

	// SignInWithGoogle exchanges an OAuth code, creates the user on
	// first sign-in and opens a session.
	SignInWithGoogle(ctx context.Context, params GoogleSignInParams) (*LoginResult, error)

	// Logout invalidates all sessions with the given user ID.
	Logout(ctx context.Context, userID string) error

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type SessionService interface {
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)
}

type UserService interface {
	// CreateUser stores a new user together with its inbox.
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindOrCreateGoogleUser(ctx context.Context, params CreateUserParams) (*models.User, error)
	UpdateProfile(ctx context.Context, actor Actor, params UpdateProfileParams) (*models.User, error)
	AddPushSubscription(ctx context.Context, actor Actor, endpoint string) error
	RemovePushSubscription(ctx context.Context, actor Actor, endpoint string) error
}

type ListService interface {
	// GetLists returns the enabled virtual lists followed by the
	// actor's lists in display order.
	GetLists(ctx context.Context, actor Actor, opts ViewOptions) ([]models.ListView, error)
	GetList(ctx context.Context, actor Actor, ref models.ListRef, opts ViewOptions) (*models.ListView, error)
	CreateList(ctx context.Context, actor Actor, params CreateListParams) (*models.ListView, error)
	UpdateList(ctx context.Context, actor Actor, ref models.ListRef, params UpdateListParams) (*models.ListView, error)
	DeleteList(ctx context.Context, actor Actor, ref models.ListRef) error
}

type TaskService interface {
	CreateTask(ctx context.Context, actor Actor, ref models.ListRef, params CreateTaskParams) (*models.Task, error)
	GetTask(ctx context.Context, actor Actor, taskID string) (*models.Task, error)
	UpdateTask(ctx context.Context, actor Actor, taskID string, params UpdateTaskParams) (*models.Task, error)
	DeleteTask(ctx context.Context, actor Actor, taskID string) error
}

type LoginParams struct {
	Email       string
	Password    string
	Fingerprint string
}

type RegisterParams struct {
	Email       string
	Password    string
	Name        string
	Timezone    string
	Fingerprint string
}

type GoogleSignInParams struct {
	Code        string
	Fingerprint string
}

type LoginResult struct {
	UserID                string
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}

type CreateUserParams struct {
	Email        string
	Name         string
	Picture      string
	GoogleID     string
	PasswordHash string
	Timezone     string
}

type UpdateProfileParams struct {
	Name        *string
	Timezone    *string
	CustomLists map[models.VirtualKind]bool
}

type ViewOptions struct {
	IncludeCompleted bool
}

// CreateListParams is the allow-list of caller-settable list fields. Owner,
// members and type are always derived by the engine.
type CreateListParams struct {
	Title string
	Color string
}

// UpdateListParams carries a partial list update. Nil fields are left alone;
// a non-nil empty slice is a real value.
type UpdateListParams struct {
	Title   *string
	Color   *string
	Tasks   []string
	Members []string
}

type CreateTaskParams struct {
	Title       string
	Notes       string
	DueDate     *DueDate
	Priority    models.Priority
	Subtasks    []models.Subtask
	IsCompleted bool
}

// UpdateTaskParams carries a partial task update. CreatedBy and CreationDate
// are only accepted when they repeat the stored value.
type UpdateTaskParams struct {
	Title        *string
	Notes        *string
	List         *string
	IsCompleted  *bool
	DueDate      *DueDate
	ClearDueDate bool
	Priority     *models.Priority
	Subtasks     []models.Subtask
	CreatedBy    *string
	CreationDate *time.Time
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides time.Now for creation dates and day windows.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func applyOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
