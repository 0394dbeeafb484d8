package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-lists/internal/models"
	"github.com/adanyl0v/go-todo-lists/internal/storage"
)

const defaultTimezone = "UTC"

type userServiceImpl struct {
	logger zerolog.Logger
	store  storage.UserStore
	now    func() time.Time
}

func NewUserService(
	logger zerolog.Logger,
	store storage.UserStore,
	opts ...Option,
) UserService {
	return &userServiceImpl{
		logger: logger,
		store:  store,
		now:    applyOptions(opts).now,
	}
}

// CreateUser stores the user and its inbox in one step. The inbox is the
// first and only entry of user.lists.
func (s *userServiceImpl) CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error) {
	timezone := params.Timezone
	if timezone == "" {
		timezone = defaultTimezone
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, validationError(msgValidationFailed, FieldError{Field: "timezone", Message: err.Error()})
	}

	userID, err := newID()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate user uuid")
		return nil, err
	}
	inboxID, err := newID()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate inbox uuid")
		return nil, err
	}

	now := s.now()
	user := &models.User{
		ID:                userID,
		Email:             strings.ToLower(strings.TrimSpace(params.Email)),
		Name:              strings.TrimSpace(params.Name),
		Picture:           params.Picture,
		GoogleID:          params.GoogleID,
		Password:          params.PasswordHash,
		Timezone:          timezone,
		Lists:             []string{inboxID},
		CustomLists:       models.DefaultCustomLists(),
		PushSubscriptions: []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	inbox := &models.List{
		ID:             inboxID,
		Title:          models.InboxTitle,
		Owner:          user.ID,
		Members:        []string{user.ID},
		Type:           models.ListTypeInbox,
		Tasks:          []string{},
		CompletedTasks: []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	normalizeList(inbox)
	err = validateList(inbox)
	if err != nil {
		return nil, err
	}

	err = s.store.CreateUserWithInbox(ctx, user, inbox)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			s.logger.Error().
				Str("email", user.Email).
				Msg("user already exists")
			return nil, ErrUserAlreadyExists
		}
		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to insert user")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("inbox_id", inbox.ID).
		Msg("created user")
	return user, nil
}

func (s *userServiceImpl) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, s.findError(err, "user_id", userID)
	}
	return user, nil
}

func (s *userServiceImpl) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, s.findError(err, "email", email)
	}
	return user, nil
}

// FindOrCreateGoogleUser returns the user linked to the Google account,
// creating it on first sign-in. An email already taken by a password account
// yields ErrUserAlreadyExists.
func (s *userServiceImpl) FindOrCreateGoogleUser(ctx context.Context, params CreateUserParams) (*models.User, error) {
	user, err := s.store.FindUserByGoogleID(ctx, params.GoogleID)
	if err == nil {
		s.logger.Debug().
			Str("user_id", user.ID).
			Msg("selected google user")
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		s.logger.Error().
			Err(err).
			Str("google_id", params.GoogleID).
			Msg("failed to select user by google id")
		return nil, err
	}
	return s.CreateUser(ctx, params)
}

func (s *userServiceImpl) UpdateProfile(ctx context.Context, actor Actor, params UpdateProfileParams) (*models.User, error) {
	user, err := s.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	var fields []FieldError
	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if len(name) > 100 {
			fields = append(fields, FieldError{Field: "name", Message: "must be at most 100 characters"})
		}
		user.Name = name
	}
	if params.Timezone != nil {
		if _, err := time.LoadLocation(*params.Timezone); err != nil || *params.Timezone == "" {
			fields = append(fields, FieldError{Field: "timezone", Message: "unknown timezone"})
		}
		user.Timezone = *params.Timezone
	}
	for kind, enabled := range params.CustomLists {
		if !kind.Valid() {
			fields = append(fields, FieldError{
				Field:   "customLists." + string(kind),
				Message: fmt.Sprintf("unknown list %q", kind),
			})
			continue
		}
		if user.CustomLists == nil {
			user.CustomLists = models.DefaultCustomLists()
		}
		user.CustomLists[kind] = enabled
	}
	if len(fields) > 0 {
		return nil, validationError(msgValidationFailed, fields...)
	}

	user.UpdatedAt = s.now()
	err = s.store.SaveUser(ctx, user)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to update user")
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Msg("updated profile")
	return user, nil
}

func (s *userServiceImpl) AddPushSubscription(ctx context.Context, actor Actor, endpoint string) error {
	if strings.TrimSpace(endpoint) == "" {
		return validationError(msgValidationFailed, FieldError{Field: "endpoint", Message: "is required"})
	}
	err := s.store.AddPushSubscription(ctx, actor.UserID, endpoint)
	if err != nil {
		return s.findError(err, "user_id", actor.UserID)
	}
	s.logger.Info().
		Str("user_id", actor.UserID).
		Msg("added push subscription")
	return nil
}

func (s *userServiceImpl) RemovePushSubscription(ctx context.Context, actor Actor, endpoint string) error {
	err := s.store.RemovePushSubscription(ctx, actor.UserID, endpoint)
	if err != nil {
		return s.findError(err, "user_id", actor.UserID)
	}
	s.logger.Info().
		Str("user_id", actor.UserID).
		Msg("removed push subscription")
	return nil
}

func (s *userServiceImpl) findError(err error, key, value string) error {
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Error().
			Str(key, value).
			Msg("user not found")
		return ErrUserNotFound
	}
	s.logger.Error().
		Err(err).
		Str(key, value).
		Msg("failed to select user")
	return err
}
