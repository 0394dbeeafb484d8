package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/adanyl0v/go-todo-lists/internal/models"
)

const userColumns = `id,
       COALESCE(email, ''),
       name,
       picture,
       COALESCE(google_id, ''),
       password,
       timezone,
       lists,
       custom_lists,
       push_subscriptions,
       created_at,
       updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	user := new(models.User)
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Picture,
		&user.GoogleID,
		&user.Password,
		&user.Timezone,
		&user.Lists,
		&user.CustomLists,
		&user.PushSubscriptions,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Store) findUser(ctx context.Context, column, value string) (*models.User, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM users
WHERE %s = $1
`, userColumns, column)
	user, err := scanUser(s.pgPool.QueryRow(ctx, query, value))
	if err != nil {
		err = mapError(err)
		s.logger.Debug().
			Err(err).
			Str(column, value).
			Msg("failed to select user")
		return nil, err
	}
	return user, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.findUser(ctx, "id", id)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findUser(ctx, "email", email)
}

func (s *Store) FindUserByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return s.findUser(ctx, "google_id", googleID)
}

func (s *Store) FindUsersByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	const selectUsersQuery = `
SELECT ` + userColumns + `
FROM users
WHERE id = ANY($1)
ORDER BY array_position($1, id)
`
	rows, err := s.pgPool.Query(ctx, selectUsersQuery, ids)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select users by ids")
		return nil, err
	}
	defer rows.Close()

	users := make([]*models.User, 0, len(ids))
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan user")
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func insertUser(ctx context.Context, q querier, user *models.User) error {
	const insertUserQuery = `
INSERT INTO users (id,
                   email,
                   name,
                   picture,
                   google_id,
                   password,
                   timezone,
                   lists,
                   custom_lists,
                   push_subscriptions,
                   created_at,
                   updated_at)
VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12)
`
	_, err := q.Exec(
		ctx,
		insertUserQuery,
		user.ID,
		user.Email,
		user.Name,
		user.Picture,
		user.GoogleID,
		user.Password,
		user.Timezone,
		nonNil(user.Lists),
		user.CustomLists,
		nonNil(user.PushSubscriptions),
		user.CreatedAt,
		user.UpdatedAt,
	)
	return err
}

func (s *Store) CreateUserWithInbox(ctx context.Context, user *models.User, inbox *models.List) error {
	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = insertUser(ctx, tx, user)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to insert user")
		return mapError(err)
	}

	err = insertList(ctx, tx, inbox)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("list_id", inbox.ID).
			Msg("failed to insert inbox")
		return mapError(err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Str("list_id", inbox.ID).
		Msg("inserted user with inbox")
	return nil
}

func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	const updateUserQuery = `
UPDATE users
SET name = $2,
    picture = $3,
    timezone = $4,
    custom_lists = $5,
    updated_at = $6
WHERE id = $1
`
	tag, err := s.pgPool.Exec(
		ctx,
		updateUserQuery,
		user.ID,
		user.Name,
		user.Picture,
		user.Timezone,
		user.CustomLists,
		user.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to update user")
		return mapError(err)
	}
	return expectAffected(tag)
}

// updateUserArray runs one of the set-add/set-remove statements below.
func (s *Store) updateUserArray(ctx context.Context, query, userID, value string) error {
	tag, err := s.pgPool.Exec(ctx, query, userID, value)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to update user array")
		return err
	}
	return expectAffected(tag)
}

// The set-add statements match the row even when the value is already present
// so that RowsAffected only reports a missing user.
const (
	addUserListQuery = `
UPDATE users
SET lists = CASE WHEN $2::text = ANY(lists) THEN lists ELSE array_append(lists, $2) END,
    updated_at = now()
WHERE id = $1
`
	removeUserListQuery = `
UPDATE users
SET lists = array_remove(lists, $2),
    updated_at = now()
WHERE id = $1
`
	addPushSubscriptionQuery = `
UPDATE users
SET push_subscriptions = CASE WHEN $2::text = ANY(push_subscriptions) THEN push_subscriptions
                              ELSE array_append(push_subscriptions, $2) END,
    updated_at = now()
WHERE id = $1
`
	removePushSubscriptionQuery = `
UPDATE users
SET push_subscriptions = array_remove(push_subscriptions, $2),
    updated_at = now()
WHERE id = $1
`
)

func (s *Store) AddUserList(ctx context.Context, userID, listID string) error {
	return s.updateUserArray(ctx, addUserListQuery, userID, listID)
}

func (s *Store) RemoveUserList(ctx context.Context, userID, listID string) error {
	return s.updateUserArray(ctx, removeUserListQuery, userID, listID)
}

func (s *Store) AddPushSubscription(ctx context.Context, userID, endpoint string) error {
	return s.updateUserArray(ctx, addPushSubscriptionQuery, userID, endpoint)
}

func (s *Store) RemovePushSubscription(ctx context.Context, userID, endpoint string) error {
	return s.updateUserArray(ctx, removePushSubscriptionQuery, userID, endpoint)
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
