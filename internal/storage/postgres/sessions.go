package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/adanyl0v/go-todo-lists/internal/models"
	"github.com/adanyl0v/go-todo-lists/internal/storage"
)

var _ storage.SessionStore = (*Store)(nil)

const sessionColumns = `id,
       user_id,
       fingerprint,
       refresh_token,
       expires_at,
       created_at,
       updated_at`

func scanSession(row pgx.Row) (*models.Session, error) {
	session := new(models.Session)
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Fingerprint,
		&session.RefreshToken,
		&session.ExpiresAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Store) FindSessionByID(ctx context.Context, id string) (*models.Session, error) {
	const selectSessionByIDQuery = `
SELECT ` + sessionColumns + `
FROM sessions
WHERE id = $1
`
	session, err := scanSession(s.pgPool.QueryRow(ctx, selectSessionByIDQuery, id))
	if err != nil {
		err = mapError(err)
		s.logger.Debug().
			Err(err).
			Str("session_id", id).
			Msg("failed to select session by id")
		return nil, err
	}
	return session, nil
}

func (s *Store) FindSessionByRefreshToken(ctx context.Context, refreshToken, fingerprint string) (*models.Session, error) {
	const selectSessionByRefreshTokenQuery = `
SELECT ` + sessionColumns + `
FROM sessions
WHERE refresh_token = $1 AND
      fingerprint = $2
`
	session, err := scanSession(s.pgPool.QueryRow(ctx, selectSessionByRefreshTokenQuery, refreshToken, fingerprint))
	if err != nil {
		err = mapError(err)
		s.logger.Debug().
			Err(err).
			Msg("failed to select session by refresh token")
		return nil, err
	}
	return session, nil
}

func insertSession(ctx context.Context, q querier, session *models.Session) error {
	const insertSessionQuery = `
INSERT INTO sessions (id,
                      user_id,
                      fingerprint,
                      refresh_token,
                      expires_at,
                      created_at,
                      updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := q.Exec(
		ctx,
		insertSessionQuery,
		session.ID,
		session.UserID,
		session.Fingerprint,
		session.RefreshToken,
		session.ExpiresAt,
		session.CreatedAt,
		session.UpdatedAt,
	)
	return err
}

func deleteUserSessions(ctx context.Context, q querier, userID string) (int64, error) {
	const deleteSessionsByUserIDQuery = `
DELETE FROM sessions
WHERE user_id = $1
`
	tag, err := q.Exec(ctx, deleteSessionsByUserIDQuery, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) ReplaceUserSessions(ctx context.Context, session *models.Session) error {
	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	affected, err := deleteUserSessions(ctx, tx, session.UserID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", session.UserID).
			Msg("failed to delete sessions by user id")
		return err
	}
	s.logger.Debug().
		Str("user_id", session.UserID).
		Int64("affected", affected).
		Msg("deleted sessions by user id")

	err = insertSession(ctx, tx, session)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("session_id", session.ID).
			Msg("failed to insert session")
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
		Str("session_id", session.ID).
		Time("expires_at", session.ExpiresAt).
		Msg("inserted session")
	return nil
}

func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	err := insertSession(ctx, s.pgPool, session)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("session_id", session.ID).
			Msg("failed to insert session")
		return mapError(err)
	}
	s.logger.Debug().
		Str("session_id", session.ID).
		Time("expires_at", session.ExpiresAt).
		Msg("inserted session")
	return nil
}

func (s *Store) RotateSession(ctx context.Context, session *models.Session) error {
	const updateSessionQuery = `
UPDATE sessions
SET refresh_token = $2,
    expires_at = $3,
    updated_at = $4
WHERE id = $1
`
	tag, err := s.pgPool.Exec(
		ctx,
		updateSessionQuery,
		session.ID,
		session.RefreshToken,
		session.ExpiresAt,
		session.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("session_id", session.ID).
			Msg("failed to update session")
		return mapError(err)
	}
	return expectAffected(tag)
}

func (s *Store) DeleteUserSessions(ctx context.Context, userID string) (int64, error) {
	affected, err := deleteUserSessions(ctx, s.pgPool, userID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to delete sessions by user id")
		return 0, err
	}
	s.logger.Debug().
		Str("user_id", userID).
		Int64("affected", affected).
		Msg("deleted sessions by user id")
	return affected, nil
}
