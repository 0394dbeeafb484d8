package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/adanyl0v/go-todo-lists/internal/models"
	"github.com/adanyl0v/go-todo-lists/internal/storage"
)

const listColumns = `id,
       title,
       owner,
       members,
       type,
       tasks,
       completed_tasks,
       color,
       created_at,
       updated_at`

func scanList(row pgx.Row) (*models.List, error) {
	list := new(models.List)
	err := row.Scan(
		&list.ID,
		&list.Title,
		&list.Owner,
		&list.Members,
		&list.Type,
		&list.Tasks,
		&list.CompletedTasks,
		&list.Color,
		&list.CreatedAt,
		&list.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return list, nil
}

// whereList renders filter as a WHERE clause with positional arguments.
func whereList(filter storage.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.ID != "" {
		add("id = $%d", filter.ID)
	}
	if filter.Owner != "" {
		add("owner = $%d", filter.Owner)
	}
	if filter.Member != "" {
		add("$%d = ANY(members)", filter.Member)
	}
	if filter.Type != "" {
		add("type = $%d", string(filter.Type))
	}
	if len(conds) == 0 {
		return "TRUE", nil
	}
	return strings.Join(conds, " AND "), args
}

func (s *Store) FindListByID(ctx context.Context, id string) (*models.List, error) {
	return s.FindOneList(ctx, storage.ListFilter{ID: id})
}

func (s *Store) FindOneList(ctx context.Context, filter storage.ListFilter) (*models.List, error) {
	where, args := whereList(filter)
	query := `
SELECT ` + listColumns + `
FROM lists
WHERE ` + where + `
LIMIT 1
`
	list, err := scanList(s.pgPool.QueryRow(ctx, query, args...))
	if err != nil {
		err = mapError(err)
		s.logger.Debug().
			Err(err).
			Str("list_id", filter.ID).
			Msg("failed to select list")
		return nil, err
	}
	return list, nil
}

func (s *Store) FindListIDsByMember(ctx context.Context, userID string) ([]string, error) {
	const selectListIDsQuery = `
SELECT id
FROM lists
WHERE $1 = ANY(members)
ORDER BY id
`
	rows, err := s.pgPool.Query(ctx, selectListIDsQuery, userID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to select list ids by member")
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("user_id", userID).
			Msg("failed to collect list ids")
		return nil, err
	}
	return ids, nil
}

func insertList(ctx context.Context, q querier, list *models.List) error {
	const insertListQuery = `
INSERT INTO lists (id,
                   title,
                   owner,
                   members,
                   type,
                   tasks,
                   completed_tasks,
                   color,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`
	_, err := q.Exec(
		ctx,
		insertListQuery,
		list.ID,
		list.Title,
		list.Owner,
		nonNil(list.Members),
		string(list.Type),
		nonNil(list.Tasks),
		nonNil(list.CompletedTasks),
		list.Color,
		list.CreatedAt,
		list.UpdatedAt,
	)
	return err
}

// CreateList inserts the list and attaches it to the owner in one
// transaction.
func (s *Store) CreateList(ctx context.Context, list *models.List) error {
	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to begin transaction")
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = insertList(ctx, tx, list)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("list_id", list.ID).
			Msg("failed to insert list")
		return mapError(err)
	}

	tag, err := tx.Exec(ctx, addUserListQuery, list.Owner, list.ID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("list_id", list.ID).
			Str("user_id", list.Owner).
			Msg("failed to attach list to owner")
		return err
	}
	err = expectAffected(tag)
	if err != nil {
		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to commit transaction")
		return err
	}
	s.logger.Debug().
		Str("list_id", list.ID).
		Str("user_id", list.Owner).
		Msg("inserted list")
	return nil
}

// PatchList leaves members and the task arrays to their own statements. The
// reorder condition compares sets, so ids placed or pulled since the caller
// read the list make the write a conflict instead of reverting them.
func (s *Store) PatchList(ctx context.Context, id string, patch storage.ListPatch) error {
	const patchListQuery = `
UPDATE lists
SET title = COALESCE($2, title),
    color = COALESCE($3, color),
    tasks = COALESCE($4::text[], tasks),
    updated_at = $5
WHERE id = $1
  AND ($4::text[] IS NULL
       OR (tasks @> $4::text[]
           AND tasks <@ $4::text[]
           AND cardinality(tasks) = cardinality($4::text[])))
`
	tag, err := s.pgPool.Exec(
		ctx,
		patchListQuery,
		id,
		patch.Title,
		patch.Color,
		patch.Tasks,
		patch.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("list_id", id).
			Msg("failed to patch list")
		return mapError(err)
	}
	if tag.RowsAffected() == 0 && patch.Tasks != nil {
		return storage.ErrConflict
	}
	return expectAffected(tag)
}

func (s *Store) UpdateListMembers(
	ctx context.Context,
	id string,
	added, removed []string,
	updatedAt time.Time,
) error {
	const updateMembersQuery = `
UPDATE lists
SET members = ARRAY(SELECT m
                    FROM unnest(members) WITH ORDINALITY AS kept(m, i)
                    WHERE m <> ALL($3::text[])
                    ORDER BY i)
           || ARRAY(SELECT a
                    FROM unnest($2::text[]) WITH ORDINALITY AS fresh(a, i)
                    WHERE a <> ALL(members)
                    ORDER BY i),
    updated_at = $4
WHERE id = $1
`
	tag, err := s.pgPool.Exec(
		ctx,
		updateMembersQuery,
		id,
		nonNil(added),
		nonNil(removed),
		updatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("list_id", id).
			Msg("failed to update list members")
		return mapError(err)
	}
	return expectAffected(tag)
}

func (s *Store) DeleteList(ctx context.Context, filter storage.ListFilter) (*models.List, error) {
	where, args := whereList(filter)
	query := `
DELETE FROM lists
WHERE id = (SELECT id FROM lists WHERE ` + where + ` LIMIT 1)
RETURNING ` + listColumns
	list, err := scanList(s.pgPool.QueryRow(ctx, query, args...))
	if err != nil {
		err = mapError(err)
		s.logger.Debug().
			Err(err).
			Str("list_id", filter.ID).
			Msg("failed to delete list")
		return nil, err
	}
	s.logger.Debug().
		Str("list_id", list.ID).
		Msg("deleted list")
	return list, nil
}

func (s *Store) PlaceListTask(ctx context.Context, listID, taskID string, completed bool) error {
	const placeTaskQuery = `
UPDATE lists
SET tasks = CASE WHEN $3 THEN array_remove(tasks, $2::text)
                 ELSE array_prepend($2::text, array_remove(tasks, $2::text)) END,
    completed_tasks = CASE WHEN $3 THEN array_prepend($2::text, array_remove(completed_tasks, $2::text))
                           ELSE array_remove(completed_tasks, $2::text) END,
    updated_at = now()
WHERE id = $1
`
	tag, err := s.pgPool.Exec(ctx, placeTaskQuery, listID, taskID, completed)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("list_id", listID).
			Str("task_id", taskID).
			Msg("failed to place task in list")
		return err
	}
	return expectAffected(tag)
}

func (s *Store) PullListTask(ctx context.Context, listID, taskID string) error {
	const pullTaskQuery = `
UPDATE lists
SET tasks = array_remove(tasks, $2::text),
    completed_tasks = array_remove(completed_tasks, $2::text),
    updated_at = now()
WHERE id = $1
`
	tag, err := s.pgPool.Exec(ctx, pullTaskQuery, listID, taskID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("list_id", listID).
			Str("task_id", taskID).
			Msg("failed to pull task from list")
		return err
	}
	return expectAffected(tag)
}
