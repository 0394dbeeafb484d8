package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/adanyl0v/go-todo-lists/internal/models"
	"github.com/adanyl0v/go-todo-lists/internal/storage"
)

const taskColumns = `id,
       title,
       notes,
       list,
       created_by,
       is_completed,
       due_date,
       priority,
       subtasks,
       creation_date,
       completion_date`

func scanTask(row pgx.Row) (*models.Task, error) {
	task := new(models.Task)
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Notes,
		&task.List,
		&task.CreatedBy,
		&task.IsCompleted,
		&task.DueDate,
		&task.Priority,
		&task.Subtasks,
		&task.CreationDate,
		&task.CompletionDate,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...any) ([]*models.Task, error) {
	rows, err := s.pgPool.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks")
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	return tasks, nil
}

func (s *Store) FindTaskByID(ctx context.Context, id string) (*models.Task, error) {
	const selectTaskQuery = `
SELECT ` + taskColumns + `
FROM tasks
WHERE id = $1
`
	task, err := scanTask(s.pgPool.QueryRow(ctx, selectTaskQuery, id))
	if err != nil {
		err = mapError(err)
		s.logger.Debug().
			Err(err).
			Str("task_id", id).
			Msg("failed to select task")
		return nil, err
	}
	return task, nil
}

func (s *Store) FindTasksByIDs(ctx context.Context, ids []string) ([]*models.Task, error) {
	const selectTasksQuery = `
SELECT ` + taskColumns + `
FROM tasks
WHERE id = ANY($1)
ORDER BY array_position($1, id)
`
	return s.queryTasks(ctx, selectTasksQuery, ids)
}

func (s *Store) FindTasks(ctx context.Context, filter storage.TaskFilter) ([]*models.Task, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.ListIDs != nil {
		add("list = ANY($%d)", filter.ListIDs)
	}
	if filter.Priority != "" {
		add("priority = $%d", string(filter.Priority))
	}
	if filter.DueFrom != nil {
		add("due_date >= $%d", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		add("due_date < $%d", *filter.DueTo)
	}
	where := "TRUE"
	if len(conds) > 0 {
		where = strings.Join(conds, " AND ")
	}

	query := `
SELECT ` + taskColumns + `
FROM tasks
WHERE ` + where + `
ORDER BY creation_date, id
`
	return s.queryTasks(ctx, query, args...)
}

func (s *Store) CreateTask(ctx context.Context, task *models.Task) error {
	const insertTaskQuery = `
INSERT INTO tasks (id,
                   title,
                   notes,
                   list,
                   created_by,
                   is_completed,
                   due_date,
                   priority,
                   subtasks,
                   creation_date,
                   completion_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	_, err := s.pgPool.Exec(
		ctx,
		insertTaskQuery,
		task.ID,
		task.Title,
		task.Notes,
		task.List,
		task.CreatedBy,
		task.IsCompleted,
		task.DueDate,
		string(task.Priority),
		subtasksOrEmpty(task.Subtasks),
		task.CreationDate,
		task.CompletionDate,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to insert task")
		return mapError(err)
	}
	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("inserted task")
	return nil
}

// SaveTask writes the mutable fields. created_by and creation_date are
// never updated.
func (s *Store) SaveTask(ctx context.Context, task *models.Task) error {
	const updateTaskQuery = `
UPDATE tasks
SET title = $2,
    notes = $3,
    list = $4,
    is_completed = $5,
    due_date = $6,
    priority = $7,
    subtasks = $8,
    completion_date = $9
WHERE id = $1
`
	tag, err := s.pgPool.Exec(
		ctx,
		updateTaskQuery,
		task.ID,
		task.Title,
		task.Notes,
		task.List,
		task.IsCompleted,
		task.DueDate,
		string(task.Priority),
		subtasksOrEmpty(task.Subtasks),
		task.CompletionDate,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to update task")
		return mapError(err)
	}
	return expectAffected(tag)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1
`
	tag, err := s.pgPool.Exec(ctx, deleteTaskQuery, id)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", id).
			Msg("failed to delete task")
		return err
	}
	return expectAffected(tag)
}

func (s *Store) DeleteTasksByList(ctx context.Context, listID string) (int64, error) {
	const deleteTasksQuery = `
DELETE FROM tasks
WHERE list = $1
`
	tag, err := s.pgPool.Exec(ctx, deleteTasksQuery, listID)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("list_id", listID).
			Msg("failed to delete tasks by list")
		return 0, err
	}
	s.logger.Debug().
		Str("list_id", listID).
		Int64("affected", tag.RowsAffected()).
		Msg("deleted tasks by list")
	return tag.RowsAffected(), nil
}

func subtasksOrEmpty(subtasks []models.Subtask) []models.Subtask {
	if subtasks == nil {
		return []models.Subtask{}
	}
	return subtasks
}
