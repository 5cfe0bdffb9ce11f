package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/task"
)

const selectTasks = `
SELECT t.id, t.user_id, t.subject_id, sub.name AS subject_name, t.slot_id, t.title, t.description,
       t.is_completed, t.priority, t.due_date, t.created_date, t.created_at, t.updated_at
FROM task t
LEFT JOIN subject sub ON sub.id = t.subject_id`

type taskRepository struct {
	repository
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db core.DB) *taskRepository {
	return &taskRepository{repository{db: db}}
}

func (repo taskRepository) CreateTask(ctx context.Context, t task.Task, exec ...core.DBExecutor) (task.Task, error) {
	ex := repo.getExec(exec)
	q := `
INSERT INTO task (id, user_id, subject_id, slot_id, title, description, is_completed, priority,
                  due_date, created_date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := ex.ExecContext(ctx, ex.Rebind(q),
		t.ID, t.UserID, t.SubjectID, t.SlotID, t.Title, t.Description, t.IsCompleted, t.Priority,
		t.DueDate, t.CreatedDate, t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	if err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return repo.GetTask(ctx, t.UserID, t.ID, ex)
}

func (repo taskRepository) GetTask(ctx context.Context, userID, id string, exec ...core.DBExecutor) (task.Task, error) {
	ex := repo.getExec(exec)
	var t task.Task
	q := selectTasks + ` WHERE t.id = ? AND t.user_id = ?`
	if err := sqlx.GetContext(ctx, ex, &t, ex.Rebind(q), id, userID); err != nil {
		return task.Task{}, trapNoRowsErr(err, task.ErrNotFound, "getting task")
	}
	return t, nil
}

func (repo taskRepository) selectTasks(ctx context.Context, ex core.DBExecutor, w *where, tail string) ([]task.Task, error) {
	tasks := make([]task.Task, 0)
	if err := sqlx.SelectContext(ctx, ex, &tasks, ex.Rebind(selectTasks+w.String()+tail), w.args...); err != nil {
		return nil, err
	}
	return tasks, nil
}

var taskOrderColumns = map[string]string{
	"title":        "t.title",
	"priority":     "CASE t.priority WHEN 'low' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END",
	"due_date":     "t.due_date",
	"created_date": "t.created_date",
	"is_completed": "t.is_completed",
	"created_at":   "t.created_at",
}

func (repo taskRepository) QueryTasks(ctx context.Context, userID string, filter task.QueryFilter, page core.Pagination, exec ...core.DBExecutor) ([]task.Task, error) {
	w := newWhere("t.user_id = ?", userID)
	if filter.IsCompleted != nil {
		w.and("t.is_completed = ?", *filter.IsCompleted)
	}
	if filter.SubjectID != "" {
		w.and("t.subject_id = ?", filter.SubjectID)
	}
	if filter.CreatedDate != nil {
		w.and("t.created_date = ?", *filter.CreatedDate)
	}
	tail := orderBy(filter.Ordering, taskOrderColumns, "t.created_at DESC, t.title") + paginate(page)
	tasks, err := repo.selectTasks(ctx, repo.getExec(exec), w, tail)
	return tasks, errors.Wrap(err, "querying tasks")
}

func (repo taskRepository) QueryTasksCreatedOn(ctx context.Context, userID string, day core.Date, exec ...core.DBExecutor) ([]task.Task, error) {
	w := newWhere("t.user_id = ?", userID).and("t.created_date = ?", day)
	tasks, err := repo.selectTasks(ctx, repo.getExec(exec), w, ` ORDER BY t.created_at, t.title`)
	return tasks, errors.Wrap(err, "querying day tasks")
}

func (repo taskRepository) UpdateTask(ctx context.Context, t task.Task, exec ...core.DBExecutor) (task.Task, error) {
	ex := repo.getExec(exec)
	q := `
UPDATE task
SET subject_id = ?, title = ?, description = ?, is_completed = ?, priority = ?, due_date = ?, updated_at = ?
WHERE id = ? AND user_id = ?`
	res, err := ex.ExecContext(ctx, ex.Rebind(q),
		t.SubjectID, t.Title, t.Description, t.IsCompleted, t.Priority, t.DueDate, t.UpdatedAt.UTC(), t.ID, t.UserID)
	if err = mustAffect(res, err, task.ErrNotFound, "updating task"); err != nil {
		return task.Task{}, err
	}
	return repo.GetTask(ctx, t.UserID, t.ID, ex)
}

func (repo taskRepository) DeleteTask(ctx context.Context, userID, id string, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	res, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM task WHERE id = ? AND user_id = ?`), id, userID)
	return mustAffect(res, err, task.ErrNotFound, "deleting task")
}

func (repo taskRepository) ClaimDerivation(ctx context.Context, userID string, day core.Date, exec ...core.DBExecutor) (bool, error) {
	ex := repo.getExec(exec)
	q := `INSERT INTO task_derivation (user_id, date, created_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`
	res, err := ex.ExecContext(ctx, ex.Rebind(q), userID, day, time.Now().UTC())
	if err != nil {
		return false, errors.Wrap(err, "claiming derivation")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "claiming derivation")
	}
	return n == 1, nil
}
