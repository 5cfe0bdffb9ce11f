package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/progress"
	"github.com/trezcool/ratiba/storage/database"
)

const selectEntries = `
SELECT e.id, e.user_id, e.subject_id, sub.name AS subject_name, e.date, e.hours, e.sessions, e.notes,
       e.created_at, e.updated_at
FROM progress_entry e
LEFT JOIN subject sub ON sub.id = e.subject_id`

type progressRepository struct {
	repository
}

var _ progress.Repository = (*progressRepository)(nil)

func NewProgressRepository(db core.DB) *progressRepository {
	return &progressRepository{repository{db: db}}
}

// UpsertEntry folds in a single statement guarded by the (user_id, subject_id, date) unique key.
func (repo progressRepository) UpsertEntry(ctx context.Context, e progress.Entry, exec ...core.DBExecutor) (progress.Entry, bool, error) {
	ex := repo.getExec(exec)
	q := `
INSERT INTO progress_entry (id, user_id, subject_id, date, hours, sessions, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?)
ON CONFLICT (user_id, subject_id, date) DO UPDATE
SET hours      = progress_entry.hours + excluded.hours,
    notes      = COALESCE(excluded.notes, progress_entry.notes),
    sessions   = progress_entry.sessions + 1,
    updated_at = excluded.updated_at
RETURNING id, sessions`

	var row struct {
		ID       string `db:"id"`
		Sessions int    `db:"sessions"`
	}
	err := sqlx.GetContext(ctx, ex, &row, ex.Rebind(q),
		e.ID, e.UserID, e.SubjectID, e.Date, e.Hours, e.Notes, e.CreatedAt.UTC(), e.UpdatedAt.UTC())
	if err != nil {
		return progress.Entry{}, false, errors.Wrap(err, "upserting progress entry")
	}

	entry, err := repo.GetEntry(ctx, e.UserID, row.ID, ex)
	return entry, row.Sessions == 1, err
}

func (repo progressRepository) getEntry(ctx context.Context, ex core.DBExecutor, w *where) (progress.Entry, error) {
	var e progress.Entry
	if err := sqlx.GetContext(ctx, ex, &e, ex.Rebind(selectEntries+w.String()), w.args...); err != nil {
		return progress.Entry{}, trapNoRowsErr(err, progress.ErrNotFound, "getting progress entry")
	}
	return e, nil
}

func (repo progressRepository) GetEntry(ctx context.Context, userID, id string, exec ...core.DBExecutor) (progress.Entry, error) {
	return repo.getEntry(ctx, repo.getExec(exec), newWhere("e.id = ?", id).and("e.user_id = ?", userID))
}

func (repo progressRepository) GetEntryByKey(ctx context.Context, userID, subjectID string, date core.Date, exec ...core.DBExecutor) (progress.Entry, error) {
	w := newWhere("e.user_id = ?", userID).and("e.subject_id = ?", subjectID).and("e.date = ?", date)
	return repo.getEntry(ctx, repo.getExec(exec), w)
}

var entryOrderColumns = map[string]string{
	"date":         "e.date",
	"hours":        "e.hours",
	"sessions":     "e.sessions",
	"subject_name": "sub.name",
	"created_at":   "e.created_at",
}

func (repo progressRepository) QueryEntries(ctx context.Context, userID string, filter progress.QueryFilter, page core.Pagination, exec ...core.DBExecutor) ([]progress.Entry, error) {
	ex := repo.getExec(exec)
	w := newWhere("e.user_id = ?", userID)
	if filter.SubjectID != "" {
		w.and("e.subject_id = ?", filter.SubjectID)
	}
	if !filter.From.IsZero() {
		w.and("e.date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		w.and("e.date <= ?", filter.To)
	}

	entries := make([]progress.Entry, 0)
	q := selectEntries + w.String() + orderBy(filter.Ordering, entryOrderColumns, "e.date DESC, sub.name") + paginate(page)
	if err := sqlx.SelectContext(ctx, ex, &entries, ex.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying progress entries")
	}
	return entries, nil
}

func (repo progressRepository) UpdateEntry(ctx context.Context, e progress.Entry, exec ...core.DBExecutor) (progress.Entry, error) {
	ex := repo.getExec(exec)
	q := `
UPDATE progress_entry
SET subject_id = ?, date = ?, hours = ?, notes = ?, updated_at = ?
WHERE id = ? AND user_id = ?`
	res, err := ex.ExecContext(ctx, ex.Rebind(q),
		e.SubjectID, e.Date, e.Hours, e.Notes, e.UpdatedAt.UTC(), e.ID, e.UserID)
	if err != nil && database.IsUniqueViolation(err) {
		return progress.Entry{}, core.NewConflictError(progress.ErrEntryExists, "")
	}
	if err = mustAffect(res, err, progress.ErrNotFound, "updating progress entry"); err != nil {
		return progress.Entry{}, err
	}
	return repo.GetEntry(ctx, e.UserID, e.ID, ex)
}

func (repo progressRepository) DeleteEntry(ctx context.Context, userID, id string, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	res, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM progress_entry WHERE id = ? AND user_id = ?`), id, userID)
	return mustAffect(res, err, progress.ErrNotFound, "deleting progress entry")
}
