package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/planner"
)

const selectSlots = `
SELECT s.id, s.user_id, s.subject_id, sub.name AS subject_name, s.day_of_week, s.start_time, s.end_time,
       s.duration_minutes, s.title, s.description, s.is_active, s.created_at, s.updated_at
FROM planner_slot s
LEFT JOIN subject sub ON sub.id = s.subject_id`

type slotRepository struct {
	repository
}

var _ planner.Repository = (*slotRepository)(nil)

func NewSlotRepository(db core.DB) *slotRepository {
	return &slotRepository{repository{db: db}}
}

func (repo slotRepository) CreateSlot(ctx context.Context, slot planner.Slot, exec ...core.DBExecutor) (planner.Slot, error) {
	ex := repo.getExec(exec)
	q := `
INSERT INTO planner_slot (id, user_id, subject_id, day_of_week, start_time, end_time, duration_minutes,
                          title, description, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := ex.ExecContext(ctx, ex.Rebind(q),
		slot.ID, slot.UserID, slot.SubjectID, slot.DayOfWeek, slot.StartTime, slot.EndTime, slot.DurationMinutes,
		slot.Title, slot.Description, slot.IsActive, slot.CreatedAt.UTC(), slot.UpdatedAt.UTC())
	if err != nil {
		return planner.Slot{}, errors.Wrap(err, "inserting slot")
	}
	return repo.GetSlot(ctx, slot.UserID, slot.ID, ex)
}

func (repo slotRepository) GetSlot(ctx context.Context, userID, id string, exec ...core.DBExecutor) (planner.Slot, error) {
	ex := repo.getExec(exec)
	var slot planner.Slot
	q := selectSlots + ` WHERE s.id = ? AND s.user_id = ?`
	if err := sqlx.GetContext(ctx, ex, &slot, ex.Rebind(q), id, userID); err != nil {
		return planner.Slot{}, trapNoRowsErr(err, planner.ErrSlotNotFound, "getting slot")
	}
	return slot, nil
}

var slotOrderColumns = map[string]string{
	"day_of_week":      "s.day_of_week",
	"start_time":       "s.start_time",
	"end_time":         "s.end_time",
	"duration_minutes": "s.duration_minutes",
	"title":            "s.title",
	"created_at":       "s.created_at",
}

const slotDefaultOrder = "s.day_of_week, s.start_time"

func (repo slotRepository) selectSlots(ctx context.Context, ex core.DBExecutor, w *where, tail string) ([]planner.Slot, error) {
	slots := make([]planner.Slot, 0)
	q := selectSlots + w.String() + tail
	if err := sqlx.SelectContext(ctx, ex, &slots, ex.Rebind(q), w.args...); err != nil {
		return nil, err
	}
	return slots, nil
}

func (repo slotRepository) QuerySlots(ctx context.Context, userID string, filter planner.QueryFilter, page core.Pagination, exec ...core.DBExecutor) ([]planner.Slot, error) {
	w := newWhere("s.user_id = ?", userID)
	if filter.DayOfWeek != nil {
		w.and("s.day_of_week = ?", *filter.DayOfWeek)
	}
	if filter.IsActive != nil {
		w.and("s.is_active = ?", *filter.IsActive)
	}
	tail := orderBy(filter.Ordering, slotOrderColumns, slotDefaultOrder) + paginate(page)
	slots, err := repo.selectSlots(ctx, repo.getExec(exec), w, tail)
	return slots, errors.Wrap(err, "querying slots")
}

func (repo slotRepository) QueryActiveSlots(ctx context.Context, userID string, day *int, exec ...core.DBExecutor) ([]planner.Slot, error) {
	w := newWhere("s.user_id = ?", userID).and("s.is_active = ?", true)
	if day != nil {
		w.and("s.day_of_week = ?", *day)
	}
	slots, err := repo.selectSlots(ctx, repo.getExec(exec), w, " ORDER BY "+slotDefaultOrder)
	return slots, errors.Wrap(err, "querying active slots")
}

func (repo slotRepository) UpdateSlot(ctx context.Context, slot planner.Slot, exec ...core.DBExecutor) (planner.Slot, error) {
	ex := repo.getExec(exec)
	q := `
UPDATE planner_slot
SET subject_id = ?, day_of_week = ?, start_time = ?, end_time = ?, duration_minutes = ?,
    title = ?, description = ?, is_active = ?, updated_at = ?
WHERE id = ? AND user_id = ?`
	res, err := ex.ExecContext(ctx, ex.Rebind(q),
		slot.SubjectID, slot.DayOfWeek, slot.StartTime, slot.EndTime, slot.DurationMinutes,
		slot.Title, slot.Description, slot.IsActive, slot.UpdatedAt.UTC(), slot.ID, slot.UserID)
	if err = mustAffect(res, err, planner.ErrSlotNotFound, "updating slot"); err != nil {
		return planner.Slot{}, err
	}
	return repo.GetSlot(ctx, slot.UserID, slot.ID, ex)
}

func (repo slotRepository) DeleteSlot(ctx context.Context, userID, id string, exec ...core.DBExecutor) error {
	ex := repo.getExec(exec)
	res, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM planner_slot WHERE id = ? AND user_id = ?`), id, userID)
	return mustAffect(res, err, planner.ErrSlotNotFound, "deleting slot")
}
