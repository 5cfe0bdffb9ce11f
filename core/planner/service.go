package planner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/subject"
)

var (
	ErrSlotNotFound    = core.NewNotFoundError("slot not found")
	ErrSubjectNotFound = core.NewNotFoundError("subject not found")
	ErrInvalidDay      = errors.New("day_of_week must be between 0 (Sunday) and 6 (Saturday)")

	errSlotMoved = errors.New("slot moved concurrently")
)

const maxUpdateAttempts = 3

type (
	Repository interface {
		CreateSlot(ctx context.Context, slot Slot, exec ...core.DBExecutor) (Slot, error)
		// GetSlot only finds slots owned by userID.
		GetSlot(ctx context.Context, userID, id string, exec ...core.DBExecutor) (Slot, error)
		QuerySlots(ctx context.Context, userID string, filter QueryFilter, page core.Pagination, exec ...core.DBExecutor) ([]Slot, error)
		// QueryActiveSlots returns the user's active slots ordered by day and start time.
		// A nil day returns the whole week.
		QueryActiveSlots(ctx context.Context, userID string, day *int, exec ...core.DBExecutor) ([]Slot, error)
		UpdateSlot(ctx context.Context, slot Slot, exec ...core.DBExecutor) (Slot, error)
		DeleteSlot(ctx context.Context, userID, id string, exec ...core.DBExecutor) error
	}

	SubjectGetter interface {
		GetSubject(ctx context.Context, userID, id string, exec ...core.DBExecutor) (subject.Subject, error)
	}

	Service interface {
		Create(ctx context.Context, userID string, ns NewSlot) (Slot, error)
		Get(ctx context.Context, userID, id string) (Slot, error)
		Query(ctx context.Context, userID string, filter QueryFilter, page core.Pagination) ([]Slot, error)
		ByDay(ctx context.Context, userID string, day int) ([]Slot, error)
		Update(ctx context.Context, userID, id string, us UpdateSlot) (Slot, error)
		BulkReschedule(ctx context.Context, userID string, moves []SlotMove) ([]MoveResult, error)
		Delete(ctx context.Context, userID, id string) error
		WeeklySummary(ctx context.Context, userID string) (WeeklySummary, error)
	}

	service struct {
		db       core.DB
		repo     Repository
		subjects SubjectGetter
		locks    *keyedMutex
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, subjects SubjectGetter) Service {
	return &service{
		db:       db,
		repo:     repo,
		subjects: subjects,
		locks:    newKeyedMutex(),
	}
}

func checkDay(day int) error {
	if day < 0 || day > 6 {
		return core.NewValidationError(ErrInvalidDay, core.FieldError{Field: "day_of_week", Error: ErrInvalidDay.Error()})
	}
	return nil
}

// prepare checks subject ownership and the time range, and derives the duration when absent.
func (svc *service) prepare(ctx context.Context, slot *Slot, tx core.DBExecutor) error {
	if err := checkDay(slot.DayOfWeek); err != nil {
		return err
	}
	if err := checkTimes(slot.StartTime, slot.EndTime); err != nil {
		return err
	}
	if !slot.DurationMinutes.Valid {
		mins, _ := DurationMinutes(slot.StartTime, slot.EndTime)
		slot.DurationMinutes = null.IntFrom(mins)
	}

	if slot.SubjectID.Valid {
		if _, err := svc.subjects.GetSubject(ctx, slot.UserID, slot.SubjectID.String, tx); err != nil {
			if core.IsNotFound(err) {
				return ErrSubjectNotFound
			}
			return errors.Wrap(err, "checking subject ownership")
		}
	}
	return nil
}

func conflictError(c Slot) error {
	return core.NewConflictError(
		fmt.Sprintf("time slot conflicts with an existing slot (%s-%s)", c.StartTime, c.EndTime),
		c.ID,
	)
}

// checkConflict runs against the persisted schedule of slot's day.
func (svc *service) checkConflict(ctx context.Context, slot Slot, tx core.DBExecutor) error {
	if !slot.IsActive {
		return nil
	}
	iv, err := slot.Interval()
	if err != nil {
		return core.NewValidationError(err)
	}
	existing, err := svc.repo.QueryActiveSlots(ctx, slot.UserID, &slot.DayOfWeek, tx)
	if err != nil {
		return errors.Wrap(err, "querying day slots")
	}
	if c, found := FindConflict(iv, existing, slot.ID); found {
		return conflictError(c)
	}
	return nil
}

func (svc *service) Create(ctx context.Context, userID string, ns NewSlot) (Slot, error) {
	now := time.Now().UTC()
	slot := Slot{
		ID:          uuid.New().String(),
		UserID:      userID,
		SubjectID:   null.StringFromPtr(ns.SubjectID),
		StartTime:   ns.StartTime,
		EndTime:     ns.EndTime,
		Title:       null.StringFromPtr(ns.Title),
		Description: null.StringFromPtr(ns.Description),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ns.DayOfWeek != nil {
		slot.DayOfWeek = *ns.DayOfWeek
	}
	if ns.DurationMinutes != nil {
		slot.DurationMinutes = null.IntFrom(*ns.DurationMinutes)
	}
	if ns.IsActive != nil {
		slot.IsActive = *ns.IsActive
	}

	unlock := svc.locks.Lock(dayKey(userID, slot.DayOfWeek))
	defer unlock()

	var created Slot
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) (err error) {
		if err = svc.prepare(ctx, &slot, tx); err != nil {
			return err
		}
		if err = svc.checkConflict(ctx, slot, tx); err != nil {
			return err
		}
		created, err = svc.repo.CreateSlot(ctx, slot, tx)
		return err
	})
	return created, err
}

func (svc *service) Get(ctx context.Context, userID, id string) (Slot, error) {
	return svc.repo.GetSlot(ctx, userID, id)
}

func (svc *service) Query(ctx context.Context, userID string, filter QueryFilter, page core.Pagination) ([]Slot, error) {
	if filter.DayOfWeek != nil {
		if err := checkDay(*filter.DayOfWeek); err != nil {
			return nil, err
		}
	}
	if err := core.CheckOrdering(filter.Ordering, OrderingFields); err != nil {
		return nil, err
	}
	page.Clean()
	return svc.repo.QuerySlots(ctx, userID, filter, page)
}

func (svc *service) ByDay(ctx context.Context, userID string, day int) ([]Slot, error) {
	if err := checkDay(day); err != nil {
		return nil, err
	}
	return svc.repo.QueryActiveSlots(ctx, userID, &day)
}

func (svc *service) Update(ctx context.Context, userID, id string, us UpdateSlot) (Slot, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		slot, err := svc.update(ctx, userID, id, us)
		if errors.Cause(err) == errSlotMoved {
			continue
		}
		return slot, err
	}
	return Slot{}, errors.Wrapf(errSlotMoved, "updating slot %s", id)
}

// update locks the slot's current day and its target day, then re-reads the slot
// inside the transaction. errSlotMoved means the lock set went stale before it was held.
func (svc *service) update(ctx context.Context, userID, id string, us UpdateSlot) (Slot, error) {
	cur, err := svc.repo.GetSlot(ctx, userID, id)
	if err != nil {
		return Slot{}, err
	}
	keys := []string{dayKey(userID, cur.DayOfWeek)}
	if us.DayOfWeek != nil {
		keys = append(keys, dayKey(userID, *us.DayOfWeek))
	}

	unlock := svc.locks.Lock(keys...)
	defer unlock()

	var updated Slot
	err = core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		slot, err := svc.repo.GetSlot(ctx, userID, id, tx)
		if err != nil {
			return err
		}
		if slot.DayOfWeek != cur.DayOfWeek {
			return errSlotMoved
		}

		us.apply(&slot)
		slot.UpdatedAt = time.Now().UTC()
		if err = svc.prepare(ctx, &slot, tx); err != nil {
			return err
		}
		if us.movesSlot() {
			if err = svc.checkConflict(ctx, slot, tx); err != nil {
				return err
			}
		}
		updated, err = svc.repo.UpdateSlot(ctx, slot, tx)
		return err
	})
	return updated, err
}

// BulkReschedule validates every move against the projected week: the persisted
// active slots with the earlier accepted moves of the batch applied. Rejected moves
// carry their own error and do not affect the others. Accepted moves are saved together.
func (svc *service) BulkReschedule(ctx context.Context, userID string, moves []SlotMove) ([]MoveResult, error) {
	unlock := svc.locks.Lock(weekKeys(userID)...)
	defer unlock()

	results := make([]MoveResult, len(moves))
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		active, err := svc.repo.QueryActiveSlots(ctx, userID, nil, tx)
		if err != nil {
			return errors.Wrap(err, "querying week slots")
		}
		projected := newProjection(active)

		accepted := make([]int, 0, len(moves))
		for i := range moves {
			mv := &moves[i]
			results[i].ID = mv.ID

			if err := mv.check(); err != nil {
				results[i].Error = err.Error()
				continue
			}

			slot, ok := projected.get(mv.ID)
			if !ok {
				if slot, err = svc.repo.GetSlot(ctx, userID, mv.ID, tx); err != nil {
					if !core.IsNotFound(err) {
						return errors.Wrapf(err, "getting slot %s", mv.ID)
					}
					results[i].Error = ErrSlotNotFound.Error()
					continue
				}
			}

			slot.DayOfWeek = *mv.DayOfWeek
			slot.StartTime = mv.StartTime
			slot.EndTime = mv.EndTime
			slot.DurationMinutes = null.Int{}
			slot.UpdatedAt = time.Now().UTC()
			if err = svc.prepare(ctx, &slot, tx); err != nil {
				if core.IsNotFound(err) {
					results[i].Error = err.Error()
					continue
				}
				return err
			}

			if slot.IsActive {
				iv, _ := slot.Interval()
				if c, found := FindConflict(iv, projected.slots(), slot.ID); found {
					results[i].Error = conflictError(c).Error()
					results[i].ConflictingID = c.ID
					continue
				}
				projected.put(slot)
			}

			results[i].Success = true
			results[i].Slot = &slot
			accepted = append(accepted, i)
		}

		for _, i := range accepted {
			saved, err := svc.repo.UpdateSlot(ctx, *results[i].Slot, tx)
			if err != nil {
				return errors.Wrapf(err, "saving slot %s", results[i].ID)
			}
			results[i].Slot = &saved
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (svc *service) Delete(ctx context.Context, userID, id string) error {
	return svc.repo.DeleteSlot(ctx, userID, id)
}

func (svc *service) WeeklySummary(ctx context.Context, userID string) (WeeklySummary, error) {
	slots, err := svc.repo.QueryActiveSlots(ctx, userID, nil)
	if err != nil {
		return WeeklySummary{}, errors.Wrap(err, "querying week slots")
	}
	return BuildWeeklySummary(slots), nil
}

// projection is the in-memory week a bulk reschedule is checked against.
type projection struct {
	byID map[string]Slot
}

func newProjection(active []Slot) *projection {
	p := &projection{byID: make(map[string]Slot, len(active))}
	for _, s := range active {
		p.byID[s.ID] = s
	}
	return p
}

func (p *projection) get(id string) (Slot, bool) {
	s, ok := p.byID[id]
	return s, ok
}

func (p *projection) put(s Slot) { p.byID[s.ID] = s }

// slots returns the projected week ordered by day and start time.
func (p *projection) slots() []Slot {
	out := make([]Slot, 0, len(p.byID))
	for _, s := range p.byID {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayOfWeek != out[j].DayOfWeek {
			return out[i].DayOfWeek < out[j].DayOfWeek
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out
}
