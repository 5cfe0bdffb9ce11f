package planner_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/planner"
	"github.com/trezcool/ratiba/core/subject"
	"github.com/trezcool/ratiba/core/user"
	"github.com/trezcool/ratiba/storage/database/sqlxrepos"
	"github.com/trezcool/ratiba/tests"
)

type fixture struct {
	svc   planner.Service
	repo  planner.Repository
	usr   user.User
	other user.User
	sub   subject.Subject
}

func setup(t *testing.T) fixture {
	conf := testutil.NewConfig()
	db := testutil.PrepareDB(t, conf)

	usrRepo := sqlxrepos.NewUserRepository(db)
	subRepo := sqlxrepos.NewSubjectRepository(db)
	slotRepo := sqlxrepos.NewSlotRepository(db)

	f := fixture{
		svc:   planner.NewService(db, slotRepo, subRepo),
		repo:  slotRepo,
		usr:   testutil.CreateUser(t, usrRepo, "Amani", "amani@test.cd"),
		other: testutil.CreateUser(t, usrRepo, "Baraka", "baraka@test.cd"),
	}
	f.sub = testutil.CreateSubject(t, subRepo, f.usr.ID, "Maths")
	return f
}

func newSlot(day int, start, end string) planner.NewSlot {
	return planner.NewSlot{DayOfWeek: testutil.IntPtr(day), StartTime: start, EndTime: end}
}

// assertDisjoint checks that no two active slots of the same day overlap.
func assertDisjoint(t *testing.T, f fixture) {
	t.Helper()
	slots, err := f.repo.QueryActiveSlots(context.Background(), f.usr.ID, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, slot := range slots {
		iv, err := slot.Interval()
		if err != nil {
			t.Fatal(err)
		}
		if c, found := planner.FindConflict(iv, slots[i+1:], slot.ID); found {
			t.Errorf("slots %s and %s overlap", slot.ID, c.ID)
		}
	}
}

func TestService_Create(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.usr.ID, newSlot(1, "09:00", "10:00"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	assert.Equal(t, 60, first.DurationMinutes.Int)
	assert.True(t, first.IsActive)

	// touching endpoints
	_, err = f.svc.Create(ctx, f.usr.ID, newSlot(1, "10:00", "11:00"))
	assert.NoError(t, err)

	_, err = f.svc.Create(ctx, f.usr.ID, newSlot(1, "09:30", "10:30"))
	if assert.True(t, core.IsConflict(err), "want conflict, got %v", err) {
		assert.Equal(t, first.ID, errors.Cause(err).(*core.ConflictError).ConflictingID)
	}

	// other day, other user, inactive
	_, err = f.svc.Create(ctx, f.usr.ID, newSlot(2, "09:30", "10:30"))
	assert.NoError(t, err)
	_, err = f.svc.Create(ctx, f.other.ID, newSlot(1, "09:30", "10:30"))
	assert.NoError(t, err)
	inactive := newSlot(1, "09:30", "10:30")
	inactive.IsActive = testutil.BoolPtr(false)
	_, err = f.svc.Create(ctx, f.usr.ID, inactive)
	assert.NoError(t, err)

	// explicit duration is kept
	ns := newSlot(3, "09:00", "10:00")
	ns.DurationMinutes = testutil.IntPtr(45)
	ns.SubjectID = &f.sub.ID
	withSub, err := f.svc.Create(ctx, f.usr.ID, ns)
	if assert.NoError(t, err) {
		assert.Equal(t, 45, withSub.DurationMinutes.Int)
		assert.Equal(t, "Maths", withSub.SubjectName.String)
	}

	// subject of someone else
	ns = newSlot(4, "09:00", "10:00")
	ns.SubjectID = &f.sub.ID
	_, err = f.svc.Create(ctx, f.other.ID, ns)
	assert.Equal(t, planner.ErrSubjectNotFound, errors.Cause(err))

	_, err = f.svc.Create(ctx, f.usr.ID, newSlot(4, "11:00", "10:00"))
	assert.Error(t, err)

	assertDisjoint(t, f)
}

func TestService_Update(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a, _ := f.svc.Create(ctx, f.usr.ID, newSlot(1, "09:00", "10:00"))
	b, _ := f.svc.Create(ctx, f.usr.ID, newSlot(1, "10:00", "11:00"))

	tests := []struct {
		name     string
		userID   string
		id       string
		us       planner.UpdateSlot
		wantErr  error
		conflict string
	}{
		{name: "not owned", userID: f.other.ID, id: a.ID, us: planner.UpdateSlot{Title: testutil.StrPtr("x")}, wantErr: planner.ErrSlotNotFound},
		{name: "unknown", userID: f.usr.ID, id: "nope", us: planner.UpdateSlot{Title: testutil.StrPtr("x")}, wantErr: planner.ErrSlotNotFound},
		{name: "overlap", userID: f.usr.ID, id: a.ID, us: planner.UpdateSlot{EndTime: testutil.StrPtr("10:30")}, conflict: b.ID},
		{name: "shrink itself", userID: f.usr.ID, id: a.ID, us: planner.UpdateSlot{StartTime: testutil.StrPtr("09:30")}},
		{name: "move day", userID: f.usr.ID, id: b.ID, us: planner.UpdateSlot{DayOfWeek: testutil.IntPtr(2)}},
		{name: "subject not owned", userID: f.usr.ID, id: a.ID, us: planner.UpdateSlot{SubjectID: testutil.StrPtr("6f1c1e4c-1111-4b5c-9f55-111111111111")}, wantErr: planner.ErrSubjectNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Update(ctx, tt.userID, tt.id, tt.us)
			switch {
			case tt.conflict != "":
				if assert.True(t, core.IsConflict(err), "want conflict, got %v", err) {
					assert.Equal(t, tt.conflict, errors.Cause(err).(*core.ConflictError).ConflictingID)
				}
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			default:
				assert.NoError(t, err)
			}
		})
	}

	got, _ := f.svc.Get(ctx, f.usr.ID, a.ID)
	assert.Equal(t, "09:30", got.StartTime)
	assert.Equal(t, 30, got.DurationMinutes.Int) // recomputed

	// reactivation is checked
	c, _ := f.svc.Create(ctx, f.usr.ID, newSlot(2, "11:00", "12:00"))
	_, err := f.svc.Update(ctx, f.usr.ID, c.ID, planner.UpdateSlot{IsActive: testutil.BoolPtr(false)})
	assert.NoError(t, err)
	_, err = f.svc.Update(ctx, f.usr.ID, c.ID, planner.UpdateSlot{StartTime: testutil.StrPtr("10:00")})
	assert.NoError(t, err) // inactive: no conflict with b
	_, err = f.svc.Update(ctx, f.usr.ID, c.ID, planner.UpdateSlot{IsActive: testutil.BoolPtr(true)})
	assert.True(t, core.IsConflict(err), "want conflict, got %v", err)

	// unassign
	withSub := newSlot(5, "08:00", "09:00")
	withSub.SubjectID = &f.sub.ID
	s, _ := f.svc.Create(ctx, f.usr.ID, withSub)
	s, err = f.svc.Update(ctx, f.usr.ID, s.ID, planner.UpdateSlot{SubjectID: testutil.StrPtr("")})
	if assert.NoError(t, err) {
		assert.False(t, s.SubjectID.Valid)
	}

	assertDisjoint(t, f)
}

func TestService_BulkReschedule(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a, _ := f.svc.Create(ctx, f.usr.ID, newSlot(1, "09:00", "10:00"))
	b, _ := f.svc.Create(ctx, f.usr.ID, newSlot(1, "10:00", "11:00"))
	c, _ := f.svc.Create(ctx, f.usr.ID, newSlot(3, "09:00", "10:00"))
	foreign, _ := f.svc.Create(ctx, f.other.ID, newSlot(4, "09:00", "10:00"))

	move := func(id string, day int, start, end string) planner.SlotMove {
		return planner.SlotMove{ID: id, DayOfWeek: testutil.IntPtr(day), StartTime: start, EndTime: end}
	}

	results, err := f.svc.BulkReschedule(ctx, f.usr.ID, []planner.SlotMove{
		move(b.ID, 1, "11:00", "12:00"),       // frees 10:00-11:00
		move(a.ID, 1, "10:00", "11:00"),       // fits thanks to the move above
		move(c.ID, 1, "10:30", "11:30"),       // collides with both projected moves
		move(foreign.ID, 1, "13:00", "14:00"), // not owned
		move(c.ID, 7, "13:00", "14:00"),       // bad day
		move(c.ID, 2, "14:00", "13:00"),       // bad times
		move(c.ID, 2, "13:00", "14:00"),
	})
	if err != nil {
		t.Fatalf("BulkReschedule() error = %v", err)
	}
	if !assert.Len(t, results, 7) {
		return
	}

	successes := []bool{true, true, false, false, false, false, true}
	for i, res := range results {
		assert.Equal(t, successes[i], res.Success, "move %d: %+v", i, res)
		if res.Success {
			assert.NotNil(t, res.Slot)
			assert.Empty(t, res.Error)
		} else {
			assert.NotEmpty(t, res.Error)
		}
	}
	assert.Equal(t, a.ID, results[2].ConflictingID)
	assert.Equal(t, planner.ErrSlotNotFound.Error(), results[3].Error)

	got, _ := f.svc.Get(ctx, f.usr.ID, a.ID)
	assert.Equal(t, "10:00", got.StartTime)
	got, _ = f.svc.Get(ctx, f.usr.ID, c.ID)
	assert.Equal(t, 2, got.DayOfWeek)
	assert.Equal(t, 60, got.DurationMinutes.Int)
	got, _ = f.svc.Get(ctx, f.other.ID, foreign.ID)
	assert.Equal(t, 4, got.DayOfWeek)

	assertDisjoint(t, f)
}

func TestService_BulkReschedule_samePlacement(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a, _ := f.svc.Create(ctx, f.usr.ID, newSlot(1, "09:00", "10:00"))
	b, _ := f.svc.Create(ctx, f.usr.ID, newSlot(2, "09:00", "10:00"))

	results, err := f.svc.BulkReschedule(ctx, f.usr.ID, []planner.SlotMove{
		{ID: a.ID, DayOfWeek: testutil.IntPtr(5), StartTime: "15:00", EndTime: "16:00"},
		{ID: b.ID, DayOfWeek: testutil.IntPtr(5), StartTime: "15:30", EndTime: "16:30"},
	})
	if assert.NoError(t, err) && assert.Len(t, results, 2) {
		assert.True(t, results[0].Success)
		assert.False(t, results[1].Success)
		assert.Equal(t, a.ID, results[1].ConflictingID)
	}
	assertDisjoint(t, f)
}

func TestService_DeleteAndQuery(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a, _ := f.svc.Create(ctx, f.usr.ID, newSlot(1, "09:00", "10:00"))
	_, _ = f.svc.Create(ctx, f.usr.ID, newSlot(1, "07:00", "08:00"))
	_, _ = f.svc.Create(ctx, f.usr.ID, newSlot(6, "07:00", "08:00"))

	assert.Equal(t, planner.ErrSlotNotFound, errors.Cause(f.svc.Delete(ctx, f.other.ID, a.ID)))

	day, err := f.svc.ByDay(ctx, f.usr.ID, 1)
	if assert.NoError(t, err) && assert.Len(t, day, 2) {
		assert.Equal(t, "07:00", day[0].StartTime)
	}
	_, err = f.svc.ByDay(ctx, f.usr.ID, 7)
	assert.Error(t, err)

	all, err := f.svc.Query(ctx, f.usr.ID, planner.QueryFilter{}, core.Pagination{Limit: 2})
	if assert.NoError(t, err) && assert.Len(t, all, 2) {
		assert.Equal(t, 1, all[0].DayOfWeek)
		assert.Equal(t, "07:00", all[0].StartTime)
	}

	ordered, err := f.svc.Query(ctx, f.usr.ID, planner.QueryFilter{
		Ordering: []core.DBOrdering{{Field: "day_of_week"}, {Field: "start_time", Ascending: true}},
	}, core.Pagination{})
	if assert.NoError(t, err) && assert.Len(t, ordered, 3) {
		assert.Equal(t, 6, ordered[0].DayOfWeek)
		assert.Equal(t, "07:00", ordered[1].StartTime)
		assert.Equal(t, "09:00", ordered[2].StartTime)
	}

	_, err = f.svc.Query(ctx, f.usr.ID, planner.QueryFilter{
		Ordering: []core.DBOrdering{{Field: "user_id; DROP TABLE planner_slot"}},
	}, core.Pagination{})
	var vErr *core.ValidationError
	if assert.True(t, errors.As(err, &vErr)) {
		assert.Equal(t, "ordering", vErr.Fields[0].Field)
	}

	assert.NoError(t, f.svc.Delete(ctx, f.usr.ID, a.ID))
	_, err = f.svc.Get(ctx, f.usr.ID, a.ID)
	assert.True(t, core.IsNotFound(err))

	summary, err := f.svc.WeeklySummary(ctx, f.usr.ID)
	if assert.NoError(t, err) {
		assert.Len(t, summary.Days, 7)
		assert.Equal(t, 2, summary.TotalSlots)
		assert.Equal(t, 1, summary.Days[1].SlotsCount)
		assert.Equal(t, 1, summary.Days[6].SlotsCount)
	}
}
