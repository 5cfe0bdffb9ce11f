package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core/planner"
	"github.com/trezcool/ratiba/tests"
)

type conflictErr struct {
	Error         string `json:"error"`
	ConflictingID string `json:"conflicting_id"`
}

func TestSlotAPI(t *testing.T) {
	app := setup(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, app.usrRepo, "Amani", "amani@test.cd")
	other := testutil.CreateUser(t, app.usrRepo, "Baraka", "baraka@test.cd")
	token := app.getToken(t, usr)
	maths := testutil.CreateSubject(t, app.subRepo, usr.ID, "Maths")
	history := testutil.CreateSubject(t, app.subRepo, other.ID, "History")

	existing := testutil.CreateSlot(t, app.slotRepo, usr.ID, maths.ID, 1, "09:00", "10:00")
	foreign := testutil.CreateSlot(t, app.slotRepo, other.ID, history.ID, 1, "09:00", "10:00")

	tests := []httpTest{
		{
			name:     "create",
			method:   http.MethodPost,
			path:     "/v1/slots",
			body:     []byte(`{"subject_id":"` + maths.ID + `","day_of_week":1,"start_time":"10:00","end_time":"11:30"}`),
			token:    token,
			wantCode: http.StatusCreated,
		},
		{
			name:     "conflict",
			method:   http.MethodPost,
			path:     "/v1/slots",
			body:     []byte(`{"day_of_week":1,"start_time":"09:30","end_time":"10:30"}`),
			token:    token,
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, conflictErr{
				Error:         "time slot conflicts with an existing slot (09:00-10:00)",
				ConflictingID: existing.ID,
			}),
		},
		{
			name:     "missing start time",
			method:   http.MethodPost,
			path:     "/v1/slots",
			body:     []byte(`{"day_of_week":1,"end_time":"10:30"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"start_time":"this field is required"}`),
		},
		{
			name:     "bad time format",
			method:   http.MethodPost,
			path:     "/v1/slots",
			body:     []byte(`{"day_of_week":1,"start_time":"9h","end_time":"10:30"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"start_time":"must be a 24-hour time formatted as HH:MM"}`),
		},
		{
			name:     "end before start",
			method:   http.MethodPost,
			path:     "/v1/slots",
			body:     []byte(`{"day_of_week":2,"start_time":"11:00","end_time":"10:00"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "subject of another user",
			method:   http.MethodPost,
			path:     "/v1/slots",
			body:     []byte(`{"subject_id":"` + history.ID + `","day_of_week":3,"start_time":"09:00","end_time":"10:00"}`),
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "subject not found"}),
		},
		{
			name:     "retrieve foreign slot",
			method:   http.MethodGet,
			path:     "/v1/slots/" + foreign.ID,
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "slot not found"}),
		},
		{
			name:     "update foreign slot",
			method:   http.MethodPut,
			path:     "/v1/slots/" + foreign.ID,
			body:     []byte(`{"title":"mine"}`),
			token:    token,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "delete foreign slot",
			method:   http.MethodDelete,
			path:     "/v1/slots/" + foreign.ID,
			token:    token,
			wantCode: http.StatusNotFound,
		},
		{
			name:     "bad day",
			method:   http.MethodGet,
			path:     "/v1/slots/day/9",
			token:    token,
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.do(t, tt)
		})
	}

	t.Run("day", func(t *testing.T) {
		rec := app.do(t, httpTest{method: http.MethodGet, path: "/v1/slots/day/1", token: token, wantCode: http.StatusOK})
		var slots []planner.Slot
		unmarshall(t, rec, &slots)
		require.Len(t, slots, 2)
		assert.Equal(t, existing.ID, slots[0].ID)
		assert.Equal(t, "10:00", slots[1].StartTime)
		assert.Equal(t, 90, slots[1].DurationMinutes.Int)
		assert.Equal(t, "Maths", slots[1].SubjectName.String)
	})

	t.Run("update", func(t *testing.T) {
		rec := app.do(t, httpTest{
			method:   http.MethodPut,
			path:     "/v1/slots/" + existing.ID,
			body:     []byte(`{"start_time":"08:00","title":"Early maths"}`),
			token:    token,
			wantCode: http.StatusOK,
		})
		var slot planner.Slot
		unmarshall(t, rec, &slot)
		assert.Equal(t, "08:00", slot.StartTime)
		assert.Equal(t, 120, slot.DurationMinutes.Int)
		assert.Equal(t, "Early maths", slot.Title.String)

		app.do(t, httpTest{
			method:   http.MethodPut,
			path:     "/v1/slots/" + existing.ID,
			body:     []byte(`{"end_time":"10:30"}`),
			token:    token,
			wantCode: http.StatusConflict,
		})
	})

	t.Run("weekly summary", func(t *testing.T) {
		rec := app.do(t, httpTest{method: http.MethodGet, path: "/v1/slots/weekly-summary", token: token, wantCode: http.StatusOK})
		var summary planner.WeeklySummary
		unmarshall(t, rec, &summary)
		require.Len(t, summary.Days, 7)
		assert.Equal(t, 2, summary.TotalSlots)
		assert.Equal(t, 2, summary.Days[1].SlotsCount)
		assert.Equal(t, 210, summary.TotalMinutes)
		assert.InDelta(t, 3.5, summary.TotalHours, 1e-9)
	})

	t.Run("query", func(t *testing.T) {
		rec := app.do(t, httpTest{method: http.MethodGet, path: "/v1/slots?day_of_week=1&limit=1", token: token, wantCode: http.StatusOK})
		var slots []planner.Slot
		unmarshall(t, rec, &slots)
		assert.Len(t, slots, 1)

		app.do(t, httpTest{method: http.MethodGet, path: "/v1/slots?is_active=maybe", token: token, wantCode: http.StatusBadRequest})

		rec = app.do(t, httpTest{method: http.MethodGet, path: "/v1/slots?day_of_week=1&ordering=-start_time", token: token, wantCode: http.StatusOK})
		unmarshall(t, rec, &slots)
		if assert.Len(t, slots, 2) {
			assert.Equal(t, "10:00", slots[0].StartTime)
			assert.Equal(t, "08:00", slots[1].StartTime)
		}

		app.do(t, httpTest{
			method:   http.MethodGet,
			path:     "/v1/slots?ordering=password",
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"ordering":"cannot order by \"password\"; use one of day_of_week, start_time, end_time, duration_minutes, title, created_at"}`),
		})
	})

	t.Run("delete", func(t *testing.T) {
		extra := testutil.CreateSlot(t, app.slotRepo, usr.ID, "", 5, "09:00", "10:00")
		app.do(t, httpTest{method: http.MethodDelete, path: "/v1/slots/" + extra.ID, token: token, wantCode: http.StatusNoContent})
		_, err := app.slotRepo.GetSlot(ctx, usr.ID, extra.ID)
		assert.Error(t, err)
	})
}

func TestSlotAPI_bulk(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Amani", "amani@test.cd")
	token := app.getToken(t, usr)

	a := testutil.CreateSlot(t, app.slotRepo, usr.ID, "", 1, "09:00", "10:00")
	b := testutil.CreateSlot(t, app.slotRepo, usr.ID, "", 1, "10:00", "11:00")

	tests := []httpTest{
		{
			name:     "empty batch",
			method:   http.MethodPut,
			path:     "/v1/slots/bulk",
			body:     []byte(`{"moves":[]}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"moves":"at least one move is required"}`),
		},
		{
			name:   "partial success",
			method: http.MethodPut,
			path:   "/v1/slots/bulk",
			body: []byte(`{"moves":[
				{"id":"` + a.ID + `","day_of_week":2,"start_time":"09:00","end_time":"10:00"},
				{"id":"` + b.ID + `","day_of_week":2,"start_time":"09:30","end_time":"10:30"},
				{"id":"missing","day_of_week":2,"start_time":"12:00","end_time":"13:00"}
			]}`),
			token:    token,
			wantCode: http.StatusOK,
		},
	}
	app.do(t, tests[0])

	rec := app.do(t, tests[1])
	var resp struct {
		Results   []planner.MoveResult `json:"results"`
		Succeeded int                  `json:"succeeded"`
		Failed    int                  `json:"failed"`
	}
	unmarshall(t, rec, &resp)
	require.Len(t, resp.Results, 3)
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, 2, resp.Failed)
	assert.True(t, resp.Results[0].Success)
	assert.Equal(t, a.ID, resp.Results[1].ConflictingID)
	assert.Equal(t, "slot not found", resp.Results[2].Error)

	got, err := app.slotRepo.GetSlot(context.Background(), usr.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.DayOfWeek)
}
