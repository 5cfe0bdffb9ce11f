package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core/task"
	"github.com/trezcool/ratiba/tests"
)

func TestTaskAPI(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Amani", "amani@test.cd")
	other := testutil.CreateUser(t, app.usrRepo, "Baraka", "baraka@test.cd")
	token := app.getToken(t, usr)

	tests := []httpTest{
		{
			name:     "blank title",
			method:   http.MethodPost,
			path:     "/v1/tasks",
			body:     []byte(`{"title":"   "}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"title":"this field is required"}`),
		},
		{
			name:     "bad priority",
			method:   http.MethodPost,
			path:     "/v1/tasks",
			body:     []byte(`{"title":"Read","priority":"urgent"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"priority":"priority must be one of low, medium, high"}`),
		},
		{
			name:     "bad date",
			method:   http.MethodGet,
			path:     "/v1/tasks/today?date=14-10-2026",
			token:    token,
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.do(t, tt)
		})
	}

	rec := app.do(t, httpTest{
		method:   http.MethodPost,
		path:     "/v1/tasks",
		body:     []byte(`{"title":"Read chapter 3","priority":"HIGH","due_date":"2026-10-20"}`),
		token:    token,
		wantCode: http.StatusCreated,
	})
	var created task.Task
	unmarshall(t, rec, &created)
	assert.Equal(t, task.PriorityHigh, created.Priority)
	assert.Equal(t, "2026-10-20", created.DueDate.Date.String())
	assert.False(t, created.IsCompleted)

	rec = app.do(t, httpTest{method: http.MethodPatch, path: "/v1/tasks/" + created.ID + "/toggle", token: token, wantCode: http.StatusOK})
	var toggled task.Task
	unmarshall(t, rec, &toggled)
	assert.True(t, toggled.IsCompleted)

	app.do(t, httpTest{
		method:   http.MethodPatch,
		path:     "/v1/tasks/" + created.ID + "/toggle",
		token:    app.getToken(t, other),
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Error: "task not found"}),
	})

	rec = app.do(t, httpTest{method: http.MethodGet, path: "/v1/tasks?is_completed=true", token: token, wantCode: http.StatusOK})
	var tasks []task.Task
	unmarshall(t, rec, &tasks)
	if assert.Len(t, tasks, 1) {
		assert.Equal(t, created.ID, tasks[0].ID)
	}

	app.do(t, httpTest{method: http.MethodDelete, path: "/v1/tasks/" + created.ID, token: token, wantCode: http.StatusNoContent})
	app.do(t, httpTest{method: http.MethodGet, path: "/v1/tasks/" + created.ID, token: token, wantCode: http.StatusNotFound})
}

func TestTaskAPI_today(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Amani", "amani@test.cd")
	token := app.getToken(t, usr)
	maths := testutil.CreateSubject(t, app.subRepo, usr.ID, "Maths")

	// 2026-10-12 is a Monday
	slot := testutil.CreateSlot(t, app.slotRepo, usr.ID, maths.ID, 1, "09:00", "10:00")

	rec := app.do(t, httpTest{method: http.MethodGet, path: "/v1/tasks/today?date=2026-10-12", token: token, wantCode: http.StatusOK})
	var derived task.DerivedTasks
	unmarshall(t, rec, &derived)
	assert.True(t, derived.AutoGenerated)
	require.Len(t, derived.Tasks, 1)
	assert.Equal(t, "Study Maths", derived.Tasks[0].Title)
	assert.Equal(t, slot.ID, derived.Tasks[0].SlotID.String)
	assert.Len(t, app.mailer.SentMessages(), 1)

	rec = app.do(t, httpTest{method: http.MethodGet, path: "/v1/tasks/today?date=2026-10-12", token: token, wantCode: http.StatusOK})
	var again task.DerivedTasks
	unmarshall(t, rec, &again)
	assert.False(t, again.AutoGenerated)
	if assert.Len(t, again.Tasks, 1) {
		assert.Equal(t, derived.Tasks[0].ID, again.Tasks[0].ID)
	}
}
