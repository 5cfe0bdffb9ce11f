package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ratiba/core/progress"
	"github.com/trezcool/ratiba/tests"
)

func TestProgressAPI(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Amani", "amani@test.cd")
	other := testutil.CreateUser(t, app.usrRepo, "Baraka", "baraka@test.cd")
	token := app.getToken(t, usr)
	maths := testutil.CreateSubject(t, app.subRepo, usr.ID, "Maths")

	logBody := func(hours string) []byte {
		return []byte(`{"subject_id":"` + maths.ID + `","date":"2026-10-12","hours":` + hours + `}`)
	}

	tests := []httpTest{
		{
			name:     "negative hours",
			method:   http.MethodPost,
			path:     "/v1/progress",
			body:     logBody("-1"),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing hours",
			method:   http.MethodPost,
			path:     "/v1/progress",
			body:     []byte(`{"subject_id":"` + maths.ID + `"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"hours":"this field is required"}`),
		},
		{
			name:     "subject of another user",
			method:   http.MethodPost,
			path:     "/v1/progress",
			body:     logBody("1"),
			token:    app.getToken(t, other),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "subject not found"}),
		},
		{
			name:     "bad range",
			method:   http.MethodGet,
			path:     "/v1/progress?from=2026-10-12&to=2026-10-01",
			token:    token,
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.do(t, tt)
		})
	}

	// first log creates, the second folds
	rec := app.do(t, httpTest{method: http.MethodPost, path: "/v1/progress", body: logBody("1.5"), token: token, wantCode: http.StatusCreated})
	var first progress.Entry
	unmarshall(t, rec, &first)

	rec = app.do(t, httpTest{method: http.MethodPost, path: "/v1/progress", body: logBody("2.0"), token: token, wantCode: http.StatusOK})
	var folded progress.Entry
	unmarshall(t, rec, &folded)
	assert.Equal(t, first.ID, folded.ID)
	assert.InDelta(t, 3.5, folded.Hours, 1e-9)
	assert.Equal(t, 2, folded.Sessions)

	rec = app.do(t, httpTest{method: http.MethodGet, path: "/v1/progress/overview", token: token, wantCode: http.StatusOK})
	var ov progress.Overview
	unmarshall(t, rec, &ov)
	require.Len(t, ov.Subjects, 1)
	assert.InDelta(t, 3.5, ov.TotalHours, 1e-9)
	assert.InDelta(t, 1.75, ov.AverageHours, 1e-9)
	assert.Equal(t, "2026-10-12", ov.Subjects[0].LastStudied.Date.String())

	rec = app.do(t, httpTest{method: http.MethodGet, path: "/v1/progress/subject/" + maths.ID, token: token, wantCode: http.StatusOK})
	var detail progress.SubjectDetail
	unmarshall(t, rec, &detail)
	assert.Equal(t, 2, detail.Stats.Sessions)
	assert.Len(t, detail.Entries, 1)

	app.do(t, httpTest{
		method:   http.MethodPut,
		path:     "/v1/progress/" + first.ID,
		body:     []byte(`{"hours":1}`),
		token:    token,
		wantCode: http.StatusOK,
	})
	app.do(t, httpTest{method: http.MethodGet, path: "/v1/progress/" + first.ID, token: app.getToken(t, other), wantCode: http.StatusNotFound})
	app.do(t, httpTest{method: http.MethodDelete, path: "/v1/progress/" + first.ID, token: token, wantCode: http.StatusNoContent})
}

func TestProgressAPI_autoLog(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Amani", "amani@test.cd")
	token := app.getToken(t, usr)
	maths := testutil.CreateSubject(t, app.subRepo, usr.ID, "Maths")
	_ = testutil.CreateSlot(t, app.slotRepo, usr.ID, maths.ID, 1, "09:00", "10:30")
	_ = testutil.CreateSlot(t, app.slotRepo, usr.ID, "", 1, "11:00", "12:00")

	rec := app.do(t, httpTest{
		method:   http.MethodPost,
		path:     "/v1/progress/auto-log-today?date=2026-10-12",
		token:    token,
		wantCode: http.StatusOK,
	})
	var res progress.AutoLogResult
	unmarshall(t, rec, &res)
	assert.InDelta(t, 1.5, res.LoggedHours, 1e-9)
	assert.Len(t, res.Outcomes, 2)
	assert.Len(t, app.mailer.SentMessages(), 1)

	rec = app.do(t, httpTest{method: http.MethodGet, path: "/v1/progress?subject_id=" + maths.ID, token: token, wantCode: http.StatusOK})
	var entries []progress.Entry
	unmarshall(t, rec, &entries)
	if assert.Len(t, entries, 1) {
		assert.InDelta(t, 1.5, entries[0].Hours, 1e-9)
	}
}
