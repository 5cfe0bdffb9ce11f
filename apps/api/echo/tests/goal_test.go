package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ratiba/core/goal"
	"github.com/trezcool/ratiba/tests"
)

func TestGoalAPI(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Amani", "amani@test.cd")
	other := testutil.CreateUser(t, app.usrRepo, "Baraka", "baraka@test.cd")
	token := app.getToken(t, usr)
	maths := testutil.CreateSubject(t, app.subRepo, usr.ID, "Maths")

	app.do(t, httpTest{
		name:     "missing title",
		method:   http.MethodPost,
		path:     "/v1/goals",
		body:     []byte(`{"description":"soon"}`),
		token:    token,
		wantCode: http.StatusBadRequest,
		wantData: []byte(`{"title":"this field is required"}`),
	})

	rec := app.do(t, httpTest{
		method:   http.MethodPost,
		path:     "/v1/goals",
		body:     []byte(`{"title":"Pass the exam","subject_id":"` + maths.ID + `","target_date":"2026-12-01"}`),
		token:    token,
		wantCode: http.StatusCreated,
	})
	var created goal.Goal
	unmarshall(t, rec, &created)
	assert.Equal(t, maths.ID, created.SubjectID.String)
	assert.Equal(t, "2026-12-01", created.TargetDate.Date.String())
	assert.False(t, created.IsCompleted)

	app.do(t, httpTest{
		method:   http.MethodPost,
		path:     "/v1/goals",
		body:     []byte(`{"title":"Steal a subject","subject_id":"` + maths.ID + `"}`),
		token:    app.getToken(t, other),
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Error: "subject not found"}),
	})

	rec = app.do(t, httpTest{method: http.MethodPatch, path: "/v1/goals/" + created.ID + "/toggle", token: token, wantCode: http.StatusOK})
	var toggled goal.Goal
	unmarshall(t, rec, &toggled)
	assert.True(t, toggled.IsCompleted)

	rec = app.do(t, httpTest{
		method:   http.MethodPut,
		path:     "/v1/goals/" + created.ID,
		body:     []byte(`{"subject_id":"","is_completed":false}`),
		token:    token,
		wantCode: http.StatusOK,
	})
	var updated goal.Goal
	unmarshall(t, rec, &updated)
	assert.False(t, updated.SubjectID.Valid)
	assert.False(t, updated.IsCompleted)

	rec = app.do(t, httpTest{method: http.MethodGet, path: "/v1/goals?is_completed=false", token: token, wantCode: http.StatusOK})
	var goals []goal.Goal
	unmarshall(t, rec, &goals)
	assert.Len(t, goals, 1)

	app.do(t, httpTest{method: http.MethodGet, path: "/v1/goals/" + created.ID, token: app.getToken(t, other), wantCode: http.StatusNotFound})
	app.do(t, httpTest{method: http.MethodDelete, path: "/v1/goals/" + created.ID, token: token, wantCode: http.StatusNoContent})
	app.do(t, httpTest{
		method:   http.MethodGet,
		path:     "/v1/goals/" + created.ID,
		token:    token,
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Error: "goal not found"}),
	})
}
