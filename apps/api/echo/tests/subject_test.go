package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/ratiba/core/subject"
	"github.com/trezcool/ratiba/tests"
)

func TestSubjectAPI(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Amani", "amani@test.cd")
	other := testutil.CreateUser(t, app.usrRepo, "Baraka", "baraka@test.cd")
	token := app.getToken(t, usr)
	maths := testutil.CreateSubject(t, app.subRepo, usr.ID, "Maths")

	tests := []httpTest{
		{
			name:     "missing name",
			method:   http.MethodPost,
			path:     "/v1/subjects",
			body:     []byte(`{"color":"#ffffff"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"name":"this field is required"}`),
		},
		{
			name:     "bad color",
			method:   http.MethodPost,
			path:     "/v1/subjects",
			body:     []byte(`{"name":"Physics","color":"blue"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"color":"must be a hex color such as #3b82f6"}`),
		},
		{
			name:     "duplicate name",
			method:   http.MethodPost,
			path:     "/v1/subjects",
			body:     []byte(`{"name":"Maths"}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"name":"a subject with this name already exists"}`),
		},
		{
			name:     "same name for another user",
			method:   http.MethodPost,
			path:     "/v1/subjects",
			body:     []byte(`{"name":"Maths"}`),
			token:    app.getToken(t, other),
			wantCode: http.StatusCreated,
		},
		{
			name:     "subject of another user",
			method:   http.MethodGet,
			path:     "/v1/subjects/" + maths.ID,
			token:    app.getToken(t, other),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "subject not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.do(t, tt)
		})
	}

	rec := app.do(t, httpTest{
		method:   http.MethodPost,
		path:     "/v1/subjects",
		body:     []byte(`{"name":"  Physics ","color":"#10B981"}`),
		token:    token,
		wantCode: http.StatusCreated,
	})
	var physics subject.Subject
	unmarshall(t, rec, &physics)
	assert.Equal(t, "Physics", physics.Name)
	assert.Equal(t, "#10b981", physics.Color)

	rec = app.do(t, httpTest{
		method:   http.MethodPut,
		path:     "/v1/subjects/" + physics.ID,
		body:     []byte(`{"description":"waves and optics"}`),
		token:    token,
		wantCode: http.StatusOK,
	})
	var updated subject.Subject
	unmarshall(t, rec, &updated)
	assert.Equal(t, "waves and optics", updated.Description)
	assert.Equal(t, "Physics", updated.Name)

	app.do(t, httpTest{
		method:   http.MethodPut,
		path:     "/v1/subjects/" + physics.ID,
		body:     []byte(`{"name":"Maths"}`),
		token:    token,
		wantCode: http.StatusBadRequest,
		wantData: []byte(`{"name":"a subject with this name already exists"}`),
	})

	rec = app.do(t, httpTest{method: http.MethodGet, path: "/v1/subjects", token: token, wantCode: http.StatusOK})
	var subjects []subject.Subject
	unmarshall(t, rec, &subjects)
	assert.Len(t, subjects, 2)

	app.do(t, httpTest{method: http.MethodDelete, path: "/v1/subjects/" + physics.ID, token: token, wantCode: http.StatusNoContent})
	app.do(t, httpTest{method: http.MethodDelete, path: "/v1/subjects/" + physics.ID, token: token, wantCode: http.StatusNotFound})
}
