package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	. "github.com/trezcool/ratiba/apps/api/echo"
	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/goal"
	"github.com/trezcool/ratiba/core/planner"
	"github.com/trezcool/ratiba/core/progress"
	"github.com/trezcool/ratiba/core/subject"
	"github.com/trezcool/ratiba/core/task"
	"github.com/trezcool/ratiba/core/user"
	emailsvc "github.com/trezcool/ratiba/services/email"
	boiledrepos "github.com/trezcool/ratiba/storage/database/sqlboiler"
	"github.com/trezcool/ratiba/storage/database/sqlxrepos"
	"github.com/trezcool/ratiba/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	*Server
	conf     *core.Config
	mailer   *emailsvc.ConsoleServiceMock
	usrRepo  user.Repository
	subRepo  subject.Repository
	slotRepo planner.Repository
}

// setup starts a server over a fresh database.
func setup(t *testing.T) testApp {
	conf := testutil.NewConfig()
	logger := testutil.NewLogger(conf)
	db := testutil.PrepareDB(t, conf)
	validate, translator := testutil.NewValidator()
	mailer := testutil.NewMailer(conf, logger)

	usrRepo := sqlxrepos.NewUserRepository(db)
	subRepo := sqlxrepos.NewSubjectRepository(db)
	slotRepo := sqlxrepos.NewSlotRepository(db)

	srv := NewServer("", make(chan os.Signal, 1), &Deps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
		UserSvc:        user.NewService(db, usrRepo),
		SubjectSvc:     subject.NewService(db, subRepo),
		SlotSvc:        planner.NewService(db, slotRepo, subRepo),
		TaskSvc: task.NewService(conf, db, sqlxrepos.NewTaskRepository(db), slotRepo, subRepo, usrRepo,
			mailer, logger),
		GoalSvc: goal.NewService(db, sqlxrepos.NewGoalRepository(db), subRepo),
		ProgressSvc: progress.NewService(conf, db, sqlxrepos.NewProgressRepository(db),
			boiledrepos.NewReportRepository(db), slotRepo, subRepo, usrRepo, mailer, logger),
	})
	return testApp{
		Server:   srv,
		conf:     conf,
		mailer:   mailer,
		usrRepo:  usrRepo,
		subRepo:  subRepo,
		slotRepo: slotRepo,
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (app testApp) getToken(t *testing.T, usr user.User) string {
	token, err := GenerateToken(app.conf, GetUserClaims(app.conf, usr))
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

// do runs tt against the app and checks the response.
func (app testApp) do(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, tt, rec)
	return rec
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if len(objs) == 0 {
		return []byte("[]")
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func unmarshall(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("unmarshall(): %v; body %s", err, rec.Body.String())
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return false, nil
}

// checkCodeAndData only compares bodies when tt.wantData is set.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
