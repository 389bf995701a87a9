package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	echoapi "github.com/trezcool/mentora/apps/api/echo"
	"github.com/trezcool/mentora/core"
	"github.com/trezcool/mentora/core/curriculum"
	"github.com/trezcool/mentora/core/inbox"
	"github.com/trezcool/mentora/core/progress"
	"github.com/trezcool/mentora/core/user"
	"github.com/trezcool/mentora/core/vip"
	emailsvc "github.com/trezcool/mentora/services/email"
	logsvc "github.com/trezcool/mentora/services/logger"
	dummydb "github.com/trezcool/mentora/storage/database/dummy"
	testutil "github.com/trezcool/mentora/tests"
)

var (
	testCtx = context.Background()

	conf   = core.NewTestConfig()
	logger *logsvc.RollbarLogger

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	logger = logsvc.NewRollbarLogger(zap.NewNop(), conf)
	logger.Enable(false)
	core.ParseEmailTemplates(conf, logger)
	user.LoadCommonPasswords(logger)
	os.Exit(m.Run())
}

// testApp is a server backed by in-memory repositories.
type testApp struct {
	server  *echoapi.Server
	users   user.Repository
	curRepo curriculum.Repository
	prgRepo progress.Repository
	msgRepo inbox.Repository
	mailSvc *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) testApp {
	t.Helper()

	db := dummydb.Open()
	app := testApp{
		users:   dummydb.NewUserRepository(db),
		curRepo: dummydb.NewCurriculumRepository(db),
		prgRepo: dummydb.NewProgressRepository(db),
		msgRepo: dummydb.NewMessageRepository(db),
		mailSvc: emailsvc.NewConsoleServiceMock(conf),
	}

	curSvc := curriculum.NewService(app.curRepo)
	inboxSvc := inbox.NewService(app.msgRepo, app.users, curSvc)
	validate, translator := testutil.NewValidator()

	app.server = echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		UserSvc:       user.NewService(app.users, app.mailSvc, conf),
		CurriculumSvc: curSvc,
		Engine:        progress.NewEngine(curSvc, app.prgRepo),
		VipSvc:        vip.NewService(app.users, app.prgRepo, curSvc, inboxSvc, app.mailSvc),
		InboxSvc:      inboxSvc,
		Validate:      validate,
		Translator:    translator,
	})
	return app
}

func (app testApp) serve(req *http.Request, rec *httptest.ResponseRecorder) {
	app.server.ServeHTTP(rec, req)
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

func getToken(t *testing.T, usr user.User) string {
	claims := echoapi.GetUserClaims(conf, usr)
	token, err := echoapi.GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarchall(t *testing.T, data []byte, v interface{}) {
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("unmarchall() failed: %v; data %s", err, data)
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
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
	if _, ok := j1.([]interface{}); !ok {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHttpTests(t *testing.T, app testApp, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.serve(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
}
