package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/pathwayhq/pathway/apps/api/echo"
	"github.com/pathwayhq/pathway/core"
	"github.com/pathwayhq/pathway/core/attendance"
	"github.com/pathwayhq/pathway/core/audit"
	"github.com/pathwayhq/pathway/core/document"
	"github.com/pathwayhq/pathway/core/ecommerce"
	"github.com/pathwayhq/pathway/core/enrollment"
	"github.com/pathwayhq/pathway/core/export"
	"github.com/pathwayhq/pathway/core/journey"
	"github.com/pathwayhq/pathway/core/navigation"
	"github.com/pathwayhq/pathway/core/task"
	"github.com/pathwayhq/pathway/core/trade"
	"github.com/pathwayhq/pathway/core/user"
	"github.com/pathwayhq/pathway/services/email"
	"github.com/pathwayhq/pathway/services/storage"
	"github.com/pathwayhq/pathway/storage/database/inmem"
	"github.com/pathwayhq/pathway/testutil"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

// testEnv is a server backed by a fresh in-memory DB.
type testEnv struct {
	conf    *core.Config
	app     *echoapi.Server
	deps    echoapi.ServerDeps
	usrRepo user.Repository
	mailSvc *emailsvc.ConsoleServiceMock
}

func setup(t *testing.T) *testEnv {
	conf := core.NewTestConfig()
	conf.Storage.MediaDir = t.TempDir()
	logger := new(testutil.Logger)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	document.InitValidators(validate, translator)
	ecommerce.InitValidators(validate, translator)

	store, err := storagesvc.New(conf)
	if err != nil {
		t.Fatalf("storagesvc.New(): %v", err)
	}
	localizer, err := export.NewLocalizer()
	if err != nil {
		t.Fatalf("export.NewLocalizer(): %v", err)
	}

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	auditSvc := audit.NewService(inmemdb.NewAuditRepository(db))
	usrSvc := user.NewService(usrRepo, mailSvc, conf)

	deps := echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		Storage:    store,
		Localizer:  localizer,

		UserSvc:       usrSvc,
		JourneySvc:    journey.NewService(inmemdb.NewJourneyRepository(db), auditSvc),
		TaskSvc:       task.NewService(inmemdb.NewTaskRepository(db), usrSvc, auditSvc, mailSvc),
		DocumentSvc:   document.NewService(inmemdb.NewDocumentRepository(db), usrSvc, auditSvc, mailSvc),
		TradeSvc:      trade.NewService(inmemdb.NewTradeRepository(db), usrSvc, auditSvc, mailSvc),
		EnrollmentSvc: enrollment.NewService(inmemdb.NewEnrollmentRepository(db), usrSvc, auditSvc, mailSvc),
		ECommerceSvc:  ecommerce.NewService(inmemdb.NewECommerceRepository(db), usrSvc, auditSvc),
		AttendanceSvc: attendance.NewService(inmemdb.NewAttendanceRepository(db), usrSvc, auditSvc, logger),
		AuditSvc:      auditSvc,
		NavigationSvc: navigation.NewService(inmemdb.NewNavigationRepository(db), auditSvc),
	}

	// set up server
	app := echoapi.NewServer(deps)
	t.Cleanup(func() { _ = app.Close() })

	return &testEnv{
		conf:    conf,
		app:     app,
		deps:    deps,
		usrRepo: usrRepo,
		mailSvc: mailSvc,
	}
}

// do serves the request and returns the recorder.
func (env *testEnv) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	env.app.ServeHTTP(rec, req)
	return rec
}

// doMultipart serves a multipart request built with testutil.Multipart.
func (env *testEnv) doMultipart(method, path, token string, body []byte, contentType string) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, body)
	req.Header.Set("Content-Type", contentType)
	env.app.ServeHTTP(rec, req)
	return rec
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

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	claims := echoapi.GetUserClaims(conf, usr)
	token, err := echoapi.GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func marshalList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marshalList(): %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", rec.Body.String(), err)
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
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "code; body %s", rec.Body.String())
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

func runTests(t *testing.T, env *testEnv, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}
