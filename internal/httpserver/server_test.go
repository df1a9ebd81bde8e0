package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oreoinsight/backoffice/internal/logging"
	"github.com/oreoinsight/backoffice/internal/mailer"
	authmw "github.com/oreoinsight/backoffice/internal/middleware/auth"
	"github.com/oreoinsight/backoffice/internal/models"
	"github.com/oreoinsight/backoffice/internal/observability"
	"github.com/oreoinsight/backoffice/internal/repo"
	"github.com/oreoinsight/backoffice/internal/service"
	"github.com/oreoinsight/backoffice/internal/summarize"
	"github.com/oreoinsight/backoffice/internal/tokens"
)

type testServer struct {
	e     *echo.Echo
	codec *tokens.Codec
	store *repo.GormRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Account{}, &models.Sale{}, &models.ReportRequest{}))

	store := &repo.GormRepo{DB: db}
	codec := tokens.NewCodec([]byte("server-test-secret"), time.Hour)
	log := logging.New("error")

	authSvc := &service.AuthService{Repo: store, Codec: codec}
	saleSvc := &service.SaleService{Repo: store}
	aggSvc := &service.AggregationService{Repo: store}
	reportSvc := &service.ReportService{Repo: store}
	summarySvc := service.NewSummaryService(store, aggSvc, mailer.Log{}, summarize.Static{}, nil, log)

	e := echo.New()
	Register(e, &Deps{
		Logger:  log,
		AuthMW:  authmw.NewMiddleware(codec, store),
		Metrics: observability.NewMetrics(),
		Auth:    &AuthHTTP{Svc: authSvc},
		Sales:   &SaleHTTP{Svc: saleSvc},
		Reports: &ReportHTTP{Svc: reportSvc},
		Summary: &SummaryHTTP{Svc: summarySvc},
	})
	return &testServer{e: e, codec: codec, store: store}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(t *testing.T, email, role, branch string) {
	t.Helper()
	rec := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "password": "s3cretpass", "role": role, "branch": branch,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	rec := s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": email, "password": "s3cretpass",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegisterAndLoginFlow(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "ana@central.example", "password": "s3cretpass", "role": "CENTRAL",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "hash")

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, "CENTRAL", created["role"])

	token := s.login(t, "ana@central.example")
	claims, err := s.codec.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ana@central.example", claims.Subject)
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	cases := []struct {
		name string
		body map[string]string
		want int
	}{
		{"bad email", map[string]string{"email": "nope", "password": "s3cretpass", "role": "CENTRAL"}, http.StatusBadRequest},
		{"short password", map[string]string{"email": "a@b.example", "password": "short", "role": "CENTRAL"}, http.StatusBadRequest},
		{"unknown role", map[string]string{"email": "a@b.example", "password": "s3cretpass", "role": "ADMIN"}, http.StatusBadRequest},
		{"branch without branch", map[string]string{"email": "a@b.example", "password": "s3cretpass", "role": "BRANCH"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/auth/register", "", tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
			body := decodeError(t, rec)
			assert.Equal(t, "BAD_REQUEST", body["error"])
			assert.Equal(t, "/auth/register", body["path"])
			assert.NotEmpty(t, body["timestamp"])
		})
	}
}

func TestRegisterDuplicateConflict(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	s.register(t, "ana@central.example", "CENTRAL", "")

	rec := s.do(http.MethodPost, "/auth/register", "", map[string]string{
		"email": "ana@central.example", "password": "s3cretpass", "role": "CENTRAL",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "CONFLICT", body["error"])
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	s.register(t, "ana@central.example", "CENTRAL", "")

	wrongPass := s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ana@central.example", "password": "wrongpass1",
	})
	unknown := s.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email": "ghost@central.example", "password": "s3cretpass",
	})

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	// Same body either way, nothing leaks about which part was wrong.
	assert.Equal(t, decodeError(t, wrongPass)["message"], decodeError(t, unknown)["message"])
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/sales", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpiredTokenRejected(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	s.register(t, "ana@central.example", "CENTRAL", "")

	stale := tokens.NewCodec([]byte("server-test-secret"), -time.Minute)
	token, err := stale.Generate("ana@central.example", "CENTRAL", "")
	require.NoError(t, err)

	rec := s.do(http.MethodGet, "/api/sales", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_EXPIRED", decodeError(t, rec)["error"])
}

func TestSaleBranchPolicy(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	s.register(t, "central@hq.example", "CENTRAL", "")
	s.register(t, "norte@branch.example", "BRANCH", "norte")
	central := s.login(t, "central@hq.example")
	norte := s.login(t, "norte@branch.example")

	sale := map[string]any{
		"sku": "SKU-A", "units": 2, "price": 9.5,
		"branch": "sur", "soldAt": time.Now().Format(time.RFC3339),
	}

	// BRANCH cannot write into another branch, CENTRAL can.
	rec := s.do(http.MethodPost, "/api/sales", norte, sale)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/sales", central, sale)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Sale
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// BRANCH cannot read a foreign-branch sale.
	rec = s.do(http.MethodGet, "/api/sales/"+created.ID, norte, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/sales/"+created.ID, central, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Delete is CENTRAL-only.
	rec = s.do(http.MethodDelete, "/api/sales/"+created.ID, norte, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodDelete, "/api/sales/"+created.ID, central, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/sales/"+created.ID, central, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaleListScopesBranchCallers(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	s.register(t, "central@hq.example", "CENTRAL", "")
	s.register(t, "norte@branch.example", "BRANCH", "norte")
	central := s.login(t, "central@hq.example")
	norte := s.login(t, "norte@branch.example")

	for _, branch := range []string{"norte", "sur"} {
		rec := s.do(http.MethodPost, "/api/sales", central, map[string]any{
			"sku": "SKU-A", "units": 1, "price": 5.0,
			"branch": branch, "soldAt": time.Now().Format(time.RFC3339),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	// A BRANCH caller asking for another branch still only sees its own.
	rec := s.do(http.MethodGet, "/api/sales?branch=sur", norte, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items []models.Sale `json:"items"`
		Total int64         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, "norte", page.Items[0].Branch)

	rec = s.do(http.MethodGet, "/api/sales", central, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(2), page.Total)
}

func TestSaleValidation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	s.register(t, "central@hq.example", "CENTRAL", "")
	central := s.login(t, "central@hq.example")

	rec := s.do(http.MethodPost, "/api/sales", central, map[string]any{
		"sku": "", "units": 0, "price": -1.0, "branch": "",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWeeklySummaryAccepted(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	s.register(t, "central@hq.example", "CENTRAL", "")
	central := s.login(t, "central@hq.example")

	rec := s.do(http.MethodPost, "/sales/summary/weekly", central, map[string]string{
		"emailTo": "boss@retail.example",
	})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var res struct {
		RequestID string `json:"requestId"`
		Status    string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res.RequestID)
	assert.Equal(t, string(models.ReportProcessing), res.Status)

	// The async pipeline settles into a terminal state.
	require.Eventually(t, func() bool {
		rr, err := s.store.ReportByID(t.Context(), res.RequestID)
		return err == nil && rr.Status != models.ReportProcessing
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWeeklySummaryValidation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	s.register(t, "norte@branch.example", "BRANCH", "norte")
	norte := s.login(t, "norte@branch.example")

	// Missing emailTo.
	rec := s.do(http.MethodPost, "/sales/summary/weekly", norte, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// BRANCH must name its own branch.
	rec = s.do(http.MethodPost, "/sales/summary/weekly", norte, map[string]string{
		"emailTo": "boss@retail.example",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/sales/summary/weekly", norte, map[string]string{
		"emailTo": "boss@retail.example", "branch": "sur",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/sales/summary/weekly", norte, map[string]string{
		"emailTo": "boss@retail.example", "branch": "norte",
	})
	assert.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
}

func TestReportRequestLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	s.register(t, "central@hq.example", "CENTRAL", "")
	s.register(t, "norte@branch.example", "BRANCH", "norte")
	central := s.login(t, "central@hq.example")
	norte := s.login(t, "norte@branch.example")

	body := map[string]string{
		"branch": "norte", "fromDate": "2026-08-10", "toDate": "2026-08-16",
		"emailTo": "boss@retail.example",
	}
	rec := s.do(http.MethodPost, "/api/report-requests", norte, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.ReportRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, models.ReportProcessing, created.Status)

	// A BRANCH caller cannot file for another branch.
	other := map[string]string{
		"branch": "sur", "fromDate": "2026-08-10", "toDate": "2026-08-16",
		"emailTo": "boss@retail.example",
	}
	rec = s.do(http.MethodPost, "/api/report-requests", norte, other)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodGet, "/api/report-requests/"+created.ID, norte, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Listing as BRANCH is scoped, CENTRAL sees everything.
	rec = s.do(http.MethodPost, "/api/report-requests", central, other)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/api/report-requests", norte, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.ReportRequest
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "norte", list[0].Branch)

	rec = s.do(http.MethodGet, "/api/report-requests", central, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	// Delete is CENTRAL-only.
	rec = s.do(http.MethodDelete, "/api/report-requests/"+created.ID, norte, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodDelete, "/api/report-requests/"+created.ID, central, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "backoffice_http_requests_total")
}

func TestNotFoundBodyShape(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	s.register(t, "central@hq.example", "CENTRAL", "")
	central := s.login(t, "central@hq.example")

	rec := s.do(http.MethodGet, "/api/sales/"+fmt.Sprint(time.Now().UnixNano()), central, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "NOT_FOUND", body["error"])
	assert.NotEmpty(t, body["timestamp"])
}
