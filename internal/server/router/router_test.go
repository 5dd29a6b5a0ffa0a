package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mamadbah2/dairy/internal/repository/memory"
	"github.com/mamadbah2/dairy/internal/server/handlers"
	"github.com/mamadbah2/dairy/internal/service/auth"
	"github.com/mamadbah2/dairy/internal/service/cattle"
	"github.com/mamadbah2/dairy/internal/service/milk"
	"github.com/mamadbah2/dairy/internal/service/reporting"
)

type envelope struct {
	Message     string          `json:"message"`
	Data        json.RawMessage `json:"data"`
	Details     json.RawMessage `json:"details"`
	Pagination  map[string]int  `json:"pagination"`
	AppliedRate *float64        `json:"appliedRate"`
	Errors      []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

type testAPI struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zaptest.NewLogger(t)
	store := memory.NewStore()
	authSvc := auth.NewService(store.Users(), "router-test-secret", time.Hour, logger)

	engine := New(Handlers{
		Auth:   handlers.NewAuthHandler(authSvc, logger),
		Cattle: handlers.NewCattleHandler(cattle.NewService(store, logger), logger),
		Milk:   handlers.NewMilkHandler(milk.NewService(store, logger), logger),
		Stats:  handlers.NewStatsHandler(reporting.NewService(store, logger), logger),
	}, Options{CORSOrigins: []string{"http://localhost:5173"}}, logger)

	return &testAPI{t: t, engine: engine}
}

func (a *testAPI) do(method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (a *testAPI) login(email string) string {
	a.t.Helper()

	rec, _ := a.do(http.MethodPost, "/api/users/signup", "", gin.H{"name": "Farmer", "email": email, "password": "secret1"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, env := a.do(http.MethodPost, "/api/users/login", "", gin.H{"email": email, "password": "secret1"})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())

	var session struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &session))
	require.NotEmpty(a.t, session.Token)
	return session.Token
}

func (a *testAPI) addCattle(token, tag string) string {
	a.t.Helper()

	rec, env := a.do(http.MethodPost, "/api/cattle/add", token, gin.H{"tagNo": tag, "name": "Cow " + tag})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(a.t, json.Unmarshal(env.Data, &created))
	return created.ID
}

func TestHealthAndNotFound(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/healthz", "/health"} {
		rec, _ := api.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	}

	rec, env := api.do(http.MethodGet, "/api/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", env.Message)
}

func TestPrivateRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)

	rec, _ := api.do(http.MethodGet, "/api/cattle", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = api.do(http.MethodGet, "/api/cattle", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignupErrors(t *testing.T) {
	api := newTestAPI(t)
	api.login("ana@farm.io")

	rec, _ := api.do(http.MethodPost, "/api/users/signup", "", gin.H{"email": "ANA@farm.io", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env := api.do(http.MethodPost, "/api/users/signup", "", gin.H{"email": "bad", "password": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", env.Message)
	assert.Len(t, env.Errors, 2)

	rec, env = api.do(http.MethodPost, "/api/users/login", "", gin.H{"email": "ana@farm.io", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", env.Message)
}

func TestCattleIsolatedBetweenOwners(t *testing.T) {
	api := newTestAPI(t)
	tokenA := api.login("a@farm.io")
	tokenB := api.login("b@farm.io")

	id := api.addCattle(tokenB, "t1")

	rec, _ := api.do(http.MethodGet, "/api/cattle/"+id, tokenA, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = api.do(http.MethodPut, "/api/cattle/"+id, tokenA, gin.H{"name": "Mine"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = api.do(http.MethodDelete, "/api/cattle/"+id, tokenA, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := api.do(http.MethodGet, "/api/cattle/"+id, tokenB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"tagNo":"T1"`)

	rec, env = api.do(http.MethodPost, "/api/cattle/add", tokenB, gin.H{"tagNo": "T1", "name": "Again"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"tagNo":"T1"}`, string(env.Details))

	rec, env = api.do(http.MethodGet, "/api/cattle?limit=1", tokenB, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int{"page": 1, "limit": 1, "total": 1, "pages": 1}, env.Pagination)

	rec, _ = api.do(http.MethodGet, "/api/cattle/not-an-id", tokenB, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = api.do(http.MethodDelete, "/api/cattle/"+id, tokenB, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLedgerFlow(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("a@farm.io")
	cow := api.addCattle(token, "T1")

	rec, env := api.do(http.MethodPost, "/api/milk/production", token, gin.H{"cattleId": cow, "localDate": "2025-01-01", "shift": "noon", "liters": 3})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "shift", env.Errors[0].Field)

	rec, _ = api.do(http.MethodPost, "/api/milk/production", token, gin.H{"cattleId": cow, "localDate": "2025-01-01", "shift": "morning", "liters": 6})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, env = api.do(http.MethodPost, "/api/milk/production", token, gin.H{"cattleId": cow, "localDate": "2025-01-01", "shift": "evening", "liters": 4})
	require.Equal(t, http.StatusOK, rec.Code)

	var evening struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &evening))

	rec, _ = api.do(http.MethodPost, "/api/milk/sales", token, gin.H{"cattleId": cow, "localDate": "2025-01-01", "liters": 6, "pricePerLiter": 400})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = api.do(http.MethodPost, "/api/milk/sales", token, gin.H{"cattleId": cow, "localDate": "2025-01-01", "liters": 5, "pricePerLiter": 400})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"producedTotal":10,"soldSoFar":6,"requestedSale":5,"remaining":4}`, string(env.Details))

	rec, _ = api.do(http.MethodDelete, "/api/milk/production/"+evening.ID, token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = api.do(http.MethodGet, "/api/milk/stats/daily?cattleId="+cow+"&from=2025-01-01&to=2025-01-31", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"localDate":"2025-01-01","morning":6,"evening":4,"producedTotal":10,"soldTotal":6,"remaining":4}]`, string(env.Data))

	rec, env = api.do(http.MethodGet, "/api/milk/stats/revenue-weekly?from=2024-12-01&to=2025-01-31&rate=100", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.AppliedRate)
	assert.Equal(t, 100.0, *env.AppliedRate)
	assert.JSONEq(t, `[{"isoYear":2025,"isoWeek":1,"weekLabel":"2025-W01","rangeFrom":"2024-12-30","rangeTo":"2025-01-05","sold":6,"revenue":600}]`, string(env.Data))

	rec, env = api.do(http.MethodGet, "/api/milk/stats/revenue-monthly?from=2025-01-01&to=2025-01-31", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, env.AppliedRate)
	assert.JSONEq(t, `[{"month":"2025-01","sold":6,"revenue":2400}]`, string(env.Data))

	rec, _ = api.do(http.MethodGet, "/api/milk/stats/summary-by-cattle?from=2025-02-01&to=2025-01-01", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	other := api.login("b@farm.io")
	rec, _ = api.do(http.MethodGet, "/api/milk/stats/summary?cattleId="+cow+"&from=2025-01-01&to=2025-01-31", other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRevenueRateMustBeNumeric(t *testing.T) {
	api := newTestAPI(t)
	token := api.login("a@farm.io")
	cow := api.addCattle(token, "T1")

	rec, _ := api.do(http.MethodPost, "/api/milk/production", token, gin.H{"cattleId": cow, "localDate": "2025-01-01", "shift": "morning", "liters": 6})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = api.do(http.MethodPost, "/api/milk/sales", token, gin.H{"cattleId": cow, "localDate": "2025-01-01", "liters": 6, "pricePerLiter": 400})
	require.Equal(t, http.StatusOK, rec.Code)

	for _, rate := range []string{"", "abc", "-1"} {
		rec, env := api.do(http.MethodGet, "/api/milk/stats/revenue-daily?from=2025-01-01&to=2025-01-31&rate="+rate, token, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, "rate=%q", rate)
		require.Len(t, env.Errors, 1)
		assert.Equal(t, "rate", env.Errors[0].Field)
	}

	rec, env := api.do(http.MethodGet, "/api/milk/stats/revenue-daily?from=2025-01-01&to=2025-01-31&rate=0", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.AppliedRate)
	assert.Equal(t, 0.0, *env.AppliedRate)
	assert.JSONEq(t, `[{"localDate":"2025-01-01","sold":6,"revenue":0}]`, string(env.Data))

	rec, env = api.do(http.MethodGet, "/api/milk/stats/revenue-daily?from=2025-01-01&to=2025-01-31", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, env.AppliedRate)
	assert.JSONEq(t, `[{"localDate":"2025-01-01","sold":6,"revenue":2400}]`, string(env.Data))
}

func TestSignupRejectsOverlongPassword(t *testing.T) {
	api := newTestAPI(t)

	rec, env := api.do(http.MethodPost, "/api/users/signup", "", gin.H{"email": "long@farm.io", "password": strings.Repeat("p", 80)})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "password", env.Errors[0].Field)
}
