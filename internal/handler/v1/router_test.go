package v1

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmehra2102/prod-golang-projects/medix/internal/config"
	"github.com/dmehra2102/prod-golang-projects/medix/internal/repository/memory"
	"github.com/dmehra2102/prod-golang-projects/medix/internal/service"
	"github.com/dmehra2102/prod-golang-projects/medix/pkg/auth"
	"github.com/dmehra2102/prod-golang-projects/medix/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	t      *testing.T
	router *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	log := zap.NewNop()
	authCfg := config.AuthConfig{
		Secret:         "handler-test-secret-0123456789abcdef",
		AccessTokenTTL: time.Hour,
		Issuer:         "medix-test",
		BcryptCost:     bcrypt.MinCost,
	}
	m := metrics.NewCollector("medix_test", prometheus.NewRegistry())

	authSvc := service.NewAuthService(memory.NewDoctorRepository(), auth.NewJWTManager(authCfg), bcrypt.MinCost, m, log)
	patientSvc := service.NewPatientService(memory.NewPatientRepository(), log, service.WithMetrics(m))

	return &testAPI{t: t, router: NewRouter(RouterDeps{
		AuthService:    authSvc,
		PatientService: patientSvc,
		Metrics:        m,
		CORS:           config.CORSConfig{AllowedOrigins: []string{"*"}, AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"}},
		ServiceName:    "medix-test",
		Log:            log,
	})}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) login(username string) string {
	a.t.Helper()
	creds := map[string]string{"username": username, "password": "s3cret"}

	w := a.do(http.MethodPost, "/auth/register", "", creds)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(http.MethodPost, "/auth/login", "", creds)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())

	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &tok))
	require.Equal(a.t, "bearer", tok.TokenType)
	return tok.AccessToken
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestPublicRoutes(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/", "", nil)
	assert.JSONEq(t, `{"message":"Patient Management System API"}`, w.Body.String())

	w = api.do(http.MethodGet, "/about", "", nil)
	assert.JSONEq(t, `{"message":"A fully functional API to manage your patient records"}`, w.Body.String())

	w = api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRoutes(t *testing.T) {
	api := newTestAPI(t)
	creds := map[string]string{"username": "drA", "password": "pw"}

	w := api.do(http.MethodPost, "/auth/register", "", creds)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Doctor registered successfully"}`, w.Body.String())

	w = api.do(http.MethodPost, "/auth/register", "", creds)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":"Username already registered"}`, w.Body.String())

	w = api.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "drA", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	assert.JSONEq(t, `{"detail":"Incorrect username or password"}`, w.Body.String())

	w = api.do(http.MethodPost, "/auth/register", "", `{"username":"drB"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(http.MethodGet, "/patients/view", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodGet, "/patients/view", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"detail":"Invalid authentication credentials"}`, w.Body.String())
}

func TestPatientLifecycle(t *testing.T) {
	api := newTestAPI(t)
	tokA := api.login("drA")
	tokB := api.login("drB")

	create := map[string]any{
		"id": "P001", "name": "Ananya", "city": "Guwahati", "age": 28, "gender": "female",
		"height": 1.6, "weight": 60,
		"doctor_id": "drB",
		"diagnoses_history": []map[string]any{
			{"disease": "Flu", "condition": "recovered", "diagnosis_on": "2024-01-10"},
			{"disease": "Asthma", "condition": "chronic", "diagnosis_on": "2024-03-02", "notes": "inhaler"},
		},
	}
	w := api.do(http.MethodPost, "/patients/create", tokA, create)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"patient created successfully"}`, w.Body.String())

	w = api.do(http.MethodPost, "/patients/create", tokA, create)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":"Patient already exists"}`, w.Body.String())

	w = api.do(http.MethodGet, "/patients/patient/P001", tokA, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, "drA", got["doctor_id"], "owner comes from the token")
	assert.Equal(t, 23.44, got["bmi"])
	assert.Equal(t, "Normal", got["verdict"])
	assert.Equal(t, "chronic", got["latest_condition"])
	assert.Equal(t, "2024-03-02", got["latest_diagnosis_date"])

	w = api.do(http.MethodGet, "/patients/patient/P001", tokB, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"detail":"Patient not found"}`, w.Body.String())

	w = api.do(http.MethodPut, "/patients/edit/P001", tokB, map[string]any{"city": "Delhi"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodPut, "/patients/edit/P001", tokA, `{"weight": 90, "height": null, "doctor_id": "drB"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"message":"patient updated"}`, w.Body.String())

	got = decode[map[string]any](t, api.do(http.MethodGet, "/patients/patient/P001", tokA, nil))
	assert.Equal(t, "drA", got["doctor_id"])
	assert.Equal(t, 90.0, got["weight"])
	assert.Nil(t, got["height"])
	assert.Nil(t, got["bmi"])
	assert.Nil(t, got["verdict"])

	w = api.do(http.MethodPut, "/patients/edit/P001", tokA, `{"age": 0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	list := decode[[]map[string]any](t, api.do(http.MethodGet, "/patients/view", tokB, nil))
	assert.Empty(t, list)

	w = api.do(http.MethodDelete, "/patients/delete/P001", tokB, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodDelete, "/patients/delete/P001", tokA, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"patient deleted"}`, w.Body.String())

	w = api.do(http.MethodGet, "/patients/patient/P001", tokA, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPatientQueries(t *testing.T) {
	api := newTestAPI(t)
	tok := api.login("drA")

	for _, p := range []map[string]any{
		{"id": "P2", "name": "B", "city": "X", "age": 50, "gender": "male", "diagnoses_history": []map[string]any{
			{"disease": "Flu", "condition": "mild", "diagnosis_on": "2020-01-01"},
			{"disease": "Diabetes", "condition": "chronic", "diagnosis_on": "2021-01-01"},
		}},
		{"id": "P1", "name": "A", "city": "Y", "age": 20, "gender": "others"},
	} {
		require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/patients/create", tok, p).Code)
	}

	sorted := decode[[]map[string]any](t, api.do(http.MethodGet, "/patients/sort?sort_by=age&order=desc", tok, nil))
	require.Len(t, sorted, 2)
	assert.Equal(t, "P2", sorted[0]["id"])

	w := api.do(http.MethodGet, "/patients/sort?sort_by=bmi", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"detail":"Invalid field select from [id, height, weight, age, latest_diagnosis_date, latest_condition]"}`, w.Body.String())

	w = api.do(http.MethodGet, "/patients/sort?sort_by=age&order=up", tok, nil)
	assert.JSONEq(t, `{"detail":"Invalid order select between asc and desc"}`, w.Body.String())

	filtered := decode[[]map[string]any](t, api.do(http.MethodGet, "/patients/filter?disease_name=diab", tok, nil))
	require.Len(t, filtered, 1)
	assert.Equal(t, "P2", filtered[0]["id"])

	w = api.do(http.MethodGet, "/patients/filter?diagnosed_after_months=soon", tok, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	groups := decode[map[string][]map[string]any](t, api.do(http.MethodGet, "/patients/group_by_disease", tok, nil))
	assert.Len(t, groups, 2)
	require.Len(t, groups["Flu"], 1)
	details := groups["Flu"][0]["diagnosis_details"].(map[string]any)
	assert.Equal(t, "2020-01-01", details["diagnosis_on"])

	groups = decode[map[string][]map[string]any](t, api.do(http.MethodGet, "/patients/group_by_condition", tok, nil))
	assert.Contains(t, groups, "chronic")
	assert.Contains(t, groups, "mild")
}
