package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vitalmine-server/internal/config"
	"vitalmine-server/internal/logreg"
	"vitalmine-server/internal/models"
	"vitalmine-server/internal/risk"
	"vitalmine-server/internal/routes"
	"vitalmine-server/internal/utils"
)

type fakeDB struct {
	err error
}

func (f fakeDB) Ping(context.Context) error {
	return f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Origin:                    "http://localhost:4200",
		Environment:               "development",
		JWTSecret:                 "access-secret",
		JWTRefreshSecret:          "refresh-secret",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 24,
	}
}

func bearer(t *testing.T, cfg *config.Config, role models.Role) string {
	t.Helper()
	u := &models.User{Username: string(role) + "-user", Role: role}
	u.ID = "id-" + string(role)
	access, _, err := utils.GenerateTokens(u, cfg)
	require.NoError(t, err)
	return "Bearer " + access
}

func TestRouterHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := setupRouter(testConfig(), zap.NewNop(), routes.Dependencies{DB: fakeDB{}})

	for _, path := range []string{"/health", "/readyz"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouterPermissions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	router := setupRouter(cfg, zap.NewNop(), routes.Dependencies{DB: fakeDB{}})

	tests := []struct {
		name   string
		role   models.Role
		method string
		path   string
		want   int
	}{
		{"anonymous ward", "", http.MethodGet, "/api/v1/readings", http.StatusUnauthorized},
		{"clinician cannot record", models.RoleClinician, http.MethodPost, "/api/v1/readings", http.StatusForbidden},
		{"subject cannot see ward", models.RoleSubject, http.MethodGet, "/api/v1/readings", http.StatusForbidden},
		{"subject cannot list subjects", models.RoleSubject, http.MethodGet, "/api/v1/subjects", http.StatusForbidden},
		{"data entry cannot export", models.RoleDataEntry, http.MethodGet, "/api/v1/exports/readings.csv", http.StatusForbidden},
		{"subject cannot export", models.RoleSubject, http.MethodGet, "/api/v1/exports/readings.xlsx", http.StatusForbidden},
		{"clinician cannot manage users", models.RoleClinician, http.MethodPost, "/api/v1/users", http.StatusForbidden},
		{"data entry cannot list users", models.RoleDataEntry, http.MethodGet, "/api/v1/users", http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}"))
			req.Header.Set("Content-Type", "application/json")
			if tc.role != "" {
				req.Header.Set("Authorization", bearer(t, cfg, tc.role))
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestLimitBodySizeWired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	router := setupRouter(cfg, zap.NewNop(), routes.Dependencies{})

	body := `{"username":"` + strings.Repeat("a", maxBodyBytes) + `","password":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBuildStrategy(t *testing.T) {
	log := zap.NewNop()

	s := buildStrategy(config.RiskConfig{Strategy: risk.KindRule}, log)
	assert.Equal(t, "sirs", s.Name())

	s = buildStrategy(config.RiskConfig{Strategy: risk.KindModel, ModelPath: filepath.Join(t.TempDir(), "missing.json")}, log)
	assert.Equal(t, "sirs", s.Name())

	path := filepath.Join(t.TempDir(), "model.json")
	opts := logreg.DefaultTrainOptions
	opts.Epochs = 200
	m, err := logreg.Train(logreg.GenerateSynthetic(200, 1), opts)
	require.NoError(t, err)
	require.NoError(t, m.Save(path))

	s = buildStrategy(config.RiskConfig{Strategy: risk.KindModel, ModelPath: path}, log)
	assert.Equal(t, "model", s.Name())
}
