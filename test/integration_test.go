//go:build integration
// +build integration

// Package tests holds end-to-end coverage that exercises the API against an
// in-memory SQLite store and a real Redis broker. It is excluded from the
// default build; run it with `go test -tags=integration ./test/...` against
// a running Redis (TEST_REDIS_ADDR overrides the configured address).
package tests

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"yantra/internal/api"
	"yantra/internal/broker"
	"yantra/internal/catalog"
	"yantra/internal/config"
	"yantra/internal/runtimesvc"
	"yantra/internal/stage"
	"yantra/internal/store"
	"yantra/internal/submission"

	"github.com/stretchr/testify/suite"
)

type yantraSuite struct {
	suite.Suite
	store  *store.Store
	broker *broker.Broker
	router http.Handler
}

func (s *yantraSuite) SetupSuite() {
	cfg := config.Load()
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = ":memory:"
	if addr := os.Getenv("TEST_REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	cfg.Redis.JobsQueue = "test_job_queue"
	cfg.Redis.BuildQueue = "test_build_queue"

	st, err := store.Open(cfg.Database)
	s.Require().NoError(err)
	s.store = st

	br, err := broker.New(cfg.Redis)
	s.Require().NoError(err)
	s.broker = br

	_, err = catalog.Seed(st)
	s.Require().NoError(err)

	stager := stage.New(cfg.Upload, s.T().TempDir())
	submissions := submission.New(st, br, stager)
	runtimes := runtimesvc.New(st, br)
	server := api.NewServer(submissions, runtimes, st, cfg.Upload.MaxTotalBytes)
	s.router = api.NewRouter(server, cfg.CORSOrigins)
}

func (s *yantraSuite) TearDownSuite() {
	s.Require().NoError(s.broker.Close())
	s.Require().NoError(s.store.Close())
}

func (s *yantraSuite) TestHealth() {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	var body map[string]string
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal("healthy", body["status"])
}

func (s *yantraSuite) TestTemplateCatalogIsSeeded() {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/templates", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	var templates []map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &templates))
	s.NotEmpty(templates)
}

func (s *yantraSuite) TestCompilerLifecycle() {
	createBody, _ := json.Marshal(map[string]interface{}{
		"id":           "py-test",
		"name":         "Python test",
		"build_recipe": "FROM python:3.12-slim",
		"run_command":  []string{"python3", "/data/main.py"},
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/compilers", bytes.NewReader(createBody))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/compilers/py-test", nil)
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodDelete, "/compilers/py-test", nil)
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusNoContent, w.Code)
}

func (s *yantraSuite) TestSubmitRejectsUnknownLanguage() {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	s.Require().NoError(mw.WriteField("code", "print('hi')"))
	s.Require().NoError(mw.WriteField("language", "does-not-exist"))
	s.Require().NoError(mw.Close())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/submit", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *yantraSuite) TestResultsNotFound() {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/submit/results/does-not-exist", nil)
	s.router.ServeHTTP(w, req)

	s.Equal(http.StatusOK, w.Code)
	var body map[string]string
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal("NOT_FOUND", body["status"])
}

func TestYantraSuite(t *testing.T) {
	suite.Run(t, new(yantraSuite))
}
