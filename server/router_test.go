package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blackjack-engine/server/store"
)

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestHealthWithoutDB(t *testing.T) {
	rec, out := do(t, Router(nil, testConfig(1)), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["ok"])
	assert.Equal(t, false, out["db"])
}

func TestRecommendEndpoint(t *testing.T) {
	h := Router(nil, testConfig(1))
	rec, out := do(t, h, http.MethodPost, "/api/recommend",
		`{"player":["10","7"],"dealer":["9","6"],"seed":2024,"trials":300}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "stand", out["action"])
	assert.Equal(t, float64(17), out["player_score"])
	assert.Equal(t, float64(2024), out["seed"])
	assert.Len(t, out["options"], 10)

	_, again := do(t, h, http.MethodPost, "/api/recommend",
		`{"player":["10","7"],"dealer":["9","6"],"seed":2024,"trials":300}`)
	assert.Equal(t, out, again)
}

func TestRecommendValidation(t *testing.T) {
	h := Router(nil, testConfig(1))
	cases := map[string]string{
		"missing dealer":  `{"player":["10","7"]}`,
		"bad card":        `{"player":["10","Joker"],"dealer":["9"]}`,
		"five aces":       `{"player":["Ace","Ace","Ace"],"dealer":["Ace","Ace"]}`,
		"empty deck":      `{"player":["10","7"],"dealer":["9"],"deck":[]}`,
		"not json":        `{`,
		"deck over shoe":  `{"player":["10","6"],"dealer":["9"],"deck":["2","2","2","2","2"]}`,
		"twos over hands": `{"player":["2","2","2"],"dealer":["2"],"deck":["2","10"]}`,
		"busted player":   `{"player":["10","9","5"],"dealer":["9"]}`,
	}
	for name, body := range cases {
		rec, out := do(t, h, http.MethodPost, "/api/recommend", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		assert.NotEmpty(t, out["error"], name)
	}
}

func TestRunsWithoutDB(t *testing.T) {
	h := Router(nil, testConfig(1))
	rec, _ := do(t, h, http.MethodGet, "/api/runs", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec, _ = do(t, h, http.MethodGet, "/api/runs/abc", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSimulateAndFetchRun(t *testing.T) {
	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate(context.Background()))
	h := Router(db, testConfig(1))

	rec, out := do(t, h, http.MethodPost, "/api/simulate", `{"hands":6,"seed":9,"trials":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["stored"])
	tally := out["tally"].(map[string]any)
	assert.Equal(t, float64(6), tally["hands"])
	run := out["run"].(map[string]any)
	id, _ := run["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, float64(5), run["trials"])

	rec, list := do(t, h, http.MethodGet, "/api/runs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, list["runs"], 1)

	rec, got := do(t, h, http.MethodGet, "/api/runs/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, got["id"])
	assert.Equal(t, float64(9), got["seed"])

	rec, _ = do(t, h, http.MethodGet, "/api/runs/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSimulateTooManyHands(t *testing.T) {
	rec, out := do(t, Router(nil, testConfig(1)), http.MethodPost, "/api/simulate", `{"hands":1000000}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out["error"], "at most")
}
