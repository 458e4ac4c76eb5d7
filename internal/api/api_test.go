package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ikemen-api/internal/cache"
	"ikemen-api/internal/estimate"
	"ikemen-api/internal/normalize"
	"ikemen-api/internal/wikidata"
)

type stubSource struct {
	rows []wikidata.Row
}

func (s *stubSource) Search(ctx context.Context, q normalize.Query) ([]wikidata.Row, bool) {
	return s.rows, true
}

func newTestMux(rows []wikidata.Row) *http.ServeMux {
	svc := estimate.NewService(&stubSource{rows: rows}, cache.New(time.Hour), time.Hour, nil, nil)
	return BuildRoutes(svc, nil, nil)
}

func shibuya() []wikidata.Row {
	male := float64(80000)
	total := float64(160000)
	return []wikidata.Row{
		{Item: "wd:Q212708", Label: "渋谷区", Pref: "東京都", Male: &male, Total: &total},
	}
}

func TestEstimateHandler(t *testing.T) {
	mux := newTestMux(shibuya())

	t.Run("missing region is 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/estimate", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("options preflight is 204", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/estimate", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("post is 405", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/estimate?region=渋谷区", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("success shape", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/estimate?region=渋谷区&minAge=18&maxAge=35&hensachi=65", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "no-store", rec.Header().Get("cache-control"))

		var res estimate.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, "渋谷区", res.Region)
		assert.Equal(t, int64(16963), res.MaleInRange)
		require.NotNil(t, res.Model)
		assert.InDelta(t, 0.0668, res.Model.UpperTail, 1e-3)
	})

	t.Run("age defaults applied", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/estimate?region=渋谷区", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var res estimate.Result
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		// 缺省 18–35；hensachi 未指定时模型为空
		assert.Equal(t, int64(16963), res.MaleInRange)
		assert.Nil(t, res.Model)
	})
}

func TestRegionsHandler(t *testing.T) {
	mux := newTestMux(shibuya())

	t.Run("empty query yields empty candidates", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/regions", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var sg estimate.Suggestions
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sg))
		assert.Empty(t, sg.Candidates)
	})

	t.Run("candidates include parent label", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/regions?q=渋谷", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var sg estimate.Suggestions
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sg))
		require.Len(t, sg.Candidates, 1)
		assert.Equal(t, "渋谷区（東京都）", sg.Candidates[0].RegionName)
	})
}

func TestHealthz(t *testing.T) {
	mux := newTestMux(nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.Equal(t, true, m["ok"])
}

func TestStatsWithoutStore(t *testing.T) {
	mux := newTestMux(nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	assert.EqualValues(t, 0, m["total"])
}
