package estimate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ikemen-api/internal/cache"
	"ikemen-api/internal/normalize"
	"ikemen-api/internal/wikidata"
)

// fakeSource：可编程的知识源替身，记录调用次数
type fakeSource struct {
	rows    []wikidata.Row
	ok      bool
	calls   int
	panicky bool
}

func (f *fakeSource) Search(ctx context.Context, q normalize.Query) ([]wikidata.Row, bool) {
	f.calls++
	if f.panicky {
		panic("source exploded")
	}
	return f.rows, f.ok
}

type ServiceSuite struct {
	suite.Suite
	src *fakeSource
	svc *Service
	ctx context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.src = &fakeSource{ok: true}
	s.svc = NewService(s.src, cache.New(time.Hour), time.Hour, nil, nil)
	s.ctx = context.Background()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func h(v float64) *float64 { return &v }

func (s *ServiceSuite) shibuyaRows() []wikidata.Row {
	return []wikidata.Row{
		{Item: "wd:Q212708", Label: "渋谷区", Pref: "東京都", Male: f(80000), Total: f(160000)},
		{Item: "wd:Q1", Label: "渋谷村", Total: f(4000)},
	}
}

func (s *ServiceSuite) TestEndToEndEstimate() {
	s.src.rows = s.shibuyaRows()
	res := s.svc.Estimate(s.ctx, "渋谷区", 18, 35, h(65))

	s.Equal("渋谷区", res.Region)
	s.Equal("東京都", res.Prefecture)
	s.Equal(int64(16963), res.MaleInRange)
	s.Equal(int64(80000), res.Population.Male)
	s.Equal(int64(160000), res.Population.Total)
	s.Require().NotNil(res.Model)
	s.InDelta(0.0668, res.Model.UpperTail, 1e-3)
	s.Empty(res.Note)
	s.Empty(res.Err)
}

func (s *ServiceSuite) TestCacheIdempotence() {
	s.src.rows = s.shibuyaRows()
	first := s.svc.Estimate(s.ctx, "渋谷区", 18, 35, h(65))
	second := s.svc.Estimate(s.ctx, "渋谷区", 18, 35, h(65))

	s.Equal(1, s.src.calls)
	s.Equal(first, second)
}

func (s *ServiceSuite) TestCacheKeyVariesWithParams() {
	s.src.rows = s.shibuyaRows()
	s.svc.Estimate(s.ctx, "渋谷区", 18, 35, h(65))
	s.svc.Estimate(s.ctx, "渋谷区", 18, 40, h(65))
	s.svc.Estimate(s.ctx, "渋谷区", 18, 35, nil)
	s.Equal(3, s.src.calls)
}

func (s *ServiceSuite) TestInvertedAgesShareCacheKey() {
	s.src.rows = s.shibuyaRows()
	a := s.svc.Estimate(s.ctx, "渋谷区", 35, 18, h(65))
	b := s.svc.Estimate(s.ctx, "渋谷区", 18, 35, h(65))
	s.Equal(1, s.src.calls)
	s.Equal(a, b)
}

func (s *ServiceSuite) TestNotFoundShape() {
	s.src.rows = nil
	res := s.svc.Estimate(s.ctx, "存在しない市", 18, 35, h(60))

	s.Equal("not-found", res.Note)
	s.Equal(int64(0), res.MaleInRange)
	s.Equal(int64(0), res.Population.Male)
	s.Equal(int64(0), res.Population.Total)
	s.Nil(res.Population.AreaKm2)
	// 偏差值给了就带模型，即使没查到地域
	s.Require().NotNil(res.Model)
	s.Empty(res.Err)
}

func (s *ServiceSuite) TestSourceUnavailableDegradesToNotFound() {
	s.src.ok = false
	res := s.svc.Estimate(s.ctx, "渋谷区", 18, 35, nil)
	s.Equal("not-found", res.Note)
	s.Nil(res.Model)
}

func (s *ServiceSuite) TestEmptyRegionShortCircuits() {
	res := s.svc.Estimate(s.ctx, "　（）", 18, 35, nil)
	s.Equal("not-found", res.Note)
	s.Equal(0, s.src.calls)
}

func (s *ServiceSuite) TestPanicBecomesBackendFallback() {
	s.src.panicky = true
	res := s.svc.Estimate(s.ctx, "渋谷区", 18, 35, h(65))

	s.Equal("backend-fallback", res.Err)
	s.Equal(int64(0), res.MaleInRange)
	s.Nil(res.Model)
	s.Equal("渋谷区", res.Region)
}

func (s *ServiceSuite) TestSuggestRegionsDedupes() {
	s.src.rows = []wikidata.Row{
		{Item: "wd:Q1", Label: "渋谷区", Pref: "東京都", Total: f(160000)},
		{Item: "wd:Q2", Label: "渋谷区", Pref: "東京都", Total: f(160000)},
		{Item: "wd:Q3", Label: "渋谷村", Pref: ""},
	}
	sg := s.svc.SuggestRegions(s.ctx, "渋谷")
	s.Require().Len(sg.Candidates, 2)
	s.Equal("渋谷区（東京都）", sg.Candidates[0].RegionName)
	s.Equal("渋谷村", sg.Candidates[1].RegionName)
}

func (s *ServiceSuite) TestSuggestRegionsCapped() {
	var rows []wikidata.Row
	for i := 0; i < 30; i++ {
		rows = append(rows, wikidata.Row{
			Item:  "wd:Q" + string(rune('A'+i)),
			Label: "中央区" + string(rune('あ'+i)),
		})
	}
	s.src.rows = rows
	sg := s.svc.SuggestRegions(s.ctx, "中央区")
	s.Len(sg.Candidates, 20)
}

func (s *ServiceSuite) TestSuggestRegionsCached() {
	s.src.rows = s.shibuyaRows()
	s.svc.SuggestRegions(s.ctx, "渋谷")
	s.svc.SuggestRegions(s.ctx, "渋谷")
	s.Equal(1, s.src.calls)
}

func (s *ServiceSuite) TestSuggestRegionsEmptyQuery() {
	sg := s.svc.SuggestRegions(s.ctx, "")
	s.NotNil(sg.Candidates)
	s.Empty(sg.Candidates)
	s.Equal(0, s.src.calls)
}
