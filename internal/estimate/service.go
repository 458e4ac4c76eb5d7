package estimate

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"ikemen-api/internal/cache"
	"ikemen-api/internal/candidate"
	"ikemen-api/internal/logger"
	"ikemen-api/internal/metrics"
	"ikemen-api/internal/normalize"
	"ikemen-api/internal/store"
	"ikemen-api/internal/wikidata"

	"github.com/redis/go-redis/v9"
)

// Source：候选检索能力
// 背景：以接口注入知识源客户端，测试时用假源替换即可验证缓存与降级链路
type Source interface {
	Search(ctx context.Context, q normalize.Query) ([]wikidata.Row, bool)
}

// Model：偏差值模型输出
type Model struct {
	UpperTail float64 `json:"upperTail"`
}

// Result：对外返回的估算结果
// 约束：任何失败模式下都返回完整形状；降级数据（零值/nil 模型）显式标注，
// note/error 字段区分“未命中”与“内部降级”
type Result struct {
	Region      string   `json:"region"`
	Prefecture  string   `json:"prefecture,omitempty"`
	MaleInRange int64    `json:"maleInRange"`
	Population  Snapshot `json:"population"`
	Model       *Model   `json:"model"`
	Note        string   `json:"note,omitempty"`
	Err         string   `json:"error,omitempty"`
}

// Suggestion / Suggestions：地域名候补（去重后的展示名）
type Suggestion struct {
	RegionName string `json:"regionName"`
}

type Suggestions struct {
	Candidates []Suggestion `json:"candidates"`
}

// Service：地域解析与人口估算的编排入口
// 背景：备忘录缓存（进程内）→ Redis（可选共享层）→ 覆盖库（可选）→
// 知识源，逐层回落；所有公开方法不向调用方抛错
type Service struct {
	src  Source
	memo *cache.TTL
	rc   *redis.Client
	st   *store.Store
	ttl  time.Duration
}

func NewService(src Source, memo *cache.TTL, ttl time.Duration, rc *redis.Client, st *store.Store) *Service {
	return &Service{src: src, memo: memo, ttl: ttl, rc: rc, st: st}
}

// estKey：缓存键 = 规范名 + 府县提示 + 年龄区间 + 偏差值（缺省记 x）
func estKey(q normalize.Query, minAge, maxAge int, h *float64) string {
	hs := "x"
	if h != nil {
		hs = strconv.FormatFloat(*h, 'g', -1, 64)
	}
	return "est3:" + q.Canonical + "|" + q.PrefHint + "|" +
		strconv.Itoa(minAge) + "-" + strconv.Itoa(maxAge) + "|" + hs
}

func regionsKey(q normalize.Query) string {
	return "regions3:" + q.Canonical
}

func modelFor(h *float64) *Model {
	if h == nil {
		return nil
	}
	return &Model{UpperTail: UpperTail(*h)}
}

func notFound(region string, h *float64) Result {
	return Result{
		Region:     region,
		Population: Snapshot{},
		Model:      modelFor(h),
		Note:       "not-found",
	}
}

// Estimate：地域名 → 年龄区间内男性人口与上尾概率
// 约束：永不返回错误；内部崩溃被捕获并降级为 backend-fallback 形状
func (s *Service) Estimate(ctx context.Context, region string, minAge, maxAge int, hensachi *float64) (out Result) {
	defer func() {
		if r := recover(); r != nil {
			metrics.FallbackTotal.Inc()
			logger.L().Error("estimate_panic", "region", region, "panic", r)
			out = Result{Region: region, Population: Snapshot{}, Err: "backend-fallback"}
		}
	}()
	metrics.EstimateRequestsTotal.Inc()

	lo := clampAge(minAge)
	hi := clampAge(maxAge)
	if hi < lo {
		lo, hi = hi, lo
	}

	q := normalize.Expand(region)
	if q.Canonical == "" {
		metrics.NotFoundTotal.Inc()
		return notFound(region, hensachi)
	}

	key := estKey(q, lo, hi, hensachi)
	if v, ok := s.memo.Get(key); ok {
		metrics.MemoHitsTotal.Inc()
		return v.(Result)
	}
	metrics.MemoMissesTotal.Inc()
	if r, ok := s.redisGetResult(ctx, key); ok {
		s.memo.Set(key, r)
		return r
	}

	if r, ok := s.fromOverride(ctx, q, lo, hi, hensachi); ok {
		s.finish(ctx, key, r)
		return r
	}

	rows, ok := s.src.Search(ctx, q)
	if !ok || len(rows) == 0 {
		metrics.NotFoundTotal.Inc()
		r := notFound(region, hensachi)
		s.finish(ctx, key, r)
		return r
	}

	top := candidate.Rank(rows, q)[0]
	snap := Resolve(top.Row)
	share := AgeShare(lo, hi)
	r := Result{
		Region:      top.Label,
		Prefecture:  top.Pref,
		MaleInRange: MaleInRange(snap.Male, share),
		Population:  snap,
		Model:       modelFor(hensachi),
	}
	logger.L().Debug("estimate_resolved",
		"region", top.Label,
		"score", top.Score,
		"male", snap.Male,
		"share", share,
	)
	s.finish(ctx, key, r)
	return r
}

// SuggestRegions: 输入片段 → 去重后的地域名候补（最多 20 件）
// 约束：永不返回错误；异常降级为空候补
func (s *Service) SuggestRegions(ctx context.Context, raw string) (out Suggestions) {
	defer func() {
		if r := recover(); r != nil {
			metrics.FallbackTotal.Inc()
			logger.L().Error("regions_panic", "q", raw, "panic", r)
			out = Suggestions{Candidates: []Suggestion{}}
		}
	}()
	metrics.RegionsRequestsTotal.Inc()

	q := normalize.Expand(raw)
	if q.Canonical == "" {
		return Suggestions{Candidates: []Suggestion{}}
	}

	key := regionsKey(q)
	if v, ok := s.memo.Get(key); ok {
		metrics.MemoHitsTotal.Inc()
		return v.(Suggestions)
	}
	metrics.MemoMissesTotal.Inc()
	if sg, ok := s.redisGetSuggestions(ctx, key); ok {
		s.memo.Set(key, sg)
		return sg
	}

	rows, _ := s.src.Search(ctx, q)
	ranked := candidate.Rank(rows, q)
	seen := map[string]bool{}
	list := []Suggestion{}
	for _, r := range ranked {
		name := r.Label
		if r.Pref != "" {
			name = r.Label + "（" + r.Pref + "）"
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		list = append(list, Suggestion{RegionName: name})
		if len(list) >= 20 {
			break
		}
	}
	sg := Suggestions{Candidates: list}
	s.memo.Set(key, sg)
	s.redisSet(ctx, key, sg)
	return sg
}

// fromOverride：覆盖库命中时直接构造结果，跳过外部知识源
func (s *Service) fromOverride(ctx context.Context, q normalize.Query, lo, hi int, h *float64) (Result, bool) {
	if s.st == nil {
		return Result{}, false
	}
	o, err := s.st.LookupOverride(ctx, q.Canonical)
	if err != nil {
		logger.L().Warn("override_lookup_error", "name", q.Canonical, "err", err)
		return Result{}, false
	}
	if o == nil {
		return Result{}, false
	}
	metrics.OverrideHitsTotal.Inc()
	snap := Snapshot{Male: o.Male, Total: o.Total, AreaKm2: o.AreaKm2}
	share := AgeShare(lo, hi)
	return Result{
		Region:      o.Name,
		Prefecture:  o.Pref,
		MaleInRange: MaleInRange(snap.Male, share),
		Population:  snap,
		Model:       modelFor(h),
	}, true
}

// finish：结果回填两级缓存并记一次统计
func (s *Service) finish(ctx context.Context, key string, r Result) {
	s.memo.Set(key, r)
	s.redisSet(ctx, key, r)
	if s.st != nil {
		_ = s.st.IncrStats(ctx)
	}
}

func (s *Service) redisGetResult(ctx context.Context, key string) (Result, bool) {
	if s.rc == nil {
		return Result{}, false
	}
	v, err := s.rc.Get(ctx, key).Result()
	if err != nil || v == "" {
		metrics.RedisMissesTotal.Inc()
		return Result{}, false
	}
	var r Result
	if err := json.Unmarshal([]byte(v), &r); err != nil {
		metrics.RedisMissesTotal.Inc()
		return Result{}, false
	}
	metrics.RedisHitsTotal.Inc()
	return r, true
}

func (s *Service) redisGetSuggestions(ctx context.Context, key string) (Suggestions, bool) {
	if s.rc == nil {
		return Suggestions{}, false
	}
	v, err := s.rc.Get(ctx, key).Result()
	if err != nil || v == "" {
		metrics.RedisMissesTotal.Inc()
		return Suggestions{}, false
	}
	var sg Suggestions
	if err := json.Unmarshal([]byte(v), &sg); err != nil {
		metrics.RedisMissesTotal.Inc()
		return Suggestions{}, false
	}
	metrics.RedisHitsTotal.Inc()
	return sg, true
}

func (s *Service) redisSet(ctx context.Context, key string, v any) {
	if s.rc == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rc.Set(ctx, key, string(b), s.ttl).Err(); err != nil {
		logger.L().Warn("redis_set_error", "key", key, "err", err)
	}
}
