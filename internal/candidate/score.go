// 包 candidate：对知识源返回的候选行做加权打分与排序
package candidate

import (
	"math"
	"sort"
	"strings"
	"time"

	"ikemen-api/internal/normalize"
	"ikemen-api/internal/wikidata"
)

// 打分权重：精确命中 > 行政区划提示 > 后缀一致 > 规模 > 新鲜度
const (
	weightExact  = 1000.0
	weightPref   = 300.0
	weightSuffix = 50.0
	weightMagLog = 10.0
	recencyCapYr = 50.0
)

// 新鲜度基准时点：时点越晚于该基准加分越多（上限 recencyCapYr）
var recencyEpoch = time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)

// Scored：候选行与其得分
type Scored struct {
	wikidata.Row
	Score float64
}

// score：单行打分
// 背景：单独看任何字段都可能缺失，叠加“精确匹配 + 行政层级消歧 +
// 规模合理性 + 数据新鲜度”四路信号后排序，避免依赖某一字段必然存在
func score(r wikidata.Row, q normalize.Query) float64 {
	var s float64
	labelNorm := normalize.Canonicalize(r.Label)
	if labelNorm == q.Canonical {
		s += weightExact
	}
	if q.Suffix != "" && strings.HasSuffix(labelNorm, q.Suffix) {
		s += weightSuffix
	}
	if q.PrefHint != "" && r.Pref != "" && strings.Contains(r.Pref, q.PrefHint) {
		s += weightPref
	}

	var mag float64
	switch {
	case r.Total != nil:
		mag = *r.Total
	case r.Male != nil:
		mag = *r.Male
	}
	s += weightMagLog * math.Log10(math.Max(1, mag+1))

	newest := r.PopTime
	if r.MaleTime.After(newest) {
		newest = r.MaleTime
	}
	if !newest.IsZero() {
		years := newest.Sub(recencyEpoch).Hours() / (365 * 24)
		s += math.Min(recencyCapYr, years)
	}
	return s
}

// Rank：打分并按得分降序排序
// 约束：同分时按标签升序、再按实体 IRI 升序，保证排序确定可复现
func Rank(rows []wikidata.Row, q normalize.Query) []Scored {
	out := make([]Scored, 0, len(rows))
	for _, r := range rows {
		out = append(out, Scored{Row: r, Score: score(r, q)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Item < out[j].Item
	})
	return out
}
