// 包 estimate：把候选行收敛为人口快照，并做年龄按分与偏差值上尾换算
package estimate

import (
	"math"
	"strings"

	"ikemen-api/internal/wikidata"
)

// 面积单位（Wikidata 实体 IRI 尾段）：平方千米原样通过，平方米换算
const (
	unitSquareKm    = "Q712226"
	unitSquareMeter = "Q25343"
)

// Snapshot：一次解析得到的人口快照
// 约束：male/total 非负取整；male ≤ total 不由构造保证（源数据可能违反）
type Snapshot struct {
	Male    int64    `json:"male"`
	Total   int64    `json:"total"`
	AreaKm2 *float64 `json:"areaKm2"`
}

// maleFallbackShare：总人口缺男性时的回退占比（产品口径固定 0.50）
const maleFallbackShare = 0.50

// Resolve：按严格优先级收敛出男性与总人口
// 回退链：男性实测 → 总-女 → 总×0.50 → 0；全部钳制为非负整数
func Resolve(r wikidata.Row) Snapshot {
	var male float64
	switch {
	case r.Male != nil:
		male = *r.Male
	case r.Total != nil && r.Female != nil:
		male = *r.Total - *r.Female
	case r.Total != nil:
		male = math.Round(*r.Total * maleFallbackShare)
	}

	var total float64
	if r.Total != nil {
		total = *r.Total
	}

	return Snapshot{
		Male:    clampCount(male),
		Total:   clampCount(total),
		AreaKm2: areaKm2(r.Area, r.AreaUnit),
	}
}

func clampCount(v float64) int64 {
	n := int64(math.Round(v))
	if n < 0 {
		return 0
	}
	return n
}

// areaKm2：面积归一到平方千米
// 约束：未知单位按原值通过（尽力而为），缺失返回 nil
func areaKm2(amount *float64, unit string) *float64 {
	if amount == nil {
		return nil
	}
	v := *amount
	switch {
	case strings.HasSuffix(unit, unitSquareMeter):
		v = v / 1e6
	case strings.HasSuffix(unit, unitSquareKm):
		// pass through
	}
	if v < 0 {
		return nil
	}
	return &v
}
