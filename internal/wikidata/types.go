package wikidata

import (
	"strconv"
	"strings"
	"time"
)

// 文档注释：SPARQL JSON 信封（对内解码用）
// 背景：WDQS 的 results.bindings 里每个字段都可能缺失；先解码成指针结构，
// 再转换为带可空字段的 Row，缺失一律表示为零值/nil 而不是错误。
type envelope struct {
	Results struct {
		Bindings []binding `json:"bindings"`
	} `json:"results"`
}

type literal struct {
	Value string `json:"value"`
}

type binding struct {
	Item      *literal `json:"item"`
	ItemLabel *literal `json:"itemLabel"`
	PrefLabel *literal `json:"prefLabel"`
	Male      *literal `json:"male"`
	Female    *literal `json:"female"`
	Total     *literal `json:"total"`
	Area      *literal `json:"area"`
	AreaUnit  *literal `json:"areaUnit"`
	MaleTime  *literal `json:"maleTime"`
	PopTime   *literal `json:"popTime"`
}

// Row：一条候选实体（对外）
// 约束：数值与时间字段缺失是一等取值（nil / 零时间），上游按回退链处理
type Row struct {
	Item     string
	Label    string
	Pref     string
	Male     *float64
	Female   *float64
	Total    *float64
	Area     *float64
	AreaUnit string
	MaleTime time.Time
	PopTime  time.Time
}

// parseNum：宽松数值解析；剔除单位等杂质字符后转换，失败返回 nil
func parseNum(l *literal) *float64 {
	if l == nil {
		return nil
	}
	var b strings.Builder
	for _, r := range l.Value {
		if (r >= '0' && r <= '9') || r == '.' || r == 'e' || r == 'E' || r == '+' || r == '-' {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &n
}

// parseTime：解析 P585 时点（RFC3339），失败返回零时间
func parseTime(l *literal) time.Time {
	if l == nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, l.Value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func str(l *literal) string {
	if l == nil {
		return ""
	}
	return l.Value
}

func (b binding) toRow() Row {
	return Row{
		Item:     str(b.Item),
		Label:    str(b.ItemLabel),
		Pref:     str(b.PrefLabel),
		Male:     parseNum(b.Male),
		Female:   parseNum(b.Female),
		Total:    parseNum(b.Total),
		Area:     parseNum(b.Area),
		AreaUnit: str(b.AreaUnit),
		MaleTime: parseTime(b.MaleTime),
		PopTime:  parseTime(b.PopTime),
	}
}
