package wikidata

import (
	"strconv"
	"strings"

	"ikemen-api/internal/normalize"
)

// BuildQuery 调用方未指定行数上限时的缺省值
const DefaultLimit = 20

// 候选实体的类型集合：市 / 特别区 / 政令市行政区 / 町 / 村 / 市町村
var entityClasses = []string{
	"wd:Q515",
	"wd:Q532",
	"wd:Q30335059",
	"wd:Q1012369",
	"wd:Q5322507",
	"wd:Q15284",
}

// EscapeRegex：转义正则元字符
// 背景：别名会被插进 regex() 谓词；元字符不转义会生成畸形模式或改变匹配语义，
// 这是正确性要求（SPARQL 不会执行代码，但坏模式会污染匹配结果）
func EscapeRegex(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`.*+?^$()[]{}|\`, r) {
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// BuildQuery：由规范化请求拼出候选检索 SPARQL
// 背景：按别名交集匹配日文/英文标签与别名，取性别人口、总人口（含时点）、
// 面积（含单位），按时点新旧排序并截断行数以控制响应体量
func BuildQuery(q normalize.Query, limit int) string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	esc := make([]string, 0, len(q.Variants))
	for _, v := range q.Variants {
		esc = append(esc, EscapeRegex(v))
	}
	pat := strings.Join(esc, "|")
	classes := strings.Join(entityClasses, " ")

	var b strings.Builder
	b.WriteString("SELECT ?item ?itemLabel ?prefLabel ?male ?female ?total ?area ?areaUnit ?maleTime ?popTime WHERE {\n")
	b.WriteString("  VALUES ?class { " + classes + " }\n")
	b.WriteString("  ?item wdt:P17 wd:Q17 .\n")
	b.WriteString("  ?item wdt:P31 ?class .\n")
	b.WriteString("  OPTIONAL { ?item wdt:P131 ?pref . ?pref rdfs:label ?prefLabel . FILTER(LANG(?prefLabel)=\"ja\") }\n")
	b.WriteString("  OPTIONAL { ?item p:P1540 ?mStmt . ?mStmt ps:P1540 ?male . OPTIONAL { ?mStmt pq:P585 ?maleTime } }\n")
	b.WriteString("  OPTIONAL { ?item p:P1539 ?fStmt . ?fStmt ps:P1539 ?female }\n")
	b.WriteString("  OPTIONAL { ?item p:P1082 ?tStmt . ?tStmt ps:P1082 ?total . OPTIONAL { ?tStmt pq:P585 ?popTime } }\n")
	b.WriteString("  OPTIONAL { ?item p:P2046/psv:P2046 ?areaNode . ?areaNode wikibase:quantityAmount ?area ; wikibase:quantityUnit ?areaUnit }\n")
	b.WriteString("  ?item rdfs:label ?itemLabel .\n")
	b.WriteString("  FILTER (LANG(?itemLabel) = \"ja\" || LANG(?itemLabel) = \"en\")\n")
	b.WriteString("  OPTIONAL { ?item skos:altLabel ?alt . FILTER (LANG(?alt) = \"ja\") }\n")
	b.WriteString("  FILTER (\n")
	b.WriteString("    regex(str(?itemLabel), \"^(" + pat + ")$\", \"i\") ||\n")
	b.WriteString("    regex(str(?alt), \"^(" + pat + ")$\", \"i\") ||\n")
	b.WriteString("    regex(str(?itemLabel), \"(" + pat + ")\", \"i\")\n")
	b.WriteString("  )\n")
	b.WriteString("}\n")
	b.WriteString("ORDER BY DESC(?popTime) DESC(?maleTime) DESC(?total)\n")
	b.WriteString("LIMIT " + strconv.Itoa(limit) + "\n")
	return b.String()
}
