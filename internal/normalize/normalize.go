// 包 normalize：把用户输入的地域名规整为规范形，并展开检索别名集合
package normalize

import "strings"

// Prefectures：47 都道府县全名，用于从输入中识别行政区划提示
// 约束：顺序即匹配优先级；子串命中即视为提示，不做分词
var Prefectures = []string{
	"北海道", "青森県", "岩手県", "宮城県", "秋田県", "山形県", "福島県",
	"茨城県", "栃木県", "群馬県", "埼玉県", "千葉県", "東京都", "神奈川県",
	"新潟県", "富山県", "石川県", "福井県", "山梨県", "長野県",
	"岐阜県", "静岡県", "愛知県", "三重県",
	"滋賀県", "京都府", "大阪府", "兵庫県", "奈良県", "和歌山県",
	"鳥取県", "島根県", "岡山県", "広島県", "山口県",
	"徳島県", "香川県", "愛媛県", "高知県",
	"福岡県", "佐賀県", "長崎県", "熊本県", "大分県", "宮崎県", "鹿児島県", "沖縄県",
}

// 市区町村后缀字符：末尾命中时剥离得到词干，也用于打分时的后缀一致判断
var suffixRunes = []rune{'区', '市', '町', '村'}

// Query：规范化后的检索请求（构造后不再修改）
// 背景：规范形、行政区划提示与别名集合一次性派生，后续打分与缓存键都依赖它
type Query struct {
	Canonical string
	PrefHint  string
	Suffix    string
	Variants  []string
}

// Canonicalize：去除空白与括号类标点
// 约束：纯函数；不做汉字正规化（異体字按输入原样保留）
func Canonicalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '　':
			continue
		case strings.ContainsRune("（）()[]【】", r):
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ExtractPref：从规范形中探测都道府县名，未命中返回空串
func ExtractPref(s string) string {
	for _, p := range Prefectures {
		if strings.Contains(s, p) {
			return p
		}
	}
	return ""
}

// trailingSuffix：返回末尾的市区町村后缀字符，无则空串
func trailingSuffix(s string) string {
	rs := []rune(s)
	if len(rs) == 0 {
		return ""
	}
	last := rs[len(rs)-1]
	for _, r := range suffixRunes {
		if last == r {
			return string(r)
		}
	}
	return ""
}

// stem：剥离末尾的行政后缀（特別区优先于单字后缀）得到词干
func stem(s string) string {
	if t := strings.TrimSuffix(s, "特別区"); t != s {
		return t
	}
	if suf := trailingSuffix(s); suf != "" {
		return strings.TrimSuffix(s, suf)
	}
	return s
}

// Expand：从原始输入派生检索请求
// 背景：同一地名在数据源里可能带/不带都道府县前缀、带/不带行政后缀；
// 展开所有拼法后去重，交给上游用正则交集匹配
// 约束：空输入返回空别名集合，调用方据此直接短路为未命中
func Expand(raw string) Query {
	norm := Canonicalize(raw)
	if norm == "" {
		return Query{}
	}
	pref := ExtractPref(norm)
	withoutPref := norm
	if pref != "" {
		withoutPref = strings.Replace(norm, pref, "", 1)
	}
	base := stem(withoutPref)

	seen := map[string]bool{}
	var variants []string
	add := func(v string) {
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		variants = append(variants, v)
	}
	add(norm)
	add(withoutPref)
	add(base)
	if base != "" {
		for _, r := range suffixRunes {
			add(base + string(r))
		}
	}

	return Query{
		Canonical: norm,
		PrefHint:  pref,
		Suffix:    trailingSuffix(norm),
		Variants:  variants,
	}
}
