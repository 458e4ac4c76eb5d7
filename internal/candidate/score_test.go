package candidate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ikemen-api/internal/normalize"
	"ikemen-api/internal/wikidata"
)

func f(v float64) *float64 { return &v }

func TestExactMatchDominates(t *testing.T) {
	q := normalize.Expand("渋谷区")
	rows := []wikidata.Row{
		{Item: "wd:Q1", Label: "渋谷", Total: f(10_000_000), PopTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Item: "wd:Q2", Label: "渋谷区", Total: f(1000)},
	}
	ranked := Rank(rows, q)
	require.Len(t, ranked, 2)
	// 规模与新鲜度加分有上限，压不过精确命中
	assert.Equal(t, "渋谷区", ranked[0].Label)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
}

func TestPrefHintDisambiguates(t *testing.T) {
	q := normalize.Expand("福岡県広川町")
	rows := []wikidata.Row{
		{Item: "wd:Q1", Label: "広川町", Pref: "和歌山県"},
		{Item: "wd:Q2", Label: "広川町", Pref: "福岡県"},
	}
	ranked := Rank(rows, q)
	assert.Equal(t, "福岡県", ranked[0].Pref)
}

func TestMagnitudeRewardsLargerEntities(t *testing.T) {
	q := normalize.Expand("中央区")
	rows := []wikidata.Row{
		{Item: "wd:Q1", Label: "中央区", Total: f(100)},
		{Item: "wd:Q2", Label: "中央区", Total: f(500_000)},
	}
	ranked := Rank(rows, q)
	assert.Equal(t, "wd:Q2", ranked[0].Item)
}

func TestMagnitudeFallsBackToMale(t *testing.T) {
	q := normalize.Expand("中央区")
	withMale := score(wikidata.Row{Label: "中央区", Male: f(80000)}, q)
	without := score(wikidata.Row{Label: "中央区"}, q)
	assert.Greater(t, withMale, without)
}

func TestRecencyCapped(t *testing.T) {
	q := normalize.Expand("港区")
	recent := wikidata.Row{Label: "港区", PopTime: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)}
	ancient := wikidata.Row{Label: "港区", PopTime: time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)}
	// 上限 50 之后不再区分新旧
	assert.LessOrEqual(t, score(ancient, q)-score(recent, q), 50.0)
	assert.Greater(t, score(recent, q), score(wikidata.Row{Label: "港区"}, q))
}

func TestTieBreakDeterministic(t *testing.T) {
	q := normalize.Expand("中央区")
	rows := []wikidata.Row{
		{Item: "wd:Q9", Label: "中央区"},
		{Item: "wd:Q1", Label: "中央区"},
	}
	for i := 0; i < 5; i++ {
		ranked := Rank(rows, q)
		assert.Equal(t, "wd:Q1", ranked[0].Item)
		assert.Equal(t, "wd:Q9", ranked[1].Item)
	}
}

func TestSuffixBonus(t *testing.T) {
	q := normalize.Expand("府中市")
	withSuffix := score(wikidata.Row{Label: "府中市"}, q)
	stemOnly := score(wikidata.Row{Label: "府中"}, q)
	assert.Greater(t, withSuffix, stemOnly)
}
