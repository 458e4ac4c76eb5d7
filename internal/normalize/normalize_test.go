package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ascii space", " 渋谷区 ", "渋谷区"},
		{"full-width space", "渋谷　区", "渋谷区"},
		{"round brackets", "渋谷区（東京都）", "渋谷区東京都"},
		{"square brackets", "[渋谷区]【東京】", "渋谷区東京"},
		{"tabs and newlines", "渋\t谷\n区", "渋谷区"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Canonicalize(tt.in))
		})
	}
}

func TestExtractPref(t *testing.T) {
	assert.Equal(t, "東京都", ExtractPref("東京都渋谷区"))
	assert.Equal(t, "北海道", ExtractPref("北海道札幌市"))
	assert.Equal(t, "", ExtractPref("渋谷区"))
}

func TestExpand(t *testing.T) {
	t.Run("with pref and suffix", func(t *testing.T) {
		q := Expand("東京都渋谷区")
		assert.Equal(t, "東京都渋谷区", q.Canonical)
		assert.Equal(t, "東京都", q.PrefHint)
		assert.Equal(t, "区", q.Suffix)
		assert.Equal(t,
			[]string{"東京都渋谷区", "渋谷区", "渋谷", "渋谷市", "渋谷町", "渋谷村"},
			q.Variants)
	})

	t.Run("bare stem", func(t *testing.T) {
		q := Expand("渋谷")
		assert.Equal(t, "渋谷", q.Canonical)
		assert.Equal(t, "", q.PrefHint)
		assert.Equal(t, "", q.Suffix)
		assert.Equal(t,
			[]string{"渋谷", "渋谷区", "渋谷市", "渋谷町", "渋谷村"},
			q.Variants)
	})

	t.Run("special ward suffix", func(t *testing.T) {
		q := Expand("千代田特別区")
		assert.Contains(t, q.Variants, "千代田")
		assert.Contains(t, q.Variants, "千代田区")
	})

	t.Run("empty input short-circuits", func(t *testing.T) {
		q := Expand("   ")
		require.Empty(t, q.Variants)
		assert.Equal(t, "", q.Canonical)
	})

	t.Run("variants deduplicated", func(t *testing.T) {
		q := Expand("渋谷区")
		seen := map[string]int{}
		for _, v := range q.Variants {
			seen[v]++
		}
		for v, n := range seen {
			assert.Equal(t, 1, n, "variant %q repeated", v)
		}
	})
}
