package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serptrack/packages/domain"
)

func result(url string, rank int) domain.OrganicResult {
	return domain.OrganicResult{URL: url, AbsoluteRank: rank}
}

func TestExtractPreservesKeywordOrder(t *testing.T) {
	keywords := []string{"b", "a", "c"}
	results := map[string]domain.KeywordResultSet{
		"a": {result("https://example.com/1", 1)},
		"b": {result("https://example.com/2", 2)},
		"c": {result("https://example.com/3", 3)},
	}

	rows := Extract(keywords, results, []string{"example.com"})

	require.Len(t, rows, 3)
	assert.Equal(t, "b", rows[0].Keyword)
	assert.Equal(t, "a", rows[1].Keyword)
	assert.Equal(t, "c", rows[2].Keyword)
}

func TestExtractNoMatchYieldsNil(t *testing.T) {
	results := map[string]domain.KeywordResultSet{
		"kw": {result("https://unrelated.org/page", 1)},
	}

	rows := Extract([]string{"kw"}, results, []string{"example.com"})

	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Ranks["example.com"])
}

func TestExtractPicksLowestRankMatch(t *testing.T) {
	results := map[string]domain.KeywordResultSet{
		"kw": {
			result("https://other.com", 1),
			result("https://example.com/deep", 4),
			result("https://www.example.com", 9),
		},
	}

	rows := Extract([]string{"kw"}, results, []string{"example.com"})

	require.NotNil(t, rows[0].Ranks["example.com"])
	assert.Equal(t, 4, *rows[0].Ranks["example.com"])
}

func TestExtractKeysAreOriginalStrings(t *testing.T) {
	results := map[string]domain.KeywordResultSet{
		"kw": {result("https://example.com", 1)},
	}
	tracked := []string{"https://www.Example.com/"}

	rows := Extract([]string{"kw"}, results, tracked)

	require.Contains(t, rows[0].Ranks, "https://www.Example.com/")
	require.NotNil(t, rows[0].Ranks["https://www.Example.com/"])
	assert.Equal(t, 1, *rows[0].Ranks["https://www.Example.com/"])
}

func TestExtractMissingKeywordGetsEmptyRow(t *testing.T) {
	rows := Extract([]string{"kw"}, map[string]domain.KeywordResultSet{}, []string{"example.com"})

	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Ranks["example.com"])
}

func TestExtractCateringScenario(t *testing.T) {
	results := map[string]domain.KeywordResultSet{
		"到會": {{URL: "https://cateringbear.com/page", Position: 2, Page: 1, AbsoluteRank: 2}},
	}
	tracked := []string{"cateringbear.com", "kamadelivery.com"}

	rows := Extract([]string{"到會"}, results, tracked)

	require.Len(t, rows, 1)
	assert.Equal(t, "到會", rows[0].Keyword)
	require.NotNil(t, rows[0].Ranks["cateringbear.com"])
	assert.Equal(t, 2, *rows[0].Ranks["cateringbear.com"])
	assert.Nil(t, rows[0].Ranks["kamadelivery.com"])
}
