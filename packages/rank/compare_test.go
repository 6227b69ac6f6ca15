package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serptrack/packages/domain"
)

func intp(v int) *int { return &v }

func row(keyword string, a, b *int) domain.RankingRow {
	return domain.RankingRow{
		Keyword: keyword,
		Ranks:   map[string]*int{"a.com": a, "b.com": b},
	}
}

func TestCompareClassification(t *testing.T) {
	rows := []domain.RankingRow{
		row("win", intp(1), intp(5)),
		row("lose", intp(8), intp(2)),
		row("onlyA", intp(3), nil),
		row("onlyB", nil, intp(7)),
		row("neither", nil, nil),
		row("tie", intp(4), intp(4)),
	}

	cmp := Compare(rows, "a.com", "b.com")

	require.Len(t, cmp.Winning, 1)
	assert.Equal(t, "win", cmp.Winning[0].Keyword)
	require.Len(t, cmp.Losing, 1)
	assert.Equal(t, "lose", cmp.Losing[0].Keyword)
	require.Len(t, cmp.OnlyA, 1)
	assert.Equal(t, "onlyA", cmp.OnlyA[0].Keyword)
	require.Len(t, cmp.OnlyB, 1)
	assert.Equal(t, "onlyB", cmp.OnlyB[0].Keyword)
	require.Len(t, cmp.Neither, 1)
	assert.Equal(t, "neither", cmp.Neither[0].Keyword)
	require.Len(t, cmp.Tied, 1)
	assert.Equal(t, "tie", cmp.Tied[0].Keyword)
}

func TestCompareBucketsPartitionInput(t *testing.T) {
	rows := []domain.RankingRow{
		row("k1", intp(1), intp(2)),
		row("k2", intp(9), intp(3)),
		row("k3", nil, nil),
		row("k4", intp(5), intp(5)),
		row("k5", intp(2), nil),
		row("k6", nil, intp(1)),
		row("k7", intp(10), intp(10)),
	}

	cmp := Compare(rows, "a.com", "b.com")

	total := len(cmp.Winning) + len(cmp.Losing) + len(cmp.OnlyA) +
		len(cmp.OnlyB) + len(cmp.Neither) + len(cmp.Tied)
	assert.Equal(t, len(rows), total)
}

func TestComparePreservesInputOrder(t *testing.T) {
	rows := []domain.RankingRow{
		row("z", intp(1), intp(9)),
		row("m", intp(2), intp(8)),
		row("a", intp(3), intp(7)),
	}

	cmp := Compare(rows, "a.com", "b.com")

	require.Len(t, cmp.Winning, 3)
	assert.Equal(t, "z", cmp.Winning[0].Keyword)
	assert.Equal(t, "m", cmp.Winning[1].Keyword)
	assert.Equal(t, "a", cmp.Winning[2].Keyword)
}

func TestCompareCarriesRawRanks(t *testing.T) {
	rows := []domain.RankingRow{row("kw", intp(3), nil)}

	cmp := Compare(rows, "a.com", "b.com")

	require.Len(t, cmp.OnlyA, 1)
	require.NotNil(t, cmp.OnlyA[0].RankA)
	assert.Equal(t, 3, *cmp.OnlyA[0].RankA)
	assert.Nil(t, cmp.OnlyA[0].RankB)
}
