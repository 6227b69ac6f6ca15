package rank

import "serptrack/packages/domain"

// Compare classifies every row's keyword into exactly one bucket for two
// tracked sites. Lower rank is better. Buckets keep the rows' order, which is
// the original keyword input order by construction; equal ranks land in Tied
// rather than Winning or Losing. Bucket sizes always sum to len(rows).
func Compare(rows []domain.RankingRow, siteA, siteB string) domain.Comparison {
	var cmp domain.Comparison
	for _, row := range rows {
		a := row.Ranks[siteA]
		b := row.Ranks[siteB]
		kr := domain.KeywordRanks{Keyword: row.Keyword, RankA: a, RankB: b}
		switch {
		case a == nil && b == nil:
			cmp.Neither = append(cmp.Neither, kr)
		case b == nil:
			cmp.OnlyA = append(cmp.OnlyA, kr)
		case a == nil:
			cmp.OnlyB = append(cmp.OnlyB, kr)
		case *a < *b:
			cmp.Winning = append(cmp.Winning, kr)
		case *a > *b:
			cmp.Losing = append(cmp.Losing, kr)
		default:
			cmp.Tied = append(cmp.Tied, kr)
		}
	}
	return cmp
}
