// Package rank
package rank

import (
	"serptrack/packages/domain"
	"serptrack/packages/sitematch"
)

// Extract builds one RankingRow per keyword, in the caller's keyword order.
// Output order is a hard requirement: downstream displays and historical
// comparisons key off original keyword position, never alphabetical or
// rank-sorted order. Each tracked site maps to the absolute rank of the first
// (lowest-rank) matching result, or nil when no fetched result matches. Row
// keys are the original tracked-site strings; matching runs on normalized
// forms.
func Extract(keywords []string, results map[string]domain.KeywordResultSet, tracked []string) []domain.RankingRow {
	norms := make([]string, len(tracked))
	for i, site := range tracked {
		norms[i] = sitematch.Normalize(site)
	}

	rows := make([]domain.RankingRow, 0, len(keywords))
	for _, keyword := range keywords {
		row := domain.RankingRow{
			Keyword: keyword,
			Ranks:   make(map[string]*int, len(tracked)),
		}
		set := results[keyword]
		for i, site := range tracked {
			row.Ranks[site] = firstMatch(set, norms[i])
		}
		rows = append(rows, row)
	}
	return rows
}

// firstMatch assumes the set is already sorted ascending by AbsoluteRank, so
// the first hit is the best rank.
func firstMatch(set domain.KeywordResultSet, norm string) *int {
	if norm == "" {
		return nil
	}
	for _, res := range set {
		if sitematch.Matches(norm, res.URL) {
			r := res.AbsoluteRank
			return &r
		}
	}
	return nil
}
