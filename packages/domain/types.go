// Package domain
package domain

// Strategy selects how (keyword, page) fetch tasks are dispatched.
type Strategy string

const (
	StrategySequential Strategy = "sequential"
	StrategyBatched    Strategy = "batched"
	StrategyConcurrent Strategy = "concurrent"
)

// ResultsPerPage is the number of organic results the provider returns per page.
const ResultsPerPage = 10

// OrganicResult is one SERP entry for a (keyword, page) fetch. AbsoluteRank is
// the cross-page rank: (Page-1)*ResultsPerPage + Position. When the provider
// omits the position, Position is 0 and the rank degrades to (Page-1)*10; that
// value is still a valid ordering key, never an "unranked" sentinel.
type OrganicResult struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	Snippet      string `json:"snippet"`
	Position     int    `json:"position"`
	Page         int    `json:"page"`
	AbsoluteRank int    `json:"absolute_rank"`
}

// KeywordResultSet holds one keyword's results merged across all fetched
// pages, sorted ascending by AbsoluteRank.
type KeywordResultSet []OrganicResult

// FetchTask is one (keyword, page) unit of work owned by the scheduler.
type FetchTask struct {
	Keyword string
	Page    int
}

// RankingRow maps each tracked site (original, non-normalized string) to its
// best absolute rank for one keyword. A nil rank means the site was not found
// in any fetched page. Rows are never mutated after construction.
type RankingRow struct {
	Keyword string          `json:"keyword"`
	Ranks   map[string]*int `json:"ranks"`
}

// KeywordRanks carries both sites' ranks for one keyword in a comparison.
type KeywordRanks struct {
	Keyword string
	RankA   *int
	RankB   *int
}

// Comparison buckets keywords by how two sites rank against each other.
// Every bucket preserves the input row order.
type Comparison struct {
	Winning []KeywordRanks
	Losing  []KeywordRanks
	OnlyA   []KeywordRanks
	OnlyB   []KeywordRanks
	Neither []KeywordRanks
	Tied    []KeywordRanks
}

// RunResult is everything one tracking run hands back to the caller.
type RunResult struct {
	Rankings    []RankingRow
	RawResults  map[string]KeywordResultSet
	SuccessRate float64
	DebugLog    []string
}
