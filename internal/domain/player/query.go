package player

type SortField string

const (
	SortByName         SortField = "name"
	SortByMarketValue  SortField = "marketValue"
	SortByCurrentScore SortField = "currentScore"
	SortByAverageScore SortField = "averageScore"
	SortByAge          SortField = "age"
	SortByPosition     SortField = "position"
	SortByNationality  SortField = "nationality"
)

var sortFields = map[SortField]struct{}{
	SortByName:         {},
	SortByMarketValue:  {},
	SortByCurrentScore: {},
	SortByAverageScore: {},
	SortByAge:          {},
	SortByPosition:     {},
	SortByNationality:  {},
}

// ParseSortField returns fallback for unknown or empty values.
func ParseSortField(raw string, fallback SortField) SortField {
	field := SortField(raw)
	if _, ok := sortFields[field]; ok {
		return field
	}
	return fallback
}

type Sort struct {
	Field SortField
	Desc  bool
}

// Filter narrows a catalog listing. Zero values are not applied.
type Filter struct {
	Position    Position
	ClubID      string
	Club        string
	Nationality string
	Search      string
	MinValue    *int64
	MaxValue    *int64
	MinScore    *float64
	MaxScore    *float64
	Sort        Sort
	Limit       int
	Offset      int
}

type Bucket struct {
	Key   string
	Count int
}

type PositionSummary struct {
	Position     Position
	Count        int
	AverageScore float64
	AverageValue float64
}

type Range struct {
	Average float64
	Max     float64
	Min     float64
}

// Summary aggregates the whole player catalog.
type Summary struct {
	Total            int
	MarketValue      Range
	CurrentScore     Range
	AverageScore     float64
	ByPosition       []PositionSummary
	TopNationalities []Bucket
}
