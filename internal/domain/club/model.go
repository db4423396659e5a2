package club

import (
	"fmt"
	"strings"
	"time"
)

// Club is a real-world football club the catalog players belong to.
type Club struct {
	ID          string
	Name        string
	League      string
	Country     string
	LogoURL     string
	APIID       string
	APISportsID string
	PlayerCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c Club) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("club name is required")
	}
	if strings.TrimSpace(c.League) == "" {
		return fmt.Errorf("club league is required")
	}
	if strings.TrimSpace(c.Country) == "" {
		return fmt.Errorf("club country is required")
	}
	return nil
}

type SortField string

const (
	SortByName      SortField = "name"
	SortByLeague    SortField = "league"
	SortByCountry   SortField = "country"
	SortByCreatedAt SortField = "createdAt"
)

// ParseSortField returns fallback for unknown or empty values.
func ParseSortField(raw string, fallback SortField) SortField {
	switch field := SortField(raw); field {
	case SortByName, SortByLeague, SortByCountry, SortByCreatedAt:
		return field
	default:
		return fallback
	}
}

type Sort struct {
	Field SortField
	Desc  bool
}

// Filter narrows a club listing. Zero values are not applied.
type Filter struct {
	League  string
	Country string
	Search  string
	Sort    Sort
	Limit   int
	Offset  int
}

type Bucket struct {
	Key   string
	Count int
}

// Valuation is a club ranked by the summed market value of its squad.
type Valuation struct {
	ClubID      string
	Name        string
	League      string
	PlayerCount int
	TotalValue  int64
}

type Summary struct {
	Total        int
	ByLeague     []Bucket
	TopCountries []Bucket
	TopByValue   []Valuation
}
