// Package browse holds the question-bank browsing state that mirrors into
// the page URL: search text, difficulty and page number.
package browse

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/stemsi/quizling/internal/model"
)

// PageSize is the number of questions per browse page.
const PageSize = 20

// MaxPage is the last page whose cursor fits in an int.
const MaxPage = math.MaxInt / PageSize

// URL parameter names.
const (
	ParamSearch     = "search"
	ParamDifficulty = "difficulty"
	ParamPage       = "page"
)

// Filters is the browse view state. A zero Difficulty means all tiers.
type Filters struct {
	Search     string           `json:"search"`
	Difficulty model.Difficulty `json:"difficulty,omitempty"`
	Page       int              `json:"page"`
}

// ParseFilters reads the browse state from URL parameters. Unknown
// difficulties mean "no filter"; a missing, non-numeric or non-positive
// page means page 1.
func ParseFilters(v url.Values) Filters {
	f := Filters{
		Search: strings.TrimSpace(v.Get(ParamSearch)),
		Page:   ParsePage(v.Get(ParamPage)),
	}
	if d, ok := model.ParseDifficulty(v.Get(ParamDifficulty)); ok {
		f.Difficulty = d
	}
	return f
}

// ParsePage parses a 1-based page number, defaulting to 1. Pages past
// MaxPage are invalid too.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 || n > MaxPage {
		return 1
	}
	return n
}

// Cursor is the offset of the first question on the page.
func (f Filters) Cursor() int {
	page := f.Page
	if page < 1 || page > MaxPage {
		page = 1
	}
	return (page - 1) * PageSize
}

// Query builds the collection request for this page.
func (f Filters) Query() model.QuestionQuery {
	cursor := f.Cursor()
	q := model.QuestionQuery{
		Search: f.Search,
		Cursor: &cursor,
		Limit:  PageSize,
	}
	if f.Difficulty.Valid() {
		q.Difficulty = f.Difficulty
	}
	return q
}

// Values mirrors the state back into URL parameters, omitting defaults.
func (f Filters) Values() url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set(ParamSearch, f.Search)
	}
	if f.Difficulty.Valid() {
		v.Set(ParamDifficulty, string(f.Difficulty))
	}
	if f.Page > 1 {
		v.Set(ParamPage, strconv.Itoa(f.Page))
	}
	return v
}

// Encode renders Values as a query string, "" when everything is default.
func (f Filters) Encode() string {
	return f.Values().Encode()
}

// WithSearch changes the search text and returns to page 1.
func (f Filters) WithSearch(s string) Filters {
	f.Search = strings.TrimSpace(s)
	f.Page = 1
	return f
}

// WithDifficulty changes the tier filter and returns to page 1. An unknown
// tier clears the filter.
func (f Filters) WithDifficulty(d model.Difficulty) Filters {
	if !d.Valid() {
		d = ""
	}
	f.Difficulty = d
	f.Page = 1
	return f
}

// WithPage moves to page n, clamped to [1, MaxPage].
func (f Filters) WithPage(n int) Filters {
	n = max(1, min(n, MaxPage))
	f.Page = n
	return f
}

// HasPrevious reports whether a previous page exists.
func (f Filters) HasPrevious() bool { return f.Page > 1 }
