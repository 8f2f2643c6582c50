package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/iliyamo/smoothmove/internal/database"
)

// allSearches returns the 16 combinations of the four text filters.
func allSearches() []PropertySearch {
	out := make([]PropertySearch, 0, 16)
	for mask := 0; mask < 16; mask++ {
		var s PropertySearch
		if mask&1 != 0 {
			s.Keyword = "Loft"
		}
		if mask&2 != 0 {
			s.City = "toronto"
		}
		if mask&4 != 0 {
			s.Province = "ON"
		}
		if mask&8 != 0 {
			s.PostCode = "M5V"
		}
		out = append(out, s)
	}
	return out
}

func filterCount(s PropertySearch) int {
	n := 0
	for _, v := range []string{s.Keyword, s.City, s.Province, s.PostCode} {
		if strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

func TestBuildOneClausePerFilter(t *testing.T) {
	dialects := []database.Dialect{database.MySQL{}, database.Postgres{}, database.SQLite{}}
	for _, d := range dialects {
		for _, s := range allSearches() {
			name := fmt.Sprintf("%s/%+v", d.Name(), s)
			t.Run(name, func(t *testing.T) {
				query, args := s.Build(d)
				want := filterCount(s)
				if got := strings.Count(query, " AND "); got != want {
					t.Errorf("AND clauses = %d, want %d\n%s", got, want, query)
				}

				wantArgs := want
				if s.Keyword != "" && !d.NumberedPlaceholders() {
					// title and description each bind the keyword
					wantArgs++
				}
				if len(args) != wantArgs {
					t.Errorf("args = %d, want %d", len(args), wantArgs)
				}
				if strings.Contains(query, "LIMIT") {
					t.Error("zero Limit must not render a LIMIT clause")
				}
			})
		}
	}
}

func TestBuildPostgresBindsOncePerFilter(t *testing.T) {
	for _, s := range allSearches() {
		_, args := s.Build(database.Postgres{})
		if len(args) != filterCount(s) {
			t.Errorf("%+v: args = %d, want %d", s, len(args), filterCount(s))
		}
	}
}

func TestBuildNeverInterpolatesInput(t *testing.T) {
	evil := "x' OR '1'='1"
	s := PropertySearch{Keyword: evil, City: evil, Province: evil, PostCode: evil, Limit: 5}
	for _, d := range []database.Dialect{database.MySQL{}, database.Postgres{}, database.SQLite{}} {
		query, args := s.Build(d)
		if strings.Contains(query, "'1'='1") {
			t.Errorf("%s: user input leaked into SQL: %s", d.Name(), query)
		}
		if got := args[len(args)-1]; got != 5 {
			t.Errorf("%s: last arg = %v, want limit 5", d.Name(), got)
		}
	}
}

func TestBuildPostgresPlaceholders(t *testing.T) {
	s := PropertySearch{Keyword: "Loft", City: "Tor", PostCode: "M5", Limit: 20}
	query, args := s.Build(database.Postgres{})

	for _, frag := range []string{
		"(title LIKE $1 OR description LIKE $1)",
		"city ILIKE $2",
		"post_code LIKE $3",
		"ORDER BY id LIMIT $4",
	} {
		if !strings.Contains(query, frag) {
			t.Errorf("query missing %q:\n%s", frag, query)
		}
	}
	want := []any{"%Loft%", "%Tor%", "%M5%", 20}
	if fmt.Sprint(args) != fmt.Sprint(want) {
		t.Errorf("args = %v, want %v", args, want)
	}
}

func TestBuildFilterOrder(t *testing.T) {
	s := PropertySearch{Keyword: "k", City: "c", Province: "p", PostCode: "z"}
	query, _ := s.Build(database.MySQL{})
	idx := func(sub string) int { return strings.Index(query, sub) }
	order := []int{idx("title COLLATE"), idx("LOWER(city)"), idx("LOWER(province)"), idx("post_code COLLATE")}
	for i := 1; i < len(order); i++ {
		if order[i-1] < 0 || order[i] < order[i-1] {
			t.Fatalf("filters out of order: %s", query)
		}
	}
}

func TestNormalized(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultListLimit},
		{-3, DefaultListLimit},
		{1, 1},
		{MaxListLimit, MaxListLimit},
		{MaxListLimit + 1, MaxListLimit},
	}
	for _, tt := range tests {
		got := PropertySearch{Limit: tt.in}.Normalized().Limit
		if got != tt.want {
			t.Errorf("Normalized(%d).Limit = %d, want %d", tt.in, got, tt.want)
		}
	}

	s := PropertySearch{Keyword: "  Loft ", City: "   "}.Normalized()
	if s.Keyword != "Loft" || s.City != "" {
		t.Errorf("Normalized did not trim filters: %+v", s)
	}
}
