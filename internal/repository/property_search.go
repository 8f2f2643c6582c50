package repository

import (
	"strings"

	"github.com/iliyamo/smoothmove/internal/database"
)

const (
	// DefaultListLimit applies when a listing request does not ask for a size.
	DefaultListLimit = 10
	// MaxListLimit caps the number of rows a single listing can return.
	MaxListLimit = 100
)

// propertyColumns lists the properties table columns in scan order.
var propertyColumns = []string{
	"id", "owner_id", "title", "description",
	"thumbnail_photo_url", "cover_photo_url", "cost_per_month",
	"street", "city", "province", "post_code", "country",
	"area", "number_of_bathrooms", "number_of_bedrooms", "available_from",
}

// selectColumns renders propertyColumns, optionally qualified by a table alias.
func selectColumns(alias string) string {
	if alias == "" {
		return strings.Join(propertyColumns, ", ")
	}
	qualified := make([]string, len(propertyColumns))
	for i, c := range propertyColumns {
		qualified[i] = alias + "." + c
	}
	return strings.Join(qualified, ", ")
}

// PropertySearch holds the optional free-text filters of a listing query.
// Empty (or blank) fields do not constrain the result.
//
//	Keyword  – substring of title or description, case-sensitive
//	City     – substring of city, case-insensitive
//	Province – substring of province, case-insensitive
//	PostCode – substring of post_code, case-sensitive
//	Limit    – maximum rows; 0 renders no LIMIT clause
type PropertySearch struct {
	Keyword  string
	City     string
	Province string
	PostCode string
	Limit    int
}

// Normalized trims the filters and clamps Limit into [1, MaxListLimit],
// using DefaultListLimit when it is not positive.
func (s PropertySearch) Normalized() PropertySearch {
	s.Keyword = strings.TrimSpace(s.Keyword)
	s.City = strings.TrimSpace(s.City)
	s.Province = strings.TrimSpace(s.Province)
	s.PostCode = strings.TrimSpace(s.PostCode)
	switch {
	case s.Limit <= 0:
		s.Limit = DefaultListLimit
	case s.Limit > MaxListLimit:
		s.Limit = MaxListLimit
	}
	return s
}

// Build renders the SELECT for the search in d's syntax and returns it with
// its bind arguments.  Filters are applied in a fixed order (keyword, city,
// province, post code), each adding exactly one AND clause.  User input is
// only ever bound, never spliced into the SQL text.
func (s PropertySearch) Build(d database.Dialect) (string, []any) {
	var (
		where []string
		args  []any
	)
	bind := func(v any) string {
		args = append(args, v)
		return d.Placeholder(len(args))
	}

	if kw := strings.TrimSpace(s.Keyword); kw != "" {
		arg := d.ContainsArg(kw)
		title := bind(arg)
		desc := title
		if !d.NumberedPlaceholders() {
			desc = bind(arg)
		}
		where = append(where, "("+d.Contains("title", title, false)+" OR "+d.Contains("description", desc, false)+")")
	}
	if city := strings.TrimSpace(s.City); city != "" {
		where = append(where, d.Contains("city", bind(d.ContainsArg(city)), true))
	}
	if province := strings.TrimSpace(s.Province); province != "" {
		where = append(where, d.Contains("province", bind(d.ContainsArg(province)), true))
	}
	if pc := strings.TrimSpace(s.PostCode); pc != "" {
		where = append(where, d.Contains("post_code", bind(d.ContainsArg(pc)), false))
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(selectColumns(""))
	b.WriteString(" FROM properties WHERE 1=1")
	for _, w := range where {
		b.WriteString(" AND ")
		b.WriteString(w)
	}
	b.WriteString(" ORDER BY id")
	if s.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(bind(s.Limit))
	}
	return b.String(), args
}
