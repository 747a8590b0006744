package rtapi

import (
	"net/url"
	"strconv"
	"strings"
)

// QueryParams represents common query options for list endpoints.
type QueryParams struct {
	// Page is the page number to request, 1-based. Zero means the API
	// default.
	Page int
	// PerPage is the number of resources per page. Zero means the API
	// default.
	PerPage int
	// OrderBy names the field to sort by. Prefix with "-" for
	// descending order, for example "-created_at".
	OrderBy string
	// Search is a free text search applied server side.
	Search string
	// Filters holds field filters; each key becomes a query parameter
	// whose value is the comma joined list.
	Filters map[string][]string
}

// NewQueryParams creates empty query parameters.
func NewQueryParams() *QueryParams {
	return &QueryParams{
		Filters: make(map[string][]string),
	}
}

// WithPage sets the page number.
func (q *QueryParams) WithPage(page int) *QueryParams {
	q.Page = page

	return q
}

// WithPerPage sets the page size.
func (q *QueryParams) WithPerPage(perPage int) *QueryParams {
	q.PerPage = perPage

	return q
}

// WithOrderBy sets the sort field.
func (q *QueryParams) WithOrderBy(orderBy string) *QueryParams {
	q.OrderBy = orderBy

	return q
}

// WithSearch sets the free text search.
func (q *QueryParams) WithSearch(search string) *QueryParams {
	q.Search = search

	return q
}

// WithFilter appends values to a named filter.
func (q *QueryParams) WithFilter(field string, values ...string) *QueryParams {
	if q.Filters == nil {
		q.Filters = make(map[string][]string)
	}

	q.Filters[field] = append(q.Filters[field], values...)

	return q
}

// ToValues converts the parameters to url.Values.
func (q *QueryParams) ToValues() url.Values {
	values := url.Values{}

	if q == nil {
		return values
	}

	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}

	if q.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(q.PerPage))
	}

	if q.OrderBy != "" {
		values.Set("order_by", q.OrderBy)
	}

	if q.Search != "" {
		values.Set("search", q.Search)
	}

	for field, vals := range q.Filters {
		if len(vals) > 0 {
			values.Set(field, strings.Join(vals, ","))
		}
	}

	return values
}
