package rtapi

import (
	"context"
	"errors"

	"github.com/revivatech/client-go/internal/constants"
)

// PaginationClient is implemented by resource clients that can list a
// path with query parameters.
type PaginationClient[T any] interface {
	ListWithPath(ctx context.Context, path string, params *QueryParams) (*ListResponse[T], error)
}

// PaginationOptions tune bulk fetching.
type PaginationOptions struct {
	// PerPage is the page size to request.
	PerPage int

	// MaxPages bounds how many pages are fetched. Zero means all.
	MaxPages int
}

// DefaultPaginationOptions returns the default bulk fetch options.
func DefaultPaginationOptions() *PaginationOptions {
	return &PaginationOptions{
		PerPage: constants.DefaultPageSize,
	}
}

// PaginationIterator walks a paginated collection item by item, fetching
// pages lazily.
type PaginationIterator[T any] struct {
	ctx    context.Context
	client PaginationClient[T]
	path   string
	params *QueryParams

	buffer     []T
	index      int
	page       int
	totalPages int
	fetched    bool
}

// NewPaginationIterator creates an iterator over the collection at path.
func NewPaginationIterator[T any](ctx context.Context, client PaginationClient[T], path string, params *QueryParams) *PaginationIterator[T] {
	if params == nil {
		params = NewQueryParams()
	}

	page := params.Page
	if page <= 0 {
		page = 1
	}

	return &PaginationIterator[T]{
		ctx:    ctx,
		client: client,
		path:   path,
		params: params,
		page:   page,
	}
}

// HasNext reports whether another item is available. It is optimistic
// before the first fetch; Next returns ErrNoMoreItems if the collection
// turns out to be empty.
func (it *PaginationIterator[T]) HasNext() bool {
	if !it.fetched {
		return true
	}

	if it.index < len(it.buffer) {
		return true
	}

	return it.page <= it.totalPages
}

// Next returns the next item, fetching the next page when the buffered
// one is exhausted.
func (it *PaginationIterator[T]) Next() (*T, error) {
	if it.index >= len(it.buffer) {
		err := it.fetchPage()
		if err != nil {
			return nil, err
		}
	}

	if it.index >= len(it.buffer) {
		return nil, ErrNoMoreItems
	}

	item := it.buffer[it.index]
	it.index++

	return &item, nil
}

// All collects every remaining item.
func (it *PaginationIterator[T]) All() ([]T, error) {
	var all []T

	for it.HasNext() {
		item, err := it.Next()
		if errors.Is(err, ErrNoMoreItems) {
			break
		}

		if err != nil {
			return nil, err
		}

		all = append(all, *item)
	}

	return all, nil
}

// ForEach applies fn to every remaining item, stopping on the first
// error.
func (it *PaginationIterator[T]) ForEach(fn func(T) error) error {
	for it.HasNext() {
		item, err := it.Next()
		if errors.Is(err, ErrNoMoreItems) {
			return nil
		}

		if err != nil {
			return err
		}

		err = fn(*item)
		if err != nil {
			return err
		}
	}

	return nil
}

// fetchPage loads the current page into the buffer and advances the
// page cursor.
func (it *PaginationIterator[T]) fetchPage() error {
	if it.fetched && it.page > it.totalPages {
		it.buffer = nil
		it.index = 0

		return nil
	}

	params := it.params
	params.Page = it.page

	response, err := it.client.ListWithPath(it.ctx, it.path, params)
	if err != nil {
		return err
	}

	it.buffer = response.Resources
	it.index = 0
	it.totalPages = response.Pagination.TotalPages
	it.page++
	it.fetched = true

	return nil
}

// FetchAllPages collects every resource of a paginated collection into
// one slice.
func FetchAllPages[T any](ctx context.Context, client PaginationClient[T], path string, params *QueryParams, opts *PaginationOptions) ([]T, error) {
	if opts == nil {
		opts = DefaultPaginationOptions()
	}

	if params == nil {
		params = NewQueryParams()
	}

	if opts.PerPage > 0 {
		params.PerPage = opts.PerPage
	}

	var all []T

	page := 1

	for {
		params.Page = page

		response, err := client.ListWithPath(ctx, path, params)
		if err != nil {
			return nil, err
		}

		all = append(all, response.Resources...)

		if page >= response.Pagination.TotalPages {
			break
		}

		if opts.MaxPages > 0 && page >= opts.MaxPages {
			break
		}

		page++
	}

	return all, nil
}
