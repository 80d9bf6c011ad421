package main

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultPageSize mirrors the server default used when no limit is sent.
const DefaultPageSize = 10

// FilterKey identifies one mutable field of the listing query.
type FilterKey string

const (
	FilterGenre    FilterKey = "genre"
	FilterAuthor   FilterKey = "author"
	FilterPage     FilterKey = "page"
	FilterPageSize FilterKey = "pageSize"
)

// ListingQuery is the combination of server-side filters and pagination
// sent with a listing fetch. Pages are 1-based.
type ListingQuery struct {
	Genre    string
	Author   string
	Page     int
	PageSize int
}

// CatalogService maintains the listing query, fetches the matching page
// and applies the client-only search term over the fetched page.
type CatalogService struct {
	logger *zap.Logger
	api    CatalogAPI

	mu         sync.Mutex
	query      ListingQuery
	searchTerm string
	books      []Book
	totalPages int
	loading    bool
	message    string
	seq        uint64
}

// NewCatalogService provides an instance of CatalogService with the
// default listing query.
func NewCatalogService(logger *zap.Logger, api CatalogAPI) *CatalogService {
	return &CatalogService{
		logger: logger,
		api:    api,
		query:  ListingQuery{Page: 1, PageSize: DefaultPageSize},
	}
}

// Query provides a copy of the current listing query.
func (cs *CatalogService) Query() ListingQuery {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.query
}

// TotalPages provides the page count reported by the last fetch.
func (cs *CatalogService) TotalPages() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.totalPages
}

// Loading reports whether a listing fetch is in flight.
func (cs *CatalogService) Loading() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.loading
}

// Message provides the human readable failure of the last fetch.
// It is empty when the last fetch succeeded.
func (cs *CatalogService) Message() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.message
}

// SearchTerm provides the current client-only search term.
func (cs *CatalogService) SearchTerm() string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.searchTerm
}

// SetFilter updates one field of the listing query then refetches the
// matching page. Changing the genre, the author or the page size resets
// the page to 1; changing the page leaves the other fields untouched.
func (cs *CatalogService) SetFilter(ctx context.Context, key FilterKey, value string) error {
	cs.mu.Lock()
	switch key {
	case FilterGenre:
		cs.query.Genre = value
		cs.query.Page = 1
	case FilterAuthor:
		cs.query.Author = value
		cs.query.Page = 1
	case FilterPageSize:
		size, err := strconv.Atoi(value)
		if err != nil || size < 1 {
			cs.mu.Unlock()
			return missingFieldError("a positive page size")
		}
		cs.query.PageSize = size
		cs.query.Page = 1
	case FilterPage:
		page, err := strconv.Atoi(value)
		if err != nil || page < 1 {
			cs.mu.Unlock()
			return missingFieldError("a positive page number")
		}
		cs.query.Page = page
	default:
		cs.mu.Unlock()
		return missingFieldError("a known filter key")
	}
	cs.mu.Unlock()
	return cs.Refresh(ctx)
}

// SetPage moves the listing to the given 1-based page then refetches.
func (cs *CatalogService) SetPage(ctx context.Context, page int) error {
	return cs.SetFilter(ctx, FilterPage, strconv.Itoa(page))
}

// SetSearchTerm narrows the already fetched page. It is pure and
// synchronous: no network call is ever issued.
func (cs *CatalogService) SetSearchTerm(term string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.searchTerm = term
}

// Refresh fetches the page matching the current listing query. The fetch
// is idempotent and safe to re-issue. A response belonging to an earlier
// fetch than the latest started one is discarded so that a slow stale
// response never overwrites a newer page.
func (cs *CatalogService) Refresh(ctx context.Context) error {
	cs.mu.Lock()
	cs.seq++
	seq := cs.seq
	query := cs.query
	cs.loading = true
	cs.mu.Unlock()

	page, err := cs.api.ListBooks(ctx, query)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if seq != cs.seq {
		// A newer fetch started while this one was in flight.
		cs.logger.Debug("catalog: discarding stale listing response", zap.Uint64("fetch.seq", seq))
		return nil
	}
	cs.loading = false
	if err != nil {
		cs.logger.Error("catalog: failed to fetch books", zap.Error(err))
		cs.message = "Failed to fetch books"
		return err
	}
	cs.books = page.Books
	cs.totalPages = page.TotalPages
	cs.message = ""
	return nil
}

// Visible provides the fetched page narrowed by the search term: a
// case-insensitive substring match over the title or the author. An empty
// result is a valid no-results state, not an error.
func (cs *CatalogService) Visible() []Book {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if len(cs.searchTerm) == 0 {
		return cs.books
	}
	term := strings.ToLower(cs.searchTerm)
	matches := []Book{}
	for _, book := range cs.books {
		if strings.Contains(strings.ToLower(book.Title), term) ||
			strings.Contains(strings.ToLower(book.Author), term) {
			matches = append(matches, book)
		}
	}
	return matches
}
