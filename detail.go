package main

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"
)

// DetailService resolves a single book, loads its reviews and submits
// new ones. The displayed average rating is always derived from the
// server-truth review list, never computed incrementally.
type DetailService struct {
	logger *zap.Logger
	api    CatalogAPI

	mu      sync.Mutex
	current string
	book    Book
	reviews []Review
}

// NewDetailService provides an instance of DetailService.
func NewDetailService(logger *zap.Logger, api CatalogAPI) *DetailService {
	return &DetailService{logger: logger, api: api}
}

// Book provides the currently displayed book.
func (ds *DetailService) Book() Book {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.book
}

// Reviews provides the reviews of the currently displayed book.
func (ds *DetailService) Reviews() []Review {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.reviews
}

// Load resolves a book by identifier then fetches its reviews. The api
// exposes no reliable single-book endpoint so the listing is fetched and
// scanned for the wanted id; a miss is ErrBookNotFound, which is distinct
// from a transport failure. A completion for a different id than the one
// currently wanted is discarded.
func (ds *DetailService) Load(ctx context.Context, id string) error {
	ds.mu.Lock()
	ds.current = id
	ds.mu.Unlock()

	page, err := ds.api.ListBooks(ctx, ListingQuery{Page: 1})
	if err != nil {
		ds.logger.Error("detail: failed to fetch listing for scan", zap.String("book.id", id), zap.Error(err))
		return err
	}

	var found *Book
	for i := range page.Books {
		if page.Books[i].ID == id {
			found = &page.Books[i]
			break
		}
	}
	if found == nil {
		return ErrBookNotFound
	}

	reviews, err := ds.api.BookReviews(ctx, id)
	if err != nil {
		ds.logger.Error("detail: failed to fetch reviews", zap.String("book.id", id), zap.Error(err))
		return err
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.current != id {
		// The view moved on to another book while this load was in flight.
		ds.logger.Debug("detail: discarding stale load", zap.String("book.id", id))
		return nil
	}
	ds.book = *found
	ds.reviews = reviews
	return nil
}

// SubmitReview validates then sends a new review for the displayed book.
// On success the full review list is re-fetched, no incremental append.
// The caller gates the form behind an authenticated session; a token-less
// submission fails through the normal auth-rejection path.
func (ds *DetailService) SubmitReview(ctx context.Context, rating int, text string) error {
	ds.mu.Lock()
	id := ds.current
	ds.mu.Unlock()
	if len(id) == 0 {
		return ErrBookNotFound
	}

	if err := ValidateReviewRequest(rating, text); err != nil {
		return err
	}

	if err := ds.api.SubmitReview(ctx, id, rating, text); err != nil {
		ds.logger.Error("detail: failed to submit review", zap.String("book.id", id), zap.Error(err))
		return err
	}
	ds.logger.Info("detail: review submitted", zap.String("book.id", id), zap.Int("review.rating", rating))

	reviews, err := ds.api.BookReviews(ctx, id)
	if err != nil {
		ds.logger.Error("detail: failed to refresh reviews", zap.String("book.id", id), zap.Error(err))
		return err
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.current == id {
		ds.reviews = reviews
	}
	return nil
}

// AverageRating computes the arithmetic mean of the fetched reviews and
// their count. A zero count means no rating summary must be rendered.
func (ds *DetailService) AverageRating() (float64, int) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return averageRating(ds.reviews)
}

func averageRating(reviews []Review) (float64, int) {
	if len(reviews) == 0 {
		return 0, 0
	}
	sum := 0
	for _, review := range reviews {
		sum += review.Rating
	}
	return float64(sum) / float64(len(reviews)), len(reviews)
}

// starCount converts an average rating into the number of filled stars
// to render, rounded to the nearest integer.
func starCount(average float64) int {
	return int(math.Round(average))
}
