package main

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestDetailLoad ensures a book is resolved by scanning the listing and
// that a missing id is distinguishable from a transport failure.
func TestDetailLoad(t *testing.T) {
	listing := BookPage{
		Books: []Book{
			{ID: "b:1", Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy"},
			{ID: "b:2", Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction"},
		},
		TotalPages: 1,
	}
	reviews := []Review{{ID: "rv:1", BookID: "b:2", Rating: 5, Text: "a classic"}}

	t.Run("should pass: book and reviews loaded", func(t *testing.T) {
		api := &MockCatalogAPI{
			ListBooksFunc: func(ctx context.Context, query ListingQuery) (BookPage, error) {
				return listing, nil
			},
			BookReviewsFunc: func(ctx context.Context, bookID string) ([]Review, error) {
				assert.Equal(t, "b:2", bookID)
				return reviews, nil
			},
		}
		ds := NewDetailService(zap.NewNop(), api)

		require.NoError(t, ds.Load(context.TODO(), "b:2"))
		assert.Equal(t, "Dune", ds.Book().Title)
		assert.Equal(t, reviews, ds.Reviews())
	})

	t.Run("should fail: unknown id is not found", func(t *testing.T) {
		api := &MockCatalogAPI{
			ListBooksFunc: func(ctx context.Context, query ListingQuery) (BookPage, error) {
				return listing, nil
			},
		}
		ds := NewDetailService(zap.NewNop(), api)

		err := ds.Load(context.TODO(), "b:404")
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("should fail: transport failure is not a miss", func(t *testing.T) {
		api := &MockCatalogAPI{
			ListBooksFunc: func(ctx context.Context, query ListingQuery) (BookPage, error) {
				return BookPage{}, errors.New("connection refused")
			},
		}
		ds := NewDetailService(zap.NewNop(), api)

		err := ds.Load(context.TODO(), "b:1")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("should pass: stale completion discarded", func(t *testing.T) {
		api := &MockCatalogAPI{
			ListBooksFunc: func(ctx context.Context, query ListingQuery) (BookPage, error) {
				return listing, nil
			},
		}
		ds := NewDetailService(zap.NewNop(), api)
		// The view moves to another book while the reviews fetch is
		// still in flight.
		api.BookReviewsFunc = func(ctx context.Context, bookID string) ([]Review, error) {
			ds.mu.Lock()
			ds.current = "b:2"
			ds.mu.Unlock()
			return reviews, nil
		}

		require.NoError(t, ds.Load(context.TODO(), "b:1"))
		assert.Empty(t, ds.Book().ID)
		assert.Empty(t, ds.Reviews())
	})
}

// TestDetailSubmitReview ensures a submission refreshes the review list
// from the server and that invalid input never reaches the api.
func TestDetailSubmitReview(t *testing.T) {
	listing := BookPage{Books: []Book{{ID: "b:1", Title: "The Hobbit"}}, TotalPages: 1}

	t.Run("should pass: reviews refetched after submission", func(t *testing.T) {
		served := [][]Review{
			{{ID: "rv:1", BookID: "b:1", Rating: 3}},
			{{ID: "rv:1", BookID: "b:1", Rating: 3}, {ID: "rv:2", BookID: "b:1", Rating: 5}},
		}
		fetches := 0
		submitted := false
		api := &MockCatalogAPI{
			ListBooksFunc: func(ctx context.Context, query ListingQuery) (BookPage, error) {
				return listing, nil
			},
			BookReviewsFunc: func(ctx context.Context, bookID string) ([]Review, error) {
				reviews := served[fetches]
				fetches++
				return reviews, nil
			},
			SubmitReviewFunc: func(ctx context.Context, bookID string, rating int, text string) error {
				submitted = true
				assert.Equal(t, "b:1", bookID)
				assert.Equal(t, 5, rating)
				return nil
			},
		}
		ds := NewDetailService(zap.NewNop(), api)
		require.NoError(t, ds.Load(context.TODO(), "b:1"))

		require.NoError(t, ds.SubmitReview(context.TODO(), 5, "wonderful"))
		assert.True(t, submitted)
		assert.Equal(t, 2, fetches)
		assert.Len(t, ds.Reviews(), 2)
	})

	t.Run("should fail: rating out of range rejected locally", func(t *testing.T) {
		called := false
		api := &MockCatalogAPI{
			ListBooksFunc: func(ctx context.Context, query ListingQuery) (BookPage, error) {
				return listing, nil
			},
			BookReviewsFunc: func(ctx context.Context, bookID string) ([]Review, error) {
				return nil, nil
			},
			SubmitReviewFunc: func(ctx context.Context, bookID string, rating int, text string) error {
				called = true
				return nil
			},
		}
		ds := NewDetailService(zap.NewNop(), api)
		require.NoError(t, ds.Load(context.TODO(), "b:1"))

		err := ds.SubmitReview(context.TODO(), 6, "over the top")
		assert.ErrorIs(t, err, errRatingOutOfRange)
		assert.False(t, called)
	})

	t.Run("should fail: no displayed book", func(t *testing.T) {
		ds := NewDetailService(zap.NewNop(), &MockCatalogAPI{})
		err := ds.SubmitReview(context.TODO(), 5, "wonderful")
		assert.ErrorIs(t, err, ErrBookNotFound)
	})
}

// TestAverageRating ensures the rating summary derives from the fetched
// reviews and that a zero count suppresses the summary entirely.
func TestAverageRating(t *testing.T) {
	testCases := []struct {
		name      string
		ratings   []int
		wantAvg   float64
		wantCount int
		wantStars int
	}{
		{name: "should pass: mixed ratings", ratings: []int{5, 3, 4}, wantAvg: 4.0, wantCount: 3, wantStars: 4},
		{name: "should pass: half rounds up", ratings: []int{4, 5}, wantAvg: 4.5, wantCount: 2, wantStars: 5},
		{name: "should pass: single review", ratings: []int{2}, wantAvg: 2.0, wantCount: 1, wantStars: 2},
		{name: "should pass: no reviews means no summary", ratings: nil, wantAvg: 0, wantCount: 0, wantStars: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reviews := make([]Review, 0, len(tc.ratings))
			for i, rating := range tc.ratings {
				reviews = append(reviews, Review{ID: "rv:" + strconv.Itoa(i+1), Rating: rating})
			}
			avg, count := averageRating(reviews)
			assert.InDelta(t, tc.wantAvg, avg, 0.001)
			assert.Equal(t, tc.wantCount, count)
			assert.Equal(t, tc.wantStars, starCount(avg))
		})
	}
}
