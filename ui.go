package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Messages shown by the console views. They mirror the wording of the
// original catalogue screens.
const (
	NoBooksMessage   = "No books found matching your criteria."
	NoReviewsMessage = "No reviews yet."
)

// PageControl is one button of the pagination control.
type PageControl struct {
	Label    string
	Active   bool
	Disabled bool
}

// PaginationControls builds the pagination row for the given 1-based page:
// a Previous button, one numbered button per page and a Next button.
// Previous and Next are disabled at the edges. Nothing is rendered when
// the listing fits on a single page.
func PaginationControls(page, totalPages int) []PageControl {
	if totalPages <= 1 {
		return nil
	}
	controls := make([]PageControl, 0, totalPages+2)
	controls = append(controls, PageControl{Label: "Previous", Disabled: page == 1})
	for p := 1; p <= totalPages; p++ {
		controls = append(controls, PageControl{Label: strconv.Itoa(p), Active: p == page})
	}
	controls = append(controls, PageControl{Label: "Next", Disabled: page == totalPages})
	return controls
}

// RenderPagination formats the pagination row. The current page is
// wrapped in parentheses and disabled buttons are marked as such.
func RenderPagination(page, totalPages int) string {
	controls := PaginationControls(page, totalPages)
	if len(controls) == 0 {
		return ""
	}
	parts := make([]string, 0, len(controls))
	for _, control := range controls {
		switch {
		case control.Disabled:
			parts = append(parts, "["+control.Label+":disabled]")
		case control.Active:
			parts = append(parts, "("+control.Label+")")
		default:
			parts = append(parts, "["+control.Label+"]")
		}
	}
	return strings.Join(parts, " ")
}

// RenderStars builds a five characters star row with the given
// number of filled stars.
func RenderStars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

// RenderRatingSummary formats the rating line of a book detail: a rounded
// star row, the one-decimal average and the review count. Zero reviews
// render nothing at all, not a zero average.
func RenderRatingSummary(reviews []Review) string {
	average, count := averageRating(reviews)
	if count == 0 {
		return ""
	}
	plural := "s"
	if count == 1 {
		plural = ""
	}
	return fmt.Sprintf("%s %.1f (%d review%s)", RenderStars(starCount(average)), average, count, plural)
}

// RenderBookList formats the visible books of the listing view.
func RenderBookList(books []Book) string {
	if len(books) == 0 {
		return NoBooksMessage
	}
	var b strings.Builder
	for _, book := range books {
		fmt.Fprintf(&b, "%s  %q by %s [%s]\n", book.ID, book.Title, book.Author, book.Genre)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderReviews formats the review list of the detail view.
func RenderReviews(reviews []Review) string {
	if len(reviews) == 0 {
		return NoReviewsMessage
	}
	var b strings.Builder
	for _, review := range reviews {
		name := review.User.Name
		if len(name) == 0 {
			name = "Anonymous"
		}
		fmt.Fprintf(&b, "%s %s %s\n  %s\n", name, RenderStars(review.Rating), renderReviewDate(review.CreatedAt), review.Text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderBookDetail formats the detail view of a book with its rating
// summary and reviews.
func RenderBookDetail(book Book, reviews []Review) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nby %s\n%s\n", book.Title, book.Author, book.Genre)
	if summary := RenderRatingSummary(reviews); len(summary) != 0 {
		fmt.Fprintf(&b, "%s\n", summary)
	}
	fmt.Fprintf(&b, "\nReviews (%d)\n%s", len(reviews), RenderReviews(reviews))
	return b.String()
}

// renderReviewDate formats a review timestamp for display. An
// unparseable timestamp is shown as received.
func renderReviewDate(createdAt string) string {
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return createdAt
	}
	return t.Format("02 Jan 2006")
}
