package main

import (
	"context"
	"errors"
)

var (
	// ErrBookNotFound reports that no book with the wanted id exists in
	// the catalogue. It is distinct from a transport or server failure.
	ErrBookNotFound = errors.New("book not found")

	// ErrSessionKeyNotFound reports that a persisted session field is absent.
	ErrSessionKeyNotFound = errors.New("session key not found")
)

// Persisted session storage keys. All three must be present
// and consistent for a session to be restored.
const (
	SessionKeyUser       = "user"
	SessionKeyToken      = "token"
	SessionKeyIsLoggedIn = "isLoggedIn"
)

// SessionStorage defines the operations on the persisted client session.
// It is the local analogue of the browser storage the session outlives
// restarts with.
type SessionStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// AuthAPI defines the remote authentication operations used by the session store.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (User, string, error)
	Register(ctx context.Context, name, email, password string) (string, error)
	Logout(ctx context.Context) error
}

// CatalogAPI defines the remote catalogue operations used by the listing
// and detail flows.
type CatalogAPI interface {
	ListBooks(ctx context.Context, query ListingQuery) (BookPage, error)
	BookReviews(ctx context.Context, bookID string) ([]Review, error)
	SubmitReview(ctx context.Context, bookID string, rating int, text string) error
	AddBook(ctx context.Context, title, author, genre string) error
}
