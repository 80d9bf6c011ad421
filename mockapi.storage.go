package main

import (
	"context"
	"errors"
	"sort"
	"sync"
)

var (
	// ErrUserNotFound reports that no account matches the lookup.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken reports that an account already uses the email.
	ErrEmailTaken = errors.New("email already registered")
)

// StoredUser is a catalogue account as persisted by the mock api,
// the public identity plus its password hash.
type StoredUser struct {
	User
	PasswordHash string `json:"passwordHash"`
}

// CatalogStorage defines the operations of the mock api persistence layer.
type CatalogStorage interface {
	AddBook(ctx context.Context, book Book) error
	Books(ctx context.Context) ([]Book, error)
	AddReview(ctx context.Context, review Review) error
	ReviewsByBook(ctx context.Context, bookID string) ([]Review, error)
	AddUser(ctx context.Context, user StoredUser) error
	UserByEmail(ctx context.Context, email string) (StoredUser, error)
	UserByID(ctx context.Context, id string) (StoredUser, error)
}

type memoryCatalogStorage struct {
	mu      sync.RWMutex
	books   map[string]Book
	reviews map[string]Review
	users   map[string]StoredUser
	emails  map[string]string
}

// NewMemoryCatalogStorage provides an in-memory catalogue storage. It
// backs the mock api in tests and in zero-dependency development runs.
func NewMemoryCatalogStorage() CatalogStorage {
	return &memoryCatalogStorage{
		books:   make(map[string]Book),
		reviews: make(map[string]Review),
		users:   make(map[string]StoredUser),
		emails:  make(map[string]string),
	}
}

// AddBook inserts a new book record.
func (ms *memoryCatalogStorage) AddBook(_ context.Context, book Book) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.books[book.ID] = book
	return nil
}

// Books retrieves all book records in a stable creation order.
func (ms *memoryCatalogStorage) Books(_ context.Context) ([]Book, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	books := make([]Book, 0, len(ms.books))
	for _, book := range ms.books {
		books = append(books, book)
	}
	sortBooks(books)
	return books, nil
}

// AddReview inserts a new review record.
func (ms *memoryCatalogStorage) AddReview(_ context.Context, review Review) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.reviews[review.ID] = review
	return nil
}

// ReviewsByBook retrieves all reviews of a given book in creation order.
func (ms *memoryCatalogStorage) ReviewsByBook(_ context.Context, bookID string) ([]Review, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	reviews := []Review{}
	for _, review := range ms.reviews {
		if review.BookID == bookID {
			reviews = append(reviews, review)
		}
	}
	sortReviews(reviews)
	return reviews, nil
}

// AddUser inserts a new account record and indexes its email.
func (ms *memoryCatalogStorage) AddUser(_ context.Context, user StoredUser) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, exists := ms.emails[user.Email]; exists {
		return ErrEmailTaken
	}
	ms.users[user.ID] = user
	ms.emails[user.Email] = user.ID
	return nil
}

// UserByEmail retrieves an account record based on its email.
func (ms *memoryCatalogStorage) UserByEmail(_ context.Context, email string) (StoredUser, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	id, exists := ms.emails[email]
	if !exists {
		return StoredUser{}, ErrUserNotFound
	}
	return ms.users[id], nil
}

// UserByID retrieves an account record based on its id.
func (ms *memoryCatalogStorage) UserByID(_ context.Context, id string) (StoredUser, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	user, exists := ms.users[id]
	if !exists {
		return StoredUser{}, ErrUserNotFound
	}
	return user, nil
}

// sortBooks orders books by creation time then id so that pagination
// over successive fetches stays stable.
func sortBooks(books []Book) {
	sort.Slice(books, func(i, j int) bool {
		if books[i].CreatedAt != books[j].CreatedAt {
			return books[i].CreatedAt < books[j].CreatedAt
		}
		return books[i].ID < books[j].ID
	})
}

// sortReviews orders reviews by creation time then id.
func sortReviews(reviews []Review) {
	sort.Slice(reviews, func(i, j int) bool {
		if reviews[i].CreatedAt != reviews[j].CreatedAt {
			return reviews[i].CreatedAt < reviews[j].CreatedAt
		}
		return reviews[i].ID < reviews[j].ID
	})
}
