package main

import (
	"context"
	"strconv"
	"time"
)

// This file contains mocks definitions needed to perform unit tests.

// MockAuthAPI mocks the remote authentication operations.
type MockAuthAPI struct {
	LoginFunc    func(ctx context.Context, email, password string) (User, string, error)
	RegisterFunc func(ctx context.Context, name, email, password string) (string, error)
	LogoutFunc   func(ctx context.Context) error
}

// Login mocks the behavior of the remote login call.
func (m *MockAuthAPI) Login(ctx context.Context, email, password string) (User, string, error) {
	return m.LoginFunc(ctx, email, password)
}

// Register mocks the behavior of the remote registration call.
func (m *MockAuthAPI) Register(ctx context.Context, name, email, password string) (string, error) {
	return m.RegisterFunc(ctx, name, email, password)
}

// Logout mocks the behavior of the remote logout call.
func (m *MockAuthAPI) Logout(ctx context.Context) error {
	return m.LogoutFunc(ctx)
}

// MockCatalogAPI mocks the remote catalogue operations.
type MockCatalogAPI struct {
	ListBooksFunc    func(ctx context.Context, query ListingQuery) (BookPage, error)
	BookReviewsFunc  func(ctx context.Context, bookID string) ([]Review, error)
	SubmitReviewFunc func(ctx context.Context, bookID string, rating int, text string) error
	AddBookFunc      func(ctx context.Context, title, author, genre string) error
}

// ListBooks mocks the behavior of the listing fetch.
func (m *MockCatalogAPI) ListBooks(ctx context.Context, query ListingQuery) (BookPage, error) {
	return m.ListBooksFunc(ctx, query)
}

// BookReviews mocks the behavior of the reviews fetch.
func (m *MockCatalogAPI) BookReviews(ctx context.Context, bookID string) ([]Review, error) {
	return m.BookReviewsFunc(ctx, bookID)
}

// SubmitReview mocks the behavior of the review submission.
func (m *MockCatalogAPI) SubmitReview(ctx context.Context, bookID string, rating int, text string) error {
	return m.SubmitReviewFunc(ctx, bookID, rating, text)
}

// AddBook mocks the behavior of the book submission.
func (m *MockCatalogAPI) AddBook(ctx context.Context, title, author, genre string) error {
	return m.AddBookFunc(ctx, title, author, genre)
}

// MockSessionStorage implements an in-memory SessionStorage with
// optional error injection.
type MockSessionStorage struct {
	Values  map[string]string
	GetErr  error
	SetErr  error
	DelErr  error
	Deleted []string
}

// NewMockSessionStorage returns a ready to use in-memory session storage.
func NewMockSessionStorage() *MockSessionStorage {
	return &MockSessionStorage{Values: make(map[string]string)}
}

// Get mocks the retrieval of a persisted session field.
func (m *MockSessionStorage) Get(_ context.Context, key string) (string, error) {
	if m.GetErr != nil {
		return "", m.GetErr
	}
	value, exists := m.Values[key]
	if !exists {
		return "", ErrSessionKeyNotFound
	}
	return value, nil
}

// Set mocks the persistence of a session field.
func (m *MockSessionStorage) Set(_ context.Context, key, value string) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.Values[key] = value
	return nil
}

// Delete mocks the removal of persisted session fields.
func (m *MockSessionStorage) Delete(_ context.Context, keys ...string) error {
	if m.DelErr != nil {
		return m.DelErr
	}
	for _, key := range keys {
		delete(m.Values, key)
		m.Deleted = append(m.Deleted, key)
	}
	return nil
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2023, 0o7, 0o2, 0o0, 0o0, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDGenerator implements a fake UIDGenerator with sequential ids.
type MockUIDGenerator struct {
	next int
}

// NewMockUIDGenerator returns a mocked instance with predictable ids.
func NewMockUIDGenerator() *MockUIDGenerator {
	return &MockUIDGenerator{}
}

// Generate constructs a predictable id to be used as mock.
func (muid *MockUIDGenerator) Generate(prefix string) string {
	muid.next++
	return prefix + ":" + strconv.Itoa(muid.next)
}
