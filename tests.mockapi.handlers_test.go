package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestMockAPIServer starts an in-memory instance of the mock api with
// the seeded catalogue and provides its base url.
func newTestMockAPIServer(t *testing.T) string {
	t.Helper()
	config := &Config{
		MockAPI: MockAPIConfig{
			Storage:   "memory",
			JWTSecret: "test-secret",
			TokenTTL:  time.Hour,
		},
	}
	storage := NewMemoryCatalogStorage()
	clock := NewMockClocker()
	ids := NewObjectIDGenerator()
	require.NoError(t, SeedCatalogStorage(context.Background(), storage, clock, ids))

	apiService := NewMockAPIHandler(zap.NewNop(), config, clock, ids, storage)
	public := Middlewares{
		apiService.PanicRecoveryMiddleware,
		apiService.RequestIDMiddleware,
		CORSMiddleware,
	}
	protected := append(Middlewares{}, public...)
	protected = append(protected, apiService.BearerAuthMiddleware)
	router := apiService.SetupRoutes(httprouter.New(), &MiddlewareMap{public: &public, protected: &protected})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server.URL + MockAPIBasePath
}

// newTestSession wires a real api client against the mock api with an
// in-memory session storage, mirroring the production wiring.
func newTestSession(baseURL string) (*APIClient, *SessionStore, *MockSessionStorage) {
	client := newTestAPIClient(baseURL)
	storage := NewMockSessionStorage()
	session := NewSessionStore(zap.NewNop(), client, storage)
	client.SetTokenSource(session.Token)
	client.OnAuthRejected(session.Clear)
	session.Restore(context.TODO())
	return client, session, storage
}

// TestMockAPILogin runs the login flow end to end against the mock api.
func TestMockAPILogin(t *testing.T) {
	baseURL := newTestMockAPIServer(t)

	t.Run("should pass: demo account authenticates", func(t *testing.T) {
		_, session, storage := newTestSession(baseURL)

		result := session.Login(context.TODO(), "demo@bookview.local", "password123")
		assert.True(t, result.Success)
		assert.True(t, session.IsAuthenticated())
		assert.Equal(t, "Demo Reader", session.User().Name)
		assert.NotEmpty(t, session.Token())
		assert.Equal(t, session.Token(), storage.Values[SessionKeyToken])
		assert.Equal(t, "true", storage.Values[SessionKeyIsLoggedIn])
	})

	t.Run("should fail: wrong password stays anonymous", func(t *testing.T) {
		_, session, storage := newTestSession(baseURL)

		result := session.Login(context.TODO(), "demo@bookview.local", "wrong")
		assert.False(t, result.Success)
		assert.Equal(t, "Invalid credentials", result.Message)
		assert.False(t, session.IsAuthenticated())
		assert.Empty(t, storage.Values[SessionKeyToken])
	})

	t.Run("should fail: unknown email gets the same rejection", func(t *testing.T) {
		_, session, _ := newTestSession(baseURL)

		result := session.Login(context.TODO(), "nobody@bookview.local", "password123")
		assert.False(t, result.Success)
		assert.Equal(t, "Invalid credentials", result.Message)
	})
}

// TestMockAPIRegister runs the registration flow end to end.
func TestMockAPIRegister(t *testing.T) {
	baseURL := newTestMockAPIServer(t)
	_, session, _ := newTestSession(baseURL)

	result := session.Register(context.TODO(), "Jerome", "jerome@demo.local", "secret123")
	assert.True(t, result.Success)
	assert.False(t, session.IsAuthenticated())

	// The account is usable right away.
	login := session.Login(context.TODO(), "jerome@demo.local", "secret123")
	assert.True(t, login.Success)
	assert.Equal(t, "Jerome", session.User().Name)

	// The email cannot be reused.
	duplicate := session.Register(context.TODO(), "Someone Else", "jerome@demo.local", "secret123")
	assert.False(t, duplicate.Success)
	assert.Equal(t, "Email already registered", duplicate.Message)
}

// TestMockAPIListBooks exercises the listing filters and pagination over
// the seeded catalogue of 12 books.
func TestMockAPIListBooks(t *testing.T) {
	baseURL := newTestMockAPIServer(t)
	client := newTestAPIClient(baseURL)

	t.Run("should pass: default page", func(t *testing.T) {
		page, err := client.ListBooks(context.TODO(), ListingQuery{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Len(t, page.Books, 10)
		assert.Equal(t, 2, page.TotalPages)
	})

	t.Run("should pass: smaller page size raises the page count", func(t *testing.T) {
		page, err := client.ListBooks(context.TODO(), ListingQuery{Page: 3, PageSize: 5})
		require.NoError(t, err)
		assert.Len(t, page.Books, 2)
		assert.Equal(t, 3, page.TotalPages)
	})

	t.Run("should pass: genre filter", func(t *testing.T) {
		page, err := client.ListBooks(context.TODO(), ListingQuery{Genre: "fantasy", Page: 1, PageSize: 10})
		require.NoError(t, err)
		require.Len(t, page.Books, 2)
		assert.Equal(t, "The Hobbit", page.Books[0].Title)
		assert.Equal(t, "The Name of the Wind", page.Books[1].Title)
	})

	t.Run("should pass: author substring filter", func(t *testing.T) {
		page, err := client.ListBooks(context.TODO(), ListingQuery{Author: "tolkien", Page: 1, PageSize: 10})
		require.NoError(t, err)
		require.Len(t, page.Books, 1)
		assert.Equal(t, "The Hobbit", page.Books[0].Title)
	})

	t.Run("should pass: out of range page is empty", func(t *testing.T) {
		page, err := client.ListBooks(context.TODO(), ListingQuery{Page: 9, PageSize: 10})
		require.NoError(t, err)
		assert.Empty(t, page.Books)
		assert.Equal(t, 2, page.TotalPages)
	})
}

// TestMockAPIReviewFlow covers the protected review submission, both the
// rejected token-less path and the authenticated happy path.
func TestMockAPIReviewFlow(t *testing.T) {
	baseURL := newTestMockAPIServer(t)
	client, session, storage := newTestSession(baseURL)

	page, err := client.ListBooks(context.TODO(), ListingQuery{Page: 1, PageSize: 1})
	require.NoError(t, err)
	require.NotEmpty(t, page.Books)
	bookID := page.Books[0].ID

	t.Run("should fail: rejection without a token clears the session", func(t *testing.T) {
		storage.Values[SessionKeyToken] = "leftover"
		err := client.SubmitReview(context.TODO(), bookID, 5, "a must read")
		assert.True(t, IsAuthRejected(err))
		assert.NotContains(t, storage.Values, SessionKeyToken)
		assert.False(t, session.IsAuthenticated())
	})

	t.Run("should pass: authenticated review lands in the list", func(t *testing.T) {
		require.True(t, session.Login(context.TODO(), "demo@bookview.local", "password123").Success)

		err := client.SubmitReview(context.TODO(), bookID, 4, "a must read")
		require.NoError(t, err)

		reviews, err := client.BookReviews(context.TODO(), bookID)
		require.NoError(t, err)
		require.Len(t, reviews, 1)
		assert.Equal(t, bookID, reviews[0].BookID)
		assert.Equal(t, 4, reviews[0].Rating)
		assert.Equal(t, "a must read", reviews[0].Text)
		assert.Equal(t, "Demo Reader", reviews[0].User.Name)
	})

	t.Run("should fail: unknown book", func(t *testing.T) {
		err := client.SubmitReview(context.TODO(), "b:missing", 4, "lost review")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.Status)
		assert.Equal(t, "Book does not exist", apiErr.Message)
	})

	t.Run("should fail: invalid rating rejected", func(t *testing.T) {
		err := client.SubmitReview(context.TODO(), bookID, 7, "off the scale")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	})
}

// TestMockAPIAddBook covers the protected book submission.
func TestMockAPIAddBook(t *testing.T) {
	baseURL := newTestMockAPIServer(t)
	client, session, _ := newTestSession(baseURL)

	t.Run("should fail: rejected without a token", func(t *testing.T) {
		err := client.AddBook(context.TODO(), "Project Hail Mary", "Andy Weir", "Science Fiction")
		assert.True(t, IsAuthRejected(err))
	})

	t.Run("should pass: added book shows up in the listing", func(t *testing.T) {
		require.True(t, session.Login(context.TODO(), "demo@bookview.local", "password123").Success)

		err := client.AddBook(context.TODO(), "Project Hail Mary", "Andy Weir", "Science Fiction")
		require.NoError(t, err)

		page, err := client.ListBooks(context.TODO(), ListingQuery{Author: "andy weir", Page: 1, PageSize: 10})
		require.NoError(t, err)
		titles := []string{}
		for _, book := range page.Books {
			titles = append(titles, book.Title)
		}
		assert.Contains(t, titles, "Project Hail Mary")
	})
}

// TestMockAPILogout ensures the logout endpoint acknowledges and the
// client side ends up fully cleared.
func TestMockAPILogout(t *testing.T) {
	baseURL := newTestMockAPIServer(t)
	_, session, storage := newTestSession(baseURL)

	require.True(t, session.Login(context.TODO(), "demo@bookview.local", "password123").Success)
	require.True(t, session.IsAuthenticated())

	session.Logout(context.TODO())
	assert.False(t, session.IsAuthenticated())
	assert.Empty(t, session.Token())
	assert.NotContains(t, storage.Values, SessionKeyUser)
	assert.NotContains(t, storage.Values, SessionKeyToken)
	assert.NotContains(t, storage.Values, SessionKeyIsLoggedIn)
}
