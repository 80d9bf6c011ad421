package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestAPIClient provides an api client pointing at a test server.
func newTestAPIClient(baseURL string) *APIClient {
	config := &Config{
		API: APIConfig{
			BaseURL:        baseURL,
			RequestTimeout: 5 * time.Second,
		},
	}
	return NewAPIClient(zap.NewNop(), config, NewMockUIDGenerator())
}

// TestAPIClientHeaders ensures each request carries a request id and the
// bearer token only when the token source provides one.
func TestAPIClientHeaders(t *testing.T) {
	testCases := []struct {
		name      string
		token     string
		wantAuth  string
		wantEmpty bool
	}{
		{name: "should pass: token attached as bearer", token: "tok-123", wantAuth: "Bearer tok-123"},
		{name: "should pass: no header without token", token: "", wantEmpty: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var gotAuth, gotRequestID string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				gotRequestID = r.Header.Get("X-Request-Id")
				json.NewEncoder(w).Encode(BookPage{})
			}))
			defer server.Close()

			client := newTestAPIClient(server.URL)
			client.SetTokenSource(func() string { return tc.token })

			_, err := client.ListBooks(context.TODO(), ListingQuery{})
			require.NoError(t, err)
			assert.Equal(t, RequestIDPrefix+":1", gotRequestID)
			if tc.wantEmpty {
				assert.Empty(t, gotAuth)
			} else {
				assert.Equal(t, tc.wantAuth, gotAuth)
			}
		})
	}
}

// TestAPIClientListBooksQuery ensures only the non-empty server-side
// filters are encoded into the listing query string.
func TestAPIClientListBooksQuery(t *testing.T) {
	testCases := []struct {
		name  string
		query ListingQuery
		want  map[string]string
	}{
		{
			name:  "should pass: all filters set",
			query: ListingQuery{Genre: "Fantasy", Author: "tolkien", Page: 2, PageSize: 5},
			want:  map[string]string{"genre": "Fantasy", "author": "tolkien", "page": "2", "limit": "5"},
		},
		{
			name:  "should pass: empty filters omitted",
			query: ListingQuery{Page: 1, PageSize: 10},
			want:  map[string]string{"genre": "", "author": "", "page": "1", "limit": "10"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var got map[string]string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				values := r.URL.Query()
				got = map[string]string{
					"genre":  values.Get("genre"),
					"author": values.Get("author"),
					"page":   values.Get("page"),
					"limit":  values.Get("limit"),
				}
				json.NewEncoder(w).Encode(BookPage{TotalPages: 1})
			}))
			defer server.Close()

			page, err := newTestAPIClient(server.URL).ListBooks(context.TODO(), tc.query)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, 1, page.TotalPages)
		})
	}
}

// TestAPIClientErrorDecoding ensures non-2xx responses surface the server
// message as an *APIError with the received status.
func TestAPIClientErrorDecoding(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		body        string
		wantMessage string
	}{
		{
			name:        "should pass: server message extracted",
			status:      http.StatusConflict,
			body:        `{"message":"Email already registered"}`,
			wantMessage: "Email already registered",
		},
		{
			name:        "should pass: status text fallback on empty body",
			status:      http.StatusInternalServerError,
			body:        "",
			wantMessage: "Internal Server Error",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := newTestAPIClient(server.URL).Register(context.TODO(), "Jerome", "jerome@demo.local", "secret")
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.Status)
			assert.Equal(t, tc.wantMessage, apiErr.Message)
		})
	}
}

// TestAPIClientAuthRejection ensures any unauthorized response invokes the
// subscribed callback before the caller observes the error.
func TestAPIClientAuthRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Unauthorized"}`))
	}))
	defer server.Close()

	client := newTestAPIClient(server.URL)
	rejected := false
	client.OnAuthRejected(func() { rejected = true })

	err := client.SubmitReview(context.TODO(), "b:1", 5, "great read")
	assert.True(t, rejected)
	assert.True(t, IsAuthRejected(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Unauthorized", apiErr.Message)
}

// TestIsAuthRejected ensures only unauthorized api errors match.
func TestIsAuthRejected(t *testing.T) {
	assert.True(t, IsAuthRejected(&APIError{Status: http.StatusUnauthorized}))
	assert.False(t, IsAuthRejected(&APIError{Status: http.StatusNotFound}))
	assert.False(t, IsAuthRejected(context.DeadlineExceeded))
	assert.False(t, IsAuthRejected(nil))
}
