package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

var (
	_ AuthAPI    = (*APIClient)(nil) // ensure APIClient implements AuthAPI.
	_ CatalogAPI = (*APIClient)(nil) // ensure APIClient implements CatalogAPI.
)

// APIError is the error value built from any non-2xx api response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// IsAuthRejected reports whether an error comes from a response
// carrying an authentication-rejection status.
func IsAuthRejected(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// APIClient wraps the http client used to reach the remote catalogue api.
// It attaches the bearer token to every request when one is available and
// notifies its auth-rejection subscriber on any unauthorized response.
type APIClient struct {
	logger         *zap.Logger
	config         *Config
	client         *http.Client
	ids            UIDGenerator
	baseURL        string
	tokenSource    func() string
	onAuthRejected func()
}

// NewAPIClient provides an instance of APIClient.
func NewAPIClient(logger *zap.Logger, config *Config, ids UIDGenerator) *APIClient {
	return &APIClient{
		logger:  logger,
		config:  config,
		client:  &http.Client{Timeout: config.API.RequestTimeout},
		ids:     ids,
		baseURL: strings.TrimRight(config.API.BaseURL, "/"),
	}
}

// SetTokenSource registers the callback providing the current bearer token.
// An empty string means no token and no Authorization header is attached.
func (c *APIClient) SetTokenSource(source func() string) {
	c.tokenSource = source
}

// OnAuthRejected registers the callback invoked synchronously whenever a
// response carries an authentication-rejection status. The session store
// subscribes its clear routine here so that a 401 observed anywhere in
// the application forces a global logout.
func (c *APIClient) OnAuthRejected(callback func()) {
	c.onAuthRejected = callback
}

// Login sends the credentials to the authentication endpoint and returns
// the authenticated user with its opaque bearer token.
func (c *APIClient) Login(ctx context.Context, email, password string) (User, string, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, "/login", LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return User{}, "", err
	}
	return resp.User, resp.Token, nil
}

// Register creates a new account. It does not authenticate the caller.
func (c *APIClient) Register(ctx context.Context, name, email, password string) (string, error) {
	var resp APIMessage
	err := c.do(ctx, http.MethodPost, "/register", RegisterRequest{Name: name, Email: email, Password: password}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Logout notifies the server that the current session ends.
func (c *APIClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil)
}

// ListBooks fetches one page of the catalogue matching the server-side
// filters of the query. The client-only search term is never sent.
func (c *APIClient) ListBooks(ctx context.Context, query ListingQuery) (BookPage, error) {
	params := url.Values{}
	if len(query.Genre) != 0 {
		params.Set("genre", query.Genre)
	}
	if len(query.Author) != 0 {
		params.Set("author", query.Author)
	}
	if query.Page > 0 {
		params.Set("page", strconv.Itoa(query.Page))
	}
	if query.PageSize > 0 {
		params.Set("limit", strconv.Itoa(query.PageSize))
	}
	path := "/"
	if encoded := params.Encode(); len(encoded) != 0 {
		path += "?" + encoded
	}
	var page BookPage
	err := c.do(ctx, http.MethodGet, path, nil, &page)
	return page, err
}

// BookReviews fetches the full list of reviews of a given book.
func (c *APIClient) BookReviews(ctx context.Context, bookID string) ([]Review, error) {
	var reviews []Review
	err := c.do(ctx, http.MethodGet, "/book/"+bookID+"/reviews", nil, &reviews)
	return reviews, err
}

// SubmitReview sends a new review for a given book. It requires a bearer
// token; a token-less call fails through the normal auth-rejection path.
func (c *APIClient) SubmitReview(ctx context.Context, bookID string, rating int, text string) error {
	return c.do(ctx, http.MethodPost, "/review", ReviewRequest{BookID: bookID, Rating: rating, Review: text}, nil)
}

// AddBook sends a new book to the catalogue. It requires a bearer token.
func (c *APIClient) AddBook(ctx context.Context, title, author, genre string) error {
	return c.do(ctx, http.MethodPost, "/addBook", AddBookRequest{Title: title, Author: author, Genre: genre}, nil)
}

// do performs one round trip against the api. The request body and the
// expected response shape are optional. Any non-2xx status is converted
// into an *APIError carrying the server message when decodable.
func (c *APIClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buffer *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %v", err)
		}
		buffer = bytes.NewBuffer(payload)
	} else {
		buffer = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buffer)
	if err != nil {
		return fmt.Errorf("failed to build request: %v", err)
	}

	requestID := c.ids.Generate(RequestIDPrefix)
	req.Header.Set("X-Request-Id", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}
	if c.tokenSource != nil {
		if token := c.tokenSource(); len(token) != 0 {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.logger.Debug("api request",
		zap.String("request.id", requestID),
		zap.String("request.method", method),
		zap.String("request.path", path),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("api request failed", zap.String("request.id", requestID), zap.Error(err))
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api response",
		zap.String("request.id", requestID),
		zap.String("request.path", path),
		zap.Int("response.status", resp.StatusCode),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		// Clearing the persisted session happens before the caller
		// observes the failure, whatever flow issued the request.
		if c.onAuthRejected != nil {
			c.onAuthRejected()
		}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var msg APIMessage
		if err = json.NewDecoder(resp.Body).Decode(&msg); err == nil && len(msg.Message) != 0 {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out != nil {
		if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response body: %v", err)
		}
	}
	return nil
}
