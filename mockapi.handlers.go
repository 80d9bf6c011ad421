package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MockAPIHandler serves the endpoints of the catalogue api the client
// consumes, so the client can be exercised without the real backend.
type MockAPIHandler struct {
	logger  *zap.Logger
	config  *Config
	clock   Clocker
	ids     UIDGenerator
	storage CatalogStorage
	started time.Time
}

// NewMockAPIHandler provides a new instance of MockAPIHandler.
func NewMockAPIHandler(logger *zap.Logger, config *Config, clock Clocker, ids UIDGenerator, storage CatalogStorage) *MockAPIHandler {
	return &MockAPIHandler{
		logger:  logger,
		config:  config,
		clock:   clock,
		ids:     ids,
		storage: storage,
		started: clock.Now(),
	}
}

// WriteJSON sends any payload with the given status code.
func WriteJSON(w http.ResponseWriter, status int, payload interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

// WriteMessage sends the generic `{message}` payload with the given status code.
func WriteMessage(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, APIMessage{Message: message})
}

// Status provides basics details about the mock api to the public users.
func (api *MockAPIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	if err := WriteJSON(w, http.StatusOK,
		map[string]interface{}{
			"requestid": requestID,
			"status":    fmt.Sprintf("up & running since %.0f mins", api.clock.Now().Sub(api.started).Minutes()),
			"message":   "Hello. Books catalogue mock api is available. Enjoy :)",
		},
	); err != nil {
		api.logger.Error("failed to send status response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// Login checks the submitted credentials and issues a bearer token.
// Unknown emails and wrong passwords get the same rejection.
func (api *MockAPIHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	var payload LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.respondMessage(w, requestID, http.StatusBadRequest, "Invalid login request")
		return
	}
	if err := ValidateLoginRequest(payload.Email, payload.Password); err != nil {
		api.respondMessage(w, requestID, http.StatusBadRequest, err.Error())
		return
	}

	user, err := api.storage.UserByEmail(r.Context(), payload.Email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		api.logger.Error("failed to lookup account", zap.String("request.id", requestID), zap.Error(err))
		api.respondMessage(w, requestID, http.StatusInternalServerError, "Login failed")
		return
	}
	if errors.Is(err, ErrUserNotFound) ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)) != nil {
		api.respondMessage(w, requestID, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := api.issueToken(user.User)
	if err != nil {
		api.logger.Error("failed to issue token", zap.String("request.id", requestID), zap.Error(err))
		api.respondMessage(w, requestID, http.StatusInternalServerError, "Login failed")
		return
	}

	api.logger.Info("login succeeded", zap.String("request.id", requestID), zap.String("user.id", user.ID))
	if err = WriteJSON(w, http.StatusOK, LoginResponse{User: user.User, Token: token, Message: "Login successful"}); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// Register creates a new account. It never authenticates the caller.
func (api *MockAPIHandler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	var payload RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.respondMessage(w, requestID, http.StatusBadRequest, "Invalid registration request")
		return
	}
	if err := ValidateRegisterRequest(payload.Name, payload.Email, payload.Password); err != nil {
		api.respondMessage(w, requestID, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		api.logger.Error("failed to hash password", zap.String("request.id", requestID), zap.Error(err))
		api.respondMessage(w, requestID, http.StatusInternalServerError, "Registration failed")
		return
	}

	user := StoredUser{
		User: User{
			ID:    api.ids.Generate(UserIDPrefix),
			Name:  payload.Name,
			Email: payload.Email,
		},
		PasswordHash: string(hash),
	}
	err = api.storage.AddUser(r.Context(), user)
	if errors.Is(err, ErrEmailTaken) {
		api.respondMessage(w, requestID, http.StatusConflict, "Email already registered")
		return
	}
	if err != nil {
		api.logger.Error("failed to create account", zap.String("request.id", requestID), zap.Error(err))
		api.respondMessage(w, requestID, http.StatusInternalServerError, "Registration failed")
		return
	}
	api.logger.Info("account created", zap.String("request.id", requestID), zap.String("user.id", user.ID))
	api.respondMessage(w, requestID, http.StatusCreated, "Registration successful")
}

// Logout acknowledges the end of a session. Tokens are stateless so
// there is nothing to revoke server-side.
func (api *MockAPIHandler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	if err := WriteJSON(w, http.StatusOK, struct{}{}); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// ListBooks provides one page of the catalogue matching the genre and
// author filters. Out-of-range pages yield an empty page.
func (api *MockAPIHandler) ListBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	books, err := api.storage.Books(r.Context())
	if err != nil {
		api.logger.Error("failed to list books", zap.String("request.id", requestID), zap.Error(err))
		api.respondMessage(w, requestID, http.StatusInternalServerError, "Failed to fetch books")
		return
	}

	params := r.URL.Query()
	genre := params.Get("genre")
	author := strings.ToLower(params.Get("author"))
	filtered := []Book{}
	for _, book := range books {
		if len(genre) != 0 && !strings.EqualFold(book.Genre, genre) {
			continue
		}
		if len(author) != 0 && !strings.Contains(strings.ToLower(book.Author), author) {
			continue
		}
		filtered = append(filtered, book)
	}

	page := parsePositiveInt(params.Get("page"), 1)
	limit := parsePositiveInt(params.Get("limit"), DefaultPageSize)
	totalPages := (len(filtered) + limit - 1) / limit
	start := (page - 1) * limit
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	if err = WriteJSON(w, http.StatusOK, BookPage{Books: filtered[start:end], TotalPages: totalPages}); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// BookReviews provides the full review list of a given book.
func (api *MockAPIHandler) BookReviews(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	reviews, err := api.storage.ReviewsByBook(r.Context(), ps.ByName("id"))
	if err != nil {
		api.logger.Error("failed to list reviews", zap.String("request.id", requestID), zap.Error(err))
		api.respondMessage(w, requestID, http.StatusInternalServerError, "Failed to fetch reviews")
		return
	}
	if err = WriteJSON(w, http.StatusOK, reviews); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// AddReview records a new review by the authenticated user.
func (api *MockAPIHandler) AddReview(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	user, ok := GetUserFromContext(r.Context())
	if !ok {
		api.respondMessage(w, requestID, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var payload ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.respondMessage(w, requestID, http.StatusBadRequest, "Invalid review request")
		return
	}
	if err := ValidateReviewRequest(payload.Rating, payload.Review); err != nil {
		api.respondMessage(w, requestID, http.StatusBadRequest, err.Error())
		return
	}

	books, err := api.storage.Books(r.Context())
	if err != nil {
		api.logger.Error("failed to check the book", zap.String("request.id", requestID), zap.Error(err))
		api.respondMessage(w, requestID, http.StatusInternalServerError, "Failed to add review")
		return
	}
	exists := false
	for _, book := range books {
		if book.ID == payload.BookID {
			exists = true
			break
		}
	}
	if !exists {
		api.respondMessage(w, requestID, http.StatusNotFound, "Book does not exist")
		return
	}

	review := Review{
		ID:        api.ids.Generate(ReviewIDPrefix),
		BookID:    payload.BookID,
		Rating:    payload.Rating,
		Text:      payload.Review,
		User:      ReviewUser{Name: user.Name},
		CreatedAt: api.clock.Now().UTC().Format(time.RFC3339),
	}
	if err = api.storage.AddReview(r.Context(), review); err != nil {
		api.logger.Error("failed to add review", zap.String("request.id", requestID), zap.Error(err))
		api.respondMessage(w, requestID, http.StatusInternalServerError, "Failed to add review")
		return
	}
	api.logger.Info("review added", zap.String("request.id", requestID), zap.String("book.id", payload.BookID))
	api.respondMessage(w, requestID, http.StatusCreated, "Review added successfully")
}

// AddBook records a new book submitted by the authenticated user.
func (api *MockAPIHandler) AddBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	if _, ok := GetUserFromContext(r.Context()); !ok {
		api.respondMessage(w, requestID, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var payload AddBookRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.respondMessage(w, requestID, http.StatusBadRequest, "Invalid book request")
		return
	}
	if err := ValidateAddBookRequest(payload.Title, payload.Author, payload.Genre); err != nil {
		api.respondMessage(w, requestID, http.StatusBadRequest, err.Error())
		return
	}

	book := Book{
		ID:        api.ids.Generate(BookIDPrefix),
		Title:     payload.Title,
		Author:    payload.Author,
		Genre:     payload.Genre,
		CreatedAt: api.clock.Now().UTC().Format(time.RFC3339),
	}
	if err := api.storage.AddBook(r.Context(), book); err != nil {
		api.logger.Error("failed to add book", zap.String("request.id", requestID), zap.Error(err))
		api.respondMessage(w, requestID, http.StatusInternalServerError, "Failed to add book")
		return
	}
	api.logger.Info("book added", zap.String("request.id", requestID), zap.String("book.id", book.ID))
	api.respondMessage(w, requestID, http.StatusCreated, "Book added successfully")
}

// issueToken builds a signed HS256 bearer token for a given user.
func (api *MockAPIHandler) issueToken(user User) (string, error) {
	now := api.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(api.config.MockAPI.TokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(api.config.MockAPI.JWTSecret))
}

// verifyToken validates a bearer token and resolves its account.
func (api *MockAPIHandler) verifyToken(r *http.Request, tokenString string) (User, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(api.config.MockAPI.JWTSecret), nil
	}, jwt.WithTimeFunc(api.clock.Now))
	if err != nil || !parsed.Valid {
		return User{}, fmt.Errorf("invalid token: %v", err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || len(claims.Subject) == 0 {
		return User{}, errors.New("invalid token claims")
	}
	user, err := api.storage.UserByID(r.Context(), claims.Subject)
	if err != nil {
		return User{}, fmt.Errorf("unknown token subject: %v", err)
	}
	return user.User, nil
}

// respondMessage sends a `{message}` payload and logs a sending failure.
func (api *MockAPIHandler) respondMessage(w http.ResponseWriter, requestID string, status int, message string) {
	if err := WriteMessage(w, status, message); err != nil {
		api.logger.Error("failed to send response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// parsePositiveInt returns the parsed value when strictly positive
// and the fallback otherwise.
func parsePositiveInt(value string, fallback int) int {
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
