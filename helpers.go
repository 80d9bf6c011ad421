package main

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid"
)

var (
	_ Clocker      = (*Clock)(nil)             // ensure Clock implements Clocker.
	_ UIDGenerator = (*ObjectIDGenerator)(nil) // ensure ObjectIDGenerator implements UIDGenerator.
)

var errRatingOutOfRange = errors.New("rating must be between 1 and 5")

type (
	ContextKey        string
	missingFieldError string
)

const (
	BookIDPrefix    string = "b"
	ReviewIDPrefix  string = "rv"
	UserIDPrefix    string = "u"
	RequestIDPrefix string = "r"

	RequestIDContextKey ContextKey = "request.id"
	AuthUserContextKey  ContextKey = "auth.user"
)

func (m missingFieldError) Error() string {
	return string(m) + " is required"
}

// Clocker is an interface for getting current real time.
type Clocker interface {
	Now() time.Time
}

// UIDGenerator is an interface for getting a uid.
type UIDGenerator interface {
	Generate(prefix string) string
}

// Clock implements the Clocker interface.
type Clock struct{}

// NewClock returns a ready to use Clock.
func NewClock() *Clock {
	return &Clock{}
}

// Now provides current clock time.
func (ck *Clock) Now() time.Time {
	return time.Now()
}

// ObjectIDGenerator implements the UIDGenerator interface.
type ObjectIDGenerator struct{}

// NewObjectIDGenerator returns a ready to use ObjectIDGenerator.
func NewObjectIDGenerator() *ObjectIDGenerator {
	return &ObjectIDGenerator{}
}

// Generate provides a random unique identifier.
func (g *ObjectIDGenerator) Generate(prefix string) string {
	id, _ := uuid.NewV4()
	return prefix + ":" + id.String()
}

// GetValueFromContext returns the string value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val := ctx.Value(contextKey); val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

// GetUserFromContext returns the authenticated user set in the context
// by the bearer middleware. The boolean reports its presence.
func GetUserFromContext(ctx context.Context) (User, bool) {
	if val := ctx.Value(AuthUserContextKey); val != nil {
		if u, ok := val.(User); ok {
			return u, true
		}
	}
	return User{}, false
}

// ValidateLoginRequest checks that the login form fields are filled.
func ValidateLoginRequest(email, password string) error {
	if len(email) == 0 {
		return missingFieldError("email")
	}
	if len(password) == 0 {
		return missingFieldError("password")
	}
	return nil
}

// ValidateRegisterRequest checks that the registration form fields are filled.
func ValidateRegisterRequest(name, email, password string) error {
	if len(name) == 0 {
		return missingFieldError("name")
	}
	return ValidateLoginRequest(email, password)
}

// ValidateReviewRequest checks that a review submission is complete and
// carries a star rating within the allowed range.
func ValidateReviewRequest(rating int, text string) error {
	if rating < 1 || rating > 5 {
		return errRatingOutOfRange
	}
	if len(text) == 0 {
		return missingFieldError("review")
	}
	return nil
}

// ValidateAddBookRequest checks that the add-book form fields are filled.
func ValidateAddBookRequest(title, author, genre string) error {
	if len(title) == 0 {
		return missingFieldError("title")
	}
	if len(author) == 0 {
		return missingFieldError("author")
	}
	if len(genre) == 0 {
		return missingFieldError("genre")
	}
	return nil
}
