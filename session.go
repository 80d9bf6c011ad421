package main

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// SessionState represents the position of the client in the
// authentication lifecycle.
type SessionState int

const (
	// SessionUnknown is the initial state, before the persisted
	// storage has been checked.
	SessionUnknown SessionState = iota
	SessionAnonymous
	SessionAuthenticated
)

// String provides a human readable session state.
func (s SessionState) String() string {
	switch s {
	case SessionAnonymous:
		return "anonymous"
	case SessionAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// SessionStore holds the client's belief about the current authenticated
// identity and its credential token. It is the single mutation surface of
// the session: Restore, Login, Register, Logout and Clear.
type SessionStore struct {
	logger  *zap.Logger
	api     AuthAPI
	storage SessionStorage

	mu    sync.RWMutex
	state SessionState
	user  User
	token string
}

// NewSessionStore provides an instance of SessionStore. The session starts
// in the unknown state until Restore has checked the persisted storage.
func NewSessionStore(logger *zap.Logger, api AuthAPI, storage SessionStorage) *SessionStore {
	return &SessionStore{
		logger:  logger,
		api:     api,
		storage: storage,
		state:   SessionUnknown,
	}
}

// Loading reports whether the startup storage check is still pending.
// Views gated by the session must not render while it is true.
func (ss *SessionStore) Loading() bool {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.state == SessionUnknown
}

// State provides the current session state.
func (ss *SessionStore) State() SessionState {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.state
}

// IsAuthenticated reports whether a complete user and token pair is held.
func (ss *SessionStore) IsAuthenticated() bool {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.state == SessionAuthenticated
}

// User provides the current user identity. It is the zero value
// unless the session is authenticated.
func (ss *SessionStore) User() User {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.user
}

// Token provides the current bearer token. An empty string means the
// session holds no credential and no Authorization header must be sent.
func (ss *SessionStore) Token() string {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.token
}

// Restore synchronously reads the persisted session fields and moves the
// session out of the unknown state. Only a complete and consistent triple
// restores the authenticated state; any partial presence means anonymous.
func (ss *SessionStore) Restore(ctx context.Context) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	ss.state = SessionAnonymous
	storedUser, errUser := ss.storage.Get(ctx, SessionKeyUser)
	storedToken, errToken := ss.storage.Get(ctx, SessionKeyToken)
	loggedIn, errFlag := ss.storage.Get(ctx, SessionKeyIsLoggedIn)
	if errUser != nil || errToken != nil || errFlag != nil {
		return
	}
	if len(storedUser) == 0 || len(storedToken) == 0 || loggedIn != "true" {
		return
	}

	var user User
	if err := json.Unmarshal([]byte(storedUser), &user); err != nil {
		ss.logger.Error("session: failed to decode persisted user", zap.Error(err))
		return
	}

	ss.user = user
	ss.token = storedToken
	ss.state = SessionAuthenticated
	ss.logger.Info("session: restored from storage", zap.String("user.id", user.ID))
}

// Login sends the credentials to the authentication endpoint. On success
// the returned user and token are stored and persisted. All failures are
// converted into a result value and the session stays anonymous.
func (ss *SessionStore) Login(ctx context.Context, email, password string) AuthResult {
	if err := ValidateLoginRequest(email, password); err != nil {
		return AuthResult{Success: false, Message: err.Error()}
	}

	user, token, err := ss.api.Login(ctx, email, password)
	if err != nil {
		ss.logger.Error("session: login failed", zap.Error(err))
		return AuthResult{Success: false, Message: messageFromError(err, "Login failed")}
	}

	ss.mu.Lock()
	ss.user = user
	ss.token = token
	ss.state = SessionAuthenticated
	ss.mu.Unlock()

	ss.persist(ctx, user, token)
	ss.logger.Info("session: login succeeded", zap.String("user.id", user.ID))
	return AuthResult{Success: true, Message: "Login successful"}
}

// Register creates a new account. It leaves the session state untouched,
// the caller is responsible for directing the user to the login flow.
func (ss *SessionStore) Register(ctx context.Context, name, email, password string) AuthResult {
	if err := ValidateRegisterRequest(name, email, password); err != nil {
		return AuthResult{Success: false, Message: err.Error()}
	}

	if _, err := ss.api.Register(ctx, name, email, password); err != nil {
		ss.logger.Error("session: registration failed", zap.Error(err))
		return AuthResult{Success: false, Message: messageFromError(err, "Registration failed")}
	}
	return AuthResult{Success: true, Message: "Registration successful"}
}

// Logout best-effort notifies the server then clears the in-memory and
// persisted session unconditionally, whatever the network outcome was.
func (ss *SessionStore) Logout(ctx context.Context) {
	defer ss.Clear()
	if err := ss.api.Logout(ctx); err != nil {
		ss.logger.Error("session: server logout notification failed", zap.Error(err))
	}
}

// Clear wipes the in-memory and persisted session fields and moves the
// session back to anonymous. It is also the auth-rejection subscriber
// invoked by the api client on any unauthorized response.
func (ss *SessionStore) Clear() {
	ss.mu.Lock()
	ss.user = User{}
	ss.token = ""
	ss.state = SessionAnonymous
	ss.mu.Unlock()

	if err := ss.storage.Delete(context.Background(), SessionKeyUser, SessionKeyToken, SessionKeyIsLoggedIn); err != nil {
		ss.logger.Error("session: failed to clear persisted fields", zap.Error(err))
	}
	ss.logger.Info("session: cleared")
}

// persist writes the session triple to the persisted storage. A write
// failure does not undo the in-memory authentication, it only means the
// session will not survive a restart.
func (ss *SessionStore) persist(ctx context.Context, user User, token string) {
	userBytes, err := json.Marshal(user)
	if err != nil {
		ss.logger.Error("session: failed to encode user for storage", zap.Error(err))
		return
	}
	for key, value := range map[string]string{
		SessionKeyUser:       string(userBytes),
		SessionKeyToken:      token,
		SessionKeyIsLoggedIn: "true",
	} {
		if err = ss.storage.Set(ctx, key, value); err != nil {
			ss.logger.Error("session: failed to persist field", zap.String("session.key", key), zap.Error(err))
		}
	}
}

// messageFromError extracts the server-provided message of an api error
// and falls back to a generic human readable message otherwise.
func messageFromError(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && len(apiErr.Message) != 0 {
		return apiErr.Message
	}
	return fallback
}
