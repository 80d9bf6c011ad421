package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// MiddlewareFunc is a custom type for ease of use.
type MiddlewareFunc func(httprouter.Handle) httprouter.Handle

// Middlewares is a custom type to represent a stack of
// middleware functions used to build a single chain.
type Middlewares []MiddlewareFunc

// Chain wraps a handler with the stack, first middleware outermost.
func (mws Middlewares) Chain(h httprouter.Handle) httprouter.Handle {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// CoreMiddleware setup the duration measurement for each request and logs its result.
func (api *MockAPIHandler) CoreMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()
		requestID := GetValueFromContext(r.Context(), RequestIDContextKey)

		api.logger.Info(
			"request",
			zap.String("request.id", requestID),
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
			zap.String("request.agent", r.UserAgent()),
		)

		next(w, r, ps)
		api.logger.Info(
			"request",
			zap.String("request.id", requestID),
			zap.String("request.method", r.Method),
			zap.String("request.path", r.URL.Path),
			zap.Duration("request.duration", time.Since(start)),
		)
	}
}

// RequestIDMiddleware adds a unique id to the request context. The id
// provided by the client wrapper is kept when present so that client
// and server logs correlate.
func (api *MockAPIHandler) RequestIDMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		requestID := r.Header.Get("X-Request-Id")
		if len(requestID) == 0 {
			requestID = api.ids.Generate(RequestIDPrefix)
		}
		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
		r = r.WithContext(ctx)
		next(w, r, ps)
	}
}

// CORSMiddleware intercepts each incoming HTTP calls then apply cors headers on it.
func CORSMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Origin, Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, User-Agent, X-Request-Id")
		next(w, r, ps)
	}
}

// PanicRecoveryMiddleware catches any panic during the request lifecycle and produces
// an error log for further analysis. It sends a failure response to the client with 500.
func (api *MockAPIHandler) PanicRecoveryMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		recovery := func() {
			if err := recover(); err != nil {
				requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
				api.logger.Error("panic occurred", zap.String("request.id", requestID), zap.Any("error", err))
				if werr := WriteMessage(w, http.StatusInternalServerError, "failed to process the request."); werr != nil {
					api.logger.Error("failed to send error response", zap.String("request.id", requestID), zap.Error(werr))
				}
			}
		}
		defer recovery()
		next(w, r, ps)
	}
}

// BearerAuthMiddleware rejects any request without a valid bearer token
// and stores the resolved account into the request context.
func (api *MockAPIHandler) BearerAuthMiddleware(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			api.respondMessage(w, requestID, http.StatusUnauthorized, "Unauthorized")
			return
		}
		user, err := api.verifyToken(r, strings.TrimPrefix(header, prefix))
		if err != nil {
			api.logger.Info("rejected bearer token", zap.String("request.id", requestID), zap.Error(err))
			api.respondMessage(w, requestID, http.StatusUnauthorized, "Unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), AuthUserContextKey, user)
		next(w, r.WithContext(ctx), ps)
	}
}
