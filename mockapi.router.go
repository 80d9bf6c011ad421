package main

import (
	"github.com/julienschmidt/httprouter"
)

// MockAPIBasePath is the prefix the client's default base url points at.
const MockAPIBasePath = "/api/v1"

// MiddlewareMap contains middlewares chains to use for
// public and token-protected requests.
type MiddlewareMap struct {
	public    *Middlewares
	protected *Middlewares
}

// SetupRoutes enforces the mock api routes, mirroring the upstream
// catalogue api surface the client consumes.
func (api *MockAPIHandler) SetupRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.GET("/status", m.public.Chain(api.Status))

	router.GET(MockAPIBasePath+"/", m.public.Chain(api.ListBooks))
	router.GET(MockAPIBasePath+"/book/:id/reviews", m.public.Chain(api.BookReviews))
	router.POST(MockAPIBasePath+"/login", m.public.Chain(api.Login))
	router.POST(MockAPIBasePath+"/register", m.public.Chain(api.Register))
	router.POST(MockAPIBasePath+"/logout", m.public.Chain(api.Logout))

	router.POST(MockAPIBasePath+"/review", m.protected.Chain(api.AddReview))
	router.POST(MockAPIBasePath+"/addBook", m.protected.Chain(api.AddBook))
	return router
}
