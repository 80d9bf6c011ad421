package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

// MockAPIApp is the local development stand-in for the remote catalogue api.
type MockAPIApp struct {
	logger   *zap.Logger
	config   *Config
	server   *http.Server
	cleanups []func()
}

// NewMockAPIApp provides an instance of the mock api server.
func NewMockAPIApp() (AppProvider, error) {
	config, err := LoadAndInitConfigs(GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, err
	}

	if len(config.MockAPI.Host) == 0 || len(config.MockAPI.Port) == 0 {
		return nil, fmt.Errorf("make sure to set valid mock api address and port in configuration file")
	}

	// Ensure the logs folder exists and Setup the logging module.
	err = os.MkdirAll(filepath.Dir(config.LogFile), 0o700)
	if err != nil {
		return nil, fmt.Errorf("failed to create logging folder: %s", err)
	}
	logFile, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create logging file: %s", err)
	}
	closer := func() {
		if cerr := logFile.Close(); cerr != nil {
			fmt.Println("error during closing of log file: ", cerr)
		}
	}
	logger, flusher := SetupLogging(config, logFile, true)
	cleanups := []func(){flusher, closer}

	// Setup the storage backend.
	var storage CatalogStorage
	if config.MockAPI.Storage == "redis" {
		redisClient, rerr := GetRedisClient(config)
		if rerr != nil {
			return nil, fmt.Errorf("failed to connect to redis server: %s", rerr)
		}
		cleanups = append([]func(){func() {
			if cerr := redisClient.Close(); cerr != nil {
				fmt.Println("error during closing of redis client: ", cerr)
			}
		}}, cleanups...)
		storage = NewRedisCatalogStorage(logger, redisClient)
	} else {
		storage = NewMemoryCatalogStorage()
	}

	clock := NewClock()
	ids := NewObjectIDGenerator()
	if err = SeedCatalogStorage(context.Background(), storage, clock, ids); err != nil {
		return nil, fmt.Errorf("failed to seed the catalogue storage: %s", err)
	}

	apiService := NewMockAPIHandler(logger, config, clock, ids, storage)

	// Build the stacks of middlewares.
	public := Middlewares{
		apiService.PanicRecoveryMiddleware,
		apiService.RequestIDMiddleware,
		CORSMiddleware,
		apiService.CoreMiddleware,
	}
	protected := append(Middlewares{}, public...)
	protected = append(protected, apiService.BearerAuthMiddleware)

	// Configure the endpoints with their handlers and middlewares.
	router := apiService.SetupRoutes(httprouter.New(), &MiddlewareMap{public: &public, protected: &protected})

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", config.MockAPI.Host, config.MockAPI.Port),
		Handler: router,
	}

	return &MockAPIApp{
		logger:   logger,
		config:   config,
		server:   srv,
		cleanups: cleanups,
	}, nil
}

// Run starts the mock api web server and a goroutine which is responsible to stop it.
func (app *MockAPIApp) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)

	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("mock api server stopped",
		zap.String("host", app.config.MockAPI.Host),
		zap.String("port", app.config.MockAPI.Port),
		zap.Error(err),
	)
	return err
}

// Clean calls all registered cleanups functions.
func (app *MockAPIApp) Clean() {
	for _, f := range app.cleanups {
		f()
	}
}

// Serve starts the mock api web server. Its returned error
// will be caught by the errorgroup.
func (app *MockAPIApp) Serve() func() error {
	return func() error {
		app.logger.Info("mock api server starting",
			zap.String("host", app.config.MockAPI.Host),
			zap.String("port", app.config.MockAPI.Port),
		)
		err := app.server.ListenAndServe()
		if err == http.ErrServerClosed {
			err = nil
		}
		return err
	}
}

// Stop listens for the group context and triggers the server graceful shutdown.
// It states the reason of its call. We proceed with a brutal shutdown if the
// graceful did not complete successfully. We explicitly return `nil` to
// allow the errorgroup catches only the `Serve` method result.
func (app *MockAPIApp) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("mock api server stopping. reason: requested to stop")
		} else {
			app.logger.Info("mock api server stopping. reason: errored at running")
		}

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.MockAPI.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch err {
		case nil, http.ErrServerClosed:
			app.logger.Info("mock api server graceful shutdown succeeded")
		case context.DeadlineExceeded:
			app.logger.Info("mock api server graceful shutdown timed out")
		default:
			app.logger.Info("mock api server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && err != http.ErrServerClosed {
			app.logger.Info("mock api server going to force shutdown", zap.Error(app.server.Close()))
		}
		return nil
	}
}

// SeedCatalogStorage fills an empty catalogue with a starter book set and
// a demo account so the client has something to browse right away.
func SeedCatalogStorage(ctx context.Context, storage CatalogStorage, clock Clocker, ids UIDGenerator) error {
	books, err := storage.Books(ctx)
	if err != nil {
		return err
	}
	if len(books) != 0 {
		return nil
	}

	seeds := []Book{
		{Title: "The Pragmatic Programmer", Author: "Andrew Hunt", Genre: "Technology"},
		{Title: "Clean Code", Author: "Robert C. Martin", Genre: "Technology"},
		{Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy"},
		{Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction"},
		{Title: "The Name of the Wind", Author: "Patrick Rothfuss", Genre: "Fantasy"},
		{Title: "Sapiens", Author: "Yuval Noah Harari", Genre: "History"},
		{Title: "Deep Work", Author: "Cal Newport", Genre: "Self-Help"},
		{Title: "The Murder of Roger Ackroyd", Author: "Agatha Christie", Genre: "Mystery"},
		{Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance"},
		{Title: "Steve Jobs", Author: "Walter Isaacson", Genre: "Biography"},
		{Title: "Zero to One", Author: "Peter Thiel", Genre: "Business"},
		{Title: "The Martian", Author: "Andy Weir", Genre: "Science Fiction"},
	}
	start := clock.Now().UTC()
	for i, seed := range seeds {
		seed.ID = ids.Generate(BookIDPrefix)
		// Spread creation times so pagination order stays deterministic.
		seed.CreatedAt = start.Add(time.Duration(i) * time.Second).Format(time.RFC3339)
		if err = storage.AddBook(ctx, seed); err != nil {
			return err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	demo := StoredUser{
		User: User{
			ID:    ids.Generate(UserIDPrefix),
			Name:  "Demo Reader",
			Email: "demo@bookview.local",
		},
		PasswordHash: string(hash),
	}
	err = storage.AddUser(ctx, demo)
	if err == ErrEmailTaken {
		return nil
	}
	return err
}
