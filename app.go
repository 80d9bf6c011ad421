package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// AppProvider abstracts a runnable application flavor: the interactive
// catalogue client or the mock api server.
type AppProvider interface {
	Run() error
}

// App is the interactive catalogue client application.
type App struct {
	logger   *zap.Logger
	config   *Config
	session  *SessionStore
	console  *Console
	cleanups []func()
}

// NewApp provides an instance of the interactive catalogue client.
func NewApp() (AppProvider, error) {
	config, err := LoadAndInitConfigs(GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, err
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
	logger, flusher := SetupLogging(config, logFile, false)

	// Setup the persisted session storage.
	boltClient, err := GetBoltDBClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open the session storage: %s", err)
	}
	sessionStorage := NewBoltSessionStorage(logger, &config.Session, boltClient)

	// Setup the api client and the session store, then subscribe the
	// store to the client's auth-rejection event so any unauthorized
	// response clears the session globally.
	api := NewAPIClient(logger, config, NewObjectIDGenerator())
	session := NewSessionStore(logger, api, sessionStorage)
	api.SetTokenSource(session.Token)
	api.OnAuthRejected(session.Clear)

	catalog := NewCatalogService(logger, api)
	detail := NewDetailService(logger, api)
	console := NewConsole(logger, api, session, catalog, detail, os.Stdin, os.Stdout)

	return &App{
		logger:  logger,
		config:  config,
		session: session,
		console: console,
		cleanups: []func(){
			func() {
				if cerr := boltClient.Close(); cerr != nil {
					fmt.Println("error during closing of session storage: ", cerr)
				}
			},
			flusher,
			closer,
		},
	}, nil
}

// Run starts the interactive console loop.
func (app *App) Run() error {
	defer app.Clean()
	app.logger.Info("catalogue client starting", zap.String("api.base_url", app.config.API.BaseURL))
	err := app.console.Run(context.Background())
	app.logger.Info("catalogue client stopped", zap.Error(err))
	return err
}

// Clean calls all registered cleanups functions.
func (app *App) Clean() {
	for _, f := range app.cleanups {
		f()
	}
}
