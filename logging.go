package main

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SetupLogging is a helper function that initialize the logging module.
// All logs are saved to the defined file. In development the mock api
// server prints the same logs to standard output as well; the interactive
// client never does, its standard output belongs to the console views.
// It only adds stacktrace to error level logs. All logs come with the
// commit & tag values.
func SetupLogging(config *Config, logFile *os.File, console bool) (*zap.Logger, func()) {
	var zapConfig zapcore.EncoderConfig
	if config.IsProduction {
		zapConfig = zap.NewProductionEncoderConfig()
	} else {
		zapConfig = zap.NewDevelopmentEncoderConfig()
	}
	zapConfig.TimeKey = "timestamp"
	zapConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.LevelKey = "level"
	zapConfig.NameKey = "name"
	zapConfig.MessageKey = "msg"
	zapConfig.CallerKey = "caller"
	zapConfig.StacktraceKey = "stacktrace"

	fileEncoder := zapcore.NewJSONEncoder(zapConfig)
	cores := []zapcore.Core{zapcore.NewCore(fileEncoder, zapcore.AddSync(logFile), config.LogLevel)}
	if console && !config.IsProduction {
		consoleEncoder := zapcore.NewConsoleEncoder(zapConfig)
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), config.LogLevel))
	}
	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	logger = logger.With(zap.String("commit", config.GitCommit), zap.String("tag", config.GitTag))

	flusher := func() {
		if err := logger.Sync(); err != nil {
			log.Println("error during flushing any buffered log entries:", err)
		}
	}

	return logger, flusher
}
