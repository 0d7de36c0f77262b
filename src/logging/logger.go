package logging

import (
	"fmt"

	"docdbctl/src/settings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the application logger from the process-wide settings.
// Command output goes to stdout, so log lines always go to stderr.
func NewLogger() (*zap.SugaredLogger, error) {
	args := settings.GetSettings()

	var config zap.Config

	if args.Debug {
		// Development configuration with more verbose output
		config = zap.NewDevelopmentConfig()
	} else {
		// Production configuration
		config = zap.NewProductionConfig()
		if !args.Verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
	}

	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	if args.LogFile != "" {
		config.OutputPaths = append(config.OutputPaths, args.LogFile)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger.Sugar(), nil
}

// Component returns a child logger tagged with a component name
func Component(logger *zap.SugaredLogger, name string) *zap.SugaredLogger {
	if logger == nil {
		return zap.NewNop().Sugar()
	}
	return logger.Named(name)
}
