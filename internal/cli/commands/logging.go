package commands

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	"github.com/ccollicutt/sensorlog/internal/logger"
	"github.com/ccollicutt/sensorlog/pkg/config"
)

// GlobalOptions holds the flags shared by every command.
type GlobalOptions struct {
	LogLevel  string
	LogPretty bool
}

// logOutput is where diagnostic logs go. Reports go to the command's
// stdout.
var logOutput io.Writer = os.Stderr

// newLogger builds the diagnostic logger. Flags win over the config file;
// cfg may be nil for commands without one.
func newLogger(global *GlobalOptions, cfg *config.LoggingConfig) zerolog.Logger {
	level := config.DefaultLogLevel
	pretty := false
	if cfg != nil {
		level = cfg.Level
		pretty = cfg.Pretty
	}
	if global != nil {
		if global.LogLevel != "" {
			level = global.LogLevel
		}
		pretty = pretty || global.LogPretty
	}
	return logger.New(logOutput, level, pretty)
}
