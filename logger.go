package arus

import (
	"io"
	"os"

	"github.com/ryanbekhen/arus/log"
)

// newLogger builds the server logger from the configuration: a rotating
// file when LogFile is set, the console otherwise. The returned closer
// releases the file, if any.
func newLogger(cfg Config) (*log.Logger, io.Closer) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}

	if cfg.LogFile != "" {
		w := log.NewFileWriter(log.DefaultFileConfig(cfg.LogFile))
		return log.New(w, level), w
	}
	return log.New(log.DefaultConsoleWriter(os.Stdout), level), nil
}

// displayStartupMessage displays a startup message with server information
func displayStartupMessage(logger log.ILogger, addr string, cfg Config, routes int) {
	logger.Info().Msg("                        ")
	logger.Info().Msg("   __ _ _ __ _   _ ___  ")
	logger.Info().Msg("  / _` | '__| | | / __| ")
	logger.Info().Msg(" | (_| | |  | |_| \\__ \\ ")
	logger.Info().Msg("  \\__,_|_|   \\__,_|___/ ")
	logger.Info().Msg(" ")
	logger.Info().
		Str("env", cfg.Env).
		Int("routes", routes).
		Msgf("Server is running on %s", addr)
	logger.Info().Msg("Press Ctrl+C to stop the server")
}
