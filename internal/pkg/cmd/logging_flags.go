package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty" // Check if running in a terminal.
	"go.uber.org/zap"            // Logging.
	"go.uber.org/zap/zapcore"
)

// LoggingFlags represents a set of flags for setting up logging.
type LoggingFlags struct {
	LogLevel zapcore.Level // Logging level.
}

// NewLoggingFlags returns a new LoggingFlags.
func NewLoggingFlags(app Flagger, logLevel string) *LoggingFlags {
	var f LoggingFlags

	levels := make([]string, 0, 2*(zap.FatalLevel-zap.DebugLevel+1))
	for l := zap.DebugLevel; l <= zap.FatalLevel; l++ {
		levels = append(levels, l.CapitalString(), l.String())
	}

	app.Flag("log.level", "Set logging level.").
		Envar("CURATOR_LOG_LEVEL").
		HintOptions(levels...).
		Default(logLevel).
		SetValue(&f.LogLevel)

	return &f
}

// NewLogger returns a new logger based on the LogLevel flag.
// Logs go to stderr, leaving stdout to command output.
func (f *LoggingFlags) NewLogger() *zap.Logger {
	var conf zap.Config

	// If logs go to a terminal, use the zap default
	// dev logging config, else prod logging config.
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		conf = zap.NewDevelopmentConfig()
	} else {
		conf = zap.NewProductionConfig()
	}

	conf.Level.SetLevel(f.LogLevel)
	conf.OutputPaths = []string{"stderr"}

	logger, err := conf.Build()
	if err != nil {
		panic(fmt.Sprintf("error building logger: %s", err))
	}

	return logger
}

// SetGlobalLogger both sets the zap global logger, and
// redirects the output from the standard library's
// package-global logger to the supplied logger at the debug level.
// The Elasticsearch client's trace and error logs go through it.
// It returns a teardown function to reset the global loggers.
func SetGlobalLogger(logger *zap.Logger) func() {
	t1 := zap.ReplaceGlobals(logger)
	t2, err := zap.RedirectStdLogAt(logger, zap.DebugLevel)
	if err != nil {
		panic(err)
	}
	return func() {
		t2()
		t1()
	}
}
