package snaptree

import "github.com/mwantia/snaptree/log"

type Options struct {
	Logger        *log.Logger
	LogLevel      log.LogLevel
	LogFile       string
	NoTerminalLog bool
}

type Option func(*Options) error

func newDefaultOptions() *Options {
	return &Options{
		LogLevel: log.Info,
	}
}

func (o *Options) logger(name string) *log.Logger {
	if o.Logger != nil {
		return o.Logger.Named(name)
	}

	return log.NewLogger(name, o.LogLevel, o.LogFile, o.NoTerminalLog)
}

// WithLogger routes all browse logging through an existing logger.
func WithLogger(logger *log.Logger) Option {
	return func(opts *Options) error {
		opts.Logger = logger
		return nil
	}
}

func WithLogLevel(logLevel log.LogLevel) Option {
	return func(opts *Options) error {
		opts.LogLevel = logLevel
		return nil
	}
}

func WithLogFile(logFile string) Option {
	return func(opts *Options) error {
		opts.LogFile = logFile
		return nil
	}
}

func WithoutTerminalLog() Option {
	return func(opts *Options) error {
		opts.NoTerminalLog = true
		return nil
	}
}
