package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the slog handler.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Environment names understood by Config.Env.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config describes the logger through environment variables.
// Level and Format override the environment defaults when set.
type Config struct {
	Env     string `env:"APP_ENV" envDefault:"development"`
	Service string `env:"APP_NAME" envDefault:"statekit"`
	Level   string `env:"LOG_LEVEL"`
	Format  Format `env:"LOG_FORMAT"`
}

// Option configures New.
type Option func(*settings)

type settings struct {
	level      slog.Level
	format     Format
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
}

// WithLevel sets the minimum level.
func WithLevel(l slog.Level) Option {
	return func(s *settings) { s.level = l }
}

// WithFormat sets the output format. It panics on unknown formats.
func WithFormat(f Format) Option {
	return func(s *settings) {
		switch f {
		case FormatJSON, FormatText:
			s.format = f
		default:
			panic(fmt.Errorf("logger: invalid format %q, want %q or %q", f, FormatJSON, FormatText))
		}
	}
}

// WithOutput sets the destination. Nil writers are ignored.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.output = w
		}
	}
}

// WithAttr adds static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(s *settings) {
		s.attrs = append(s.attrs, attrs...)
	}
}

// WithContextExtractors registers callbacks that add attributes from the
// context of each logging call.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(s *settings) {
		for _, ex := range extractors {
			if ex != nil {
				s.extractors = append(s.extractors, ex)
			}
		}
	}
}

// WithConfig applies the environment defaults, then the explicit level and
// format. Development logs text at DEBUG, staging and production log JSON at
// INFO. It panics on an unparsable level.
func WithConfig(cfg Config) Option {
	return func(s *settings) {
		env := normalizeEnv(cfg.Env)
		if env == EnvDevelopment {
			s.level, s.format = slog.LevelDebug, FormatText
		} else {
			s.level, s.format = slog.LevelInfo, FormatJSON
		}
		if cfg.Service != "" {
			s.attrs = append(s.attrs, slog.String("service", cfg.Service))
		}
		s.attrs = append(s.attrs, slog.String("env", env))

		if cfg.Level != "" {
			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level))); err != nil {
				panic(fmt.Errorf("logger: invalid level %q: %w", cfg.Level, err))
			}
			s.level = level
		}
		if cfg.Format != "" {
			WithFormat(cfg.Format)(s)
		}
	}
}

func normalizeEnv(env string) string {
	switch strings.ToLower(env) {
	case EnvProduction, "prod":
		return EnvProduction
	case EnvStaging, "stage":
		return EnvStaging
	default:
		return EnvDevelopment
	}
}

// New builds a logger. Without options it writes JSON at INFO to stdout.
func New(opts ...Option) *slog.Logger {
	s := &settings{
		level:  slog.LevelInfo,
		format: FormatJSON,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}

	handlerOpts := &slog.HandlerOptions{Level: s.level}
	var h slog.Handler
	if s.format == FormatText {
		h = slog.NewTextHandler(s.output, handlerOpts)
	} else {
		h = slog.NewJSONHandler(s.output, handlerOpts)
	}
	if len(s.attrs) > 0 {
		h = h.WithAttrs(s.attrs)
	}
	return slog.New(NewContextHandler(h, s.extractors...))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
