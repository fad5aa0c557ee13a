package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "info", "":
		return Info
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

func (l Level) logrus() logrus.Level {
	switch l {
	case Debug:
		return logrus.DebugLevel
	case Warn:
		return logrus.WarnLevel
	case Error:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

// Logger es la interfaz que usan router, middlewares y servicios.
// Los campos van como map para no acoplar el dominio a logrus.
type Logger interface {
	With(fields map[string]any) Logger

	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

type Options struct {
	Level  Level
	Format Format
	App    string

	// Output por defecto os.Stdout (tests inyectan un buffer).
	Output io.Writer
}

type logrusLogger struct {
	entry *logrus.Entry
}

func New(opts Options) Logger {
	l := logrus.New()
	l.SetLevel(opts.Level.logrus())

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	l.SetOutput(out)

	switch opts.Format {
	case FormatJSON:
		l.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "ts",
			},
		})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			DisableColors:    true,
			FullTimestamp:    true,
			DisableSorting:   false,
			QuoteEmptyFields: true,
		})
	}

	entry := logrus.NewEntry(l)
	if app := strings.TrimSpace(opts.App); app != "" {
		entry = entry.WithField("app", app)
	}
	return &logrusLogger{entry: entry}
}

// NewFromEnv crea logger desde env:
// - LOG_LEVEL=debug|info|warn|error (default info)
// - LOG_FORMAT=text|json (default text)
// - APP_NAME=pet-care-api (opcional)
func NewFromEnv() Logger {
	return New(Options{
		Level:  ParseLevel(os.Getenv("LOG_LEVEL")),
		Format: ParseFormat(os.Getenv("LOG_FORMAT")),
		App:    os.Getenv("APP_NAME"),
	})
}

// Nop descarta todo. Útil en tests y como default de Options.
func Nop() Logger {
	return New(Options{Level: Error, Output: io.Discard})
}

func (l *logrusLogger) With(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	return &logrusLogger{entry: l.entry.WithFields(clean(fields))}
}

func (l *logrusLogger) Debug(msg string, fields map[string]any) {
	l.entry.WithFields(clean(fields)).Debug(msg)
}

func (l *logrusLogger) Info(msg string, fields map[string]any) {
	l.entry.WithFields(clean(fields)).Info(msg)
}

func (l *logrusLogger) Warn(msg string, fields map[string]any) {
	l.entry.WithFields(clean(fields)).Warn(msg)
}

func (l *logrusLogger) Error(msg string, fields map[string]any) {
	l.entry.WithFields(clean(fields)).Error(msg)
}

// clean descarta keys vacías (mismo criterio que el logger anterior).
func clean(fields map[string]any) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for k, v := range fields {
		if strings.TrimSpace(k) == "" {
			continue
		}
		out[k] = v
	}
	return out
}
