// Package logger wraps zerolog with fields that ride on the request context,
// so a handler, the service it calls and the store it opens all log under the
// same request_id, user and workspace.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/env"
	"github.com/rs/zerolog"
)

// Options configures the structured logger.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	WarnStack   bool
	Output      io.Writer
	// Format is "json" or "console". Empty reads PORTAL_LOG_FORMAT.
	Format string
	// File, when set, mirrors every entry into a daily rotated log file.
	File   string
	MaxAge time.Duration
}

type Logger struct {
	root      zerolog.Logger
	warnStack bool
	closer    io.Closer
}

type fieldsKey struct{}

func New(opts Options) *Logger {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out, closer := buildWriter(opts)
	root := zerolog.New(out).
		Level(opts.Level).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger()

	return &Logger{root: root, warnStack: opts.WarnStack, closer: closer}
}

func buildWriter(opts Options) (io.Writer, io.Closer) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	format := opts.Format
	if format == "" {
		format = env.Get("PORTAL_LOG_FORMAT", "json")
	}
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05", NoColor: out != os.Stdout}
	}
	if opts.File == "" {
		return out, nil
	}

	rotated, err := newRotatingFile(opts.File, opts.MaxAge)
	if err != nil {
		// nothing to log through yet
		fmt.Fprintf(os.Stderr, "log file %s disabled: %v\n", opts.File, err)
		return out, nil
	}
	return zerolog.MultiLevelWriter(out, rotated), rotated
}

// Close releases the rotating file sink, if any.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// ParseLevel falls back to info for blank or unknown values.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) from(ctx context.Context) zerolog.Logger {
	if ctx != nil {
		if scoped, ok := ctx.Value(fieldsKey{}).(zerolog.Logger); ok {
			return scoped
		}
	}
	return l.root
}

func (l *Logger) extend(ctx context.Context, add func(zerolog.Context) zerolog.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	scoped := add(l.from(ctx).With()).Logger()
	return context.WithValue(ctx, fieldsKey{}, scoped)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.extend(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Interface(key, value)
	})
}

func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	return l.extend(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Fields(fields)
	})
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

func (l *Logger) WithUserID(ctx context.Context, userID int64) context.Context {
	return l.withID(ctx, "user_id", userID)
}

func (l *Logger) WithWorkspaceID(ctx context.Context, workspaceID int64) context.Context {
	return l.withID(ctx, "workspace_id", workspaceID)
}

func (l *Logger) WithTargetID(ctx context.Context, targetID int64) context.Context {
	return l.withID(ctx, "target_id", targetID)
}

func (l *Logger) WithActorRole(ctx context.Context, role string) context.Context {
	return l.WithField(ctx, "actor_role", role)
}

func (l *Logger) withID(ctx context.Context, key string, id int64) context.Context {
	return l.extend(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Int64(key, id)
	})
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	scoped := l.from(ctx)
	scoped.Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	scoped := l.from(ctx)
	scoped.Info().Msg(msg)
}

// Warn attaches a stack only when WarnStack is on.
func (l *Logger) Warn(ctx context.Context, msg string) {
	scoped := l.from(ctx)
	event := scoped.Warn()
	if l.warnStack {
		event = event.Str("stack", stackTrace())
	}
	event.Msg(msg)
}

// Error always attaches a stack; err may be nil.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	scoped := l.from(ctx)
	event := scoped.Error().Str("stack", stackTrace())
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}
