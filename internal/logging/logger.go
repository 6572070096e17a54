package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds the JSON logger. Development environments also log DEBUG.
func New(w io.Writer, env string) *slog.Logger {
	level := slog.LevelInfo
	if strings.EqualFold(env, "development") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// Setup installs the stdout logger as the slog default.
func Setup(env string) *slog.Logger {
	logger := New(os.Stdout, env)
	slog.SetDefault(logger)
	return logger
}

// Attach adds extra handlers, such as the PostgreSQL sink, next to the
// existing default handler.
func Attach(handlers ...slog.Handler) {
	all := append([]slog.Handler{slog.Default().Handler()}, handlers...)
	slog.SetDefault(slog.New(NewMultiHandler(all...)))
}
