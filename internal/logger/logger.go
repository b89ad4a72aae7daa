package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/workcity/chat-admin/middleware"
)

var Log = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures the process logger from LOG_LEVEL and LOG_FORMAT.
func Init() {
	InitWithWriter(os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
}

// InitWithWriter configures the process logger. format is "json" or "console".
func InitWithWriter(w io.Writer, level, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var l zerolog.Logger
	if format == "json" {
		l = zerolog.New(w)
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	}
	l = l.With().Timestamp().Str("service", "chat-admin").Logger().Level(lvl)

	Log = l
	zlog.Logger = l
}

// Ctx returns the process logger tagged with the request id carried by ctx.
func Ctx(ctx context.Context) *zerolog.Logger {
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		l := Log.With().Str("request_id", reqID).Logger()
		return &l
	}
	return &Log
}
