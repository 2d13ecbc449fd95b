package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
)

const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

type Logger struct {
	format string
	min    int
	base   *log.Logger
}

// NewWithWriter returns a logger writing entries at or above level to w.
func NewWithWriter(format, level string, w io.Writer) *Logger {
	if format == "" {
		format = "json"
	}
	if w == nil {
		w = io.Discard
	}
	return &Logger{
		format: format,
		min:    parseLevel(level),
		base:   log.New(w, "", 0),
	}
}

// Discard returns a logger that drops every entry.
func Discard() *Logger {
	return NewWithWriter("text", "error", io.Discard)
}

func (l *Logger) Debug(msg string, fields ...Field) {
	l.write(levelDebug, "debug", msg, fields...)
}

func (l *Logger) Info(msg string, fields ...Field) {
	l.write(levelInfo, "info", msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...Field) {
	l.write(levelWarn, "warn", msg, fields...)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.write(levelError, "error", msg, fields...)
}

func (l *Logger) write(rank int, level, msg string, fields ...Field) {
	if l == nil || rank < l.min {
		return
	}
	if l.format == "text" {
		l.base.Printf("%s level=%s msg=%q %s", time.Now().Format(time.RFC3339), level, msg, formatFields(fields))
		return
	}

	payload := map[string]interface{}{
		"ts":    time.Now().Format(time.RFC3339),
		"level": level,
		"msg":   msg,
	}
	for _, f := range fields {
		payload[f.Key] = f.Value
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		l.base.Printf("%s level=error msg=%s err=%v", time.Now().Format(time.RFC3339), "failed to marshal log entry", err)
		return
	}
	l.base.Println(string(encoded))
}

type Field struct {
	Key   string
	Value interface{}
}

func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

func parseLevel(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func formatFields(fields []Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", f.Key, f.Value)
	}
	return b.String()
}
