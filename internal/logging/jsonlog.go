package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type entry struct {
	Level   string         `json:"level"`
	Time    string         `json:"time"`
	Message string         `json:"message"`
	Fields  map[string]any `json:"fields,omitempty"`
}

var minLevel = rankFromEnv()

func rank(level string) int {
	switch level {
	case "debug":
		return 0
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	}
	return 1
}

// rankFromEnv reads HIDEHATE_LOG_LEVEL so the interactive commands can stay
// quiet (default "warn") while the poll loop runs with "info".
func rankFromEnv() int {
	if v := os.Getenv("HIDEHATE_LOG_LEVEL"); v != "" {
		return rank(v)
	}
	return rank("warn")
}

func Log(level, msg string, fields map[string]any) {
	if rank(level) < minLevel {
		return
	}
	e := entry{Level: level, Time: time.Now().UTC().Format(time.RFC3339Nano), Message: msg, Fields: fields}
	b, _ := json.Marshal(e)
	fmt.Fprintln(os.Stderr, string(b))
}

func Debug(msg string, fields map[string]any) { Log("debug", msg, fields) }
func Info(msg string, fields map[string]any)  { Log("info", msg, fields) }
func Warn(msg string, fields map[string]any)  { Log("warn", msg, fields) }
func Error(msg string, fields map[string]any) { Log("error", msg, fields) }
