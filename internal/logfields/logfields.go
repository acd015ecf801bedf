package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyPostID     = "post_id"
	KeyCategory   = "category"
	KeyTemplate   = "template"
	KeyPages      = "pages"
	KeyItems      = "items"
	KeyStatus     = "status"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func PostID(id string) slog.Attr      { return slog.String(KeyPostID, id) }
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func Template(name string) slog.Attr  { return slog.String(KeyTemplate, name) }
func Pages(n int) slog.Attr           { return slog.Int(KeyPages, n) }
func Items(n int) slog.Attr           { return slog.Int(KeyItems, n) }
func Status(s string) slog.Attr       { return slog.String(KeyStatus, s) }
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
