package intel

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// MaxFileSize is the size ceiling in bytes. Documents over this limit get
// no completion, signature, or hover work; the event record is still sent
// with action "skip" and empty text, and status reports the file as too
// large.
const MaxFileSize = 1 << 20

// sourceExtension is the canonical extension of supported documents.
const sourceExtension = ".py"

// Region is a single selection span in a view, in rune offsets.
type Region struct {
	Begin int
	End   int
}

// PopupOptions control how a popup is shown by the host editor.
type PopupOptions struct {
	// CooperateWithCompletion keeps the popup open alongside the native
	// completion list.
	CooperateWithCompletion bool

	// HideOnMouseMove dismisses the popup when the pointer leaves it.
	HideOnMouseMove bool

	// MaxWidth bounds the popup width in pixels.
	MaxWidth int

	// Location anchors the popup at a rune offset; -1 anchors at the caret.
	Location int

	// OnNavigate receives link-click targets of the form "action:payload".
	OnNavigate func(target string)
}

// CompletionTrigger controls how the native completion list is re-queried.
type CompletionTrigger struct {
	// APIOnly restricts the list to items supplied through Consume.
	APIOnly bool

	// DisableAutoInsert prevents the editor from inserting the sole match.
	DisableAutoInsert bool
}

// View is the editor-side collaborator: one open document plus the UI
// surfaces attached to it. Implementations are supplied by the host editor
// and must be safe to call from background tasks.
type View interface {
	// Path returns the document's file path, or "" for unsaved buffers.
	Path() string

	// Size returns the document length in bytes.
	Size() int

	// Text returns the full document text.
	Text() string

	// Selections returns all active selection regions.
	Selections() []Region

	// MatchesCallContext reports whether the given rune offset sits inside
	// a function-call context (and not on the called name itself).
	MatchesCallContext(point int) bool

	// ShowPopup renders HTML content in a popup.
	ShowPopup(html string, opts PopupOptions)

	// HidePopup dismisses any open popup.
	HidePopup()

	// TriggerCompletion asks the native completion list to re-query.
	TriggerCompletion(trigger CompletionTrigger)

	// DismissCompletion closes any open completion list.
	DismissCompletion()

	// SetStatus sets a keyed status bar entry.
	SetStatus(key, value string)

	// EraseStatus removes a keyed status bar entry.
	EraseStatus(key string)
}

// ViewRegion is a snapshot of a single-caret selection at one instant.
// It has no identity beyond equality of its fields.
type ViewRegion struct {
	File  string
	Begin int
	End   int
}

// Supported reports whether the view holds a document this integration
// works on: a concrete file path with the canonical source extension.
func Supported(v View) bool {
	p := v.Path()
	return p != "" && strings.HasSuffix(p, sourceExtension)
}

// SingleRegion snapshots the view's selection as a ViewRegion, or nil when
// zero or multiple selections are active.
func SingleRegion(v View) *ViewRegion {
	sels := v.Selections()
	if len(sels) != 1 {
		return nil
	}
	return &ViewRegion{File: v.Path(), Begin: sels[0].Begin, End: sels[0].End}
}

// Fingerprint returns the stable content hash used for request identity:
// repeated hovers over unchanged content produce the same request URL.
func Fingerprint(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// realPath resolves symlinks best-effort; on failure the path is used as-is.
func realPath(path string) string {
	if path == "" {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return path
}

// Deferrer schedules a unit of work off the UI thread. No ordering is
// guaranteed between deferred tasks: a later-queued request's response may
// arrive before an earlier one's. Defer reports whether the task was
// accepted.
type Deferrer interface {
	Defer(name string, fn func(ctx context.Context)) bool
}

// Logger is the minimal logging surface the package needs. The app package
// provides the concrete implementation.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// nopLogger discards everything; used when no logger is configured.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Options carries the knobs shared by the orchestrators.
type Options struct {
	// Editor identifies the host editor in request payloads.
	Editor string

	// SizeLimit overrides MaxFileSize; zero means the default.
	SizeLimit int

	// Logger receives diagnostics; nil discards them.
	Logger Logger
}

func (o *Options) normalize() {
	if o.Editor == "" {
		o.Editor = "codelens"
	}
	if o.SizeLimit <= 0 {
		o.SizeLimit = MaxFileSize
	}
	if o.Logger == nil {
		o.Logger = nopLogger{}
	}
}
