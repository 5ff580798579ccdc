package intel

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// syncQueue runs deferred tasks immediately on the calling goroutine,
// making async flows deterministic in tests.
type syncQueue struct{}

func (syncQueue) Defer(name string, fn func(ctx context.Context)) bool {
	fn(context.Background())
	return true
}

// dropQueue drops everything; used to assert nothing gets queued.
type dropQueue struct {
	mu    sync.Mutex
	names []string
}

func (q *dropQueue) Defer(name string, fn func(ctx context.Context)) bool {
	q.mu.Lock()
	q.names = append(q.names, name)
	q.mu.Unlock()
	return false
}

func (q *dropQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.names)
}

// recordedPost captures one Post call.
type recordedPost struct {
	path    string
	payload any
}

// fakeTransport scripts service responses and records requests.
type fakeTransport struct {
	mu    sync.Mutex
	posts []recordedPost
	gets  []string

	postFn func(path string, payload any) (Result, error)
	getFn  func(path string) (Result, error)
}

func (t *fakeTransport) Post(_ context.Context, path string, payload any) (Result, error) {
	t.mu.Lock()
	t.posts = append(t.posts, recordedPost{path: path, payload: payload})
	fn := t.postFn
	t.mu.Unlock()

	if fn != nil {
		return fn(path, payload)
	}
	return Result{Status: 200, Body: []byte(`{}`)}, nil
}

func (t *fakeTransport) Get(_ context.Context, path string) (Result, error) {
	t.mu.Lock()
	t.gets = append(t.gets, path)
	fn := t.getFn
	t.mu.Unlock()

	if fn != nil {
		return fn(path)
	}
	return Result{Status: 200, Body: []byte(`{}`)}, nil
}

func (t *fakeTransport) postCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.posts)
}

func (t *fakeTransport) postsTo(path string) []recordedPost {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []recordedPost
	for _, p := range t.posts {
		if p.path == path {
			out = append(out, p)
		}
	}
	return out
}

// shownPopup captures one ShowPopup call.
type shownPopup struct {
	html string
	opts PopupOptions
}

// fakeView is a scripted editor view.
type fakeView struct {
	mu          sync.Mutex
	path        string
	text        string
	selections  []Region
	callContext bool

	popups     []shownPopup
	hidden     int
	triggered  []CompletionTrigger
	dismissed  int
	statusbar  map[string]string
	erasedKeys []string
}

func newFakeView(path, text string, sel Region) *fakeView {
	return &fakeView{
		path:       path,
		text:       text,
		selections: []Region{sel},
		statusbar:  make(map[string]string),
	}
}

func (v *fakeView) Path() string { return v.path }
func (v *fakeView) Size() int    { return len(v.text) }
func (v *fakeView) Text() string { return v.text }

func (v *fakeView) Selections() []Region {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selections
}

func (v *fakeView) MatchesCallContext(int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.callContext
}

func (v *fakeView) ShowPopup(html string, opts PopupOptions) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.popups = append(v.popups, shownPopup{html: html, opts: opts})
}

func (v *fakeView) HidePopup() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hidden++
}

func (v *fakeView) TriggerCompletion(trigger CompletionTrigger) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.triggered = append(v.triggered, trigger)
}

func (v *fakeView) DismissCompletion() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.dismissed++
}

func (v *fakeView) SetStatus(key, value string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statusbar[key] = value
}

func (v *fakeView) EraseStatus(key string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.statusbar, key)
	v.erasedKeys = append(v.erasedKeys, key)
}

func (v *fakeView) popupCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.popups)
}

func (v *fakeView) lastPopup() (shownPopup, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.popups) == 0 {
		return shownPopup{}, false
	}
	return v.popups[len(v.popups)-1], true
}

func (v *fakeView) status(key string) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.statusbar[key]
	return s, ok
}

// captureLogger records formatted log lines.
type captureLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *captureLogger) record(level, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+" "+fmt.Sprintf(msg, args...))
}

func (l *captureLogger) Debug(msg string, args ...any) { l.record("DEBUG", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("INFO", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("WARN", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("ERROR", msg, args...) }

func (l *captureLogger) contains(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

// recordingOpener captures navigation dispatches.
type recordingOpener struct {
	mu          sync.Mutex
	browser     []string
	companion   []string
	definitions []string
}

func (o *recordingOpener) OpenBrowser(ident string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.browser = append(o.browser, ident)
	return nil
}

func (o *recordingOpener) OpenCompanion(ident string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.companion = append(o.companion, ident)
	return nil
}

func (o *recordingOpener) OpenDefinition(path string, line int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.definitions = append(o.definitions, fmt.Sprintf("%s:%d", path, line))
	return nil
}
