package intel

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// SettingsSource exposes the display settings and keymap hints the
// signature popup renders with. The config package provides the concrete
// implementation.
type SettingsSource interface {
	ShowPopularPatterns() bool
	ShowKeywordArguments() bool
	SetShowPopularPatterns(v bool)
	SetShowKeywordArguments(v bool)

	// KeymapHint returns the keybinding hint for a toggle command, or "".
	KeymapHint(command string) string
}

// Parameter is one parameter of the called function.
type Parameter struct {
	Name        string
	KeywordOnly bool
}

// Function is the called function as displayed in the popup. A type callee
// is normalized to its constructor function before this is built, so Name
// and the parameter groups always describe a callable.
type Function struct {
	Name        string
	Positional  []Parameter
	KeywordOnly []Parameter

	// Patterns are popular call patterns, one rendered argument list each.
	Patterns []string
}

// Call is the active function call shown in the signature popup.
type Call struct {
	Callee    Function
	Arguments []string
	ArgIndex  int
	InKwargs  bool
}

// Signatures orchestrates function-signature popups. It tracks one active
// call; activated is true iff a call is stored. State transitions happen
// only while the lock is held, and the render, hide, and rerender paths
// acquire it non-blocking: under contention the response is dropped rather
// than queued, because a newer request is very likely already in flight.
// Whatever response most recently acquired the lock wins.
type Signatures struct {
	client   Transport
	queue    Deferrer
	editor   string
	log      Logger
	settings SettingsSource
	opener   LinkOpener
	renderer *SignatureRenderer

	active atomic.Bool

	mu        sync.Mutex
	activated bool
	view      View
	call      *Call
}

// NewSignatures creates a signatures orchestrator.
func NewSignatures(client Transport, queue Deferrer, settings SettingsSource, opener LinkOpener, opts Options) *Signatures {
	opts.normalize()
	if opener == nil {
		opener = NopOpener{}
	}
	return &Signatures{
		client:   client,
		queue:    queue,
		editor:   opts.Editor,
		log:      opts.Logger,
		settings: settings,
		opener:   opener,
		renderer: NewSignatureRenderer(),
	}
}

// Queue schedules an asynchronous signature fetch at the given caret
// location.
func (s *Signatures) Queue(v View, location int) {
	payload := bufferState(v, s.editor, location)
	s.queue.Defer("signatures-fetch", func(ctx context.Context) {
		s.fetch(ctx, v, payload)
	})
}

// Activated reports whether a call is currently shown.
func (s *Signatures) Activated() bool {
	return s.active.Load()
}

// Hide resets to inactive and closes the popup. The lock is acquired
// opportunistically: if a concurrent transition owns the state, Hide is a
// no-op and the concurrent operation leaves the state consistent.
func (s *Signatures) Hide(v View) {
	reset := false
	if s.mu.TryLock() {
		s.setActivated(false)
		s.view = nil
		s.call = nil
		reset = true
		s.mu.Unlock()
	}

	if reset {
		v.HidePopup()
	}
}

// Rerender re-renders the currently active call, if any, without issuing a
// new fetch. Used when a display setting is toggled. Same opportunistic
// lock discipline as Hide.
func (s *Signatures) Rerender() {
	var content string
	var view View

	if s.mu.TryLock() {
		if s.activated && s.call != nil {
			var err error
			content, err = s.render(s.call)
			if err != nil {
				s.log.Error("signature render failed: %v", err)
				content = ""
			}
			view = s.view
		}
		s.mu.Unlock()
	}

	if content != "" && view != nil {
		s.show(view, content)
	}
}

// HandleLink processes a popup navigation target. Recognized toggle actions
// flip a display setting and re-render; open actions dispatch to the
// LinkOpener. Malformed targets are logged and ignored.
func (s *Signatures) HandleLink(target string) {
	switch target {
	case linkShowPopularPatterns:
		s.settings.SetShowPopularPatterns(true)
		s.Rerender()
		return
	case linkHidePopularPatterns:
		s.settings.SetShowPopularPatterns(false)
		s.Rerender()
		return
	case linkShowKeywordArguments:
		s.settings.SetShowKeywordArguments(true)
		s.Rerender()
		return
	case linkHideKeywordArguments:
		s.settings.SetShowKeywordArguments(false)
		s.Rerender()
		return
	}

	if strings.HasPrefix(target, linkOpenBrowser) || strings.HasPrefix(target, linkOpenCompanion) {
		action, ident, ok := splitTarget(target)
		if !ok {
			s.log.Warn("invalid open link format: %s", target)
			return
		}
		if action == linkOpenBrowser {
			if err := s.opener.OpenBrowser(ident); err != nil {
				s.log.Warn("open browser failed: %v", err)
			}
			return
		}
		if err := s.opener.OpenCompanion(ident); err != nil {
			s.log.Warn("open companion failed: %v", err)
		}
	}
}

// fetch runs on the background queue. A 400 or 404 forces the popup
// hidden; any other non-success or empty body leaves state unchanged.
func (s *Signatures) fetch(ctx context.Context, v View, payload bufferPayload) {
	res, err := s.client.Post(ctx, signaturesPath, payload)
	if err != nil {
		s.log.Debug("signatures request failed: %v", err)
		return
	}
	if res.Status != 200 || len(res.Body) == 0 {
		if res.Status == 400 || res.Status == 404 {
			s.Hide(v)
		}
		return
	}
	if !gjson.ValidBytes(res.Body) {
		s.log.Warn("error decoding json: invalid signatures body")
		return
	}

	calls := gjson.GetBytes(res.Body, "calls").Array()
	if len(calls) == 0 {
		return
	}

	call, err := parseCall([]byte(calls[0].Raw))
	if err != nil {
		s.log.Warn("error decoding call: %v", err)
		return
	}

	if call.InKwargs {
		s.log.Debug("call: kwarg index = %d", call.ArgIndex)
	} else {
		s.log.Debug("call: arg index = %d", call.ArgIndex)
	}

	var content string
	if s.mu.TryLock() {
		s.setActivated(true)
		s.view = v
		s.call = call
		content, err = s.render(call)
		s.mu.Unlock()
		if err != nil {
			s.log.Error("signature render failed: %v", err)
			return
		}
	}

	if content != "" {
		s.show(v, content)
	}
}

// render builds the popup HTML for a call. Caller holds the lock.
func (s *Signatures) render(call *Call) (string, error) {
	return s.renderer.Render(call, SignatureRenderContext{
		ShowPopularPatterns:  s.settings.ShowPopularPatterns(),
		ShowKeywordArguments: s.settings.ShowKeywordArguments(),
		KwargHighlighted:     s.activated && call.InKwargs && call.ArgIndex != -1,
		PopularPatternsKeys:  s.settings.KeymapHint("toggle_popular_patterns"),
		KeywordArgumentsKeys: s.settings.KeymapHint("toggle_keyword_arguments"),
	})
}

func (s *Signatures) show(v View, content string) {
	v.ShowPopup(content, PopupOptions{
		CooperateWithCompletion: true,
		MaxWidth:                400,
		Location:                -1,
		OnNavigate:              s.HandleLink,
	})
}

// setActivated updates both the locked field and the lock-free mirror.
// Caller holds the lock.
func (s *Signatures) setActivated(v bool) {
	s.activated = v
	s.active.Store(v)
}

// parseCall builds a Call from the raw JSON of the first call in a
// signature response. A constructor-style callee (kind "type") is
// normalized first: the type's constructor function is grafted into the
// function slot so the popup always displays a callable.
func parseCall(raw []byte) (*Call, error) {
	if gjson.GetBytes(raw, "callee.kind").String() == "type" {
		ctor := gjson.GetBytes(raw, "callee.details.type.language_details.python.constructor")
		if ctor.Exists() {
			grafted, err := sjson.SetRawBytes(raw, "callee.details.function", []byte(ctor.Raw))
			if err != nil {
				return nil, err
			}
			raw = grafted
		}
	}

	fn := gjson.GetBytes(raw, "callee.details.function")
	call := &Call{
		Callee: Function{
			Name: gjson.GetBytes(raw, "callee.repr").String(),
		},
		ArgIndex: int(gjson.GetBytes(raw, "arg_index").Int()),
		InKwargs: gjson.GetBytes(raw, "language_details.python.in_kwargs").Bool(),
	}
	if call.Callee.Name == "" {
		call.Callee.Name = fn.Get("name").String()
	}

	// Separate out the keyword-only parameters, order preserved.
	for _, p := range fn.Get("parameters").Array() {
		param := Parameter{
			Name:        p.Get("name").String(),
			KeywordOnly: p.Get("language_details.python.keyword_only").Bool(),
		}
		if param.KeywordOnly {
			call.Callee.KeywordOnly = append(call.Callee.KeywordOnly, param)
		} else {
			call.Callee.Positional = append(call.Callee.Positional, param)
		}
	}

	for _, sig := range fn.Get("signatures").Array() {
		var parts []string
		for _, a := range sig.Get("args").Array() {
			parts = append(parts, a.Get("name").String())
		}
		for _, k := range sig.Get("language_details.python.kwargs").Array() {
			parts = append(parts, k.Get("name").String()+"=..")
		}
		call.Callee.Patterns = append(call.Callee.Patterns, strings.Join(parts, ", "))
	}

	for _, a := range gjson.GetBytes(raw, "args").Array() {
		call.Arguments = append(call.Arguments, a.Get("name").String())
	}

	return call, nil
}
