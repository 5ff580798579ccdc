package app

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/dshills/codelens/internal/intel"
)

// The stream protocol carries editor events in and UI commands out as
// newline-delimited JSON. It lets any editor without a native Go embedding
// drive the bridge over a pipe.

// streamEvent is one incoming editor event.
type streamEvent struct {
	// Event is one of: edit, selection, activated, hover, consume,
	// toggle_popular_patterns, toggle_keyword_arguments.
	Event string `json:"event"`

	File       string        `json:"file"`
	Text       string        `json:"text"`
	Selections []streamRange `json:"selections"`

	// Point is the hover position in runes.
	Point int `json:"point"`

	// InCallContext reports whether the caret sits inside a function-call
	// scope; the editor computes this from its syntax engine.
	InCallContext bool `json:"in_call_context"`

	// Locations carries the caret positions for a consume event.
	Locations []int `json:"locations"`
}

type streamRange struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
}

// streamCommand is one outgoing UI command.
type streamCommand struct {
	Op   string `json:"op"`
	File string `json:"file,omitempty"`

	HTML     string `json:"html,omitempty"`
	MaxWidth int    `json:"max_width,omitempty"`
	Location int    `json:"location,omitempty"`

	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`

	Completions []streamCompletion `json:"completions,omitempty"`
}

type streamCompletion struct {
	Label  string `json:"label"`
	Insert string `json:"insert"`
}

// streamSink serializes outgoing commands onto one writer.
type streamSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func (s *streamSink) send(cmd streamCommand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(cmd)
}

// streamOpener forwards popup navigation actions to the editor as
// commands. Until a stream is attached, actions are dropped.
type streamOpener struct {
	mu   sync.Mutex
	sink *streamSink
}

func (o *streamOpener) setSink(sink *streamSink) {
	o.mu.Lock()
	o.sink = sink
	o.mu.Unlock()
}

func (o *streamOpener) send(cmd streamCommand) error {
	o.mu.Lock()
	sink := o.sink
	o.mu.Unlock()
	if sink != nil {
		sink.send(cmd)
	}
	return nil
}

// OpenBrowser implements intel.LinkOpener.
func (o *streamOpener) OpenBrowser(ident string) error {
	return o.send(streamCommand{Op: "open_browser", Value: ident})
}

// OpenCompanion implements intel.LinkOpener.
func (o *streamOpener) OpenCompanion(ident string) error {
	return o.send(streamCommand{Op: "open_companion", Value: ident})
}

// OpenDefinition implements intel.LinkOpener.
func (o *streamOpener) OpenDefinition(path string, line int) error {
	return o.send(streamCommand{Op: "open_definition", File: path, Location: line})
}

// streamView adapts one incoming event's document snapshot to intel.View.
// UI verbs become outgoing commands.
type streamView struct {
	sink          *streamSink
	file          string
	text          string
	selections    []intel.Region
	inCallContext bool
}

func newStreamView(sink *streamSink, ev streamEvent) *streamView {
	sels := make([]intel.Region, len(ev.Selections))
	for i, r := range ev.Selections {
		sels[i] = intel.Region{Begin: r.Begin, End: r.End}
	}
	return &streamView{
		sink:          sink,
		file:          ev.File,
		text:          ev.Text,
		selections:    sels,
		inCallContext: ev.InCallContext,
	}
}

func (v *streamView) Path() string                { return v.file }
func (v *streamView) Size() int                   { return len(v.text) }
func (v *streamView) Text() string                { return v.text }
func (v *streamView) Selections() []intel.Region  { return v.selections }
func (v *streamView) MatchesCallContext(int) bool { return v.inCallContext }

func (v *streamView) ShowPopup(html string, opts intel.PopupOptions) {
	v.sink.send(streamCommand{
		Op:       "show_popup",
		File:     v.file,
		HTML:     html,
		MaxWidth: opts.MaxWidth,
		Location: opts.Location,
	})
}

func (v *streamView) HidePopup() {
	v.sink.send(streamCommand{Op: "hide_popup", File: v.file})
}

func (v *streamView) TriggerCompletion(intel.CompletionTrigger) {
	v.sink.send(streamCommand{Op: "trigger_completion", File: v.file})
}

func (v *streamView) DismissCompletion() {
	v.sink.send(streamCommand{Op: "dismiss_completion", File: v.file})
}

func (v *streamView) SetStatus(key, value string) {
	v.sink.send(streamCommand{Op: "set_status", File: v.file, Key: key, Value: value})
}

func (v *streamView) EraseStatus(key string) {
	v.sink.send(streamCommand{Op: "erase_status", File: v.file, Key: key})
}

// RunStream reads editor events from r until EOF or context cancellation,
// emitting UI commands to w. Malformed lines are logged and skipped.
func (a *App) RunStream(ctx context.Context, r io.Reader, w io.Writer) error {
	sink := &streamSink{enc: json.NewEncoder(w)}
	if a.opener != nil {
		a.opener.setSink(sink)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16<<20)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var ev streamEvent
		if err := json.Unmarshal(line, &ev); err != nil {
			a.log.Warn("malformed event line: %v", err)
			continue
		}

		a.handleStreamEvent(sink, ev)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("event stream: %w", err)
	}
	return nil
}

func (a *App) handleStreamEvent(sink *streamSink, ev streamEvent) {
	view := newStreamView(sink, ev)

	switch ev.Event {
	case "edit":
		a.dispatcher.OnEdit(view)
	case "selection":
		a.dispatcher.OnSelection(view)
	case "activated":
		a.dispatcher.OnActivated(view)
	case "hover":
		a.dispatcher.OnHover(view, ev.Point)
	case "consume":
		items := a.completions.Consume(view, ev.Locations)
		out := make([]streamCompletion, len(items))
		for i, c := range items {
			out[i] = streamCompletion{Label: c.Label, Insert: c.Insert}
		}
		sink.send(streamCommand{Op: "completions", File: ev.File, Completions: out})
	case "toggle_popular_patterns":
		a.TogglePopularPatterns()
	case "toggle_keyword_arguments":
		a.ToggleKeywordArguments()
	default:
		a.log.Debug("unknown event %q ignored", ev.Event)
	}
}
