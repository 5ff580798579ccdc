package intel

import "context"

// Service endpoint paths.
const (
	eventPath       = "/clientapi/editor/event"
	completionsPath = "/clientapi/editor/completions"
	signaturesPath  = "/clientapi/editor/signatures"
	statusPath      = "/clientapi/status"
)

// Editor event actions.
const (
	actionEdit      = "edit"
	actionSelection = "selection"
	actionSkip      = "skip"
)

// eventPayload is the body posted to the editor event endpoint.
type eventPayload struct {
	Source     string           `json:"source"`
	Filename   string           `json:"filename"`
	Text       string           `json:"text"`
	Action     string           `json:"action"`
	Selections []selectionRange `json:"selections"`
}

type selectionRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// bufferPayload is the body posted to the completions and signatures
// endpoints: the whole document plus the caret position in runes.
type bufferPayload struct {
	Filename    string `json:"filename"`
	Editor      string `json:"editor"`
	Text        string `json:"text"`
	CursorRunes int    `json:"cursor_runes"`
}

// bufferState snapshots the view for a completions/signatures request.
// Snapshotting happens on the UI thread, before the fetch is deferred, so
// the payload reflects the document as it was when the event fired.
func bufferState(v View, editor string, location int) bufferPayload {
	return bufferPayload{
		Filename:    realPath(v.Path()),
		Editor:      editor,
		Text:        v.Text(),
		CursorRunes: location,
	}
}

// Recorder forwards a best-effort record of every edit and selection event
// to the service. Records are fire-and-forget: they never block the UI
// thread, are never retried, and failures are logged at debug only.
//
// Unsupported and oversized documents still produce a record, marked with
// action "skip" and empty text, so the service sees the full event stream
// without ever receiving content it should not analyze.
type Recorder struct {
	client    Transport
	queue     Deferrer
	editor    string
	sizeLimit int
	log       Logger
}

// NewRecorder creates an event recorder.
func NewRecorder(client Transport, queue Deferrer, opts Options) *Recorder {
	opts.normalize()
	return &Recorder{
		client:    client,
		queue:     queue,
		editor:    opts.Editor,
		sizeLimit: opts.SizeLimit,
		log:       opts.Logger,
	}
}

// OnEdit records an edit event.
func (r *Recorder) OnEdit(v View) {
	r.record(v, actionEdit)
}

// OnSelection records a selection event.
func (r *Recorder) OnSelection(v View) {
	r.record(v, actionSelection)
}

func (r *Recorder) record(v View, action string) {
	payload := r.eventData(v, action)
	r.queue.Defer("editor-event", func(ctx context.Context) {
		if _, err := r.client.Post(ctx, eventPath, payload); err != nil {
			r.log.Debug("could not record %s event: %v", action, err)
		}
	})
}

func (r *Recorder) eventData(v View, action string) eventPayload {
	text := v.Text()
	if !Supported(v) || v.Size() > r.sizeLimit {
		action = actionSkip
		text = ""
	}

	sels := v.Selections()
	ranges := make([]selectionRange, len(sels))
	for i, s := range sels {
		ranges[i] = selectionRange{Start: s.Begin, End: s.End}
	}

	return eventPayload{
		Source:     r.editor,
		Filename:   realPath(v.Path()),
		Text:       text,
		Action:     action,
		Selections: ranges,
	}
}
