package intel

import "sync"

// Capability interfaces implemented by event observers. Each component
// implements only the capabilities it needs; the Dispatcher composes them
// rather than requiring a common base.

// EditObserver is notified after the document is modified.
type EditObserver interface {
	OnEdit(v View)
}

// SelectionObserver is notified after the selection changes.
type SelectionObserver interface {
	OnSelection(v View)
}

// HoverObserver is notified when the pointer hovers a position.
type HoverObserver interface {
	OnHover(v View, point int)
}

// ActivationObserver is notified when a view gains focus.
type ActivationObserver interface {
	OnActivated(v View)
}

// Dispatcher is the top-level router between the editor's event callbacks
// and the registered observers. It performs no I/O itself; observers queue
// at most one background action per branch. Observers run synchronously on
// the calling (UI) thread, in registration order, so they must not block.
type Dispatcher struct {
	log Logger

	edits       []EditObserver
	selections  []SelectionObserver
	hovers      []HoverObserver
	activations []ActivationObserver
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(log Logger) *Dispatcher {
	if log == nil {
		log = nopLogger{}
	}
	return &Dispatcher{log: log}
}

// Register adds obs to every capability list it satisfies.
func (d *Dispatcher) Register(obs any) {
	registered := false
	if o, ok := obs.(EditObserver); ok {
		d.edits = append(d.edits, o)
		registered = true
	}
	if o, ok := obs.(SelectionObserver); ok {
		d.selections = append(d.selections, o)
		registered = true
	}
	if o, ok := obs.(HoverObserver); ok {
		d.hovers = append(d.hovers, o)
		registered = true
	}
	if o, ok := obs.(ActivationObserver); ok {
		d.activations = append(d.activations, o)
		registered = true
	}
	if !registered {
		d.log.Warn("observer %T implements no event capability", obs)
	}
}

// OnEdit routes an edit event.
func (d *Dispatcher) OnEdit(v View) {
	for _, o := range d.edits {
		o.OnEdit(v)
	}
}

// OnSelection routes a selection event.
func (d *Dispatcher) OnSelection(v View) {
	for _, o := range d.selections {
		o.OnSelection(v)
	}
}

// OnHover routes a hover event at the given rune offset.
func (d *Dispatcher) OnHover(v View, point int) {
	for _, o := range d.hovers {
		o.OnHover(v, point)
	}
}

// OnActivated routes a view activation event.
func (d *Dispatcher) OnActivated(v View) {
	for _, o := range d.activations {
		o.OnActivated(v)
	}
}

// Watcher classifies edit and selection events and drives the completions
// and signatures orchestrators. It remembers only the last observed
// selection region, used once per edit to classify the next change.
type Watcher struct {
	completions *Completions
	signatures  *Signatures
	sizeLimit   int
	log         Logger

	mu            sync.Mutex
	lastSelection *ViewRegion
}

// NewWatcher creates a watcher over the given orchestrators.
func NewWatcher(completions *Completions, signatures *Signatures, opts Options) *Watcher {
	opts.normalize()
	return &Watcher{
		completions: completions,
		signatures:  signatures,
		sizeLimit:   opts.SizeLimit,
		log:         opts.Logger,
	}
}

// OnSelection remembers the selection region for the next edit comparison
// and drives signature visibility: inside a call context an already-active
// popup is refreshed at the caret, otherwise signatures are hidden.
func (w *Watcher) OnSelection(v View) {
	if !Supported(v) {
		return
	}

	region := SingleRegion(v)
	w.mu.Lock()
	w.lastSelection = region
	w.mu.Unlock()

	if region != nil && v.MatchesCallContext(region.End) {
		if w.signatures.Activated() {
			w.signatures.Queue(v, region.End)
		}
	} else {
		w.signatures.Hide(v)
	}
}

// OnEdit classifies the edit against the last remembered selection. A
// single-character insertion triggers a completions fetch at the new caret;
// a multi-character deletion hides any shown completions. Independently,
// the call-context check is repeated at the edit's end position to drive
// signature visibility. Oversized documents get no work at all.
func (w *Watcher) OnEdit(v View) {
	if !Supported(v) || v.Size() > w.sizeLimit {
		return
	}

	region := SingleRegion(v)
	w.mu.Lock()
	last := w.lastSelection
	w.mu.Unlock()

	edit := Classify(last, region)
	switch {
	case edit.Kind == EditInsertion && edit.Count == 1:
		w.completions.Queue(v, region.End)
	case edit.Kind == EditDeletion && edit.Count > 1:
		w.completions.Hide(v)
	}

	if region != nil && v.MatchesCallContext(region.End) {
		w.signatures.Queue(v, region.End)
	} else {
		w.signatures.Hide(v)
	}
}
