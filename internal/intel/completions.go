package intel

import (
	"context"
	"sync"

	"github.com/tidwall/gjson"
)

// Completion is one presentation pair handed to the native completion list.
type Completion struct {
	// Label is the display text, annotated with a hint suffix.
	Label string

	// Insert is the text inserted on acceptance.
	Insert string
}

// completionItem is one item as parsed from a service response.
type completionItem struct {
	display string
	hint    string
	insert  string
}

// completionCache stamps received items with the caret location the request
// targeted. Items are surfaced only if the consuming caret location still
// equals this location at the moment of consumption.
type completionCache struct {
	location int
	items    []completionItem
}

// Completions orchestrates the completion request cycle: a deferred fetch
// stamped with its target location, a one-shot cache, and a consume path
// that discards results keyed to a stale cursor position.
//
// The state machine has two states: idle (no cache) and armed (cache
// populated for a specific location). The cache mutates only under the
// lock; the consume path acquires it blocking because correctness requires
// the read.
type Completions struct {
	client    Transport
	queue     Deferrer
	editor    string
	sizeLimit int
	log       Logger

	mu    sync.Mutex
	cache *completionCache
}

// NewCompletions creates a completions orchestrator.
func NewCompletions(client Transport, queue Deferrer, opts Options) *Completions {
	opts.normalize()
	return &Completions{
		client:    client,
		queue:     queue,
		editor:    opts.Editor,
		sizeLimit: opts.SizeLimit,
		log:       opts.Logger,
	}
}

// Queue schedules an asynchronous completion fetch at the given caret
// location. It never blocks the caller.
func (c *Completions) Queue(v View, location int) {
	payload := bufferState(v, c.editor, location)
	c.queue.Defer("completions-fetch", func(ctx context.Context) {
		c.fetch(ctx, v, payload)
	})
}

// Hide clears the cache and dismisses any open completion list.
func (c *Completions) Hide(v View) {
	c.mu.Lock()
	c.cache = nil
	c.mu.Unlock()

	v.DismissCompletion()
}

// Consume is the one read path, invoked by the editor's native completion
// mechanism when it re-queries. locations carries the caret position of
// every active selection point.
//
// Items are returned iff exactly one selection is active, a cache exists,
// and its stamped location equals the requested one. A location mismatch
// signals a race between typing and response arrival; it is logged and the
// stale items are discarded. Consumption is one-shot: a successful read
// empties the cache.
func (c *Completions) Consume(v View, locations []int) []Completion {
	if !Supported(v) || v.Size() > c.sizeLimit {
		return nil
	}
	if len(locations) != 1 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cache := c.cache
	c.cache = nil
	if cache == nil || len(cache.items) == 0 {
		return nil
	}

	if cache.location != locations[0] {
		c.log.Debug("completions location mismatch: %d != %d", cache.location, locations[0])
		return nil
	}

	out := make([]Completion, len(cache.items))
	for i, item := range cache.items {
		out[i] = Completion{
			Label:  brandCompletion(item.display, item.hint),
			Insert: item.insert,
		}
	}
	return out
}

// fetch runs on the background queue. A non-success status or empty body
// drops the result silently; a malformed body is logged and treated as no
// result.
func (c *Completions) fetch(ctx context.Context, v View, payload bufferPayload) {
	res, err := c.client.Post(ctx, completionsPath, payload)
	if err != nil {
		c.log.Debug("completions request failed: %v", err)
		return
	}
	if res.Status != 200 || len(res.Body) == 0 {
		return
	}
	if !gjson.ValidBytes(res.Body) {
		c.log.Warn("error decoding json: invalid completions body")
		return
	}

	var items []completionItem
	for _, raw := range gjson.GetBytes(res.Body, "completions").Array() {
		items = append(items, completionItem{
			display: raw.Get("display").String(),
			hint:    raw.Get("hint").String(),
			insert:  raw.Get("insert").String(),
		})
	}

	c.mu.Lock()
	c.cache = &completionCache{location: payload.CursorRunes, items: items}
	c.mu.Unlock()

	v.TriggerCompletion(CompletionTrigger{
		APIOnly:           true,
		DisableAutoInsert: true,
	})
}

// brandCompletion annotates a display label with its hint and the service
// glyph, tab-separated from the symbol the way native annotations are.
func brandCompletion(display, hint string) string {
	if hint != "" {
		return display + "\t" + hint + " ⟠"
	}
	return display + "\t⟠"
}
