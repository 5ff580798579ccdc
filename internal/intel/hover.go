package intel

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// HoverSymbol is the symbol information rendered in a hover panel.
type HoverSymbol struct {
	Name string

	// Hint is the symbol's kind, or its type name when the symbol is an
	// instance.
	Hint string

	// Report is the documentation text accompanying the symbol.
	Report string
}

// Hover orchestrates point-triggered symbol panels. It is stateless across
// calls: requests are keyed by a content fingerprint of the whole document
// plus the hover point, and no staleness guard is applied — a hover result
// can land and render even if superseded by a newer trigger. That is a
// deliberate latency/complexity trade-off, not shared with the completions
// and signatures disciplines.
type Hover struct {
	client    Transport
	queue     Deferrer
	editor    string
	sizeLimit int
	log       Logger
	opener    LinkOpener
	renderer  *HoverRenderer
}

// NewHover creates a hover orchestrator.
func NewHover(client Transport, queue Deferrer, opener LinkOpener, opts Options) *Hover {
	opts.normalize()
	if opener == nil {
		opener = NopOpener{}
	}
	return &Hover{
		client:    client,
		queue:     queue,
		editor:    opts.Editor,
		sizeLimit: opts.SizeLimit,
		log:       opts.Logger,
		opener:    opener,
		renderer:  NewHoverRenderer(),
	}
}

// OnHover schedules a hover fetch for the given rune offset. Unsupported,
// oversized, or multi-selection views are ignored.
func (h *Hover) OnHover(v View, point int) {
	if !Supported(v) || v.Size() > h.sizeLimit {
		return
	}
	if len(v.Selections()) != 1 {
		return
	}

	path := h.bufferPath(v, point)
	h.queue.Defer("hover-fetch", func(ctx context.Context) {
		h.fetch(ctx, v, path, point)
	})
}

// HandleLink processes a hover popup navigation target. Open-definition
// payloads must end in a numeric line component; anything that fails to
// parse is logged and ignored.
func (h *Hover) HandleLink(target string) {
	switch {
	case strings.HasPrefix(target, linkOpenBrowser) || strings.HasPrefix(target, linkOpenCompanion):
		action, ident, ok := splitTarget(target)
		if !ok {
			h.log.Warn("invalid open link format: %s", target)
			return
		}
		if action == linkOpenBrowser {
			if err := h.opener.OpenBrowser(ident); err != nil {
				h.log.Warn("open browser failed: %v", err)
			}
			return
		}
		if err := h.opener.OpenCompanion(ident); err != nil {
			h.log.Warn("open companion failed: %v", err)
		}

	case strings.HasPrefix(target, linkOpenDefinition):
		_, payload, ok := splitTarget(target)
		if !ok {
			h.log.Warn("invalid open definition format: %s", target)
			return
		}
		path, line, ok := parseDefinition(payload)
		if !ok {
			h.log.Warn("invalid open definition format: %s", target)
			return
		}
		if err := h.opener.OpenDefinition(path, line); err != nil {
			h.log.Warn("open definition failed: %v", err)
		}
	}
}

func (h *Hover) fetch(ctx context.Context, v View, path string, point int) {
	res, err := h.client.Get(ctx, path)
	if err != nil {
		h.log.Debug("hover request failed: %v", err)
		return
	}
	if res.Status != 200 || len(res.Body) == 0 {
		return
	}
	if !gjson.ValidBytes(res.Body) {
		h.log.Warn("error decoding json: invalid hover body")
		return
	}

	symbols := gjson.GetBytes(res.Body, "symbol")
	if !symbols.Exists() || symbols.Type == gjson.Null {
		return
	}
	first := symbols.Array()
	if len(first) == 0 {
		return
	}

	sym := HoverSymbol{
		Name:   first[0].Get("name").String(),
		Report: gjson.GetBytes(res.Body, "report.description_text").String(),
	}
	if kind := first[0].Get("value.0.kind").String(); kind != "instance" {
		sym.Hint = kind
	} else {
		sym.Hint = first[0].Get("value.0.type").String()
	}

	content, err := h.renderer.Render(sym)
	if err != nil {
		h.log.Error("hover render failed: %v", err)
		return
	}

	v.ShowPopup(content, PopupOptions{
		HideOnMouseMove: true,
		MaxWidth:        1024,
		Location:        point,
		OnNavigate:      h.HandleLink,
	})
}

// bufferPath builds the buffer-scoped hover URL: the filename is flattened
// with ":" separators and path-escaped, and the hash is the fingerprint of
// the full document text at trigger time.
func (h *Hover) bufferPath(v View, point int) string {
	filename := strings.ReplaceAll(realPath(v.Path()), "/", ":")
	return fmt.Sprintf("/api/buffer/%s/%s/%s/hover?cursor_runes=%d",
		h.editor, url.PathEscape(filename), Fingerprint(v.Text()), point)
}
