package intel

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
)

// statusKey identifies this integration's entry in the status bar.
const statusKey = "codelens"

// brandPrefix is prepended to every rendered status string.
const brandPrefix = "codelens: "

// Status orchestrates the status bar text. It is recomputed per event and
// holds no state; like Hover, it carries no staleness guard against
// out-of-order responses (accepted trade-off).
type Status struct {
	client    Transport
	queue     Deferrer
	sizeLimit int
	log       Logger
}

// NewStatus creates a status orchestrator.
func NewStatus(client Transport, queue Deferrer, opts Options) *Status {
	opts.normalize()
	return &Status{
		client:    client,
		queue:     queue,
		sizeLimit: opts.SizeLimit,
		log:       opts.Logger,
	}
}

// OnActivated refreshes the status when a view gains focus.
func (s *Status) OnActivated(v View) {
	s.Update(v)
}

// OnSelection refreshes the status on every selection change.
func (s *Status) OnSelection(v View) {
	s.Update(v)
}

// Update schedules an asynchronous status refresh for the view.
func (s *Status) Update(v View) {
	s.queue.Defer("status-refresh", func(ctx context.Context) {
		s.refresh(ctx, v)
	})
}

// refresh runs on the background queue. Connectivity failure degrades to a
// visible "Connection error" status; a client that cannot send (shutdown in
// progress) is logged only, leaving the status unchanged since the
// condition is transient.
func (s *Status) refresh(ctx context.Context, v View) {
	if !Supported(v) {
		v.EraseStatus(statusKey)
		return
	}
	if v.Size() > s.sizeLimit {
		v.SetStatus(statusKey, brandStatus("File too large"))
		return
	}

	path := statusPath + "?filename=" + url.QueryEscape(realPath(v.Path()))
	res, err := s.client.Get(ctx, path)
	if err != nil {
		var connect *ConnectError
		switch {
		case errors.Is(err, ErrClientClosed):
			s.log.Debug("could not request status: %v", err)
		case errors.As(err, &connect):
			v.SetStatus(statusKey, brandStatus("Connection error"))
		default:
			s.log.Debug("status request failed: %v", err)
		}
		return
	}

	if res.Status != 200 || len(res.Body) == 0 {
		v.SetStatus(statusKey, brandStatus("Server error"))
		return
	}
	if !gjson.ValidBytes(res.Body) {
		s.log.Warn("error decoding json: invalid status body")
		return
	}

	v.SetStatus(statusKey, brandStatus(capitalize(gjson.GetBytes(res.Body, "status").String())))
}

func brandStatus(status string) string {
	return brandPrefix + status
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(strings.ToLower(s))
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
