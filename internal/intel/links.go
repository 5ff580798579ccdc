package intel

import (
	"strconv"
	"strings"
)

// Popup navigation targets are strings of the form "action:payload".
const (
	linkOpenBrowser    = "open_browser"
	linkOpenCompanion  = "open_companion"
	linkOpenDefinition = "open_definition"

	linkShowPopularPatterns  = "show_popular_patterns"
	linkHidePopularPatterns  = "hide_popular_patterns"
	linkShowKeywordArguments = "show_keyword_arguments"
	linkHideKeywordArguments = "hide_keyword_arguments"
)

// LinkOpener performs the externally-handled popup navigation actions.
// Implementations are supplied by the host environment.
type LinkOpener interface {
	// OpenBrowser opens a documentation URL or identifier in the browser.
	OpenBrowser(ident string) error

	// OpenCompanion opens an identifier in the companion app.
	OpenCompanion(ident string) error

	// OpenDefinition opens a file at a one-based line.
	OpenDefinition(path string, line int) error
}

// NopOpener ignores all navigation actions.
type NopOpener struct{}

// OpenBrowser implements LinkOpener.
func (NopOpener) OpenBrowser(string) error { return nil }

// OpenCompanion implements LinkOpener.
func (NopOpener) OpenCompanion(string) error { return nil }

// OpenDefinition implements LinkOpener.
func (NopOpener) OpenDefinition(string, int) error { return nil }

// splitTarget splits a navigation target into action and payload.
// ok is false when the separator is missing.
func splitTarget(target string) (action, payload string, ok bool) {
	return strings.Cut(target, ":")
}

// parseDefinition parses an open-definition payload of the form
// "path:line", where line is the trailing numeric component. ok is false
// when the trailing component is absent or non-numeric.
func parseDefinition(payload string) (path string, line int, ok bool) {
	idx := strings.LastIndex(payload, ":")
	if idx < 0 {
		return "", 0, false
	}
	line, err := strconv.Atoi(payload[idx+1:])
	if err != nil {
		return "", 0, false
	}
	return payload[:idx], line, true
}
