package intel

import (
	"bytes"
	"html/template"
	"os"
	"regexp"
	"strings"
	"sync"
)

// debugEnv forces templates to be re-parsed on every render, so template
// edits show up without restarting the host editor.
const debugEnv = "CODELENS_DEV"

func debugMode() bool {
	return os.Getenv(debugEnv) != ""
}

// popupCSS is the shared stylesheet inlined into every popup.
const popupCSS = `
	body { margin: 0; padding: 4px 6px; }
	.name { font-weight: bold; }
	.param { color: var(--foreground); }
	.param.current { text-decoration: underline; font-weight: bold; }
	.kwargs { color: var(--bluish); }
	.kwargs.highlighted { font-weight: bold; }
	.patterns { margin-top: 4px; }
	.hint { color: var(--greenish); }
	.report { margin-top: 4px; }
	.footer { margin-top: 6px; font-size: 0.9em; }
	.keys { color: var(--yellowish); }
`

const signatureTemplate = `<html><body>
<style>{{.CSS}}</style>
<div class="signature">
  <div class="call">
    <span class="name">{{.Call.Callee.Name}}</span>(
    {{- range $i, $p := .Call.Callee.Positional -}}
      {{- if $i}}, {{end -}}
      {{- if and (not $.Call.InKwargs) (eq $i $.Call.ArgIndex) -}}
        <span class="param current">{{$p.Name}}</span>
      {{- else -}}
        <span class="param">{{$p.Name}}</span>
      {{- end -}}
    {{- end -}}
    )
  </div>
  {{- if and .ShowKeywordArguments .Call.Callee.KeywordOnly}}
  <div class="kwargs{{if .KwargHighlighted}} highlighted{{end}}">
    {{- range $i, $p := .Call.Callee.KeywordOnly -}}
      {{- if $i}}, {{end}}{{$p.Name}}=…
    {{- end -}}
  </div>
  {{- end}}
  {{- if and .ShowPopularPatterns .Call.Callee.Patterns}}
  <div class="patterns">
    {{- range .Call.Callee.Patterns}}
    <div class="pattern">{{$.Call.Callee.Name}}({{.}})</div>
    {{- end}}
  </div>
  {{- end}}
  <div class="footer">
    {{- if .ShowPopularPatterns -}}
    <a href="hide_popular_patterns">Hide popular patterns</a>
    {{- else -}}
    <a href="show_popular_patterns">Show popular patterns</a>
    {{- end}}
    {{- if .PopularPatternsKeys}} <span class="keys">{{.PopularPatternsKeys}}</span>{{end}}
    {{- if .ShowKeywordArguments -}}
    <a href="hide_keyword_arguments">Hide keyword arguments</a>
    {{- else -}}
    <a href="show_keyword_arguments">Show keyword arguments</a>
    {{- end}}
    {{- if .KeywordArgumentsKeys}} <span class="keys">{{.KeywordArgumentsKeys}}</span>{{end}}
  </div>
</div>
</body></html>`

const hoverTemplate = `<html><body>
<style>{{.CSS}}</style>
<div class="hover">
  <div class="symbol">
    <span class="name">{{.Symbol.Name}}</span>
    {{- if .Symbol.Hint}} <span class="hint">{{.Symbol.Hint}}</span>{{end}}
  </div>
  {{- if .Symbol.Report}}
  <div class="report">{{.Symbol.Report}}</div>
  {{- end}}
  <div class="footer">
    <a href="open_companion:{{.Symbol.Name}}">Docs</a>
  </div>
</div>
</body></html>`

var (
	interTagSpace = regexp.MustCompile(`>\s+<`)
	spaceRun      = regexp.MustCompile(`\s{2,}`)
)

// minifyHTML strips the whitespace the templates leave behind so popup
// layout does not pick up stray text nodes.
func minifyHTML(s string) string {
	s = interTagSpace.ReplaceAllString(s, "><")
	s = spaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// SignatureRenderContext carries the display options for one signature
// render.
type SignatureRenderContext struct {
	ShowPopularPatterns  bool
	ShowKeywordArguments bool
	KwargHighlighted     bool
	PopularPatternsKeys  string
	KeywordArgumentsKeys string
}

// SignatureRenderer instantiates the signature popup template. The template
// is parsed once and cached, unless debug mode is on.
type SignatureRenderer struct {
	once sync.Once
	tmpl *template.Template
	err  error
}

// NewSignatureRenderer creates a signature renderer.
func NewSignatureRenderer() *SignatureRenderer {
	return &SignatureRenderer{}
}

// Render produces minified popup HTML for the call.
func (r *SignatureRenderer) Render(call *Call, ctx SignatureRenderContext) (string, error) {
	tmpl, err := r.template()
	if err != nil {
		return "", err
	}

	data := struct {
		Call *Call
		CSS  template.CSS
		SignatureRenderContext
	}{Call: call, CSS: template.CSS(popupCSS), SignatureRenderContext: ctx}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return minifyHTML(buf.String()), nil
}

func (r *SignatureRenderer) template() (*template.Template, error) {
	if debugMode() {
		return template.New("signature").Parse(signatureTemplate)
	}
	r.once.Do(func() {
		r.tmpl, r.err = template.New("signature").Parse(signatureTemplate)
	})
	return r.tmpl, r.err
}

// HoverRenderer instantiates the hover panel template.
type HoverRenderer struct {
	once sync.Once
	tmpl *template.Template
	err  error
}

// NewHoverRenderer creates a hover renderer.
func NewHoverRenderer() *HoverRenderer {
	return &HoverRenderer{}
}

// Render produces minified panel HTML for the symbol.
func (r *HoverRenderer) Render(sym HoverSymbol) (string, error) {
	tmpl, err := r.template()
	if err != nil {
		return "", err
	}

	data := struct {
		Symbol HoverSymbol
		CSS    template.CSS
	}{Symbol: sym, CSS: template.CSS(popupCSS)}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return minifyHTML(buf.String()), nil
}

func (r *HoverRenderer) template() (*template.Template, error) {
	if debugMode() {
		return template.New("hover").Parse(hoverTemplate)
	}
	r.once.Do(func() {
		r.tmpl, r.err = template.New("hover").Parse(hoverTemplate)
	})
	return r.tmpl, r.err
}
