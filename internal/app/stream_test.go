package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeCommands(t *testing.T, out *bytes.Buffer) []streamCommand {
	t.Helper()
	var cmds []streamCommand
	dec := json.NewDecoder(out)
	for dec.More() {
		var cmd streamCommand
		if err := dec.Decode(&cmd); err != nil {
			t.Fatalf("decode command: %v", err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func findCommand(cmds []streamCommand, op string) (streamCommand, bool) {
	for _, c := range cmds {
		if c.Op == op {
			return c, true
		}
	}
	return streamCommand{}, false
}

func TestRunStreamConsumeRepliesWithCompletions(t *testing.T) {
	a := newTestApp(t, Options{ServiceURL: "http://127.0.0.1:1"})

	in := strings.NewReader(`{"event":"consume","file":"/tmp/a.py","text":"import foo","selections":[{"begin":7,"end":7}],"locations":[7]}` + "\n")
	var out bytes.Buffer
	if err := a.RunStream(context.Background(), in, &out); err != nil {
		t.Fatalf("RunStream: %v", err)
	}

	cmds := decodeCommands(t, &out)
	cmd, ok := findCommand(cmds, "completions")
	if !ok {
		t.Fatalf("no completions command in %+v", cmds)
	}
	if cmd.File != "/tmp/a.py" {
		t.Errorf("completions file = %q", cmd.File)
	}
	// Nothing was queued, so the reply is empty.
	if len(cmd.Completions) != 0 {
		t.Errorf("completions = %+v, want none", cmd.Completions)
	}
}

func TestRunStreamTogglesSettings(t *testing.T) {
	a := newTestApp(t, Options{ServiceURL: "http://127.0.0.1:1"})

	in := strings.NewReader(`{"event":"toggle_popular_patterns"}` + "\n")
	var out bytes.Buffer
	if err := a.RunStream(context.Background(), in, &out); err != nil {
		t.Fatalf("RunStream: %v", err)
	}

	if !a.Store().ShowPopularPatterns() {
		t.Error("toggle event did not flip the setting")
	}
}

func TestRunStreamSkipsMalformedLines(t *testing.T) {
	a := newTestApp(t, Options{ServiceURL: "http://127.0.0.1:1"})

	in := strings.NewReader("not json\n\n" + `{"event":"toggle_keyword_arguments"}` + "\n")
	var out bytes.Buffer
	if err := a.RunStream(context.Background(), in, &out); err != nil {
		t.Fatalf("RunStream: %v", err)
	}

	// The valid line after the malformed one was still processed.
	if a.Store().ShowKeywordArguments() {
		t.Error("event after malformed line was not processed")
	}
}

func TestRunStreamUnknownEventIgnored(t *testing.T) {
	a := newTestApp(t, Options{ServiceURL: "http://127.0.0.1:1"})

	in := strings.NewReader(`{"event":"teleport"}` + "\n")
	var out bytes.Buffer
	if err := a.RunStream(context.Background(), in, &out); err != nil {
		t.Fatalf("RunStream: %v", err)
	}
	if cmds := decodeCommands(t, &out); len(cmds) != 0 {
		t.Errorf("unknown event produced commands: %+v", cmds)
	}
}

func TestRunStreamActivatedReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/clientapi/status" {
			w.Write([]byte(`{"status":"ready"}`))
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	a := newTestApp(t, Options{ServiceURL: srv.URL})

	in := strings.NewReader(`{"event":"activated","file":"/tmp/a.py","text":"import foo","selections":[{"begin":0,"end":0}]}` + "\n")
	var out bytes.Buffer
	if err := a.RunStream(context.Background(), in, &out); err != nil {
		t.Fatalf("RunStream: %v", err)
	}

	// Shutdown drains the queue so the deferred status fetch lands.
	a.Shutdown()

	cmds := decodeCommands(t, &out)
	cmd, ok := findCommand(cmds, "set_status")
	if !ok {
		t.Fatalf("no set_status command in %+v", cmds)
	}
	if cmd.Key != "codelens" {
		t.Errorf("status key = %q", cmd.Key)
	}
	if cmd.Value != "codelens: Ready" {
		t.Errorf("status value = %q, want %q", cmd.Value, "codelens: Ready")
	}
}

func TestStreamOpenerForwardsNavigation(t *testing.T) {
	var out bytes.Buffer
	sink := &streamSink{enc: json.NewEncoder(&out)}
	opener := &streamOpener{}

	// Before a stream is attached, actions are dropped silently.
	if err := opener.OpenBrowser("python;json.dumps"); err != nil {
		t.Fatalf("OpenBrowser: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("detached opener wrote output: %s", out.String())
	}

	opener.setSink(sink)
	opener.OpenBrowser("python;json.dumps")
	opener.OpenDefinition("/tmp/a.py", 12)

	cmds := decodeCommands(t, &out)
	if len(cmds) != 2 {
		t.Fatalf("commands = %d, want 2", len(cmds))
	}
	if cmds[0].Op != "open_browser" || cmds[0].Value != "python;json.dumps" {
		t.Errorf("first command = %+v", cmds[0])
	}
	if cmds[1].Op != "open_definition" || cmds[1].File != "/tmp/a.py" || cmds[1].Location != 12 {
		t.Errorf("second command = %+v", cmds[1])
	}
}
