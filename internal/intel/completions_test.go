package intel

import (
	"strings"
	"testing"
)

const completionsBody = `{"completions":[
	{"display":"foo","hint":"function","insert":"foo()"},
	{"display":"bar","hint":"","insert":"bar"}
]}`

func newCompletionsHarness(body string, status int) (*Completions, *fakeTransport, *captureLogger) {
	transport := &fakeTransport{
		postFn: func(string, any) (Result, error) {
			return Result{Status: status, Body: []byte(body)}, nil
		},
	}
	log := &captureLogger{}
	c := NewCompletions(transport, syncQueue{}, Options{Editor: "testedit", Logger: log})
	return c, transport, log
}

func TestCompletionsConsumeLocationExact(t *testing.T) {
	c, _, _ := newCompletionsHarness(completionsBody, 200)
	view := newFakeView("/tmp/a.py", "import foo", Region{Begin: 5, End: 5})

	c.Queue(view, 5)

	if len(view.triggered) != 1 {
		t.Fatalf("TriggerCompletion calls = %d, want 1", len(view.triggered))
	}
	if !view.triggered[0].APIOnly || !view.triggered[0].DisableAutoInsert {
		t.Errorf("trigger = %+v, want APIOnly and DisableAutoInsert", view.triggered[0])
	}

	items := c.Consume(view, []int{5})
	if len(items) != 2 {
		t.Fatalf("Consume(5) returned %d items, want 2", len(items))
	}
	if items[0].Label != "foo\tfunction ⟠" {
		t.Errorf("label = %q, want %q", items[0].Label, "foo\tfunction ⟠")
	}
	if items[0].Insert != "foo()" {
		t.Errorf("insert = %q, want %q", items[0].Insert, "foo()")
	}
	if items[1].Label != "bar\t⟠" {
		t.Errorf("hintless label = %q, want %q", items[1].Label, "bar\t⟠")
	}
}

func TestCompletionsConsumeOneShot(t *testing.T) {
	c, _, _ := newCompletionsHarness(completionsBody, 200)
	view := newFakeView("/tmp/a.py", "import foo", Region{Begin: 5, End: 5})

	c.Queue(view, 5)

	if items := c.Consume(view, []int{5}); len(items) == 0 {
		t.Fatal("first Consume(5) returned no items")
	}
	if items := c.Consume(view, []int{5}); items != nil {
		t.Errorf("second Consume(5) = %v, want nil", items)
	}
}

func TestCompletionsConsumeLocationMismatch(t *testing.T) {
	c, _, log := newCompletionsHarness(completionsBody, 200)
	view := newFakeView("/tmp/a.py", "import foo", Region{Begin: 5, End: 5})

	c.Queue(view, 5)

	if items := c.Consume(view, []int{7}); items != nil {
		t.Errorf("Consume(7) after fetch at 5 = %v, want nil", items)
	}
	if !log.contains("location mismatch") {
		t.Error("expected a location mismatch diagnostic to be logged")
	}
	// The stale cache was discarded along with the mismatch.
	if items := c.Consume(view, []int{5}); items != nil {
		t.Errorf("Consume(5) after mismatch = %v, want nil", items)
	}
}

func TestCompletionsConsumeGuards(t *testing.T) {
	c, _, _ := newCompletionsHarness(completionsBody, 200)

	supported := newFakeView("/tmp/a.py", "import foo", Region{End: 5})
	c.Queue(supported, 5)

	multi := newFakeView("/tmp/a.py", "import foo", Region{End: 5})
	multi.selections = []Region{{End: 5}, {End: 9}}
	if items := c.Consume(multi, []int{5, 9}); items != nil {
		t.Errorf("multi-selection Consume = %v, want nil", items)
	}

	unsupported := newFakeView("/tmp/a.txt", "import foo", Region{End: 5})
	if items := c.Consume(unsupported, []int{5}); items != nil {
		t.Errorf("unsupported view Consume = %v, want nil", items)
	}

	oversized := newFakeView("/tmp/a.py", strings.Repeat("x", MaxFileSize+1), Region{End: 5})
	if items := c.Consume(oversized, []int{5}); items != nil {
		t.Errorf("oversized view Consume = %v, want nil", items)
	}
}

func TestCompletionsNonSuccessDropped(t *testing.T) {
	for _, status := range []int{204, 400, 404, 500} {
		c, _, _ := newCompletionsHarness(completionsBody, status)
		view := newFakeView("/tmp/a.py", "import foo", Region{End: 5})

		c.Queue(view, 5)

		if len(view.triggered) != 0 {
			t.Errorf("status %d: completion UI triggered", status)
		}
		if items := c.Consume(view, []int{5}); items != nil {
			t.Errorf("status %d: Consume = %v, want nil", status, items)
		}
	}
}

func TestCompletionsEmptyBodyDropped(t *testing.T) {
	c, _, _ := newCompletionsHarness("", 200)
	view := newFakeView("/tmp/a.py", "import foo", Region{End: 5})

	c.Queue(view, 5)

	if len(view.triggered) != 0 {
		t.Error("completion UI triggered on empty body")
	}
}

func TestCompletionsMalformedBodyLogged(t *testing.T) {
	c, _, log := newCompletionsHarness(`{"completions": [`, 200)
	view := newFakeView("/tmp/a.py", "import foo", Region{End: 5})

	c.Queue(view, 5)

	if len(view.triggered) != 0 {
		t.Error("completion UI triggered on malformed body")
	}
	if !log.contains("error decoding json") {
		t.Error("expected a decode diagnostic to be logged")
	}
}

func TestCompletionsHide(t *testing.T) {
	c, _, _ := newCompletionsHarness(completionsBody, 200)
	view := newFakeView("/tmp/a.py", "import foo", Region{End: 5})

	c.Queue(view, 5)
	c.Hide(view)

	if view.dismissed != 1 {
		t.Errorf("DismissCompletion calls = %d, want 1", view.dismissed)
	}
	if items := c.Consume(view, []int{5}); items != nil {
		t.Errorf("Consume after Hide = %v, want nil", items)
	}
}

func TestCompletionsQueuePayload(t *testing.T) {
	c, transport, _ := newCompletionsHarness(completionsBody, 200)
	view := newFakeView("/tmp/a.py", "import foo", Region{End: 7})

	c.Queue(view, 7)

	posts := transport.postsTo(completionsPath)
	if len(posts) != 1 {
		t.Fatalf("posts to %s = %d, want 1", completionsPath, len(posts))
	}
	payload, ok := posts[0].payload.(bufferPayload)
	if !ok {
		t.Fatalf("payload type = %T, want bufferPayload", posts[0].payload)
	}
	if payload.CursorRunes != 7 {
		t.Errorf("cursor_runes = %d, want 7", payload.CursorRunes)
	}
	if payload.Editor != "testedit" {
		t.Errorf("editor = %q, want %q", payload.Editor, "testedit")
	}
	if payload.Text != "import foo" {
		t.Errorf("text = %q, want full document", payload.Text)
	}
}
