package intel

import "testing"

func TestSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/tmp/a.py", true},
		{"/tmp/nested/dir/module.py", true},
		{"/tmp/a.txt", false},
		{"/tmp/a.pyc", false},
		{"", false},
	}

	for _, tt := range tests {
		v := newFakeView(tt.path, "x", Region{End: 1})
		if got := Supported(v); got != tt.want {
			t.Errorf("Supported(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestSingleRegion(t *testing.T) {
	v := newFakeView("/tmp/a.py", "import foo", Region{Begin: 3, End: 7})

	region := SingleRegion(v)
	if region == nil {
		t.Fatal("SingleRegion = nil for one selection")
	}
	if region.File != "/tmp/a.py" || region.Begin != 3 || region.End != 7 {
		t.Errorf("region = %+v", region)
	}

	v.selections = append(v.selections, Region{End: 9})
	if SingleRegion(v) != nil {
		t.Error("SingleRegion != nil for multiple selections")
	}

	v.selections = nil
	if SingleRegion(v) != nil {
		t.Error("SingleRegion != nil for zero selections")
	}
}

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint("import json")
	b := Fingerprint("import json")
	c := Fingerprint("import jsons")

	if a != b {
		t.Errorf("same content hashed differently: %q vs %q", a, b)
	}
	if a == c {
		t.Error("different content produced the same fingerprint")
	}
	if len(a) != 32 {
		t.Errorf("fingerprint length = %d, want 32 hex chars", len(a))
	}
}

func TestOptionsNormalize(t *testing.T) {
	var o Options
	o.normalize()

	if o.Editor != "codelens" {
		t.Errorf("default editor = %q", o.Editor)
	}
	if o.SizeLimit != MaxFileSize {
		t.Errorf("default size limit = %d", o.SizeLimit)
	}
	if o.Logger == nil {
		t.Error("default logger is nil")
	}

	set := Options{Editor: "sublime3", SizeLimit: 64, Logger: &captureLogger{}}
	set.normalize()
	if set.Editor != "sublime3" || set.SizeLimit != 64 {
		t.Errorf("explicit options overwritten: %+v", set)
	}
}
