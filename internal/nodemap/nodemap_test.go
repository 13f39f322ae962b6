package nodemap

import (
	"errors"
	"testing"

	"github.com/mocapkit/mocapctl/internal/testutil/testlog"
)

func TestParseNested(t *testing.T) {
	testlog.Start(t)

	document := `<?xml version="1.0"?>
<node key="0" id="default">
  <node key="4" id="Hips">
    <node key="5" id="LeftThigh"/>
    <node key="8" id="RightThigh"/>
  </node>
</node>`

	names, err := Parse(document)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := map[uint32]string{
		0: "default",
		4: "Hips",
		5: "LeftThigh",
		8: "RightThigh",
	}
	if len(names) != len(want) {
		t.Fatalf("got %d entries, want %d", len(names), len(want))
	}
	for key, name := range want {
		if names[key] != name {
			t.Fatalf("names[%d] = %q, want %q", key, names[key], name)
		}
	}
}

func TestParseFirstKeyWins(t *testing.T) {
	testlog.Start(t)

	document := `<node key="4" id="Hips"><node key="4" id="Duplicate"/></node>`
	names, err := Parse(document)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if names[4] != "Hips" {
		t.Fatalf("names[4] = %q, want %q", names[4], "Hips")
	}
}

func TestParseSkipsIncompleteNodes(t *testing.T) {
	testlog.Start(t)

	document := `<node><node id="NoKey"/><node key="7"/><node key="9" id="Chest"/></node>`
	names, err := Parse(document)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(names) != 1 || names[9] != "Chest" {
		t.Fatalf("names = %v, want only 9=Chest", names)
	}
}

func TestParseErrors(t *testing.T) {
	testlog.Start(t)

	if _, err := Parse(`<other id="Hips" key="4"/>`); !errors.Is(err, ErrNoNodes) {
		t.Fatalf("no node elements = %v, want ErrNoNodes", err)
	}
	if _, err := Parse(`<node key="x" id="Hips"/>`); err == nil {
		t.Fatal("expected error for non numeric key")
	}
	if _, err := Parse(`<node key="4"`); err == nil {
		t.Fatal("expected error for malformed document")
	}
}

func TestNameFallback(t *testing.T) {
	names := map[uint32]string{4: "Hips"}
	if got := Name(names, 4); got != "Hips" {
		t.Fatalf("Name(4) = %q, want Hips", got)
	}
	if got := Name(names, 12); got != "12" {
		t.Fatalf("Name(12) = %q, want decimal fallback", got)
	}
}
