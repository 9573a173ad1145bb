package blob

import (
	"io"
	"strings"
	"testing"
)

func TestPutOpenExists(t *testing.T) {
	l := LocalFS{Root: t.TempDir()}

	rel, err := l.Put("lda_results/tool_1/job/input_tokens.csv", strings.NewReader("tokens\na b\n"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if rel != "lda_results/tool_1/job/input_tokens.csv" {
		t.Errorf("rel = %q", rel)
	}

	if !l.Exists(rel) {
		t.Error("stored file must exist")
	}

	f, err := l.Open(rel)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "tokens\na b\n" {
		t.Errorf("contents = %q", data)
	}
}

func TestRejectsEscapingPaths(t *testing.T) {
	l := LocalFS{Root: t.TempDir()}

	for _, p := range []string{"../outside.txt", "..", "a/../../b", "/etc/passwd", "."} {
		if _, err := l.Put(p, strings.NewReader("x")); err == nil {
			t.Errorf("Put(%q) should be rejected", p)
		}
		if _, err := l.Open(p); err == nil {
			t.Errorf("Open(%q) should be rejected", p)
		}
		if l.Exists(p) {
			t.Errorf("Exists(%q) should be false", p)
		}
	}
}

func TestExistsFalseForDirectory(t *testing.T) {
	l := LocalFS{Root: t.TempDir()}
	if _, err := l.Put("dir/file.txt", strings.NewReader("x")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if l.Exists("dir") {
		t.Error("directories are not servable blobs")
	}
}
