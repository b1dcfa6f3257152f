package diag

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelsAndBlock(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Log{Output: &buf, NoStdout: true})

	l.L(T, "trace msg")
	l.L(I, "info msg")
	out := buf.String()
	if !strings.Contains(out, "T: trace msg") || !strings.Contains(out, "I: info msg") {
		t.Fatalf("out = %q", out)
	}

	buf.Reset()
	l.Block(W)
	l.L(I, "hidden")
	l.L(E, "shown")
	out = buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "E: shown") {
		t.Fatalf("out = %q", out)
	}
}

func TestBase(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Log{Output: &buf, NoStdout: true}).Base("run", "abc")
	l.Lf(I, "parsed %d events", 7)
	if !strings.Contains(buf.String(), "I: run abc parsed 7 events") {
		t.Fatalf("out = %q", buf.String())
	}
}
