package fingerprint

import "testing"

func TestStable(t *testing.T) {
	a := New()
	a.Add(1, "text", "hello")
	a.Add(2, "closetag", "r")

	b := New()
	b.Add(1, "text", "hello")
	b.Add(2, "closetag", "r")

	if a.Sum() != b.Sum() {
		t.Fatal("same events, different sums")
	}
	if a.Events() != 2 {
		t.Fatalf("Events = %d", a.Events())
	}
}

func TestKindSeparatesPayloads(t *testing.T) {
	a := New()
	a.Add(1, "x")
	b := New()
	b.Add(2, "x")
	if a.Sum() == b.Sum() {
		t.Fatal("kind not mixed in")
	}
}

func TestFieldBoundariesCannotCollide(t *testing.T) {
	a := New()
	a.Add(1, "ab", "c")
	b := New()
	b.Add(1, "a", "bc")
	if a.Sum() == b.Sum() {
		t.Fatal("field boundary collision")
	}
}
