package buildcache

import "testing"

func TestRecordAndLookupRoundTrip(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("unexpected error opening cache: %v", err)
	}
	defer c.Close()

	hash := Hash("start: NAME ENDMARKER\n")

	if _, ok := c.Lookup(hash, "out.go"); ok {
		t.Fatalf("expected no record before the first build")
	}

	if err := c.Record(hash, "out.go", 1, 0); err != nil {
		t.Fatalf("unexpected error recording build: %v", err)
	}

	b, ok := c.Lookup(hash, "out.go")
	if !ok {
		t.Fatalf("expected to find the recorded build")
	}
	if b.RuleCount != 1 || b.HelperCount != 0 {
		t.Fatalf("got %+v", b)
	}
}

func TestLookupMissesOnDifferentOutputPath(t *testing.T) {
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	hash := Hash("grammar text")
	if err := c.Record(hash, "a.go", 2, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.Lookup(hash, "b.go"); ok {
		t.Fatalf("expected a cache miss for a different output path")
	}
}

func TestHashIsStableAndContentSensitive(t *testing.T) {
	if Hash("a") != Hash("a") {
		t.Fatalf("expected Hash to be deterministic")
	}
	if Hash("a") == Hash("b") {
		t.Fatalf("expected different sources to hash differently")
	}
}
