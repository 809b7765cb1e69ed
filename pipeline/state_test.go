package pipeline_test

import (
	"testing"

	"github.com/freemocap/skellysubs/pipeline"
)

type fakeRelease struct {
	released int
}

func (f *fakeRelease) Release() { f.released++ }

func TestStateSetGet(t *testing.T) {
	s := pipeline.NewState()

	if _, ok := s.Get("mp3Audio"); ok {
		t.Fatal("empty state should have no keys")
	}

	s.Set("mp3Audio", "audio-bytes")
	v, ok := s.Get("mp3Audio")
	if !ok || v != "audio-bytes" {
		t.Fatalf("expected audio-bytes, got %v (ok=%v)", v, ok)
	}
	if !s.Has("mp3Audio") {
		t.Fatal("Has should report presence")
	}
}

func TestStateKeysSorted(t *testing.T) {
	s := pipeline.NewState()
	s.Set("translation", 1)
	s.Set("mp3Audio", 2)
	s.Set("transcription", 3)

	keys := s.Keys()
	want := []string{"mp3Audio", "transcription", "translation"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(keys))
	}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("keys[%d]: expected %q, got %q", i, k, keys[i])
		}
	}
}

func TestStateReleasesSupersededValue(t *testing.T) {
	s := pipeline.NewState()
	first := &fakeRelease{}
	second := &fakeRelease{}

	s.Set("mp3Audio", first)
	if first.released != 0 {
		t.Fatal("storing must not release")
	}

	s.Set("mp3Audio", second)
	if first.released != 1 {
		t.Fatalf("superseded value should be released once, got %d", first.released)
	}
	if second.released != 0 {
		t.Fatal("current value must not be released")
	}
}

func TestStateRestoreSameValueNoRelease(t *testing.T) {
	s := pipeline.NewState()
	v := &fakeRelease{}
	s.Set("mp3Audio", v)
	s.Set("mp3Audio", v)
	if v.released != 0 {
		t.Fatalf("re-storing the same value must not release it, got %d", v.released)
	}
}

func TestStateCloseReleasesAll(t *testing.T) {
	s := pipeline.NewState()
	a := &fakeRelease{}
	b := &fakeRelease{}
	s.Set("mp3Audio", a)
	s.Set("transcription", b)
	s.Set("plain", "no releaser")

	s.Close()
	if a.released != 1 || b.released != 1 {
		t.Fatalf("close should release each value once, got %d and %d", a.released, b.released)
	}
	if s.Has("mp3Audio") {
		t.Fatal("close should clear the store")
	}

	// Close again is a no-op; already-released values are gone from the map.
	s.Close()
	if a.released != 1 {
		t.Fatalf("double close must not double release, got %d", a.released)
	}
}

func TestPortReadWrite(t *testing.T) {
	s := pipeline.NewState()
	port := pipeline.Port[int]{Key: "count"}

	if _, err := pipeline.Read(s, port); err == nil {
		t.Fatal("reading a missing key should error")
	}

	pipeline.Write(s, port, 42)
	v, err := pipeline.Read(s, port)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
}

func TestPortTypeMismatch(t *testing.T) {
	s := pipeline.NewState()
	s.Set("count", "not an int")

	if _, err := pipeline.Read(s, pipeline.Port[int]{Key: "count"}); err == nil {
		t.Fatal("type mismatch should error")
	}
}
