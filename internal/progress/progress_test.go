package progress

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeLayout(t *testing.T) {
	r := NewRecord()
	r.Index = 1
	r.Answers[1] = "pumpkin"
	r.Solved[1] = true
	data, err := Encode(r)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"index":1,"answers":{"1":"pumpkin"},"solved":{"1":true},"muted":false}`
	if string(data) != want {
		t.Fatalf("unexpected layout:\n got %s\nwant %s", data, want)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	r := NewRecord()
	r.Index = 2
	r.Answers[1] = "a"
	r.Answers[3] = "draft"
	r.Solved[1] = true
	r.Muted = true
	data, err := Encode(r)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, ok := Decode(data)
	if !ok {
		t.Fatalf("expected decode to succeed")
	}
	if diff := cmp.Diff(r, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeRejectsCorruption(t *testing.T) {
	for _, raw := range []string{"", "{", "null-ish", `{"index":-3}`, `{"answers":{"x":"y"}}`} {
		if _, ok := Decode([]byte(raw)); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestDecodeFillsMaps(t *testing.T) {
	r, ok := Decode([]byte(`{"index":0}`))
	if !ok {
		t.Fatalf("expected minimal record to decode")
	}
	if r.Answers == nil || r.Solved == nil {
		t.Fatalf("expected maps to be initialized")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if _, ok := m.Load(ctx); ok {
		t.Fatalf("expected empty store")
	}
	r := NewRecord()
	r.Answers[7] = "boo"
	if err := m.Save(ctx, r); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok := m.Load(ctx)
	if !ok || got.Answers[7] != "boo" {
		t.Fatalf("unexpected load: %+v %v", got, ok)
	}
	if err := m.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if m.Raw() != nil {
		t.Fatalf("expected cleared store")
	}
	m.SetRaw([]byte("garbage"))
	if _, ok := m.Load(ctx); ok {
		t.Fatalf("expected corrupted data to load as no record")
	}
}

func TestSolvedCountIgnoresFalseEntries(t *testing.T) {
	r := NewRecord()
	r.Solved[1] = true
	r.Solved[2] = false
	r.Solved[5] = true
	if got := r.SolvedCount(); got != 2 {
		t.Fatalf("SolvedCount = %d, want 2", got)
	}
}
