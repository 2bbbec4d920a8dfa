package digest

import (
	"strings"
	"testing"
)

func TestSumKnownVector(t *testing.T) {
	got := Sum("abc")
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("unexpected digest: %s", got)
	}
	if len(got) != Size {
		t.Fatalf("expected %d chars, got %d", Size, len(got))
	}
}

func TestMatchesNormalizesInput(t *testing.T) {
	expected := Sum("pumpkin")
	for _, input := range []string{"pumpkin", "PUMPKIN ", "  PumpKin\t"} {
		if !Matches(input, expected) {
			t.Fatalf("expected %q to match", input)
		}
	}
	if Matches("pumpkins", expected) {
		t.Fatalf("expected pumpkins not to match")
	}
}

func TestMatchesIsCaseSensitiveOnExpected(t *testing.T) {
	expected := strings.ToUpper(Sum("pumpkin"))
	if Matches("pumpkin", expected) {
		t.Fatalf("expected upper-case stored digest not to match")
	}
}

func TestValid(t *testing.T) {
	if !Valid(Sum("x")) {
		t.Fatalf("expected digest to be valid")
	}
	for _, s := range []string{"", "abc", strings.ToUpper(Sum("x")), strings.Repeat("g", Size)} {
		if Valid(s) {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}
