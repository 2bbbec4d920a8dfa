package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestWrapTextBreaksAtSpaces(t *testing.T) {
	plain := lipgloss.NewStyle()
	got := wrapText("one two three", 7, plain)
	if got != "one two\nthree" {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestWrapTextHardBreaksLongWords(t *testing.T) {
	plain := lipgloss.NewStyle()
	got := wrapText("abcdefgh", 3, plain)
	if got != "abc\ndef\ngh" {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestWrapTextKeepsParagraphs(t *testing.T) {
	plain := lipgloss.NewStyle()
	got := wrapText("a b\nc", 10, plain)
	if got != "a b\nc" {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestWrapTextCountsWideRunes(t *testing.T) {
	plain := lipgloss.NewStyle()
	got := wrapText("鬼鬼 鬼", 4, plain)
	if got != "鬼鬼\n鬼" {
		t.Fatalf("unexpected wrap: %q", got)
	}
}

func TestTypewriterRunesReveal(t *testing.T) {
	text := []rune("Boo")
	if got := typewriterRunes(text, 0); len(got) != 1 || got[0].s != captionStyle.Render(string(caret)) {
		t.Fatalf("expected only the caret before the reveal starts")
	}
	partial := typewriterRunes(text, 2)
	if len(partial) != 3 {
		t.Fatalf("expected two runes and a caret, got %d", len(partial))
	}
	full := typewriterRunes(text, 10)
	if len(full) != 3 {
		t.Fatalf("expected caret to disappear once revealed, got %d", len(full))
	}
	if !strings.Contains(renderStyledRunes(full), "o") {
		t.Fatalf("expected revealed text")
	}
}
