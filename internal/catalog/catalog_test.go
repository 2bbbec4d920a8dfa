package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/spookhunt/internal/digest"
	"github.com/verte-zerg/spookhunt/internal/verify"
)

func TestDefaultCatalog(t *testing.T) {
	cat := Default()
	if len(cat.Challenges) != 6 {
		t.Fatalf("expected 6 challenges, got %d", len(cat.Challenges))
	}
	for i, ch := range cat.Challenges {
		if ch.ID != i+1 {
			t.Fatalf("expected id %d at position %d, got %d", i+1, i, ch.ID)
		}
		if verify.ModeOf(ch) != verify.ModeDigest {
			t.Fatalf("expected challenge %d to verify by digest", ch.ID)
		}
		if ch.Scare == nil {
			t.Fatalf("expected challenge %d to carry a scare config", ch.ID)
		}
	}
	if cat.DefaultScare == nil || !cat.DefaultScare.Enabled {
		t.Fatalf("expected enabled default scare")
	}
	if p := cat.DefaultScare.EffectiveProbability(); p != 0.25 {
		t.Fatalf("expected default probability 0.25, got %v", p)
	}
	if d := cat.DefaultScare.EffectiveDuration(); d != 1400*time.Millisecond {
		t.Fatalf("expected default duration 1400ms, got %v", d)
	}
	if !cat.Challenges[5].Scare.MazeGate {
		t.Fatalf("expected the last challenge to be maze gated")
	}
	if got := cat.Challenges[3].Scare.OverlayText; got != "You got lucky...this time." {
		t.Fatalf("unexpected overlay text %q", got)
	}
	if got := cat.Challenges[0].LinkLabel(); got != "Visit website" {
		t.Fatalf("unexpected link label %q", got)
	}
	if got := cat.Challenges[1].LinkLabel(); got != "Download LinkedRooms.zip" {
		t.Fatalf("unexpected link label %q", got)
	}
	if cat.Source != "built-in" {
		t.Fatalf("unexpected source %q", cat.Source)
	}
}

func TestParseYAMLWithPattern(t *testing.T) {
	data := []byte(`
challenges:
  - id: 10
    title: Riddle
    prompt: What walks at night?
    pattern: "^(ghost|ghoul)s?$"
    hint: plural is fine
  - id: 11
    title: Free
`)
	cat, err := Parse(data, FormatYAML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cat.Challenges) != 2 {
		t.Fatalf("expected 2 challenges, got %d", len(cat.Challenges))
	}
	riddle := cat.Challenges[0]
	if verify.ModeOf(riddle) != verify.ModePredicate {
		t.Fatalf("expected pattern to become a predicate")
	}
	ok, err := verify.Verify(context.Background(), riddle, "  ghouls ")
	if err != nil || !ok {
		t.Fatalf("expected trimmed answer to match, got %v %v", ok, err)
	}
	ok, _ = verify.Verify(context.Background(), riddle, "zombie")
	if ok {
		t.Fatalf("expected non-matching answer to fail")
	}
	if verify.ModeOf(cat.Challenges[1]) != verify.ModeAnyInput {
		t.Fatalf("expected challenge without descriptor to accept any input")
	}
	if cat.DefaultScare != nil {
		t.Fatalf("expected no default scare")
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"empty":      ``,
		"zero id":    "[[challenge]]\nid = 0\ntitle = \"x\"\n",
		"no title":   "[[challenge]]\nid = 1\n",
		"duplicate":  "[[challenge]]\nid = 1\ntitle = \"a\"\n[[challenge]]\nid = 1\ntitle = \"b\"\n",
		"bad hash":   "[[challenge]]\nid = 1\ntitle = \"a\"\nexpected_hash = \"ABC\"\n",
		"bad regexp": "[[challenge]]\nid = 1\ntitle = \"a\"\npattern = \"(\"\n",
		"both":       "[[challenge]]\nid = 1\ntitle = \"a\"\npattern = \"x\"\nexpected_hash = \"" + digest.Sum("x") + "\"\n",
		"bad prob":   "[[challenge]]\nid = 1\ntitle = \"a\"\n[challenge.scare]\nenabled = true\nprobability = 1.5\n",
		"bad toml":   "[[challenge]\n",
	}
	for name, data := range cases {
		if _, err := Parse([]byte(data), FormatTOML); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := Parse([]byte("challenges:\n  - id: 1\n    title: a\n    bogus: 1\n"), FormatYAML); err == nil {
		t.Fatalf("expected unknown yaml field to fail")
	}
}

func TestLoadByExtension(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "hunt.toml")
	if err := os.WriteFile(tomlPath, []byte("[[challenge]]\nid = 1\ntitle = \"a\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cat, err := Load(tomlPath)
	if err != nil {
		t.Fatalf("load toml: %v", err)
	}
	if cat.Source != tomlPath {
		t.Fatalf("unexpected source %q", cat.Source)
	}

	ymlPath := filepath.Join(dir, "hunt.yml")
	if err := os.WriteFile(ymlPath, []byte("challenges:\n  - id: 2\n    title: b\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(ymlPath); err != nil {
		t.Fatalf("load yaml: %v", err)
	}

	if _, err := Load(filepath.Join(dir, "hunt.json")); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
	_, err = Load(filepath.Join(dir, "missing.toml"))
	if err == nil || !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cat, err := LoadOrDefault("  ")
	if err != nil {
		t.Fatalf("load default: %v", err)
	}
	if len(cat.Challenges) != 6 {
		t.Fatalf("expected built-in catalog")
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hunt.toml")
	if err := os.WriteFile(path, []byte("[[challenge]]\nid = 1\ntitle = \"a\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	type result struct {
		cat *Catalog
		err error
	}
	results := make(chan result, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, nil, func(c *Catalog, err error) {
			results <- result{c, err}
		})
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	updated := "[[challenge]]\nid = 1\ntitle = \"a\"\n[[challenge]]\nid = 2\ntitle = \"b\"\n"
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case r := <-results:
		if r.err != nil {
			t.Fatalf("reload: %v", r.err)
		}
		if len(r.cat.Challenges) != 2 {
			t.Fatalf("expected 2 challenges after reload, got %d", len(r.cat.Challenges))
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for reload")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watch: %v", err)
	}
}

func TestFormatOf(t *testing.T) {
	for path, want := range map[string]Format{"a.toml": FormatTOML, "b.YAML": FormatYAML, "c.yml": FormatYAML} {
		got, err := FormatOf(path)
		if err != nil || got != want {
			t.Fatalf("%s: expected %s, got %s (%v)", path, want, got, err)
		}
	}
	if _, err := FormatOf("d.txt"); err == nil || !strings.Contains(err.Error(), ".txt") {
		t.Fatalf("expected extension error, got %v", err)
	}
}
