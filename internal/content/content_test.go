package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultContentIsValid(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if c.Welcome == "" || c.SystemPrompt == "" || len(c.Sections) == 0 {
		t.Fatalf("default content incomplete: %+v", c)
	}
	if _, ok := c.Section("sec_contacts"); !ok {
		t.Fatalf("contacts section missing")
	}
	if _, ok := c.Section("nope"); ok {
		t.Fatalf("unexpected section")
	}
}

func TestLoadFromFileAndMediaPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "content.yaml")
	yml := "welcome: hi\nsections:\n  - token: sec_a\n    button: A\n    text: about\n    image: a.jpg\n"
	if err := os.WriteFile(p, []byte(yml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(p, "/srv/media")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s, ok := c.Section("sec_a")
	if !ok || s.Text != "about" {
		t.Fatalf("section not parsed: %+v", c.Sections)
	}
	if got := c.MediaPath(s.Image); got != filepath.Join("/srv/media", "a.jpg") {
		t.Fatalf("media path: %q", got)
	}
	if c.MediaPath("") != "" {
		t.Fatalf("empty path must stay empty")
	}
}

func TestLoadRejectsDuplicateTokens(t *testing.T) {
	p := filepath.Join(t.TempDir(), "c.yaml")
	yml := "sections:\n  - {token: x, text: a}\n  - {token: x, text: b}\n"
	if err := os.WriteFile(p, []byte(yml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(p, "")
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("want duplicate error, got %v", err)
	}
}
