// Package content holds the static copy of the bot: menu sections,
// welcome text and the assistant's base prompt.
package content

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

type Section struct {
	Token  string `yaml:"token"`
	Button string `yaml:"button"`
	Text   string `yaml:"text"`
	Image  string `yaml:"image"`
}

type Calendar struct {
	File    string `yaml:"file"`
	Caption string `yaml:"caption"`
}

type Content struct {
	Welcome         string    `yaml:"welcome"`
	MainMenu        string    `yaml:"main_menu"`
	MainImage       string    `yaml:"main_image"`
	SectionsCaption string    `yaml:"sections_caption"`
	AskAI           string    `yaml:"ask_ai"`
	Calendar        Calendar  `yaml:"calendar"`
	Sections        []Section `yaml:"sections"`
	SystemPrompt    string    `yaml:"system_prompt"`

	mediaDir string
}

// Default returns the embedded content.
func Default() (*Content, error) {
	return parse(defaultYAML)
}

// Load reads content from path, or the embedded default when path is empty.
// Relative image and document paths resolve against mediaDir.
func Load(path, mediaDir string) (*Content, error) {
	data := defaultYAML
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read content: %w", err)
		}
		data = b
	}
	c, err := parse(data)
	if err != nil {
		return nil, err
	}
	c.mediaDir = mediaDir
	return c, nil
}

func parse(data []byte) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	seen := make(map[string]bool, len(c.Sections))
	for _, s := range c.Sections {
		if s.Token == "" || s.Text == "" {
			return nil, fmt.Errorf("section %q: token and text are required", s.Button)
		}
		if seen[s.Token] {
			return nil, fmt.Errorf("duplicate section token %q", s.Token)
		}
		seen[s.Token] = true
	}
	return &c, nil
}

// Section looks up a section by its button token.
func (c *Content) Section(token string) (Section, bool) {
	for _, s := range c.Sections {
		if s.Token == token {
			return s, true
		}
	}
	return Section{}, false
}

// MediaPath resolves a content-relative file path. Empty stays empty.
func (c *Content) MediaPath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.mediaDir == "" {
		return p
	}
	return filepath.Join(c.mediaDir, p)
}
