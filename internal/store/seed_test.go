package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.toml")
	content := `
[[entries]]
title = "Write spec"
date = "2024-01-10"
duration = "1h30m"
category = "Documentation"

[[entries]]
title = "Standup"
date = "2024-01-11"
duration = "15"
progress = 100
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	inputs, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	if len(inputs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(inputs))
	}
	if inputs[0].Duration != 90 || inputs[0].Category != "Documentation" {
		t.Errorf("unexpected first entry: %+v", inputs[0])
	}
	if inputs[1].Progress == nil || *inputs[1].Progress != 100 {
		t.Errorf("progress not decoded: %+v", inputs[1])
	}
}

func TestLoadSeedRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"bad duration": "[[entries]]\ntitle = \"ok\"\ndate = \"2024-01-10\"\nduration = \"soon\"\n",
		"bad date":     "[[entries]]\ntitle = \"ok\"\ndate = \"yesterday\"\n",
		"bad toml":     "[[entries]\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "seed.toml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadSeed(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadSeedMissingFile(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil || !strings.Contains(err.Error(), "decode seed file") {
		t.Fatalf("unexpected error: %v", err)
	}
}
