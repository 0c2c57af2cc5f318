package store

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"timetracker/internal/core"
)

// SeedFile is the TOML layout accepted by LoadSeed:
//
//	[[entries]]
//	title = "Write spec"
//	date = "2024-01-10"
//	duration = "1h30m"
//	category = "Documentation"
//	progress = 50
type SeedFile struct {
	Entries []SeedEntry `toml:"entries"`
}

type SeedEntry struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Date        string `toml:"date"`
	Duration    string `toml:"duration"`
	Category    string `toml:"category"`
	Progress    *int   `toml:"progress"`
	Completed   *bool  `toml:"completed"`
}

// LoadSeed decodes and validates a seed file. Every entry must pass the
// same validation as the create path.
func LoadSeed(path string) ([]core.EntryInput, error) {
	var f SeedFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return f.Inputs()
}

// Inputs converts the decoded entries into validated create inputs.
func (f SeedFile) Inputs() ([]core.EntryInput, error) {
	out := make([]core.EntryInput, 0, len(f.Entries))
	for i, e := range f.Entries {
		minutes := 0
		if e.Duration != "" {
			m, err := core.ParseDuration(e.Duration)
			if err != nil {
				return nil, fmt.Errorf("seed entry %d: %w", i+1, err)
			}
			minutes = m
		}
		in := core.EntryInput{
			Title:       e.Title,
			Description: e.Description,
			Date:        e.Date,
			Duration:    minutes,
			Category:    e.Category,
			Progress:    e.Progress,
			Completed:   e.Completed,
		}
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i+1, err)
		}
		out = append(out, in)
	}
	return out, nil
}
