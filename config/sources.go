package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// Sources configures the loader: which pages to scrape and how to window
// them. A sources.yaml next to the binary overrides the built-in list.
type Sources struct {
	URLs         []string `yaml:"urls"`
	ChunkSize    int      `yaml:"chunk_size"`
	ChunkOverlap int      `yaml:"chunk_overlap"`
	Workers      int      `yaml:"workers"`
}

func defaultSources() *Sources {
	return &Sources{
		URLs: []string{
			"https://en.wikipedia.org/wiki/Formula_One",
			"https://www.formula1.com/",
			"https://www.bbc.com/sport/formula1",
			"https://www.skysports.com/f1",
			"https://en.wikipedia.org/wiki/List_of_Formula_One_World_Drivers%27_Champions",
			"https://en.wikipedia.org/wiki/2025_Formula_One_World_Championship",
		},
		ChunkSize:    512,
		ChunkOverlap: 100,
		Workers:      4,
	}
}

// LoadSources reads the source list from path, falling back to the defaults
// when the file does not exist. Omitted fields keep their defaults.
func LoadSources(path string) (*Sources, error) {
	cfg := defaultSources()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	var file Sources
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	if len(file.URLs) > 0 {
		cfg.URLs = file.URLs
	}
	if file.ChunkSize > 0 {
		cfg.ChunkSize = file.ChunkSize
	}
	if file.ChunkOverlap > 0 {
		cfg.ChunkOverlap = file.ChunkOverlap
	}
	if file.Workers > 0 {
		cfg.Workers = file.Workers
	}
	return cfg, nil
}
