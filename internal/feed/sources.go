package feed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source is one configured feed: a display name and its RSS URL.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// LoadSources reads the feed list from a YAML file.
func LoadSources(path string) ([]Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer f.Close()

	var cfg sourcesFile
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode sources file: %w", err)
	}
	if len(cfg.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s lists no feeds", path)
	}
	for i, s := range cfg.Sources {
		if s.Name == "" || s.URL == "" {
			return nil, fmt.Errorf("source #%d is missing a name or url", i+1)
		}
	}
	return cfg.Sources, nil
}
