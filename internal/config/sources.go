package config

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Source describes one monitored notice board.
type Source struct {
	// Slug is the short token used as the patch-id prefix; it must stay
	// stable across deployments or every stored report would look new.
	Slug string `yaml:"slug"`
	// Name is the display name stored in the reports table.
	Name       string `yaml:"name"`
	ListingURL string `yaml:"listingUrl"`
	// BaseURL absolutizes hrefs starting with "/".
	BaseURL string `yaml:"baseUrl"`
	// PathPrefix absolutizes relative hrefs.
	PathPrefix string `yaml:"pathPrefix"`
	Language   string `yaml:"language"`
}

type sourcesFile struct {
	Sources []Source `yaml:"sources"`
}

// DefaultSources returns the two built-in Black Desert notice boards.
func DefaultSources() []Source {
	return []Source{
		{
			Slug:       "korean",
			Name:       "Korean Notice",
			ListingURL: "https://www.kr.playblackdesert.com/ko-KR/News/Notice?boardType=2",
			BaseURL:    "https://www.kr.playblackdesert.com",
			PathPrefix: "https://www.kr.playblackdesert.com/ko-KR/News/",
			Language:   "korean",
		},
		{
			Slug:       "globallab",
			Name:       "Global Labs",
			ListingURL: "https://blackdesert.pearlabyss.com/GlobalLab/en-US/News/Notice?_categoryNo=2",
			BaseURL:    "https://blackdesert.pearlabyss.com",
			PathPrefix: "https://blackdesert.pearlabyss.com/GlobalLab/",
			Language:   "english",
		},
	}
}

// LoadSources reads the board definitions from a YAML file, falling
// back to the built-in defaults when the file does not exist.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Debug().Str("path", path).Msg("No sources file, using built-in boards")
		return DefaultSources(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sources file: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sources file: %w", err)
	}
	if len(file.Sources) == 0 {
		return nil, fmt.Errorf("sources file %s defines no sources", path)
	}

	for i, src := range file.Sources {
		if src.Slug == "" || src.Name == "" || src.ListingURL == "" {
			return nil, fmt.Errorf("source %d is missing slug, name or listingUrl", i)
		}
	}

	log.Info().Int("sources", len(file.Sources)).Str("path", path).Msg("Loaded sources file")
	return file.Sources, nil
}
