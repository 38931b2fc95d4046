package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk catalog format used by the fixture backend and the seed command.
type File struct {
	Categories []CategoryEntry `yaml:"categories"`
	Books      []BookEntry     `yaml:"books"`
}

type CategoryEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

type BookEntry struct {
	ISBN        string `yaml:"isbn"`
	Title       string `yaml:"title"`
	Author      string `yaml:"author"`
	Category    string `yaml:"category,omitempty"`
	Year        int    `yaml:"year,omitempty"`
	Copies      int    `yaml:"copies"`
	Description string `yaml:"description,omitempty"`
	CoverURL    string `yaml:"cover_url,omitempty"`
}

// LoadFile reads and parses a catalog file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog document. Books without copies default to one.
func Parse(data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	for i := range file.Books {
		if file.Books[i].Copies == 0 {
			file.Books[i].Copies = 1
		}
	}
	return &file, nil
}
