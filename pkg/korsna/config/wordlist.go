package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lists/*.yaml
var lists embed.FS

// WordList is the on-disk form of a stopword or remove list.
type WordList struct {
	Terms []string `yaml:"terms"`
}

// LoadWordList reads a word list. YAML files use a top-level terms list;
// any other file is read as whitespace separated words, with '#' comments.
func LoadWordList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAMLList(data)
	}
	return parsePlainList(data), nil
}

func parseYAMLList(data []byte) ([]string, error) {
	var wl WordList
	if err := yaml.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("parse word list: %w", err)
	}
	out := make([]string, 0, len(wl.Terms))
	for _, t := range wl.Terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

func parsePlainList(data []byte) []string {
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		out = append(out, strings.Fields(line)...)
	}
	return out
}

func mustEmbedded(name string) []string {
	data, err := lists.ReadFile("lists/" + name)
	if err != nil {
		panic(err)
	}
	words, err := parseYAMLList(data)
	if err != nil {
		panic(err)
	}
	return words
}

// DefaultStopwords returns the built-in stopword list.
func DefaultStopwords() []string {
	return mustEmbedded("stopwords-ko.yaml")
}

// DefaultRemoveList returns the built-in list of words dropped from the
// ranked vocabulary.
func DefaultRemoveList() []string {
	return mustEmbedded("remove-list-ko.yaml")
}
