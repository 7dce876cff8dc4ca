// Package menu loads the back-office navigation menu.
package menu

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed menu.yaml
var defaultMenu []byte

// Item is one menu entry. Groups have children and no path.
type Item struct {
	Title    string `yaml:"title"`
	Key      string `yaml:"key"`
	Path     string `yaml:"path,omitempty"`
	Children []Item `yaml:"children,omitempty"`
}

// Menu is the ordered top level of the navigation.
type Menu []Item

// Default returns the embedded menu.
func Default() Menu {
	m, err := Parse(strings.NewReader(string(defaultMenu)))
	if err != nil {
		panic(fmt.Sprintf("menu: embedded menu: %v", err))
	}
	return m
}

// Load reads a menu file, or returns the embedded menu when path is empty.
func Load(path string) (Menu, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("menu: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a YAML menu and checks that every leaf has a path and
// every key is unique.
func Parse(r io.Reader) (Menu, error) {
	var m Menu
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("menu: %w", err)
	}
	seen := map[string]bool{}
	if err := validate(m, seen); err != nil {
		return nil, err
	}
	return m, nil
}

func validate(items []Item, seen map[string]bool) error {
	for _, it := range items {
		if it.Key == "" || it.Title == "" {
			return fmt.Errorf("menu: item %q: key and title are required", it.Title)
		}
		if seen[it.Key] {
			return fmt.Errorf("menu: duplicate key %q", it.Key)
		}
		seen[it.Key] = true
		if len(it.Children) == 0 && it.Path == "" {
			return fmt.Errorf("menu: item %q has neither path nor children", it.Key)
		}
		if err := validate(it.Children, seen); err != nil {
			return err
		}
	}
	return nil
}

// Active returns the keys from the top level down to the item whose path
// is the longest prefix of urlPath, or nil.
func (m Menu) Active(urlPath string) []string {
	var best []string
	bestLen := -1
	var walk func(items []Item, trail []string)
	walk = func(items []Item, trail []string) {
		for _, it := range items {
			t := append(append([]string(nil), trail...), it.Key)
			if it.Path != "" && matches(urlPath, it.Path) && len(it.Path) > bestLen {
				best, bestLen = t, len(it.Path)
			}
			walk(it.Children, t)
		}
	}
	walk(m, nil)
	return best
}

func matches(urlPath, itemPath string) bool {
	return urlPath == itemPath || strings.HasPrefix(urlPath, strings.TrimSuffix(itemPath, "/")+"/")
}
