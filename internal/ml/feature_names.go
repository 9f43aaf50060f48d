package ml

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// nativeFeatureList reports whether the features artifact can be decoded without
// the Python worker.
func nativeFeatureList(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml", ".txt":
		return true
	}
	return false
}

// readFeatureNames decodes a JSON or YAML sequence of names, or a text file with
// one name per line.
func readFeatureNames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".txt") {
		var names []string
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" && !strings.HasPrefix(line, "#") {
				names = append(names, line)
			}
		}
		return names, scanner.Err()
	}

	// YAML is a superset of JSON, one decoder covers both.
	var names []string
	if err := yaml.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("decode feature list: %w", err)
	}
	return names, nil
}

func validateFeatureNames(names []string) error {
	if len(names) == 0 {
		return errors.New("feature list is empty")
	}
	seen := make(map[string]int, len(names))
	for i, name := range names {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("feature %d has an empty name", i)
		}
		if j, dup := seen[name]; dup {
			return fmt.Errorf("feature %q listed twice (positions %d and %d)", name, j, i)
		}
		seen[name] = i
	}
	return nil
}
