package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// LoadFile читает и парсит описание pipeline'а из JSON-файла.
// Валидация — на стороне вызывающего (Launcher.Register).
func LoadFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var spec Spec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &spec, nil
}

// LoadDir читает все описания pipeline'ов из каталога (*.json).
func LoadDir(dir string) ([]*Spec, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", dir, err)
	}

	specs := make([]*Spec, 0, len(paths))
	for _, path := range paths {
		spec, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	return specs, nil
}
