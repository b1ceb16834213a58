package regsearch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/apexfin/loanflow/internal/common"
	"github.com/apexfin/loanflow/internal/model"
)

// LoadCorpusFile reads one yaml clause file. The file holds a flat list of
// clauses; base clauses leave the scenario field empty.
func LoadCorpusFile(path string) ([]model.Clause, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus file: %w", err)
	}

	var clauses []model.Clause
	if err := yaml.Unmarshal(raw, &clauses); err != nil {
		return nil, fmt.Errorf("parsing corpus file %s: %w", path, err)
	}

	for i, clause := range clauses {
		if clause.ID == "" {
			return nil, fmt.Errorf("corpus file %s: clause %d has no id", path, i)
		}
		if strings.TrimSpace(clause.Content) == "" {
			return nil, fmt.Errorf("corpus file %s: clause %s has no content", path, clause.ID)
		}
	}
	return clauses, nil
}

// LoadCorpusDir reads every .yaml/.yml file in a directory and merges the
// clauses, rejecting duplicate ids across files.
func LoadCorpusDir(dir string) ([]model.Clause, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading corpus directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var all []model.Clause
	seen := make(map[string]string)
	for _, name := range names {
		clauses, err := LoadCorpusFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		for _, clause := range clauses {
			if prev, dup := seen[clause.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate clause id %s in %s (already in %s)",
					common.ErrDuplicateEntry, clause.ID, name, prev)
			}
			seen[clause.ID] = name
		}
		all = append(all, clauses...)
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("no clauses found in %s", dir)
	}
	return all, nil
}
