package eligibility

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var defaultAliasesYAML []byte

// AliasTable maps free-text branch spellings onto canonical branch ids.
// It is immutable after construction and safe for concurrent use.
type AliasTable struct {
	canonical map[string]string
}

type aliasFile struct {
	Branches map[string][]string `yaml:"branches"`
}

// NewAliasTable builds a table from canonical id -> spellings.
func NewAliasTable(branches map[string][]string) (*AliasTable, error) {
	table := &AliasTable{canonical: make(map[string]string)}
	ids := make([]string, 0, len(branches))
	for id := range branches {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		spellings := append([]string{id}, branches[id]...)
		for _, spelling := range spellings {
			key := normalize(spelling)
			if key == "" {
				continue
			}
			if existing, ok := table.canonical[key]; ok && existing != id {
				return nil, fmt.Errorf("branch spelling %q maps to both %s and %s", spelling, existing, id)
			}
			table.canonical[key] = id
		}
	}
	return table, nil
}

// LoadAliasTable parses a YAML alias document.
func LoadAliasTable(r io.Reader) (*AliasTable, error) {
	var doc aliasFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode branch aliases: %w", err)
	}
	return NewAliasTable(doc.Branches)
}

// LoadAliasFile reads a YAML alias table from path, or the embedded default
// table when path is empty.
func LoadAliasFile(path string) (*AliasTable, error) {
	if path == "" {
		return DefaultAliasTable()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open branch aliases: %w", err)
	}
	defer f.Close() //nolint:errcheck
	return LoadAliasTable(f)
}

// DefaultAliasTable returns the table shipped with the service.
func DefaultAliasTable() (*AliasTable, error) {
	var doc aliasFile
	if err := yaml.Unmarshal(defaultAliasesYAML, &doc); err != nil {
		return nil, fmt.Errorf("decode embedded branch aliases: %w", err)
	}
	return NewAliasTable(doc.Branches)
}

// Canonical returns the canonical id for a spelling.
func (t *AliasTable) Canonical(spelling string) (string, bool) {
	if t == nil {
		return "", false
	}
	id, ok := t.canonical[normalize(spelling)]
	return id, ok
}

// Len returns the number of known spellings.
func (t *AliasTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.canonical)
}
