// Package prompts builds the language model prompts that turn a business
// question into a SQL query against the configured schema.
package prompts

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_context.yaml
var defaultContextYAML []byte

// SchemaContext describes the database the model writes SQL for.
type SchemaContext struct {
	Dialect    string            `yaml:"dialect"`
	Schema     string            `yaml:"schema"`
	Tables     []TableContext    `yaml:"tables"`
	Areas      []AreaContext     `yaml:"areas"`
	Joins      []string          `yaml:"joins"`
	Rules      []string          `yaml:"rules"`
	Vocabulary []VocabularyEntry `yaml:"vocabulary"`
}

// TableContext is one table the model may query.
type TableContext struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// AreaContext groups tables by business area (sales, inventory, ...).
type AreaContext struct {
	Name   string   `yaml:"name"`
	Tables []string `yaml:"tables"`
}

// VocabularyEntry maps a business term to a query hint.
type VocabularyEntry struct {
	Term string `yaml:"term"`
	Hint string `yaml:"hint"`
}

// DefaultSchemaContext returns the embedded SAP Business One context.
func DefaultSchemaContext() (*SchemaContext, error) {
	return ParseSchemaContext(defaultContextYAML)
}

// LoadSchemaContext reads a context file. An empty path returns the embedded default.
func LoadSchemaContext(path string) (*SchemaContext, error) {
	if path == "" {
		return DefaultSchemaContext()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema context: %w", err)
	}
	return ParseSchemaContext(data)
}

// ParseSchemaContext decodes and checks a YAML schema context.
func ParseSchemaContext(data []byte) (*SchemaContext, error) {
	var sc SchemaContext
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse schema context: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (sc *SchemaContext) validate() error {
	if len(sc.Tables) == 0 {
		return fmt.Errorf("schema context must list at least one table")
	}

	known := make(map[string]bool, len(sc.Tables))
	for i, t := range sc.Tables {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("schema context table %d has no name", i)
		}
		known[name] = true
	}

	for _, a := range sc.Areas {
		for _, t := range a.Tables {
			if !known[t] {
				return fmt.Errorf("area %q references unknown table %q", a.Name, t)
			}
		}
	}

	if sc.Dialect == "" {
		sc.Dialect = "SAP HANA"
	}
	return nil
}

// WithSchema returns a copy whose tables are qualified with the given schema.
// An empty schema leaves the context unchanged.
func (sc *SchemaContext) WithSchema(schema string) *SchemaContext {
	if schema == "" {
		return sc
	}
	cp := *sc
	cp.Schema = schema
	return &cp
}

// QualifiedName returns the quoted, schema-prefixed table name.
func (sc *SchemaContext) QualifiedName(table string) string {
	if sc.Schema == "" {
		return quoteIdentifier(table)
	}
	return quoteIdentifier(sc.Schema) + "." + quoteIdentifier(table)
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
