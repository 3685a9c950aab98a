package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/b1-query-assistant/pkg/models"
)

func TestDefaultSchemaContext(t *testing.T) {
	sc, err := DefaultSchemaContext()
	require.NoError(t, err)

	assert.Equal(t, "SAP HANA", sc.Dialect)
	assert.Empty(t, sc.Schema, "schema is supplied by configuration")

	names := make([]string, 0, len(sc.Tables))
	for _, tbl := range sc.Tables {
		names = append(names, tbl.Name)
	}
	for _, want := range []string{"OINV", "INV1", "ORIN", "RIN1", "OITM", "OCRD", "OJDT", "JDT1", "OPOR", "POR1"} {
		assert.Contains(t, names, want)
	}
	assert.NotEmpty(t, sc.Areas)
	assert.NotEmpty(t, sc.Joins)
	assert.NotEmpty(t, sc.Vocabulary)
}

func TestLoadSchemaContext_EmptyPathUsesDefault(t *testing.T) {
	sc, err := LoadSchemaContext("")
	require.NoError(t, err)
	assert.NotEmpty(t, sc.Tables)
}

func TestLoadSchemaContext_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctx.yaml")
	content := `
tables:
  - name: orders
    description: Customer orders
areas:
  - name: sales
    tables: [orders]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	sc, err := LoadSchemaContext(path)
	require.NoError(t, err)
	assert.Equal(t, "SAP HANA", sc.Dialect, "dialect defaults when omitted")
	require.Len(t, sc.Tables, 1)
	assert.Equal(t, "orders", sc.Tables[0].Name)
}

func TestLoadSchemaContext_MissingFile(t *testing.T) {
	_, err := LoadSchemaContext(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseSchemaContext_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{name: "not yaml", yaml: "tables: [", wantErr: "parse schema context"},
		{name: "no tables", yaml: "dialect: PostgreSQL\n", wantErr: "at least one table"},
		{name: "blank table name", yaml: "tables:\n  - description: x\n", wantErr: "has no name"},
		{name: "unknown area table", yaml: "tables:\n  - name: a\nareas:\n  - name: s\n    tables: [b]\n", wantErr: "unknown table"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSchemaContext([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSchemaContext_QualifiedName(t *testing.T) {
	sc := &SchemaContext{}
	assert.Equal(t, `"OINV"`, sc.QualifiedName("OINV"))

	withSchema := sc.WithSchema("SBODEMOUS")
	assert.Equal(t, `"SBODEMOUS"."OINV"`, withSchema.QualifiedName("OINV"))
	assert.Empty(t, sc.Schema, "WithSchema must not modify the receiver")

	assert.Same(t, sc, sc.WithSchema(""))
}

func TestQueryPromptBuilder_SystemMessage(t *testing.T) {
	sc, err := DefaultSchemaContext()
	require.NoError(t, err)

	b := NewQueryPromptBuilder(sc.WithSchema("SBODEMOUS"), models.DefaultVisualizationTypes, models.VisualizationTable)
	msg := b.SystemMessage()

	assert.Contains(t, msg, "SAP HANA")
	assert.Contains(t, msg, `"SBODEMOUS"."OINV": Sales Invoices`)
	assert.Contains(t, msg, `"SBODEMOUS"."JDT1"`)
	assert.Contains(t, msg, `"Closed"`)
	assert.Contains(t, msg, ReadOnlyRefusal)
	assert.Contains(t, msg, `"sqlQuery"`)
	assert.Contains(t, msg, `"visualizationType"`)
	assert.Contains(t, msg, `"summary"`)
	for _, v := range models.DefaultVisualizationTypes {
		assert.Contains(t, msg, string(v))
	}
	assert.Contains(t, msg, "When unsure use table.")
}

func TestQueryPromptBuilder_CustomVisualizations(t *testing.T) {
	sc := &SchemaContext{Dialect: "PostgreSQL", Tables: []TableContext{{Name: "orders"}}}
	b := NewQueryPromptBuilder(sc, []models.VisualizationType{"table", "scatter_plot"}, "table")

	msg := b.SystemMessage()
	assert.Contains(t, msg, "valid PostgreSQL SQL")
	assert.Contains(t, msg, "- scatter_plot\n")
	assert.Contains(t, msg, "one of: table, scatter_plot")
	assert.NotContains(t, msg, "pie_chart")
	assert.NotContains(t, msg, "Always prefix every table name", "no schema configured")
	assert.Contains(t, msg, "- \"orders\"\n")
}

func TestQueryPromptBuilder_Defaults(t *testing.T) {
	sc := &SchemaContext{Dialect: "SAP HANA", Tables: []TableContext{{Name: "OINV"}}}
	b := NewQueryPromptBuilder(sc, nil, "")

	msg := b.SystemMessage()
	assert.Contains(t, msg, "line_chart")
	assert.Contains(t, msg, "When unsure use table.")
}

func TestQueryPromptBuilder_UserPrompt(t *testing.T) {
	b := NewQueryPromptBuilder(&SchemaContext{Tables: []TableContext{{Name: "x"}}}, nil, "")
	p := b.UserPrompt("  Show me the top 5 selling products in the last 3 months  ")

	assert.True(t, strings.HasSuffix(p, "Question: Show me the top 5 selling products in the last 3 months"))
}
