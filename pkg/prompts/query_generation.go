package prompts

import (
	"fmt"
	"strings"

	"github.com/ekaya-inc/b1-query-assistant/pkg/models"
)

// ReadOnlyRefusal is the message the model returns for write requests.
const ReadOnlyRefusal = "Operation not allowed. This assistant only supports read-only SELECT queries."

// visualizationGuidance tells the model when each built-in chart type fits.
var visualizationGuidance = map[models.VisualizationType]string{
	models.VisualizationLineChart: "time periods (days, months, years), trends, growth or changes over time, historical data",
	models.VisualizationBarChart:  "comparisons between categories, rankings or top/bottom items, aggregations by category",
	models.VisualizationPieChart:  "proportions or percentages, distribution of a whole, market share",
	models.VisualizationTable:     "detailed or raw data, many dimensions, or no clear visualization preference",
}

// QueryPromptBuilder renders the system and user prompts for SQL generation.
type QueryPromptBuilder struct {
	schema         *SchemaContext
	visualizations []models.VisualizationType
	defaultViz     models.VisualizationType
}

// NewQueryPromptBuilder creates a builder for the given schema context and allowed visualizations.
func NewQueryPromptBuilder(schema *SchemaContext, visualizations []models.VisualizationType, defaultViz models.VisualizationType) *QueryPromptBuilder {
	if len(visualizations) == 0 {
		visualizations = models.DefaultVisualizationTypes
	}
	if defaultViz == "" {
		defaultViz = models.VisualizationTable
	}
	return &QueryPromptBuilder{
		schema:         schema,
		visualizations: visualizations,
		defaultViz:     defaultViz,
	}
}

// SystemMessage returns the instructions, schema description and response format.
func (b *QueryPromptBuilder) SystemMessage() string {
	var prompt strings.Builder
	sc := b.schema

	prompt.WriteString(fmt.Sprintf("You are a SAP Business One reporting assistant. You convert business questions into valid %s SQL queries.\n\n", sc.Dialect))

	prompt.WriteString("## Requirements\n\n")
	n := 1
	rule := func(format string, args ...any) {
		prompt.WriteString(fmt.Sprintf("%d. ", n))
		prompt.WriteString(fmt.Sprintf(format, args...))
		prompt.WriteString("\n")
		n++
	}
	rule("Use proper table names and their documented relationships.")
	if sc.Schema != "" {
		rule("Always prefix every table name with the schema %s.", quoteIdentifier(sc.Schema))
	}
	rule("Strictly enclose all identifiers (table names, column names) in double quotes to keep their case.")
	for _, r := range sc.Rules {
		rule("%s", r)
	}
	rule("Only write read-only SELECT queries. NEVER produce CREATE, DELETE, INSERT, UPDATE, DROP or ALTER statements or procedures.")
	rule(`If asked to create, delete, insert or otherwise modify data, respond with {"error": %q} and no other keys.`, ReadOnlyRefusal)
	prompt.WriteString("\n")

	prompt.WriteString("## Tables\n\n")
	for _, t := range sc.Tables {
		if t.Description != "" {
			prompt.WriteString(fmt.Sprintf("- %s: %s\n", sc.QualifiedName(t.Name), t.Description))
		} else {
			prompt.WriteString(fmt.Sprintf("- %s\n", sc.QualifiedName(t.Name)))
		}
	}
	prompt.WriteString("\n")

	if len(sc.Areas) > 0 {
		prompt.WriteString("## Business Areas\n\n")
		for _, a := range sc.Areas {
			prompt.WriteString(fmt.Sprintf("- %s: %s\n", a.Name, strings.Join(a.Tables, ", ")))
		}
		prompt.WriteString("\n")
	}

	if len(sc.Joins) > 0 {
		prompt.WriteString("## Join Conditions\n\n")
		for _, j := range sc.Joins {
			prompt.WriteString("- " + j + "\n")
		}
		prompt.WriteString("\n")
	}

	if len(sc.Vocabulary) > 0 {
		prompt.WriteString("## Business Vocabulary\n\n")
		for _, v := range sc.Vocabulary {
			prompt.WriteString(fmt.Sprintf("- %s: %s\n", v.Term, v.Hint))
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString("## Visualization\n\n")
	prompt.WriteString("Choose the visualization that best fits the question:\n")
	for _, v := range b.visualizations {
		if guide, ok := visualizationGuidance[v]; ok {
			prompt.WriteString(fmt.Sprintf("- %s: %s\n", v, guide))
		} else {
			prompt.WriteString(fmt.Sprintf("- %s\n", v))
		}
	}
	prompt.WriteString(fmt.Sprintf("When unsure use %s.\n\n", b.defaultViz))

	prompt.WriteString("## Summary\n\n")
	prompt.WriteString("Describe what the query will show in at most 2 clear, non-technical sentences focused on business insight.\n\n")

	prompt.WriteString("## Response Format\n\n")
	prompt.WriteString("Respond with a single JSON object and nothing else:\n")
	prompt.WriteString("```json\n")
	prompt.WriteString("{\n")
	prompt.WriteString(`  "sqlQuery": "SELECT ...",` + "\n")
	prompt.WriteString(fmt.Sprintf(`  "visualizationType": "one of: %s",`+"\n", b.joinVisualizations()))
	prompt.WriteString(`  "summary": "..."` + "\n")
	prompt.WriteString("}\n")
	prompt.WriteString("```\n")

	return prompt.String()
}

// UserPrompt wraps the business question.
func (b *QueryPromptBuilder) UserPrompt(question string) string {
	return fmt.Sprintf("Convert the following business question into a SQL query.\n\nQuestion: %s", strings.TrimSpace(question))
}

func (b *QueryPromptBuilder) joinVisualizations() string {
	names := make([]string, len(b.visualizations))
	for i, v := range b.visualizations {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}
