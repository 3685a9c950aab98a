package models

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query        string `json:"query"`
	ExecuteQuery bool   `json:"execute_query"` // false when absent
}

// VisualizationType is the chart kind suggested for displaying results.
type VisualizationType string

const (
	VisualizationTable     VisualizationType = "table"
	VisualizationBarChart  VisualizationType = "bar_chart"
	VisualizationLineChart VisualizationType = "line_chart"
	VisualizationPieChart  VisualizationType = "pie_chart"
)

// DefaultVisualizationTypes is the allowed set used when none is configured.
var DefaultVisualizationTypes = []VisualizationType{
	VisualizationTable,
	VisualizationBarChart,
	VisualizationLineChart,
	VisualizationPieChart,
}

// GeneratedQuery is the validated output of the language model.
// Fields are unexported so a value cannot change after validation.
type GeneratedQuery struct {
	sqlQuery          string
	visualizationType VisualizationType
	summary           string
}

// NewGeneratedQuery builds a GeneratedQuery. Callers are expected to have validated the fields.
func NewGeneratedQuery(sqlQuery string, viz VisualizationType, summary string) *GeneratedQuery {
	return &GeneratedQuery{sqlQuery: sqlQuery, visualizationType: viz, summary: summary}
}

func (g *GeneratedQuery) SQLQuery() string                     { return g.sqlQuery }
func (g *GeneratedQuery) VisualizationType() VisualizationType { return g.visualizationType }
func (g *GeneratedQuery) Summary() string                      { return g.summary }

// ResultBundle is the response of the query assistant.
//
// When execution was not requested both Results and Error are nil.
// When it was requested exactly one of them is non-nil; Results may be empty.
type ResultBundle struct {
	SQLQuery          string            `json:"sqlQuery"`
	VisualizationType VisualizationType `json:"visualizationType"`
	Summary           string            `json:"summary"`
	Results           []Row             `json:"results"`
	Error             *string           `json:"error"`
}

// NewResultBundle starts a bundle from a generated query with no execution outcome.
func NewResultBundle(q *GeneratedQuery) *ResultBundle {
	return &ResultBundle{
		SQLQuery:          q.SQLQuery(),
		VisualizationType: q.VisualizationType(),
		Summary:           q.Summary(),
	}
}

// SetResults records a successful execution. A nil slice becomes an empty one.
func (b *ResultBundle) SetResults(rows []Row) {
	if rows == nil {
		rows = []Row{}
	}
	b.Results = rows
	b.Error = nil
}

// SetError records a failed execution.
func (b *ResultBundle) SetError(msg string) {
	b.Results = nil
	b.Error = &msg
}

// Executed reports whether the bundle carries an execution outcome.
func (b *ResultBundle) Executed() bool {
	return b.Results != nil || b.Error != nil
}
