package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/ekaya-inc/b1-query-assistant/pkg/apperrors"
	"github.com/ekaya-inc/b1-query-assistant/pkg/llm"
	"github.com/ekaya-inc/b1-query-assistant/pkg/models"
)

// ResponseValidator turns raw model output into a GeneratedQuery.
type ResponseValidator interface {
	// Validate extracts and checks the JSON object in raw. It fails with
	// apperrors.ErrMalformedModelOutput when no usable sqlQuery is present.
	Validate(raw string) (*models.GeneratedQuery, error)
}

// generatedQuerySchema constrains the types of the known fields.
// Unknown fields are allowed and ignored.
const generatedQuerySchema = `{
  "type": "object",
  "properties": {
    "sqlQuery":          {"type": ["string", "null"]},
    "visualizationType": {"type": ["string", "null"]},
    "summary":           {"type": ["string", "null"]},
    "error":             {"type": ["string", "null"]}
  }
}`

var responseSchema = mustCompileSchema(generatedQuerySchema)

func mustCompileSchema(schema string) *gojsonschema.Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid response schema: %v", err))
	}
	return compiled
}

// generatedQueryPayload is the shape the model is asked to return.
// Pointers distinguish absent fields from empty ones.
type generatedQueryPayload struct {
	SQLQuery          *string `json:"sqlQuery"`
	VisualizationType *string `json:"visualizationType"`
	Summary           *string `json:"summary"`
	Error             *string `json:"error"`
}

type responseValidator struct {
	allowed    map[models.VisualizationType]bool
	defaultViz models.VisualizationType
}

// NewResponseValidator creates a validator for the allowed visualization set.
// Unknown or missing visualization types fall back to defaultViz.
func NewResponseValidator(allowed []models.VisualizationType, defaultViz models.VisualizationType) ResponseValidator {
	if len(allowed) == 0 {
		allowed = models.DefaultVisualizationTypes
	}
	if defaultViz == "" {
		defaultViz = models.VisualizationTable
	}
	set := make(map[models.VisualizationType]bool, len(allowed))
	for _, v := range allowed {
		set[v] = true
	}
	return &responseValidator{allowed: set, defaultViz: defaultViz}
}

func (v *responseValidator) Validate(raw string) (*models.GeneratedQuery, error) {
	jsonText, err := llm.ExtractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedModelOutput, err)
	}

	if err := checkSchema(jsonText); err != nil {
		return nil, err
	}

	var payload generatedQueryPayload
	if err := json.Unmarshal([]byte(jsonText), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrMalformedModelOutput, err)
	}

	sqlQuery := ""
	if payload.SQLQuery != nil {
		sqlQuery = cleanSQL(*payload.SQLQuery)
	}
	if sqlQuery == "" {
		if payload.Error != nil && strings.TrimSpace(*payload.Error) != "" {
			return nil, fmt.Errorf("%w: model declined the request: %s",
				apperrors.ErrMalformedModelOutput, strings.TrimSpace(*payload.Error))
		}
		return nil, fmt.Errorf("%w: sqlQuery is missing or empty", apperrors.ErrMalformedModelOutput)
	}

	viz := v.defaultViz
	if payload.VisualizationType != nil {
		candidate := models.VisualizationType(strings.ToLower(strings.TrimSpace(*payload.VisualizationType)))
		if v.allowed[candidate] {
			viz = candidate
		}
	}

	summary := ""
	if payload.Summary != nil {
		summary = strings.TrimSpace(*payload.Summary)
	}

	return models.NewGeneratedQuery(sqlQuery, viz, summary), nil
}

// checkSchema rejects known fields that carry the wrong JSON type.
func checkSchema(jsonText string) error {
	result, err := responseSchema.Validate(gojsonschema.NewStringLoader(jsonText))
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrMalformedModelOutput, err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		problems[i] = desc.String()
	}
	return fmt.Errorf("%w: %s", apperrors.ErrMalformedModelOutput, strings.Join(problems, "; "))
}

// cleanSQL trims whitespace, a stray ```sql fence and trailing semicolons.
// The statement itself is not inspected.
func cleanSQL(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], " \t") {
			s = s[nl+1:] // drop the language tag line
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	s = strings.TrimSpace(s)
	for strings.HasSuffix(s, ";") {
		s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	}
	return s
}
