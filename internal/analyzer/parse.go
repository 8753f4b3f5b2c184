package analyzer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/models"
)

var ErrNoJSON = errors.New("no JSON object found in model reply")

const responseSchemaJSON = `{
  "type": "object",
  "required": ["documentType", "summary", "keyPoints"],
  "properties": {
    "documentType": {"type": "string", "pattern": "\\S"},
    "summary": {"type": "string", "pattern": "\\S"},
    "keyPoints": {"type": "array", "minItems": 1}
  }
}`

var responseSchema = mustCompileSchema(responseSchemaJSON)

func mustCompileSchema(schema string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("analysis.json", strings.NewReader(schema)); err != nil {
		panic(fmt.Sprintf("add schema: %v", err))
	}
	compiled, err := compiler.Compile("analysis.json")
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return compiled
}

// rawAnalysis mirrors the reply shape. Optional sections stay raw so a malformed
// section is dropped instead of failing the whole reply.
type rawAnalysis struct {
	DocumentType     string          `json:"documentType"`
	Summary          string          `json:"summary"`
	KeyPoints        json.RawMessage `json:"keyPoints"`
	RiskAssessment   json.RawMessage `json:"riskAssessment"`
	KeyTerms         json.RawMessage `json:"keyTerms"`
	Recommendations  json.RawMessage `json:"recommendations"`
	ImportantClauses json.RawMessage `json:"importantClauses"`
}

type rawRiskAssessment struct {
	Level    string          `json:"level"`
	Risks    json.RawMessage `json:"risks"`
	RedFlags json.RawMessage `json:"redFlags"`
}

// ParseResponse extracts the first usable JSON object from a model reply and turns it
// into an AnalysisResult. Unknown or invalid risk levels become MEDIUM.
func ParseResponse(reply string) (*models.AnalysisResult, error) {
	candidate, err := extractJSON(reply)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if err := responseSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("reply does not match analysis shape: %w", err)
	}

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}

	result := models.AnalysisResult{
		DocumentType:    raw.DocumentType,
		Summary:         raw.Summary,
		KeyPoints:       stringList(raw.KeyPoints),
		Recommendations: stringList(raw.Recommendations),
		RiskAssessment:  models.RiskAssessment{Level: models.RiskMedium},
	}

	var risk rawRiskAssessment
	if json.Unmarshal(raw.RiskAssessment, &risk) == nil {
		if level, err := models.ParseRiskLevel(risk.Level); err == nil {
			result.RiskAssessment.Level = level
		}
		result.RiskAssessment.Risks = stringList(risk.Risks)
		result.RiskAssessment.RedFlags = stringList(risk.RedFlags)
	}

	var terms []models.KeyTerm
	if json.Unmarshal(raw.KeyTerms, &terms) == nil {
		result.KeyTerms = terms
	}

	var clauses []models.ImportantClause
	if json.Unmarshal(raw.ImportantClauses, &clauses) == nil {
		result.ImportantClauses = clauses
	}

	return models.NewAnalysisResult(result)
}

// stringList accepts an array of strings, a single string, or an array of arbitrary
// values; non-string items keep their compact JSON text.
func stringList(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var single string
	if json.Unmarshal(raw, &single) == nil {
		if strings.TrimSpace(single) == "" {
			return nil
		}
		return []string{single}
	}

	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
			continue
		}
		var compact bytes.Buffer
		if json.Compact(&compact, item) == nil && compact.String() != "null" {
			out = append(out, compact.String())
		}
	}
	return out
}

// extractJSON strips markdown code fences and returns the first balanced {...} span
// that is valid JSON, falling back to the span from the first '{' to the last '}'.
func extractJSON(content string) (string, error) {
	content = stripCodeFence(content)

	start := strings.IndexByte(content, '{')
	if start < 0 {
		return "", ErrNoJSON
	}

	if end := balancedEnd(content, start); end > 0 {
		if candidate := content[start:end]; json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	if end := strings.LastIndexByte(content, '}'); end > start {
		if candidate := content[start : end+1]; json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	return "", ErrNoJSON
}

func stripCodeFence(content string) string {
	open := strings.Index(content, "```")
	if open < 0 {
		return content
	}

	body := content[open+3:]
	newline := strings.IndexByte(body, '\n')
	if newline < 0 {
		return content
	}
	body = body[newline+1:]

	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	if !strings.Contains(body, "{") {
		return content
	}
	return body
}

// balancedEnd returns the index just past the brace closing the one at start, or -1.
// Braces inside JSON strings are ignored.
func balancedEnd(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

const (
	bestEffortSummary    = "AI analysis completed successfully. The document has been processed and contains important legal information that requires careful review."
	maxSynthesizedPoints = 6
	minPointLength       = 20
)

// bestEffortAnalysis wraps a reply that could not be parsed into a valid analysis,
// keeping the reply itself in RawAnalysis.
func bestEffortAnalysis(reply string) *models.AnalysisResult {
	points := keyPointsFromText(reply)
	if len(points) == 0 {
		points = []string{truncate(strings.TrimSpace(reply), 500) + "..."}
	}

	result := &models.AnalysisResult{
		DocumentType: "Legal Document",
		Summary:      bestEffortSummary,
		KeyPoints:    points,
		RiskAssessment: models.RiskAssessment{
			Level:    models.RiskMedium,
			Risks:    []string{"Document contains legal obligations that should be reviewed"},
			RedFlags: []string{},
		},
		KeyTerms: []models.KeyTerm{},
		Recommendations: []string{
			"Review all terms carefully before signing",
			"Consult with a legal professional if needed",
			"Ask questions about unclear provisions",
		},
		ImportantClauses: []models.ImportantClause{},
		RawAnalysis:      reply,
	}
	return result
}

func keyPointsFromText(text string) []string {
	var points []string
	for _, fragment := range sentenceSplit.Split(text, -1) {
		fragment = strings.TrimSpace(fragment)
		if len([]rune(fragment)) <= minPointLength {
			continue
		}
		points = append(points, fragment)
		if len(points) == maxSynthesizedPoints {
			break
		}
	}
	return points
}
