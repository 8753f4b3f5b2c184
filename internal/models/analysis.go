package models

import (
	"errors"
	"fmt"
	"strings"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

var (
	ErrMissingDocumentType = errors.New("analysis: documentType is required")
	ErrMissingSummary      = errors.New("analysis: summary is required")
	ErrEmptyKeyPoints      = errors.New("analysis: keyPoints must not be empty")
	ErrInvalidRiskLevel    = errors.New("analysis: invalid risk level")
)

// ParseRiskLevel accepts LOW, MEDIUM or HIGH in any case and with surrounding space.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch level := RiskLevel(strings.ToUpper(strings.TrimSpace(s))); level {
	case RiskLow, RiskMedium, RiskHigh:
		return level, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRiskLevel, s)
	}
}

type RiskAssessment struct {
	Level    RiskLevel `json:"level"`
	Risks    []string  `json:"risks"`
	RedFlags []string  `json:"redFlags"`
}

type KeyTerm struct {
	Term        string `json:"term"`
	Explanation string `json:"explanation"`
}

type ImportantClause struct {
	Clause        string `json:"clause"`
	Location      string `json:"location"`
	Importance    string `json:"importance"`
	PlainLanguage string `json:"plainLanguage"`
}

type AnalysisResult struct {
	DocumentType     string            `json:"documentType"`
	Summary          string            `json:"summary"`
	KeyPoints        []string          `json:"keyPoints"`
	RiskAssessment   RiskAssessment    `json:"riskAssessment"`
	KeyTerms         []KeyTerm         `json:"keyTerms"`
	Recommendations  []string          `json:"recommendations"`
	ImportantClauses []ImportantClause `json:"importantClauses"`
	RawAnalysis      string            `json:"rawAnalysis,omitempty"`
	Note             string            `json:"note,omitempty"`
}

// NewAnalysisResult validates a candidate result and returns a normalized copy.
// Lists are never nil in the returned value, so they encode as [] rather than null.
func NewAnalysisResult(a AnalysisResult) (*AnalysisResult, error) {
	if strings.TrimSpace(a.DocumentType) == "" {
		return nil, ErrMissingDocumentType
	}
	if strings.TrimSpace(a.Summary) == "" {
		return nil, ErrMissingSummary
	}
	if len(a.KeyPoints) == 0 {
		return nil, ErrEmptyKeyPoints
	}
	level, err := ParseRiskLevel(string(a.RiskAssessment.Level))
	if err != nil {
		return nil, err
	}

	out := a.Clone()
	out.RiskAssessment.Level = level
	return out, nil
}

// Clone returns a deep copy with nil lists replaced by empty ones.
func (a *AnalysisResult) Clone() *AnalysisResult {
	out := *a
	out.KeyPoints = cloneStrings(a.KeyPoints)
	out.Recommendations = cloneStrings(a.Recommendations)
	out.RiskAssessment.Risks = cloneStrings(a.RiskAssessment.Risks)
	out.RiskAssessment.RedFlags = cloneStrings(a.RiskAssessment.RedFlags)
	out.KeyTerms = append(make([]KeyTerm, 0, len(a.KeyTerms)), a.KeyTerms...)
	out.ImportantClauses = append(make([]ImportantClause, 0, len(a.ImportantClauses)), a.ImportantClauses...)
	return &out
}

func cloneStrings(in []string) []string {
	return append(make([]string, 0, len(in)), in...)
}
