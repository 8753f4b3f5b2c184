package analyzer

import (
	"fmt"
	"strings"

	"github.com/BerylCAtieno/legal-document-analyzer/internal/models"
)

const fallbackNote = "⚠️ AI analysis temporarily unavailable. This is a basic analysis based on document content patterns. Please review the document manually or consult legal counsel for important decisions."

// FallbackAnalysis builds a generic analysis from keyword sniffing alone. It is used
// when no model is configured or every model failed.
func FallbackAnalysis(text string) *models.AnalysisResult {
	documentType := sniffDocumentType(text)
	wordCount := len(strings.Fields(text))

	return &models.AnalysisResult{
		DocumentType: documentType,
		Summary: fmt.Sprintf("This %d-word document appears to be a %s. While AI analysis is temporarily unavailable, the document has been processed and contains standard legal language that should be reviewed carefully.",
			wordCount, strings.ToLower(documentType)),
		KeyPoints: []string{
			"This is a legal document that creates binding obligations",
			"The document contains terms and conditions that affect your rights",
			"Financial obligations or payments may be involved",
			"There may be penalties or consequences for non-compliance",
			"The document likely has specific termination or cancellation terms",
			"Your personal information and data may be collected and used",
		},
		RiskAssessment: models.RiskAssessment{
			Level: models.RiskMedium,
			Risks: []string{
				"Unable to perform detailed AI risk assessment - service temporarily unavailable",
				"Legal documents typically contain obligations and potential liabilities",
				"Financial commitments may be present",
				"Please review all terms carefully before signing",
			},
			RedFlags: []string{
				"AI analysis unavailable - manual review required",
				"Consult legal counsel for complex documents",
			},
		},
		KeyTerms: []models.KeyTerm{
			{Term: "Legal Document", Explanation: "A formal document with legal implications that may create binding obligations when signed"},
			{Term: "Terms and Conditions", Explanation: "Rules and requirements that you agree to follow by signing or using a service"},
			{Term: "Liability", Explanation: "Legal responsibility for damages, losses, or obligations"},
		},
		Recommendations: []string{
			"Read the entire document thoroughly before signing",
			"Ask questions about any terms you don't understand",
			"Consider consulting with a legal professional for complex documents",
			"Keep a copy of all signed documents for your records",
			"Review cancellation or termination procedures",
			"Understand your rights and obligations under the agreement",
		},
		ImportantClauses: []models.ImportantClause{
			{
				Clause:        "Payment Terms",
				Location:      "Various sections",
				Importance:    "Defines when and how much you need to pay",
				PlainLanguage: "This tells you exactly when you need to make payments and what happens if you're late",
			},
			{
				Clause:        "Termination Clause",
				Location:      "Usually near the end",
				Importance:    "Explains how the agreement can be ended",
				PlainLanguage: "This section tells you how to cancel or end the agreement if needed",
			},
		},
		Note: fallbackNote,
	}
}

// sniffDocumentType checks rental words first, then contract words, then terms words.
func sniffDocumentType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "rent"), strings.Contains(lower, "lease"):
		return "Rental/Lease Agreement"
	case strings.Contains(lower, "contract"), strings.Contains(lower, "agreement"):
		return "Contract/Agreement"
	case strings.Contains(lower, "terms"), strings.Contains(lower, "conditions"):
		return "Terms and Conditions"
	default:
		return "Legal Document"
	}
}
