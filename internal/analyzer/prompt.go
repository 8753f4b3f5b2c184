package analyzer

import (
	"fmt"
)

var promptLanguages = map[string]string{
	"es": "Spanish", "fr": "French", "de": "German", "it": "Italian",
	"pt": "Portuguese", "ru": "Russian", "ja": "Japanese", "ko": "Korean",
	"zh": "Chinese", "ar": "Arabic", "hi": "Hindi", "th": "Thai",
	"vi": "Vietnamese", "nl": "Dutch", "sv": "Swedish", "da": "Danish",
	"no": "Norwegian", "fi": "Finnish", "pl": "Polish", "tr": "Turkish",
}

// LanguageName returns the English name used in the prompt. Codes outside the table
// read as English.
func LanguageName(code string) string {
	if name, ok := promptLanguages[code]; ok {
		return name
	}
	return "English"
}

const promptTemplate = `You are a legal expert specializing in simplifying complex legal documents for everyday people. Analyze the following legal document and provide a comprehensive yet accessible explanation.

%s

Please structure your response as a JSON object with the following sections:

{
  "documentType": "Brief identification of document type (e.g., 'Rental Agreement', 'Terms of Service', 'Loan Contract')",
  "summary": "A clear, 2-3 sentence summary of what this document is about in plain language",
  "keyPoints": [
    "List of 5-8 most important points from the document that a regular person should know",
    "Each point should be written in simple, accessible language",
    "Focus on practical implications for the person signing"
  ],
  "riskAssessment": {
    "level": "LOW/MEDIUM/HIGH",
    "risks": [
      "List of potential risks or disadvantages for the signing party",
      "Include financial risks, legal obligations, or restrictive terms"
    ],
    "redFlags": [
      "Specific clauses or terms that are particularly concerning",
      "Unusual or unfavorable conditions"
    ]
  },
  "keyTerms": [
    {
      "term": "Legal term or jargon from the document",
      "explanation": "Simple explanation of what this means in everyday language"
    }
  ],
  "recommendations": [
    "Practical advice for the person considering signing this document",
    "Questions they should ask before signing",
    "Suggested modifications or negotiations"
  ],
  "importantClauses": [
    {
      "clause": "Brief description of the clause",
      "location": "Section/paragraph reference if identifiable",
      "importance": "Why this clause matters",
      "plainLanguage": "What this means in simple terms"
    }
  ]
}

Document to analyze:
%s

Remember to:
- Use simple, clear language that anyone can understand
- Avoid legal jargon unless you explain it
- Focus on practical implications
- Be thorough but concise
- Highlight anything that could be harmful to the signing party
- Provide actionable advice`

// BuildPrompt embeds the document text verbatim. Any language other than "en" adds an
// instruction to answer in that language.
func BuildPrompt(text, language string) string {
	instruction := ""
	if language != "" && language != "en" {
		instruction = fmt.Sprintf("Please provide your analysis in %s.", LanguageName(language))
	}
	return fmt.Sprintf(promptTemplate, instruction, text)
}
