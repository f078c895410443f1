package diagnostics

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/kiranshivaraju/fieldops/pkg/models"
)

// FallbackExplanation is returned for codes the knowledge base does not cover.
const FallbackExplanation = "Code not in knowledge base. Consult the manufacturer service manual."

var reTroubleCode = regexp.MustCompile(`^[PBCU][0-3][0-9A-F]{3}$`)

// Classifier explains trouble codes and triages symptom text.
type Classifier struct {
	kb *KnowledgeBase
}

// NewClassifier creates a Classifier backed by kb.
func NewClassifier(kb *KnowledgeBase) *Classifier {
	return &Classifier{kb: kb}
}

// NormalizeCode trims and upper-cases a trouble code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ExplainCode returns the mechanic action for code, or FallbackExplanation.
func (c *Classifier) ExplainCode(code string) string {
	norm := NormalizeCode(code)
	if !reTroubleCode.MatchString(norm) {
		return FallbackExplanation
	}
	if text, ok := c.kb.TroubleCode(norm); ok {
		return text
	}
	return FallbackExplanation
}

// ClassifySymptoms checks symptom tokens against the electrical, mechanical
// and performance keyword sets in that order and returns the first category
// with a hit. No hit defaults to electrical.
func (c *Classifier) ClassifySymptoms(symptoms []string) models.WorkflowCategory {
	tokens := tokenize(symptoms)
	for _, cat := range models.WorkflowPriority {
		for _, tok := range tokens {
			if c.kb.HasKeyword(cat, tok) {
				return cat
			}
		}
	}
	return models.WorkflowElectrical
}

// Workflow returns the diagnostic steps for a category.
func (c *Classifier) Workflow(cat models.WorkflowCategory) []string {
	return c.kb.Workflow(cat)
}

func tokenize(symptoms []string) []string {
	var tokens []string
	for _, s := range symptoms {
		tokens = append(tokens, strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})...)
	}
	return tokens
}
