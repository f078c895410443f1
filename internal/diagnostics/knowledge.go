// Package diagnostics turns a VIN, trouble codes and symptom text into a
// DiagnosticContext by cross-referencing a static engine knowledge base.
package diagnostics

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kiranshivaraju/fieldops/pkg/models"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed knowledge.yaml
var embeddedKnowledge []byte

//go:embed knowledge.schema.json
var knowledgeSchema []byte

// EngineKnowledge is what the knowledge base holds for one engine family.
type EngineKnowledge struct {
	Name               string   `yaml:"name"                json:"name"`
	KnownIssues        []string `yaml:"known_issues"        json:"known_issues"`
	DiagnosticPriority []string `yaml:"diagnostic_priority" json:"diagnostic_priority"`
}

type knowledgeDocument struct {
	EngineFamilies  map[string]EngineKnowledge `yaml:"engine_families"`
	TroubleCodes    map[string]string          `yaml:"trouble_codes"`
	SymptomKeywords map[string][]string        `yaml:"symptom_keywords"`
	Workflows       map[string][]string        `yaml:"workflows"`
}

// KnowledgeBase is an immutable, in-memory lookup over the knowledge document.
// All lookups are safe for concurrent use and never fail.
type KnowledgeBase struct {
	engines   map[string]EngineKnowledge
	codes     map[string]string
	keywords  map[models.WorkflowCategory]map[string]struct{}
	workflows map[models.WorkflowCategory][]string
}

// SchemaError lists every violation found while validating a knowledge document.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return "knowledge base failed schema validation: " + strings.Join(e.Violations, "; ")
}

// LoadKnowledgeBase parses a YAML knowledge document and validates it against
// the embedded JSON Schema before building the lookup tables.
func LoadKnowledgeBase(data []byte) (*KnowledgeBase, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse knowledge yaml: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(knowledgeSchema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("validate knowledge yaml: %w", err)
	}
	if !result.Valid() {
		se := &SchemaError{}
		for _, re := range result.Errors() {
			se.Violations = append(se.Violations, re.String())
		}
		return nil, se
	}

	var doc knowledgeDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode knowledge yaml: %w", err)
	}

	kb := &KnowledgeBase{
		engines:   doc.EngineFamilies,
		codes:     make(map[string]string, len(doc.TroubleCodes)),
		keywords:  make(map[models.WorkflowCategory]map[string]struct{}),
		workflows: make(map[models.WorkflowCategory][]string),
	}
	for code, text := range doc.TroubleCodes {
		kb.codes[strings.ToUpper(code)] = text
	}
	for _, cat := range models.WorkflowPriority {
		set := make(map[string]struct{})
		for _, kw := range doc.SymptomKeywords[string(cat)] {
			set[kw] = struct{}{}
		}
		kb.keywords[cat] = set
		kb.workflows[cat] = doc.Workflows[string(cat)]
	}
	return kb, nil
}

var defaultKnowledge = sync.OnceValue(func() *KnowledgeBase {
	kb, err := LoadKnowledgeBase(embeddedKnowledge)
	if err != nil {
		panic(fmt.Sprintf("embedded knowledge base is invalid: %v", err))
	}
	return kb
})

// DefaultKnowledgeBase returns the knowledge base compiled into the binary.
func DefaultKnowledgeBase() *KnowledgeBase {
	return defaultKnowledge()
}

// Engine returns the known issues and diagnostic priorities for a family.
func (kb *KnowledgeBase) Engine(family string) (EngineKnowledge, bool) {
	ek, ok := kb.engines[family]
	if !ok {
		return EngineKnowledge{}, false
	}
	return EngineKnowledge{
		Name:               ek.Name,
		KnownIssues:        append([]string(nil), ek.KnownIssues...),
		DiagnosticPriority: append([]string(nil), ek.DiagnosticPriority...),
	}, true
}

// Families returns every engine family in the knowledge base, sorted.
func (kb *KnowledgeBase) Families() []string {
	out := make([]string, 0, len(kb.engines))
	for f := range kb.engines {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// TroubleCode returns the mechanic action for a normalised code.
func (kb *KnowledgeBase) TroubleCode(code string) (string, bool) {
	text, ok := kb.codes[code]
	return text, ok
}

// HasKeyword reports whether token is in the keyword set of cat.
func (kb *KnowledgeBase) HasKeyword(cat models.WorkflowCategory, token string) bool {
	_, ok := kb.keywords[cat][token]
	return ok
}

// Workflow returns the ordered diagnostic steps for a category.
func (kb *KnowledgeBase) Workflow(cat models.WorkflowCategory) []string {
	return append([]string(nil), kb.workflows[cat]...)
}
