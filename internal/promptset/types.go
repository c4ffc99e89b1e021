package promptset

// DefaultAppliesTo is the case-type set a variant is eligible for when it
// does not declare applies_to.
var DefaultAppliesTo = []string{"summarize", "classify"}

// Defaults holds run-wide generation settings from the variants document.
type Defaults struct {
	Model           string  `yaml:"model"`
	Temperature     float64 `yaml:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens"`
}

// Shot is a single few-shot exchange injected into a prompt.
type Shot struct {
	User  string `yaml:"user"`
	Model string `yaml:"model"`
}

// Variant is a named prompt-construction strategy. Variants are immutable
// after loading.
type Variant struct {
	ID               string   `yaml:"id"`
	Title            string   `yaml:"title"`
	System           string   `yaml:"system"`
	PromptTemplate   string   `yaml:"prompt_template"`
	FewShots         []Shot   `yaml:"few_shots"`
	AppliesTo        []string `yaml:"applies_to"`
	ResponseMIMEType string   `yaml:"response_mime_type"`
}

// Case is a labeled test input with type-specific expectations.
// MaxWords and Keywords apply to "summarize" cases, ExpectedLabel to
// "classify" cases. Cases are immutable after loading.
type Case struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	Task          string   `json:"task"`
	Input         string   `json:"input"`
	MaxWords      *int     `json:"max_words,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	ExpectedLabel string   `json:"expected_label,omitempty"`
}

// Set is a fully loaded prompt set: variant definitions with their defaults,
// plus the case corpus they are evaluated against.
type Set struct {
	Name     string
	Defaults Defaults
	Variants []Variant
	Cases    []Case
}

// variantsDoc is the on-disk shape of variants.yaml.
type variantsDoc struct {
	Defaults defaultsDoc `yaml:"defaults"`
	Variants []Variant   `yaml:"variants"`
}

// defaultsDoc is the on-disk shape of the defaults record. Temperature and
// max_output_tokens decode as pointers so an explicit 0 is distinguishable
// from an omitted key; fallbacks apply only to omitted keys.
type defaultsDoc struct {
	Model           string   `yaml:"model"`
	Temperature     *float64 `yaml:"temperature"`
	MaxOutputTokens *int     `yaml:"max_output_tokens"`
}
