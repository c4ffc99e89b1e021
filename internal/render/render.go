// Package render turns (variant, case) pairs into concrete prompts.
package render

import (
	"fmt"
	"slices"
	"strings"

	"github.com/giantswarm/prompt-lab/internal/promptset"
)

// Rendered is the prompt payload handed to the model invocation client.
// It is ephemeral: produced per pair and consumed immediately.
type Rendered struct {
	Prompt string
	System string
	MIME   string
}

// TemplateError reports a malformed template or a placeholder the case does
// not provide. It indicates an authoring bug in the variant and is fatal for
// the run rather than silently skipped.
type TemplateError struct {
	Variant string
	Detail  string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template error in variant %q: %s", e.Variant, e.Detail)
}

// Applies reports whether a variant is eligible to run against a case.
// A variant without applies_to accepts the default case types.
func Applies(v promptset.Variant, c promptset.Case) bool {
	allowed := v.AppliesTo
	if len(allowed) == 0 {
		allowed = promptset.DefaultAppliesTo
	}
	return slices.Contains(allowed, c.Type)
}

// Render produces the prompt for a (variant, case) pair. Pure and
// deterministic: the same pair always yields the same output.
//
// When the variant declares few-shots, the template body is ignored and the
// prompt is the formatted shot transcript followed by the case. This flat
// "User:/Assistant:" text is a deliberate simplification of multi-turn chat
// formatting; changing it would shift scores against historical runs.
func Render(v promptset.Variant, c promptset.Case) (Rendered, error) {
	r := Rendered{
		System: v.System,
		MIME:   v.ResponseMIMEType,
	}

	if len(v.FewShots) > 0 {
		r.Prompt = fewShotPrompt(v.FewShots, c)
		return r, nil
	}

	prompt, err := expand(v.PromptTemplate, c)
	if err != nil {
		return Rendered{}, &TemplateError{Variant: v.ID, Detail: err.Error()}
	}
	r.Prompt = prompt
	return r, nil
}

func fewShotPrompt(shots []promptset.Shot, c promptset.Case) string {
	var b strings.Builder
	for i, s := range shots {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "User: %s\nAssistant: %s", s.User, s.Model)
	}
	fmt.Fprintf(&b, "\n\nUser: %s\n%s\nAssistant:", c.Task, c.Input)
	return b.String()
}

// expand substitutes {task} and {input} placeholders. Doubled braces escape
// to literal braces. Unknown or unterminated placeholders are errors.
func expand(tmpl string, c promptset.Case) (string, error) {
	var b strings.Builder
	for i := 0; i < len(tmpl); i++ {
		switch tmpl[i] {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("unterminated placeholder at offset %d", i)
			}
			name := tmpl[i+1 : i+end]
			switch name {
			case "task":
				b.WriteString(c.Task)
			case "input":
				b.WriteString(c.Input)
			default:
				return "", fmt.Errorf("unknown placeholder {%s}", name)
			}
			i += end
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("unmatched '}' at offset %d", i)
		default:
			b.WriteByte(tmpl[i])
		}
	}
	return b.String(), nil
}
