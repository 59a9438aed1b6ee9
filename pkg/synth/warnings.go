package synth

import "fmt"

// WarningCode identifies a recoverable degradation.
type WarningCode string

const (
	WarnUnknownFormat           WarningCode = "unknown-format"
	WarnAmbiguousDiscriminator  WarningCode = "ambiguous-discriminator"
	WarnAdditionalPropertiesAny WarningCode = "additional-properties-any"
)

// Warning is a recoverable issue attached to the affected type declaration.
// Semantic-hint problems degrade gracefully instead of failing the schema.
type Warning struct {
	Code   WarningCode `json:"code"`
	Schema string      `json:"schema"`
	Field  string      `json:"field,omitempty"`
	Detail string      `json:"detail,omitempty"`
}

func (w Warning) String() string {
	msg := fmt.Sprintf("%s: %s", w.Code, w.Schema)
	if w.Field != "" {
		msg += "." + w.Field
	}
	if w.Detail != "" {
		msg += " (" + w.Detail + ")"
	}
	return msg
}
