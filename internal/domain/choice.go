package domain

import "strings"

// ChoiceKind tags the variant held by a Choice.
type ChoiceKind int

const (
	// ChoiceUnset means nothing is selected ("all" in list filters).
	ChoiceUnset ChoiceKind = iota
	// ChoiceSpecific holds a concrete value.
	ChoiceSpecific
	// ChoiceOther means the user picked "Other" and supplies free text elsewhere.
	ChoiceOther
)

// OtherLabel is the option label shown for ChoiceOther.
const OtherLabel = "Other"

// Choice is a tagged union: Specific(value) | Other | Unset.
// The zero value is Unset.
type Choice struct {
	kind  ChoiceKind
	value string
}

// Specific returns a Choice holding v. An empty v yields Unset.
func Specific(v string) Choice {
	if v == "" {
		return Unset()
	}
	return Choice{kind: ChoiceSpecific, value: v}
}

// Other returns the Other choice.
func Other() Choice {
	return Choice{kind: ChoiceOther}
}

// Unset returns the empty choice.
func Unset() Choice {
	return Choice{}
}

// ParseChoice maps raw option strings onto a Choice.
// "Other" (any case) maps to Other; "", "all" map to Unset.
func ParseChoice(raw string) Choice {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "", strings.EqualFold(raw, "all"):
		return Unset()
	case strings.EqualFold(raw, OtherLabel):
		return Other()
	default:
		return Specific(raw)
	}
}

// Kind returns the variant tag.
func (c Choice) Kind() ChoiceKind { return c.kind }

// IsOther reports whether the choice is Other.
func (c Choice) IsOther() bool { return c.kind == ChoiceOther }

// IsUnset reports whether nothing is selected.
func (c Choice) IsUnset() bool { return c.kind == ChoiceUnset }

// Value returns the specific value, or "" for Other and Unset.
func (c Choice) Value() string {
	if c.kind != ChoiceSpecific {
		return ""
	}
	return c.value
}

// Resolve returns the specific value, or other when the choice is Other.
func (c Choice) Resolve(other string) string {
	switch c.kind {
	case ChoiceSpecific:
		return c.value
	case ChoiceOther:
		return strings.TrimSpace(other)
	default:
		return ""
	}
}

// String renders the choice as an option label.
func (c Choice) String() string {
	switch c.kind {
	case ChoiceSpecific:
		return c.value
	case ChoiceOther:
		return OtherLabel
	default:
		return ""
	}
}
