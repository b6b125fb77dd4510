package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robby/learnhub/internal/domain"
)

// ErrUnknownField indicates SetField was called with a field that is not a
// free-text field of the form.
var ErrUnknownField = errors.New("unknown field")

// Form holds the applicant's values and the current validation errors.
// It is owned by a single goroutine (the UI update loop).
type Form struct {
	values  Values
	errors  Errors
	variant Variant
}

// NewForm creates an empty form for variant.
func NewForm(variant Variant) *Form {
	return &Form{errors: Errors{}, variant: variant}
}

// Variant returns the form's variant.
func (f *Form) Variant() Variant {
	return f.variant
}

// Values returns a copy of the current values.
func (f *Form) Values() Values {
	v := f.values
	v.Tools = append([]string(nil), f.values.Tools...)
	return v
}

// Errors returns a copy of the current errors.
func (f *Form) Errors() Errors {
	out := make(Errors, len(f.errors))
	out.Merge(f.errors)
	return out
}

// Error returns the message for field, or "".
func (f *Form) Error(field string) string {
	return f.errors[field]
}

// Field returns the current value of a free-text field.
func (f *Form) Field(name string) string {
	if p := f.textField(name); p != nil {
		return *p
	}
	return ""
}

func (f *Form) textField(name string) *string {
	switch name {
	case FieldFirstName:
		return &f.values.FirstName
	case FieldLastName:
		return &f.values.LastName
	case FieldEmail:
		return &f.values.Email
	case FieldPhoneNumber:
		return &f.values.PhoneNumber
	case FieldGender:
		return &f.values.Gender
	case FieldOtherCountry:
		return &f.values.OtherCountry
	case FieldOtherState:
		return &f.values.OtherState
	case FieldGitHubLink:
		return &f.values.GitHubLink
	case FieldPortfolioLink:
		return &f.values.PortfolioLink
	case FieldReferralSource:
		return &f.values.ReferralSource
	case FieldReferralOther:
		return &f.values.ReferralOther
	case f.variant.StatementField():
		return &f.values.Statement
	}
	return nil
}

// SetField stores a free-text value. The field's previous error is dropped
// first, then its shape rule is re-run and any failure recorded.
func (f *Form) SetField(name, value string) error {
	p := f.textField(name)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	*p = value
	delete(f.errors, name)

	if msg := liveCheck(name, strings.TrimSpace(value), f.variant); msg != "" {
		f.errors[name] = msg
	}
	if name == FieldReferralSource && value != ReferralOther {
		f.values.ReferralOther = ""
		delete(f.errors, FieldReferralOther)
	}
	return nil
}

// SetCountry selects a country. Changing the country resets the state.
func (f *Form) SetCountry(c domain.Choice) {
	if c != f.values.Country {
		f.values.State = domain.Unset()
		f.values.OtherState = ""
		delete(f.errors, FieldState)
		delete(f.errors, FieldOtherState)
	}
	f.values.Country = c
	delete(f.errors, FieldCountry)
	if !c.IsOther() {
		f.values.OtherCountry = ""
		delete(f.errors, FieldOtherCountry)
	}
}

// SetState selects a state.
func (f *Form) SetState(c domain.Choice) {
	f.values.State = c
	delete(f.errors, FieldState)
	if !c.IsOther() {
		f.values.OtherState = ""
		delete(f.errors, FieldOtherState)
	}
}

// SelectTrack selects a track. Choosing a different track clears the tools.
func (f *Form) SelectTrack(t domain.Track) {
	if t.Key() != f.values.Track.Key() || t.ID != f.values.Track.ID {
		f.values.Tools = nil
	}
	f.values.Track = t
	delete(f.errors, FieldTrack)
}

// SetCohortNumber records the cohort the application is for.
func (f *Form) SetCohortNumber(n int) {
	f.values.CohortNumber = n
}

// ToggleTool adds or removes tool from the selection.
func (f *Form) ToggleTool(tool string) {
	for i, t := range f.values.Tools {
		if t == tool {
			f.values.Tools = append(f.values.Tools[:i:i], f.values.Tools[i+1:]...)
			return
		}
	}
	f.values.Tools = append(f.values.Tools, tool)
	delete(f.errors, FieldTools)
}

// SetCV attaches (or with nil, detaches) the CV and checks its type and size.
func (f *Form) SetCV(file *domain.LocalFile) {
	f.values.CV = file
	delete(f.errors, FieldCV)
	if file == nil {
		return
	}
	if msg := checkCV(f.values); msg != "" {
		f.errors[FieldCV] = msg
	}
}

// SetError records (or with an empty msg, clears) a single field error.
func (f *Form) SetError(field, msg string) {
	if msg == "" {
		delete(f.errors, field)
		return
	}
	f.errors[field] = msg
}

// SetErrors replaces the errors, e.g. with ones reported by the backend.
func (f *Form) SetErrors(errs Errors) {
	f.errors = Errors{}
	f.errors.Merge(errs)
}

// Reset clears every value and error.
func (f *Form) Reset() {
	f.values = Values{}
	f.errors = Errors{}
}

// Review returns label/value pairs summarising the application.
func (f *Form) Review() [][2]string {
	v := f.values
	rows := [][2]string{
		{"Name", strings.TrimSpace(v.FirstName + " " + v.LastName)},
		{"Email", v.Email},
		{"Phone", v.PhoneNumber},
		{"Gender", v.Gender},
		{"Location", strings.Trim(v.StateName()+", "+v.CountryName(), ", ")},
		{"Track", v.Track.Name},
		{"Tools", strings.Join(v.Tools, ", ")},
		{"CV", cvSummary(v)},
	}
	if v.GitHubLink != "" {
		rows = append(rows, [2]string{"GitHub", v.GitHubLink})
	}
	if v.PortfolioLink != "" {
		rows = append(rows, [2]string{"Portfolio", v.PortfolioLink})
	}
	referral := v.ReferralSource
	if referral == ReferralOther {
		referral = v.ReferralOther
	}
	rows = append(rows,
		[2]string{"Heard about us", referral},
		[2]string{f.variant.StatementLabel(), v.Statement},
	)
	return rows
}
