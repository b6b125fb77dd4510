package wizard

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/robby/learnhub/internal/validate"
)

// Step identifies one page of the wizard.
type Step string

// Steps in order.
const (
	StepAbout          Step = "about"
	StepPersonalInfo   Step = "personal-info"
	StepTrackSelection Step = "track-selection"
	StepBackground     Step = "background"
	StepFinalReview    Step = "final-review"
)

// Steps is the fixed step order.
var Steps = []Step{StepAbout, StepPersonalInfo, StepTrackSelection, StepBackground, StepFinalReview}

// Title returns a display title for the step.
func (s Step) Title() string {
	switch s {
	case StepAbout:
		return "About the programme"
	case StepPersonalInfo:
		return "Personal information"
	case StepTrackSelection:
		return "Track selection"
	case StepBackground:
		return "Background"
	case StepFinalReview:
		return "Review and submit"
	}
	return string(s)
}

// ProgrammingTracks are the track keys that require a GitHub profile.
var ProgrammingTracks = map[string]bool{
	"frontend-development":  true,
	"backend-development":   true,
	"fullstack-development": true,
	"mobile-development":    true,
	"devops":                true,
}

// IsProgrammingTrack reports whether the track key needs a GitHub profile.
func IsProgrammingTrack(key string) bool {
	return ProgrammingTracks[key]
}

// CV constraints.
const (
	CVMaxSize = 10 << 20

	MinStatementLength = 50
	MaxStatementLength = 1000
	MaxNameLength      = 50
)

// CVMimeTypes are the accepted CV formats (PDF and Word).
var CVMimeTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Messages used by the step validator.
const (
	MsgToolsRequired = "Please select at least one tool you are familiar with"
	MsgCVRequired    = "Please upload your CV"
	MsgCVType        = "CV must be a PDF or Word document"
	MsgCVSize        = "CV must be 10MB or smaller"
)

// ValidateStep checks the fields owned by step. An empty map means the step is valid.
func ValidateStep(step Step, v Values, variant Variant) Errors {
	errs := Errors{}
	set := func(field, msg string) {
		if msg != "" {
			errs[field] = msg
		}
	}

	switch step {
	case StepPersonalInfo:
		set(FieldFirstName, validate.First(
			validate.Required(v.FirstName, "First name"),
			validate.MaxLength(v.FirstName, "First name", MaxNameLength),
		))
		set(FieldLastName, validate.First(
			validate.Required(v.LastName, "Last name"),
			validate.MaxLength(v.LastName, "Last name", MaxNameLength),
		))
		set(FieldEmail, validate.First(
			validate.Required(v.Email, "Email"),
			validate.Email(v.Email),
		))
		set(FieldPhoneNumber, validate.First(
			validate.Required(v.PhoneNumber, "Phone number"),
			validate.Phone(v.PhoneNumber),
		))
		set(FieldGender, validate.Required(v.Gender, "Gender"))
		if v.Country.IsUnset() {
			set(FieldCountry, "Country is required")
		}
		if v.State.IsUnset() {
			set(FieldState, "State is required")
		}
		if v.Country.IsOther() {
			set(FieldOtherCountry, validate.Required(v.OtherCountry, "Country name"))
		}
		if v.State.IsOther() {
			set(FieldOtherState, validate.Required(v.OtherState, "State name"))
		}

	case StepTrackSelection:
		if v.Track.IsZero() {
			set(FieldTrack, "Please select a track")
		} else if len(v.Tools) == 0 {
			set(FieldTools, MsgToolsRequired)
		}

	case StepBackground:
		set(FieldCV, checkCV(v))
		if IsProgrammingTrack(v.Track.Key()) {
			set(FieldGitHubLink, validate.First(
				validate.Required(v.GitHubLink, "GitHub link"),
				validate.GitHubProfile(v.GitHubLink),
			))
			if v.PortfolioLink != "" {
				set(FieldPortfolioLink, validate.URL(v.PortfolioLink))
			}
		} else {
			set(FieldPortfolioLink, validate.First(
				validate.Required(v.PortfolioLink, "Portfolio link"),
				validate.URL(v.PortfolioLink),
			))
			if v.GitHubLink != "" {
				set(FieldGitHubLink, validate.GitHubProfile(v.GitHubLink))
			}
		}
		set(FieldReferralSource, validate.Required(v.ReferralSource, "Referral source"))
		if v.ReferralSource == ReferralOther {
			set(FieldReferralOther, validate.Required(v.ReferralOther, "How you heard about us"))
		}
		set(variant.StatementField(), validate.First(
			validate.Required(v.Statement, variant.StatementLabel()),
			validate.LengthBetween(v.Statement, variant.StatementLabel(), MinStatementLength, MaxStatementLength),
		))

	case StepFinalReview:
		for _, s := range Steps {
			if s == StepFinalReview {
				break
			}
			errs.Merge(ValidateStep(s, v, variant))
		}
	}
	return errs
}

// ValidateAll runs every step and returns the union of errors.
func ValidateAll(v Values, variant Variant) Errors {
	return ValidateStep(StepFinalReview, v, variant)
}

func checkCV(v Values) string {
	if v.CV == nil {
		return MsgCVRequired
	}
	if !mimetype.EqualsAny(v.CV.MimeType, CVMimeTypes...) {
		return MsgCVType
	}
	if v.CV.Size > CVMaxSize {
		return MsgCVSize
	}
	return ""
}

// StepOf returns the step that owns field, or StepFinalReview when none does.
func StepOf(field string, variant Variant) Step {
	switch field {
	case FieldFirstName, FieldLastName, FieldEmail, FieldPhoneNumber, FieldGender,
		FieldCountry, FieldState, FieldOtherCountry, FieldOtherState:
		return StepPersonalInfo
	case FieldTrack, FieldTools, FieldCohortNumber:
		return StepTrackSelection
	case FieldCV, FieldGitHubLink, FieldPortfolioLink, FieldReferralSource, FieldReferralOther,
		variant.StatementField():
		return StepBackground
	}
	return StepFinalReview
}

// EarliestStep returns the first step, in wizard order, owning one of the
// errored fields.
func EarliestStep(errs Errors, variant Variant) Step {
	best := len(Steps) - 1
	for field := range errs {
		step := StepOf(field, variant)
		for i, s := range Steps {
			if s == step && i < best {
				best = i
			}
		}
	}
	return Steps[best]
}

// liveCheck is the shape check run while a field is edited. Empty values pass;
// required checks belong to the step validator.
func liveCheck(field, value string, variant Variant) string {
	if value == "" {
		return ""
	}
	switch field {
	case FieldFirstName:
		return validate.MaxLength(value, "First name", MaxNameLength)
	case FieldLastName:
		return validate.MaxLength(value, "Last name", MaxNameLength)
	case FieldEmail:
		return validate.Email(value)
	case FieldPhoneNumber:
		return validate.Phone(value)
	case FieldGitHubLink:
		return validate.GitHubProfile(value)
	case FieldPortfolioLink:
		return validate.URL(value)
	case variant.StatementField():
		return validate.LengthBetween(value, variant.StatementLabel(), MinStatementLength, MaxStatementLength)
	}
	return ""
}

func cvSummary(v Values) string {
	if v.CV == nil {
		return ""
	}
	return fmt.Sprintf("%s (%.1f KB)", v.CV.Name, float64(v.CV.Size)/1024)
}
