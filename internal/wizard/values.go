// Package wizard implements the applicant intake wizard: form state, per-step
// validation, the step controller and the submission adapter.
package wizard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/robby/learnhub/internal/domain"
)

// Wire field names. Errors are keyed by these.
const (
	FieldFirstName      = "firstName"
	FieldLastName       = "lastName"
	FieldEmail          = "email"
	FieldPhoneNumber    = "phoneNumber"
	FieldGender         = "gender"
	FieldCountry        = "country"
	FieldState          = "state"
	FieldOtherCountry   = "otherCountry"
	FieldOtherState     = "otherState"
	FieldTrack          = "trackId"
	FieldCohortNumber   = "cohortNumber"
	FieldTools          = "tools"
	FieldCV             = "cv"
	FieldGitHubLink     = "githubLink"
	FieldPortfolioLink  = "portfolioLink"
	FieldReferralSource = "referralSource"
	FieldReferralOther  = "referralOther"
	FieldMotivation     = "motivation"
	FieldCareerGoals    = "careerGoals"
)

// ReferralOther is the referral source that requires an elaboration.
const ReferralOther = "other"

// Genders and ReferralSources are the fixed option lists.
var (
	Genders         = []string{"Male", "Female", "Prefer not to say"}
	ReferralSources = []string{"social-media", "friend", "website", "event", "newsletter", ReferralOther}
)

// Variant selects between the two wizard flavours.
type Variant int

const (
	// VariantApply asks for a motivation statement.
	VariantApply Variant = iota
	// VariantApplicant asks for career goals.
	VariantApplicant
)

// ParseVariant maps "apply" and "applicant" onto a Variant.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "apply":
		return VariantApply, nil
	case "applicant":
		return VariantApplicant, nil
	default:
		return VariantApply, fmt.Errorf("unknown wizard variant %q", s)
	}
}

func (v Variant) String() string {
	if v == VariantApplicant {
		return "applicant"
	}
	return "apply"
}

// Route is the session route the variant runs under.
func (v Variant) Route() string {
	return "/" + v.String()
}

// StatementField is the wire name of the free-text statement.
func (v Variant) StatementField() string {
	if v == VariantApplicant {
		return FieldCareerGoals
	}
	return FieldMotivation
}

// StatementLabel is the human label of the free-text statement.
func (v Variant) StatementLabel() string {
	if v == VariantApplicant {
		return "Career goals"
	}
	return "Motivation"
}

// Values is the applicant's form state.
type Values struct {
	FirstName      string
	LastName       string
	Email          string
	PhoneNumber    string
	Gender         string
	Country        domain.Choice
	State          domain.Choice
	OtherCountry   string
	OtherState     string
	Track          domain.Track
	CohortNumber   int
	Tools          []string
	CV             *domain.LocalFile
	GitHubLink     string
	PortfolioLink  string
	ReferralSource string
	ReferralOther  string
	Statement      string // Motivation or career goals, per variant
}

// HasTool reports whether tool is selected.
func (v Values) HasTool(tool string) bool {
	for _, t := range v.Tools {
		if t == tool {
			return true
		}
	}
	return false
}

// CountryName returns the country to submit, resolving Other.
func (v Values) CountryName() string {
	return v.Country.Resolve(v.OtherCountry)
}

// StateName returns the state to submit, resolving Other.
func (v Values) StateName() string {
	return v.State.Resolve(v.OtherState)
}

// Errors maps wire field names to messages.
type Errors map[string]string

// Has reports whether field has an error.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Merge copies other into e, overwriting.
func (e Errors) Merge(other Errors) {
	for k, v := range other {
		e[k] = v
	}
}

// Fields returns the errored field names, sorted.
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for k := range e {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}
