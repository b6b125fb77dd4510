package wizard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/robby/learnhub/internal/domain"
	"github.com/robby/learnhub/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestCV writes a small PDF to a temp dir.
func createTestCV(t *testing.T) *domain.LocalFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cv.pdf")
	content := []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return &domain.LocalFile{Path: path, Name: "cv.pdf", Size: int64(len(content)), MimeType: "application/pdf"}
}

// createTestValues returns values that pass every step for a programming track.
func createTestValues(t *testing.T) Values {
	t.Helper()
	return Values{
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Email:          "ada@example.com",
		PhoneNumber:    "+234 803 123 4567",
		Gender:         "Female",
		Country:        domain.Specific("Nigeria"),
		State:          domain.Specific("Lagos"),
		Track:          domain.Track{ID: "tr1", Name: "Frontend Development", Slug: "frontend-development"},
		CohortNumber:   5,
		Tools:          []string{"React", "Git"},
		CV:             createTestCV(t),
		GitHubLink:     "https://github.com/ada",
		ReferralSource: "friend",
		Statement:      strings.Repeat("I want to build things. ", 5),
	}
}

func createTestForm(t *testing.T, v Values) *Form {
	t.Helper()
	f := NewForm(VariantApply)
	f.values = v
	return f
}

func TestValidateStepValid(t *testing.T) {
	v := createTestValues(t)
	for _, step := range Steps {
		assert.Empty(t, ValidateStep(step, v, VariantApply), "step %s", step)
	}
	assert.Empty(t, ValidateAll(v, VariantApply))
}

func TestPersonalInfo(t *testing.T) {
	t.Run("invalid email blocks next", func(t *testing.T) {
		v := createTestValues(t)
		v.Email = "not-an-email"
		f := createTestForm(t, v)
		c := NewController()
		c.GoTo(StepPersonalInfo)

		assert.False(t, c.Next(f))
		assert.Equal(t, StepPersonalInfo, c.Current())
		assert.Equal(t, "Please enter a valid email address", f.Error(FieldEmail))
	})

	t.Run("short phone", func(t *testing.T) {
		v := createTestValues(t)
		v.PhoneNumber = "0803-123"
		errs := ValidateStep(StepPersonalInfo, v, VariantApply)
		assert.Equal(t, validate.MsgPhone, errs[FieldPhoneNumber])
	})

	t.Run("other country required iff Other", func(t *testing.T) {
		v := createTestValues(t)
		assert.False(t, ValidateStep(StepPersonalInfo, v, VariantApply).Has(FieldOtherCountry))

		v.Country = domain.Other()
		v.State = domain.Other()
		errs := ValidateStep(StepPersonalInfo, v, VariantApply)
		assert.True(t, errs.Has(FieldOtherCountry))
		assert.True(t, errs.Has(FieldOtherState))

		v.OtherCountry = "Togo"
		v.OtherState = "Maritime"
		assert.Empty(t, ValidateStep(StepPersonalInfo, v, VariantApply))
	})

	t.Run("other state required iff Other", func(t *testing.T) {
		v := createTestValues(t)
		v.State = domain.Other()
		errs := ValidateStep(StepPersonalInfo, v, VariantApply)
		assert.True(t, errs.Has(FieldOtherState))
		assert.False(t, errs.Has(FieldOtherCountry))
	})

	t.Run("missing fields", func(t *testing.T) {
		errs := ValidateStep(StepPersonalInfo, Values{}, VariantApply)
		assert.Equal(t, []string{
			FieldCountry, FieldEmail, FieldFirstName, FieldGender, FieldLastName, FieldPhoneNumber, FieldState,
		}, errs.Fields())
		assert.Equal(t, "First name is required", errs[FieldFirstName])
	})
}

func TestTrackSelection(t *testing.T) {
	v := createTestValues(t)
	v.Tools = nil
	assert.Equal(t, MsgToolsRequired, ValidateStep(StepTrackSelection, v, VariantApply)[FieldTools])

	v.Track = domain.Track{}
	errs := ValidateStep(StepTrackSelection, v, VariantApply)
	assert.True(t, errs.Has(FieldTrack))
}

func TestBackground(t *testing.T) {
	t.Run("programming track requires github", func(t *testing.T) {
		v := createTestValues(t)
		v.GitHubLink = ""
		errs := ValidateStep(StepBackground, v, VariantApply)
		assert.Equal(t, "GitHub link is required", errs[FieldGitHubLink])

		v.GitHubLink = "https://github.com/alice"
		assert.False(t, ValidateStep(StepBackground, v, VariantApply).Has(FieldGitHubLink))

		v.GitHubLink = "https://gitlab.com/alice"
		assert.Equal(t, validate.MsgGitHubProfile, ValidateStep(StepBackground, v, VariantApply)[FieldGitHubLink])
	})

	t.Run("non-programming track requires portfolio", func(t *testing.T) {
		v := createTestValues(t)
		v.Track = domain.Track{ID: "tr2", Name: "Product Design"}
		v.GitHubLink = ""
		errs := ValidateStep(StepBackground, v, VariantApply)
		assert.False(t, errs.Has(FieldGitHubLink))
		assert.Equal(t, "Portfolio link is required", errs[FieldPortfolioLink])

		v.PortfolioLink = "behance.net/ada"
		assert.Equal(t, validate.MsgURL, ValidateStep(StepBackground, v, VariantApply)[FieldPortfolioLink])

		v.PortfolioLink = "https://behance.net/ada"
		assert.Empty(t, ValidateStep(StepBackground, v, VariantApply))
	})

	t.Run("referral other needs elaboration", func(t *testing.T) {
		v := createTestValues(t)
		v.ReferralSource = ReferralOther
		assert.True(t, ValidateStep(StepBackground, v, VariantApply).Has(FieldReferralOther))
		v.ReferralOther = "A podcast"
		assert.Empty(t, ValidateStep(StepBackground, v, VariantApply))
	})

	t.Run("statement length", func(t *testing.T) {
		v := createTestValues(t)
		v.Statement = "Too short"
		assert.Equal(t, "Motivation must be at least 50 characters", ValidateStep(StepBackground, v, VariantApply)[FieldMotivation])

		errs := ValidateStep(StepBackground, v, VariantApplicant)
		assert.Equal(t, "Career goals must be at least 50 characters", errs[FieldCareerGoals])
		assert.False(t, errs.Has(FieldMotivation))
	})

	t.Run("cv checks", func(t *testing.T) {
		v := createTestValues(t)
		v.CV = nil
		assert.Equal(t, MsgCVRequired, ValidateStep(StepBackground, v, VariantApply)[FieldCV])

		v.CV = &domain.LocalFile{Name: "cv.png", Size: 100, MimeType: "image/png"}
		assert.Equal(t, MsgCVType, ValidateStep(StepBackground, v, VariantApply)[FieldCV])

		v.CV = &domain.LocalFile{Name: "cv.pdf", Size: CVMaxSize + 1, MimeType: "application/pdf"}
		assert.Equal(t, MsgCVSize, ValidateStep(StepBackground, v, VariantApply)[FieldCV])
	})
}

func TestFinalReviewUnion(t *testing.T) {
	v := createTestValues(t)
	v.Email = "nope"
	v.Tools = nil
	v.GitHubLink = ""

	errs := ValidateStep(StepFinalReview, v, VariantApply)
	assert.Equal(t, []string{FieldEmail, FieldGitHubLink, FieldTools}, errs.Fields())
}

func TestController(t *testing.T) {
	t.Run("advances iff step is valid", func(t *testing.T) {
		valid := createTestValues(t)
		invalid := Values{}

		for i, step := range Steps[:len(Steps)-1] {
			for _, v := range []Values{valid, invalid} {
				f := createTestForm(t, v)
				c := NewController()
				c.GoTo(step)
				require.Equal(t, i, c.Index())

				empty := len(ValidateStep(step, v, VariantApply)) == 0
				assert.Equal(t, empty, c.Next(f), "step %s", step)
				if empty {
					assert.Equal(t, Steps[i+1], c.Current())
					assert.Empty(t, f.Errors())
				} else {
					assert.Equal(t, step, c.Current())
					assert.NotEmpty(t, f.Errors())
				}
			}
		}
	})

	t.Run("next on last step stays", func(t *testing.T) {
		f := createTestForm(t, createTestValues(t))
		c := NewController()
		c.GoTo(StepFinalReview)
		assert.True(t, c.IsLast())
		assert.False(t, c.Next(f))
		assert.Equal(t, StepFinalReview, c.Current())
	})

	t.Run("previous ignores errors", func(t *testing.T) {
		f := createTestForm(t, Values{})
		c := NewController()
		assert.True(t, c.IsFirst())
		assert.False(t, c.Previous(f))
		assert.Equal(t, StepAbout, c.Current())

		for i := len(Steps) - 1; i > 0; i-- {
			c.GoTo(Steps[i])
			f.SetErrors(Errors{FieldEmail: "bad"})
			assert.True(t, c.Previous(f))
			assert.Equal(t, Steps[i-1], c.Current())
			assert.Empty(t, f.Errors())
		}
	})

	t.Run("walk through", func(t *testing.T) {
		f := createTestForm(t, createTestValues(t))
		c := NewController()
		for !c.IsLast() {
			require.True(t, c.Next(f))
		}
		c.Reset()
		assert.Equal(t, StepAbout, c.Current())
	})
}

func TestStepOf(t *testing.T) {
	assert.Equal(t, StepPersonalInfo, StepOf(FieldEmail, VariantApply))
	assert.Equal(t, StepTrackSelection, StepOf(FieldTools, VariantApply))
	assert.Equal(t, StepBackground, StepOf(FieldCareerGoals, VariantApplicant))
	assert.Equal(t, StepFinalReview, StepOf(FieldCareerGoals, VariantApply))
}

func TestEarliestStep(t *testing.T) {
	errs := Errors{FieldCV: "Please upload your CV", FieldEmail: "Email is required"}
	assert.Equal(t, StepPersonalInfo, EarliestStep(errs, VariantApply))

	errs = Errors{FieldGitHubLink: "bad", FieldTools: "none"}
	assert.Equal(t, StepTrackSelection, EarliestStep(errs, VariantApply))

	assert.Equal(t, StepFinalReview, EarliestStep(Errors{"unknown": "x"}, VariantApply))
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("applicant")
	require.NoError(t, err)
	assert.Equal(t, VariantApplicant, v)
	assert.Equal(t, "/applicant", v.Route())

	v, err = ParseVariant("")
	require.NoError(t, err)
	assert.Equal(t, VariantApply, v)

	_, err = ParseVariant("legacy")
	assert.Error(t, err)
}
