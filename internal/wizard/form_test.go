package wizard

import (
	"errors"
	"testing"

	"github.com/robby/learnhub/internal/domain"
	"github.com/robby/learnhub/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetFieldLiveValidation(t *testing.T) {
	f := NewForm(VariantApply)

	require.NoError(t, f.SetField(FieldEmail, "ada@"))
	assert.Equal(t, validate.MsgEmail, f.Error(FieldEmail))

	require.NoError(t, f.SetField(FieldEmail, "ada@example.com"))
	assert.Empty(t, f.Error(FieldEmail))
	assert.Equal(t, "ada@example.com", f.Field(FieldEmail))

	// An emptied field loses its error; the required check waits for the step.
	require.NoError(t, f.SetField(FieldPhoneNumber, "12"))
	assert.Equal(t, validate.MsgPhone, f.Error(FieldPhoneNumber))
	require.NoError(t, f.SetField(FieldPhoneNumber, ""))
	assert.Empty(t, f.Error(FieldPhoneNumber))
}

func TestSetFieldClearsStepError(t *testing.T) {
	f := NewForm(VariantApply)
	c := NewController()
	c.GoTo(StepPersonalInfo)
	require.False(t, c.Next(f))
	require.Equal(t, "First name is required", f.Error(FieldFirstName))

	require.NoError(t, f.SetField(FieldFirstName, "Ada"))
	assert.Empty(t, f.Error(FieldFirstName))
	assert.NotEmpty(t, f.Error(FieldLastName))
}

func TestSetFieldVariant(t *testing.T) {
	f := NewForm(VariantApplicant)
	require.NoError(t, f.SetField(FieldCareerGoals, "short"))
	assert.Equal(t, "Career goals must be at least 50 characters", f.Error(FieldCareerGoals))

	err := f.SetField(FieldMotivation, "anything")
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestSelectTrackResetsTools(t *testing.T) {
	f := NewForm(VariantApply)
	frontend := domain.Track{ID: "tr1", Name: "Frontend Development"}
	backend := domain.Track{ID: "tr2", Name: "Backend Development"}

	f.SelectTrack(frontend)
	f.ToggleTool("React")
	f.ToggleTool("Git")
	assert.Equal(t, []string{"React", "Git"}, f.Values().Tools)

	f.SelectTrack(frontend)
	assert.Len(t, f.Values().Tools, 2, "reselecting the same track keeps tools")

	f.SelectTrack(backend)
	assert.Empty(t, f.Values().Tools)
	assert.Equal(t, "tr2", f.Values().Track.ID)
}

func TestToggleTool(t *testing.T) {
	f := NewForm(VariantApply)
	f.ToggleTool("Go")
	f.ToggleTool("Docker")
	f.ToggleTool("Go")
	assert.Equal(t, []string{"Docker"}, f.Values().Tools)
	assert.True(t, f.Values().HasTool("Docker"))
	assert.False(t, f.Values().HasTool("Go"))
}

func TestSetCountryResetsState(t *testing.T) {
	f := NewForm(VariantApply)
	f.SetCountry(domain.Specific("Nigeria"))
	f.SetState(domain.Specific("Lagos"))

	f.SetCountry(domain.Specific("Nigeria"))
	assert.Equal(t, "Lagos", f.Values().State.Value())

	f.SetCountry(domain.Other())
	require.NoError(t, f.SetField(FieldOtherCountry, "Togo"))
	assert.True(t, f.Values().State.IsUnset())
	assert.Equal(t, "Togo", f.Values().CountryName())

	f.SetCountry(domain.Specific("Ghana"))
	assert.Empty(t, f.Values().OtherCountry)
}

func TestReferralSourceClearsElaboration(t *testing.T) {
	f := NewForm(VariantApply)
	require.NoError(t, f.SetField(FieldReferralSource, ReferralOther))
	require.NoError(t, f.SetField(FieldReferralOther, "A podcast"))

	require.NoError(t, f.SetField(FieldReferralSource, "friend"))
	assert.Empty(t, f.Values().ReferralOther)
}

func TestSetCV(t *testing.T) {
	f := NewForm(VariantApply)
	f.SetCV(&domain.LocalFile{Name: "cv.exe", Size: 10, MimeType: "application/x-msdownload"})
	assert.Equal(t, MsgCVType, f.Error(FieldCV))

	f.SetCV(createTestCV(t))
	assert.Empty(t, f.Error(FieldCV))
}

func TestFormReset(t *testing.T) {
	f := createTestForm(t, createTestValues(t))
	f.SetErrors(Errors{FieldEmail: "taken"})

	f.Reset()
	assert.Equal(t, Values{}, f.Values())
	assert.Empty(t, f.Errors())
}

func TestReview(t *testing.T) {
	v := createTestValues(t)
	v.Country = domain.Other()
	v.OtherCountry = "Togo"
	v.State = domain.Other()
	v.OtherState = "Maritime"
	f := createTestForm(t, v)

	rows := f.Review()
	got := map[string]string{}
	for _, r := range rows {
		got[r[0]] = r[1]
	}
	assert.Equal(t, "Ada Lovelace", got["Name"])
	assert.Equal(t, "Maritime, Togo", got["Location"])
	assert.Equal(t, "React, Git", got["Tools"])
	assert.Equal(t, "https://github.com/ada", got["GitHub"])
	assert.NotContains(t, got, "Portfolio")
}
