package wizard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/robby/learnhub/internal/api"
	"github.com/robby/learnhub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeApplier records every call and returns err.
type fakeApplier struct {
	calls       int
	contentType string
	body        []byte
	err         error
}

func (f *fakeApplier) Apply(_ context.Context, body io.Reader, contentType string) (string, error) {
	f.calls++
	f.contentType = contentType
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.body = data
	if f.err != nil {
		return "", f.err
	}
	return "Application received", nil
}

// parts decodes the recorded multipart body into field -> values, plus file parts.
func (f *fakeApplier) parts(t *testing.T) (map[string][]string, map[string][]byte) {
	t.Helper()
	_, params, err := mime.ParseMediaType(f.contentType)
	require.NoError(t, err)

	fields := map[string][]string{}
	files := map[string][]byte{}
	r := multipart.NewReader(bytes.NewReader(f.body), params["boundary"])
	for {
		p, err := r.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(p)
		require.NoError(t, err)
		if p.FileName() != "" {
			files[p.FormName()] = data
			continue
		}
		fields[p.FormName()] = append(fields[p.FormName()], string(data))
	}
	return fields, files
}

func TestSubmitSuccess(t *testing.T) {
	v := createTestValues(t)
	applier := &fakeApplier{}
	s := NewSubmitter(applier, VariantApply, zaptest.NewLogger(t))

	out := s.Submit(context.Background(), v)
	require.True(t, out.Success)
	assert.Equal(t, MsgSuccess, out.Message)
	assert.Equal(t, 1, applier.calls)

	fields, files := applier.parts(t)
	for name, want := range map[string]string{
		FieldFirstName:      "Ada",
		FieldLastName:       "Lovelace",
		FieldEmail:          "ada@example.com",
		FieldPhoneNumber:    "+234 803 123 4567",
		FieldGender:         "Female",
		FieldCountry:        "Nigeria",
		FieldState:          "Lagos",
		FieldTrack:          "tr1",
		FieldCohortNumber:   "5",
		FieldReferralSource: "friend",
		FieldGitHubLink:     "https://github.com/ada",
	} {
		assert.Equal(t, []string{want}, fields[name], "field %s", name)
	}
	assert.Equal(t, []string{"React", "Git"}, fields[FieldTools])
	assert.Len(t, fields[FieldMotivation], 1)
	assert.NotContains(t, fields, FieldPortfolioLink)
	assert.NotContains(t, fields, FieldCareerGoals)

	require.Contains(t, files, FieldCV)
	assert.Equal(t, int64(len(files[FieldCV])), v.CV.Size)
}

func TestSubmitApplicantVariant(t *testing.T) {
	applier := &fakeApplier{}
	s := NewSubmitter(applier, VariantApplicant, nil)

	out := s.Submit(context.Background(), createTestValues(t))
	require.True(t, out.Success)

	fields, _ := applier.parts(t)
	assert.Len(t, fields[FieldCareerGoals], 1)
	assert.NotContains(t, fields, FieldMotivation)
}

func TestSubmitOtherCountry(t *testing.T) {
	v := createTestValues(t)
	v.Country = domain.Other()
	v.OtherCountry = "Togo"
	v.State = domain.Other()
	v.OtherState = "Maritime"
	applier := &fakeApplier{}

	out := NewSubmitter(applier, VariantApply, nil).Submit(context.Background(), v)
	require.True(t, out.Success)

	fields, _ := applier.parts(t)
	assert.Equal(t, []string{"Togo"}, fields[FieldCountry])
	assert.Equal(t, []string{"Maritime"}, fields[FieldState])
}

func TestSubmitInvalidSkipsRequest(t *testing.T) {
	v := createTestValues(t)
	v.Email = "not-an-email"
	applier := &fakeApplier{}

	out := NewSubmitter(applier, VariantApply, nil).Submit(context.Background(), v)
	assert.False(t, out.Success)
	assert.Equal(t, 0, applier.calls)
	assert.True(t, out.FieldErrors.Has(FieldEmail))
}

func TestSubmitConflict(t *testing.T) {
	applier := &fakeApplier{err: fmt.Errorf("failed to submit application: %w", &api.Error{
		StatusCode: http.StatusConflict,
		Message:    "Duplicate application",
	})}

	out := NewSubmitter(applier, VariantApply, nil).Submit(context.Background(), createTestValues(t))
	assert.False(t, out.Success)
	assert.Equal(t, MsgDuplicate, out.Message)
	assert.Equal(t, 1, applier.calls)
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantMsg    string
		wantFields Errors
	}{
		{
			name:    "network",
			err:     fmt.Errorf("%w: connection refused", api.ErrNetwork),
			wantMsg: MsgConnection,
		},
		{
			name: "field errors",
			err: &api.Error{StatusCode: http.StatusBadRequest, Message: "Validation failed", FieldErrors: []api.FieldError{
				{Field: "email", Message: "Email already used"},
				{Field: "phone", Message: "Invalid phone"},
				{Message: "unkeyed"},
			}},
			wantMsg:    MsgFieldErrors,
			wantFields: Errors{FieldEmail: "Email already used", FieldPhoneNumber: "Invalid phone"},
		},
		{
			name: "unprocessable with field errors",
			err: &api.Error{StatusCode: http.StatusUnprocessableEntity, Message: "Unprocessable", FieldErrors: []api.FieldError{
				{Field: "resume", Message: "CV is too large"},
			}},
			wantMsg:    MsgFieldErrors,
			wantFields: Errors{FieldCV: "CV is too large"},
		},
		{
			name:    "server error ignores field errors",
			err:     &api.Error{StatusCode: http.StatusBadGateway, FieldErrors: []api.FieldError{{Field: "email", Message: "x"}}},
			wantMsg: MsgGeneric,
		},
		{
			name:    "conflict",
			err:     &api.Error{StatusCode: http.StatusConflict},
			wantMsg: MsgDuplicate,
		},
		{
			name:    "already applied",
			err:     &api.Error{StatusCode: http.StatusBadRequest, Message: "You have Already Applied for this cohort"},
			wantMsg: MsgDuplicate,
		},
		{
			name:    "already exists",
			err:     &api.Error{StatusCode: http.StatusBadRequest, Message: "User already exists"},
			wantMsg: MsgExistingAccount,
		},
		{
			name:    "server error",
			err:     &api.Error{StatusCode: http.StatusInternalServerError, Message: "boom"},
			wantMsg: MsgGeneric,
		},
		{
			name:    "unknown",
			err:     errors.New("something odd"),
			wantMsg: MsgGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Translate(tt.err)
			assert.False(t, out.Success)
			assert.Equal(t, tt.wantMsg, out.Message)
			assert.Equal(t, tt.wantFields, out.FieldErrors)
		})
	}
}

func TestEncodeApplicationRequiresCV(t *testing.T) {
	v := createTestValues(t)
	v.CV = nil
	_, _, err := EncodeApplication(v, VariantApply)
	assert.ErrorIs(t, err, ErrNoCV)
}
