package wizard

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"strconv"
	"strings"
)

// ErrNoCV indicates an application was encoded without a CV.
var ErrNoCV = errors.New("no CV attached")

// EncodeApplication renders values as a multipart/form-data body. Scalars are
// plain fields, tools repeat once per selection, and the CV is a file part.
// It returns the body and its Content-Type.
func EncodeApplication(v Values, variant Variant) (*bytes.Buffer, string, error) {
	if v.CV == nil {
		return nil, "", ErrNoCV
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := []struct {
		name, value string
		optional    bool
	}{
		{FieldFirstName, v.FirstName, false},
		{FieldLastName, v.LastName, false},
		{FieldEmail, v.Email, false},
		{FieldPhoneNumber, v.PhoneNumber, false},
		{FieldGender, v.Gender, false},
		{FieldCountry, v.CountryName(), false},
		{FieldState, v.StateName(), false},
		{FieldTrack, v.Track.ID, false},
		{FieldCohortNumber, strconv.Itoa(v.CohortNumber), false},
		{FieldReferralSource, v.ReferralSource, false},
		{FieldReferralOther, v.ReferralOther, true},
		{FieldGitHubLink, v.GitHubLink, true},
		{FieldPortfolioLink, v.PortfolioLink, true},
		{variant.StatementField(), v.Statement, false},
	}
	for _, fld := range fields {
		value := strings.TrimSpace(fld.value)
		if fld.optional && value == "" {
			continue
		}
		if err := mw.WriteField(fld.name, value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", fld.name, err)
		}
	}
	for _, tool := range v.Tools {
		if err := mw.WriteField(FieldTools, tool); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", FieldTools, err)
		}
	}

	if err := writeCV(mw, v); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func writeCV(mw *multipart.Writer, v Values) error {
	f, err := os.Open(v.CV.Path)
	if err != nil {
		return fmt.Errorf("failed to open CV: %w", err)
	}
	defer f.Close()

	contentType := v.CV.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FieldCV, v.CV.Name))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create CV part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to read CV: %w", err)
	}
	return nil
}
