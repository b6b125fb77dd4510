package wizard

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/robby/learnhub/internal/api"
	"go.uber.org/zap"
)

// User-facing submission copy.
const (
	MsgSuccess         = "Application submitted! We'll be in touch by email."
	MsgConnection      = "Unable to reach the server. Please check your connection and try again."
	MsgDuplicate       = "You have already applied for this cohort. We'll contact you by email about your application."
	MsgExistingAccount = "An account with this email already exists. Please use a different email address."
	MsgFieldErrors     = "Please correct the highlighted fields and try again."
	MsgGeneric         = "Something went wrong while submitting your application. Please try again."
)

// Applier posts an encoded application. *api.Client implements it.
type Applier interface {
	Apply(ctx context.Context, body io.Reader, contentType string) (string, error)
}

// Outcome is the result of a submission as the applicant should see it.
type Outcome struct {
	Success     bool
	Message     string
	FieldErrors Errors // Backend validation errors keyed by wire field name
}

// Submitter encodes and posts applications. It never retries.
type Submitter struct {
	applier Applier
	variant Variant
	logger  *zap.Logger
}

// NewSubmitter creates a submitter. logger may be nil.
func NewSubmitter(applier Applier, variant Variant, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{applier: applier, variant: variant, logger: logger}
}

// Submit validates, encodes and posts values exactly once.
func (s *Submitter) Submit(ctx context.Context, v Values) Outcome {
	if errs := ValidateAll(v, s.variant); len(errs) > 0 {
		return Outcome{Message: MsgFieldErrors, FieldErrors: errs}
	}

	body, contentType, err := EncodeApplication(v, s.variant)
	if err != nil {
		s.logger.Error("failed to encode application", zap.Error(err))
		return Outcome{Message: MsgGeneric}
	}

	if _, err := s.applier.Apply(ctx, body, contentType); err != nil {
		out := Translate(err)
		s.logger.Warn("application rejected",
			zap.String("email", v.Email),
			zap.String("outcome", out.Message),
			zap.Error(err),
		)
		return out
	}

	s.logger.Info("application submitted",
		zap.String("email", v.Email),
		zap.String("track", v.Track.Key()),
	)
	return Outcome{Success: true, Message: MsgSuccess}
}

// fieldAliases maps backend field names onto the form's wire names.
var fieldAliases = map[string]string{
	"track":  FieldTrack,
	"phone":  FieldPhoneNumber,
	"github": FieldGitHubLink,
	"resume": FieldCV,
	"cohort": FieldCohortNumber,
}

// Translate maps a submission error onto user-facing copy.
func Translate(err error) Outcome {
	if errors.Is(err, api.ErrNetwork) {
		return Outcome{Message: MsgConnection}
	}

	var apiErr *api.Error
	if !errors.As(err, &apiErr) {
		return Outcome{Message: MsgGeneric}
	}

	// Any client error may carry errors[]; a conflict is always a duplicate.
	if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusConflict {
		fields := Errors{}
		for _, fe := range apiErr.FieldErrors {
			if fe.Field == "" || fe.Message == "" {
				continue
			}
			name := fe.Field
			if alias, ok := fieldAliases[name]; ok {
				name = alias
			}
			fields[name] = fe.Message
		}
		if len(fields) > 0 {
			return Outcome{Message: MsgFieldErrors, FieldErrors: fields}
		}
	}

	msg := strings.ToLower(apiErr.Message)
	switch {
	case apiErr.StatusCode == http.StatusConflict:
		return Outcome{Message: MsgDuplicate}
	case strings.Contains(msg, "already applied"):
		return Outcome{Message: MsgDuplicate}
	case strings.Contains(msg, "already exists"):
		return Outcome{Message: MsgExistingAccount}
	}
	return Outcome{Message: MsgGeneric}
}
