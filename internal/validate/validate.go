// Package validate provides the pure field validators used by the application wizard.
// Each validator returns "" when the value is acceptable, or a human-readable message.
package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// User-facing messages.
const (
	MsgEmail         = "Please enter a valid email address"
	MsgPhone         = "Please enter a valid phone number (at least 10 digits)"
	MsgURL           = "Please enter a valid URL starting with http:// or https://"
	MsgGitHubProfile = "Please enter a valid GitHub profile URL (e.g. https://github.com/username)"
)

// MinPhoneDigits is the number of digits a phone number must contain.
const MinPhoneDigits = 10

var (
	v = validator.New()

	phoneRegex  = regexp.MustCompile(`^[0-9+\-() ]+$`)
	githubRegex = regexp.MustCompile(`^https?://(www\.)?github\.com/[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})/?$`)
)

// Required returns "<label> is required" when value is blank.
func Required(value, label string) string {
	if strings.TrimSpace(value) == "" {
		return fmt.Sprintf("%s is required", label)
	}
	return ""
}

// Email checks address shape.
func Email(value string) string {
	if err := v.Var(strings.TrimSpace(value), "required,email"); err != nil {
		return MsgEmail
	}
	return ""
}

// Phone accepts digits, '+', '-', '(', ')' and spaces, with at least MinPhoneDigits digits.
func Phone(value string) string {
	value = strings.TrimSpace(value)
	if !phoneRegex.MatchString(value) {
		return MsgPhone
	}
	digits := 0
	for _, r := range value {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if digits < MinPhoneDigits {
		return MsgPhone
	}
	return ""
}

// URL checks that value parses as an absolute http(s) URL.
func URL(value string) string {
	value = strings.TrimSpace(value)
	if err := v.Var(value, "required,url"); err != nil {
		return MsgURL
	}
	u, err := url.Parse(value)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return MsgURL
	}
	return ""
}

// GitHubProfile checks for https?://(www.)?github.com/<handle>/?
func GitHubProfile(value string) string {
	if !githubRegex.MatchString(strings.TrimSpace(value)) {
		return MsgGitHubProfile
	}
	return ""
}

// MaxLength checks value is at most max characters.
func MaxLength(value, label string, max int) string {
	if utf8.RuneCountInString(strings.TrimSpace(value)) > max {
		return fmt.Sprintf("%s must be at most %d characters", label, max)
	}
	return ""
}

// LengthBetween checks value has between min and max characters (inclusive).
func LengthBetween(value, label string, min, max int) string {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < min {
		return fmt.Sprintf("%s must be at least %d characters", label, min)
	}
	if n > max {
		return fmt.Sprintf("%s must be at most %d characters", label, max)
	}
	return ""
}

// First returns the first non-empty message.
func First(msgs ...string) string {
	for _, m := range msgs {
		if m != "" {
			return m
		}
	}
	return ""
}
