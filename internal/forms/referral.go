// Package forms holds the validation and payload-building logic
// behind the admin modals: referral codes, the assignment form and
// the webhook test console.
package forms

import (
	"regexp"
	"strings"

	"signalpanel/internal/ports"
)

// Referral codes are three dash-separated groups of four uppercase
// alphanumerics, e.g. "A1B2-C3D4-E5F6".
var referralCodePattern = regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// NormalizeReferralCode uppercases and strips all whitespace, so
// pasted codes with stray spaces or newlines still validate.
func NormalizeReferralCode(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToUpper(raw) {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateReferralCode normalizes and checks the grouping pattern.
func ValidateReferralCode(raw string) (string, error) {
	code := NormalizeReferralCode(raw)
	if !referralCodePattern.MatchString(code) {
		return "", ports.ErrInvalidRequest
	}
	return code, nil
}

// AssignmentForm is the admin referral-assignment modal state. The
// download toggle picks between a per-code CSV and a ZIP bundle.
type AssignmentForm struct {
	FundManagerID string `json:"fund_manager_id"`
	Code          string `json:"code"`
	DownloadZIP   bool   `json:"download_zip"`
}

const minAssignmentCodeLen = 8

// CanSubmit mirrors the submit-button gate: both fields present and
// the code long enough after normalization.
func (f AssignmentForm) CanSubmit() bool {
	if strings.TrimSpace(f.FundManagerID) == "" {
		return false
	}
	return len(NormalizeReferralCode(f.Code)) >= minAssignmentCodeLen
}
