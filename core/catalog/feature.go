package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Feature is a billable voucher capability, named by its dotted selector
type Feature string

// Input fields collected from the redeemer
const (
	InputEmail              Feature = "inputs.fields.email"
	InputMobile             Feature = "inputs.fields.mobile"
	InputName               Feature = "inputs.fields.name"
	InputAddress            Feature = "inputs.fields.address"
	InputBirthDate          Feature = "inputs.fields.birth_date"
	InputGrossMonthlyIncome Feature = "inputs.fields.gross_monthly_income"
	InputSignature          Feature = "inputs.fields.signature"
	InputLocation           Feature = "inputs.fields.location"
	InputReferenceCode      Feature = "inputs.fields.reference_code"
	InputOTP                Feature = "inputs.fields.otp"
	InputSelfie             Feature = "inputs.fields.selfie"
)

// Feedback channels notified on redemption
const (
	FeedbackEmail   Feature = "feedback.email"
	FeedbackMobile  Feature = "feedback.mobile"
	FeedbackWebhook Feature = "feedback.webhook"
)

// Cash validation rules
const (
	CashValidationSecret Feature = "cash.validation.secret"
	CashValidationMobile Feature = "cash.validation.mobile"
)

// Location and time validation
const (
	ValidationLocation Feature = "validation.location"
	ValidationTime     Feature = "validation.time"
)

// Rider content shown after redemption
const (
	RiderMessage Feature = "rider.message"
	RiderURL     Feature = "rider.url"
	RiderSplash  Feature = "rider.splash"
)

// Group classifies features for reporting and labels
type Group string

const (
	GroupInputField     Group = "Input Fields"
	GroupFeedback       Group = "Feedback"
	GroupCashValidation Group = "Cash Validation"
	GroupValidation     Group = "Validation"
	GroupRider          Group = "Rider"
)

// features is the canonical order of every variant
var features = []Feature{
	InputEmail,
	InputMobile,
	InputName,
	InputAddress,
	InputBirthDate,
	InputGrossMonthlyIncome,
	InputSignature,
	InputLocation,
	InputReferenceCode,
	InputOTP,
	InputSelfie,
	FeedbackEmail,
	FeedbackMobile,
	FeedbackWebhook,
	CashValidationSecret,
	CashValidationMobile,
	ValidationLocation,
	ValidationTime,
	RiderMessage,
	RiderURL,
	RiderSplash,
}

var rank = func() map[Feature]int {
	m := make(map[Feature]int, len(features))
	for i, f := range features {
		m[f] = i
	}
	return m
}()

// All returns every feature variant in canonical order
func All() []Feature {
	out := make([]Feature, len(features))
	copy(out, features)
	return out
}

// Valid reports whether f is a known variant
func (f Feature) Valid() bool {
	_, ok := rank[f]
	return ok
}

// Less orders features canonically; unknown selectors sort last, lexically
func Less(a, b Feature) bool {
	ra, aok := rank[a]
	rb, bok := rank[b]
	switch {
	case aok && bok:
		return ra < rb
	case aok != bok:
		return aok
	default:
		return a < b
	}
}

// Compare is Less as a three-way comparison, for slices.SortFunc
func Compare(a, b Feature) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	}
	return 0
}

// Group returns the feature group
func (f Feature) Group() Group {
	s := string(f)
	switch {
	case strings.HasPrefix(s, "inputs.fields."):
		return GroupInputField
	case strings.HasPrefix(s, "feedback."):
		return GroupFeedback
	case strings.HasPrefix(s, "cash.validation."):
		return GroupCashValidation
	case strings.HasPrefix(s, "validation."):
		return GroupValidation
	case strings.HasPrefix(s, "rider."):
		return GroupRider
	}
	return ""
}

// Name returns the last selector segment, e.g. "birth_date"
func (f Feature) Name() string {
	s := string(f)
	return s[strings.LastIndexByte(s, '.')+1:]
}

// Label returns a display label, e.g. "Birth Date", "URL"
func (f Feature) Label() string {
	switch f.Name() {
	case "url":
		return "URL"
	case "otp":
		return "OTP"
	}
	// Casers are stateful and must not be shared.
	return cases.Title(language.English).String(strings.ReplaceAll(f.Name(), "_", " "))
}

// requestAliases maps request-body field names to selectors
var requestAliases = map[string]Feature{
	"feedback_email":      FeedbackEmail,
	"feedback_mobile":     FeedbackMobile,
	"feedback_webhook":    FeedbackWebhook,
	"validation_secret":   CashValidationSecret,
	"validation_mobile":   CashValidationMobile,
	"validation_location": ValidationLocation,
	"validation_time":     ValidationTime,
	"rider_message":       RiderMessage,
	"rider_url":           RiderURL,
	"rider_splash":        RiderSplash,
}

// ParseFeature accepts a dotted selector, a request-body field name
// ("feedback_email") or a bare input field name ("email"), case-insensitively.
func ParseFeature(s string) (Feature, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if f := Feature(key); f.Valid() {
		return f, true
	}
	if f, ok := requestAliases[key]; ok {
		return f, true
	}
	if f := Feature("inputs.fields." + key); f.Valid() {
		return f, true
	}
	return "", false
}
