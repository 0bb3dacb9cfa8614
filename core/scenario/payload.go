package scenario

import (
	"bytes"
	"encoding/json"
	"strings"

	"billing-fixtures/core/catalog"
)

// Sample values sent for each selected feature. Detail checks compare
// against the same values, so they are defined once here.
const (
	SampleEmail       = "test@example.com"
	SampleMobile      = "+639171234567"
	SampleWebhook     = "https://webhook.site/test"
	SampleSecret      = "TEST1234"
	SampleRiderText   = "Thank you for redeeming!"
	SampleRiderURL    = "https://example.com/promo"
	SampleSplash      = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8DwHwAFBQIAX8jx0gAAAABJRU5ErkJggg=="
	SampleSplashDelay = 5
)

// LocationRule is the geofence sent for location validation
type LocationRule struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    int     `json:"radius"`
	OnFailure string  `json:"on_failure"`
}

// TimeWindow bounds redemption to a daily window
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TimeRule is the window and duration sent for time validation
type TimeRule struct {
	Window       TimeWindow `json:"window"`
	LimitMinutes int        `json:"limit_minutes"`
}

// SampleLocation is the geofence used when location validation is selected
var SampleLocation = LocationRule{Latitude: 14.5995, Longitude: 120.9842, Radius: 500, OnFailure: "reject"}

// SampleTime is the rule used when time validation is selected
var SampleTime = TimeRule{Window: TimeWindow{Start: "09:00", End: "17:00"}, LimitMinutes: 30}

// Body is the voucher generation request payload
type Body struct {
	Amount  json.Number `json:"amount"`
	Count   int         `json:"count"`
	Prefix  string      `json:"prefix,omitempty"`
	Mask    string      `json:"mask,omitempty"`
	TTLDays int         `json:"ttl_days,omitempty"`

	InputFields []string `json:"input_fields,omitempty"`

	FeedbackEmail   string `json:"feedback_email,omitempty"`
	FeedbackMobile  string `json:"feedback_mobile,omitempty"`
	FeedbackWebhook string `json:"feedback_webhook,omitempty"`

	ValidationSecret   string        `json:"validation_secret,omitempty"`
	ValidationMobile   string        `json:"validation_mobile,omitempty"`
	ValidationLocation *LocationRule `json:"validation_location,omitempty"`
	ValidationTime     *TimeRule     `json:"validation_time,omitempty"`

	RiderMessage       string `json:"rider_message,omitempty"`
	RiderURL           string `json:"rider_url,omitempty"`
	RiderSplash        string `json:"rider_splash,omitempty"`
	RiderSplashTimeout int    `json:"rider_splash_timeout,omitempty"`

	SettlementRail string `json:"settlement_rail,omitempty"`
	FeeStrategy    string `json:"fee_strategy,omitempty"`
}

// SampleValue returns the value sent for a feature, as it appears in the
// voucher's stored instructions. Input fields have no value of their own.
func SampleValue(f catalog.Feature) any {
	switch f {
	case catalog.FeedbackEmail:
		return SampleEmail
	case catalog.FeedbackMobile, catalog.CashValidationMobile:
		return SampleMobile
	case catalog.FeedbackWebhook:
		return SampleWebhook
	case catalog.CashValidationSecret:
		return SampleSecret
	case catalog.ValidationLocation:
		return SampleLocation
	case catalog.ValidationTime:
		return SampleTime
	case catalog.RiderMessage:
		return SampleRiderText
	case catalog.RiderURL:
		return SampleRiderURL
	case catalog.RiderSplash:
		return SampleSplash
	}
	return nil
}

// Payload builds the request body for a spec
func (s Spec) Payload() Body {
	b := Body{
		Amount:  json.Number(s.BaseAmount.String()),
		Count:   s.Count,
		Prefix:  s.Extras.Prefix,
		Mask:    s.Extras.Mask,
		TTLDays: s.Extras.TTLDays,
	}

	for _, f := range s.Features {
		switch f {
		case catalog.FeedbackEmail:
			b.FeedbackEmail = SampleEmail
		case catalog.FeedbackMobile:
			b.FeedbackMobile = SampleMobile
		case catalog.FeedbackWebhook:
			b.FeedbackWebhook = SampleWebhook
		case catalog.CashValidationSecret:
			b.ValidationSecret = SampleSecret
		case catalog.CashValidationMobile:
			b.ValidationMobile = SampleMobile
		case catalog.ValidationLocation:
			loc := SampleLocation
			b.ValidationLocation = &loc
		case catalog.ValidationTime:
			tr := SampleTime
			b.ValidationTime = &tr
		case catalog.RiderMessage:
			b.RiderMessage = SampleRiderText
		case catalog.RiderURL:
			b.RiderURL = SampleRiderURL
		case catalog.RiderSplash:
			b.RiderSplash = SampleSplash
			b.RiderSplashTimeout = SampleSplashDelay
		default:
			if f.Group() == catalog.GroupInputField {
				b.InputFields = append(b.InputFields, f.Name())
			}
		}
	}

	if s.Rail != catalog.RailNone {
		b.SettlementRail = strings.ToLower(string(s.Rail))
		b.FeeStrategy = string(s.Strategy)
	}
	return b
}

// RawBody renders the payload as indented JSON, as stored in the request
func (s Spec) RawBody() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.Payload()); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
