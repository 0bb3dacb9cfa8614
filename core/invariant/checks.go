package invariant

import (
	"fmt"
	"strings"

	"billing-fixtures/core/catalog"
	"billing-fixtures/core/scenario"
)

// Match is how a feature check inspects the stored voucher instructions
type Match string

const (
	// MatchMember tests membership of Value in the array at Path
	MatchMember Match = "member"
	// MatchEqual tests that Path holds Value
	MatchEqual Match = "equal"
	// MatchExists tests that Path holds any value
	MatchExists Match = "exists"
	// MatchLength tests the length of the array at Path
	MatchLength Match = "length"
)

// FeatureCheck asserts one aspect of the generated voucher's instructions.
// Absent checks assert the negation: not a member, or no value at Path.
type FeatureCheck struct {
	Name string

	// Feature is empty for rail, strategy and count checks
	Feature catalog.Feature

	Present bool
	Path    string
	Match   Match
	Value   any
}

// Instruction paths inside the voucher details
const (
	PathInputFields    = "inputs.fields"
	PathSettlementRail = "cash.settlement_rail"
	PathFeeStrategy    = "cash.fee_strategy"
)

// FeatureChecks returns one check per feature variant, presence for the
// selected ones and absence for every other, followed by the input field
// count and the settlement configuration.
func FeatureChecks(spec scenario.Spec) []FeatureCheck {
	all := catalog.All()
	checks := make([]FeatureCheck, 0, len(all)+3)

	for _, f := range all {
		checks = append(checks, featureCheck(f, spec.Has(f)))
	}

	checks = append(checks, FeatureCheck{
		Name:    fmt.Sprintf("Exactly %d input fields", len(spec.InGroup(catalog.GroupInputField))),
		Present: true,
		Path:    PathInputFields,
		Match:   MatchLength,
		Value:   len(spec.InGroup(catalog.GroupInputField)),
	})

	if spec.Rail == catalog.RailNone {
		checks = append(checks, FeatureCheck{
			Name:  "No settlement rail configured",
			Path:  PathSettlementRail,
			Match: MatchEqual,
		})
		return checks
	}

	return append(checks,
		FeatureCheck{
			Name:    fmt.Sprintf("Settlement rail is %s", spec.Rail),
			Present: true,
			Path:    PathSettlementRail,
			Match:   MatchEqual,
			Value:   strings.ToLower(string(spec.Rail)),
		},
		FeatureCheck{
			Name:    fmt.Sprintf("Fee strategy is %s", spec.Strategy),
			Present: true,
			Path:    PathFeeStrategy,
			Match:   MatchEqual,
			Value:   string(spec.Strategy),
		},
	)
}

func featureCheck(f catalog.Feature, present bool) FeatureCheck {
	c := FeatureCheck{Feature: f, Present: present, Path: string(f)}

	if f.Group() == catalog.GroupInputField {
		c.Path = PathInputFields
		c.Match = MatchMember
		c.Value = f.Name()
		c.Name = fmt.Sprintf("%s input field %s", f.Label(), presence(present, "present", "absent"))
		return c
	}

	switch value := scenario.SampleValue(f).(type) {
	case string:
		if f == catalog.RiderSplash {
			c.Match = MatchExists
		} else {
			c.Match = MatchEqual
			c.Value = value
		}
	default:
		c.Match = MatchExists
	}

	var subject string
	switch f.Group() {
	case catalog.GroupFeedback:
		subject = "Feedback " + f.Label()
	case catalog.GroupCashValidation:
		subject = "Cash validation " + f.Label()
	case catalog.GroupValidation:
		subject = f.Label() + " validation"
	case catalog.GroupRider:
		subject = "Rider " + f.Label()
	default:
		subject = string(f)
	}
	c.Name = fmt.Sprintf("%s %s", subject, presence(present, "configured", "not configured"))
	return c
}

func presence(present bool, yes, no string) string {
	if present {
		return yes
	}
	return no
}
