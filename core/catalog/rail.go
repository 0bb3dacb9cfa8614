package catalog

import "strings"

// Rail is the disbursement network used to settle redeemed vouchers
type Rail string

const (
	RailNone     Rail = "NONE"
	RailInstapay Rail = "INSTAPAY"
	RailPesonet  Rail = "PESONET"
)

// Rails returns every rail in canonical order
func Rails() []Rail {
	return []Rail{RailNone, RailInstapay, RailPesonet}
}

// Valid reports whether r is a known rail
func (r Rail) Valid() bool {
	switch r {
	case RailNone, RailInstapay, RailPesonet:
		return true
	}
	return false
}

// ParseRail parses a rail name case-insensitively; empty means NONE
func ParseRail(s string) (Rail, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return RailNone, true
	}
	r := Rail(s)
	return r, r.Valid()
}
