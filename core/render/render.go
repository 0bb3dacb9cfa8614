// Package render writes invariants and feature checks as Postman pm.test
// scripts. It is the only place that knows the script dialect.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Collection variables shared between steps
const (
	VarUserBefore     = "user_balance_before"
	VarUserAfter      = "user_balance_after"
	VarSystemBefore   = "system_balance_before"
	VarSystemAfter    = "system_balance_after"
	VarProductsBefore = "products_balance_before"
	VarProductsAfter  = "products_balance_after"
	VarActualFee      = "actual_fee"
	VarVoucherAmount  = "voucher_amount"
	VarVoucherCount   = "voucher_count"
)

// Response paths of the balance endpoints
const (
	pathUserBalance     = "jsonData.data.balance"
	pathSystemBalance   = "jsonData.data.system.balance"
	pathProductsBalance = "jsonData.data.totals.products"
	pathProducts        = "jsonData.data.products"
)

// script accumulates lines of one Postman script
type script struct {
	lines []string
}

func (s *script) line(format string, args ...any) {
	if len(args) == 0 {
		s.lines = append(s.lines, format)
		return
	}
	s.lines = append(s.lines, fmt.Sprintf(format, args...))
}

func (s *script) blank() {
	s.lines = append(s.lines, "")
}

// test writes one pm.test block around body lines, indented four spaces
func (s *script) test(name string, body ...string) {
	s.line("pm.test(%s, function () {", jsString(name))
	for _, b := range body {
		s.lines = append(s.lines, "    "+b)
	}
	s.line("});")
}

func (s *script) statusOK() {
	s.test("Status code is 200", "pm.response.to.have.status(200);")
}

func (s *script) set(variable, expr string) {
	s.line("pm.collectionVariables.set('%s', %s);", variable, expr)
}

// jsString quotes s as a JavaScript string literal
func jsString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

// jsValue renders a Go value as a JavaScript literal
func jsValue(v any) string {
	switch x := v.(type) {
	case string:
		return jsString(x)
	case decimal.Decimal:
		return number(x)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "undefined"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// number renders an amount with exactly two decimals
func number(d decimal.Decimal) string {
	return d.StringFixed(2)
}
