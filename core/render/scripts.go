package render

import (
	"fmt"
	"strings"

	"billing-fixtures/core/invariant"
	"billing-fixtures/core/ledger"
	"billing-fixtures/core/scenario"
)

// balance says where a script reads an account's before and after values
type balance struct {
	account       ledger.Account
	before, after string
}

func fromVariable(name string) string {
	return fmt.Sprintf("parseFloat(pm.collectionVariables.get('%s'))", name)
}

func fromResponse(path string) string {
	return fmt.Sprintf("parseFloat(%s)", path)
}

// CaptureUser is the test script of the user balance step run before generation
func CaptureUser() []string {
	var s script
	s.statusOK()
	s.blank()
	s.line("const jsonData = pm.response.json();")
	s.line("const userBefore = %s;", fromResponse(pathUserBalance))
	s.set(VarUserBefore, "userBefore")
	s.line("console.log('User balance (before): ₱' + userBefore.toFixed(2));")
	return s.lines
}

// CaptureSystem is the test script of the system balances step run before generation
func CaptureSystem() []string {
	var s script
	s.statusOK()
	s.blank()
	s.line("const jsonData = pm.response.json();")
	s.line("const systemBefore = %s;", fromResponse(pathSystemBalance))
	s.line("const productsBefore = %s;", fromResponse(pathProductsBalance))
	s.set(VarSystemBefore, "systemBefore")
	s.set(VarProductsBefore, "productsBefore")
	s.line("console.log('System balance (before): ₱' + systemBefore.toFixed(2));")
	s.line("console.log('Products balance (before): ₱' + productsBefore.toFixed(2));")
	return s.lines
}

// Prerequest is the pre-request script of the generation step. It publishes
// the voucher amount and count that the balance checks read back.
func Prerequest(spec scenario.Spec) []string {
	var s script
	s.set(VarVoucherAmount, number(spec.BaseAmount))
	s.set(VarVoucherCount, fmt.Sprint(spec.Count))
	return s.lines
}

// UserAfter is the test script of the user balance step run after generation
func UserAfter(invs []invariant.Invariant) []string {
	var s script
	s.statusOK()
	s.blank()
	s.line("const jsonData = pm.response.json();")
	s.balances([]balance{
		{account: ledger.User, before: fromVariable(VarUserBefore), after: fromResponse(pathUserBalance)},
	}, "userDecrease - voucherTotal")
	s.blank()
	s.set(VarUserAfter, "userAfter")
	s.set(VarActualFee, "feeCharged")
	s.checks(invs)
	s.blank()
	s.line("console.log('User balance: ₱' + userBefore.toFixed(2) + ' -> ₱' + userAfter.toFixed(2) + ', fee ₱' + feeCharged.toFixed(2));")
	return s.lines
}

// SystemAfter is the test script of the system balances step run after generation
func SystemAfter(invs []invariant.Invariant) []string {
	var s script
	s.statusOK()
	s.blank()
	s.line("const jsonData = pm.response.json();")
	s.balances([]balance{
		{account: ledger.User, before: fromVariable(VarUserBefore), after: fromVariable(VarUserAfter)},
		{account: ledger.System, before: fromVariable(VarSystemBefore), after: fromResponse(pathSystemBalance)},
		{account: ledger.Products, before: fromVariable(VarProductsBefore), after: fromResponse(pathProductsBalance)},
	}, fromVariable(VarActualFee))
	s.line("const products = %s || [];", pathProducts)
	s.blank()
	s.set(VarSystemAfter, "systemAfter")
	s.set(VarProductsAfter, "productsAfter")
	s.checks(invs)
	s.blank()
	s.line("console.log('System change: ₱' + systemIncrease.toFixed(2) + ', products change: ₱' + productsIncrease.toFixed(2));")
	return s.lines
}

// Details is the test script of the voucher details step
func Details(checks []invariant.FeatureCheck) []string {
	var s script
	s.statusOK()
	s.blank()
	s.line("const jsonData = pm.response.json();")
	s.line("const voucher = jsonData.data.voucher;")
	s.line("function valueAt(path) {")
	s.line("    return path.split('.').reduce(function (node, key) {")
	s.line("        return node === undefined || node === null ? undefined : node[key];")
	s.line("    }, voucher.instructions);")
	s.line("}")
	for _, c := range checks {
		s.blank()
		s.test(c.Name, featureAssertion(c))
	}
	return s.lines
}

func (s *script) balances(accounts []balance, feeCharged string) {
	for _, b := range accounts {
		name := accountVar(b.account)
		s.line("const %sBefore = %s;", name, b.before)
		s.line("const %sAfter = %s;", name, b.after)
	}
	s.line("const voucherAmount = %s;", fromVariable(VarVoucherAmount))
	s.line("const voucherCount = parseInt(pm.collectionVariables.get('%s'), 10);", VarVoucherCount)
	s.line("const voucherTotal = voucherAmount * voucherCount;")
	for _, b := range accounts {
		name := accountVar(b.account)
		s.line("const %sIncrease = %sAfter - %sBefore;", name, name, name)
		s.line("const %sDecrease = %sBefore - %sAfter;", name, name, name)
	}
	s.line("const feeCharged = %s;", feeCharged)
}

func (s *script) checks(invs []invariant.Invariant) {
	for _, inv := range invs {
		s.blank()
		s.test(inv.Name, assertion(inv)...)
	}
}

func accountVar(a ledger.Account) string {
	parts := strings.Split(string(a), "_")
	for k := 1; k < len(parts); k++ {
		if parts[k] != "" {
			parts[k] = strings.ToUpper(parts[k][:1]) + parts[k][1:]
		}
	}
	return strings.Join(parts, "")
}

// measure is the JavaScript expression for an invariant's observed quantity
func measure(inv invariant.Invariant) string {
	if inv.Measure == invariant.FeeCharged {
		return "feeCharged"
	}
	var suffix string
	switch inv.Measure {
	case invariant.Increase:
		suffix = "Increase"
	case invariant.Decrease:
		suffix = "Decrease"
	default:
		suffix = "After"
	}
	terms := make([]string, len(inv.Accounts))
	for k, a := range inv.Accounts {
		terms[k] = accountVar(a) + suffix
	}
	return strings.Join(terms, " + ")
}

func assertion(inv invariant.Invariant) []string {
	switch inv.Kind {
	case invariant.ApproximatelyEquals:
		return []string{fmt.Sprintf("pm.expect(%s).to.be.closeTo(%s, %s);", measure(inv), number(inv.Expected), number(inv.Tolerance))}
	case invariant.AtLeast:
		return []string{fmt.Sprintf("pm.expect(%s).to.be.at.least(%s);", measure(inv), number(inv.Expected.Sub(inv.Tolerance)))}
	case invariant.IsNonNegative:
		lines := []string{fmt.Sprintf("pm.expect(%s).to.be.at.least(0);", measure(inv))}
		if inv.Involves(ledger.Products) {
			lines = append(lines,
				"products.forEach(function (product) {",
				"    pm.expect(parseFloat(product.balance), product.index).to.be.at.least(0);",
				"});",
			)
		}
		return lines
	case invariant.ExistsAndPositive:
		return []string{
			fmt.Sprintf("const product = products.find(function (p) { return p.index === %s; });", jsString(inv.Product)),
			fmt.Sprintf("pm.expect(product, %s).to.exist;", jsString(inv.Product+" product should exist")),
			"pm.expect(parseFloat(product.balance)).to.be.above(0);",
		}
	}
	return []string{fmt.Sprintf("pm.expect.fail(%s);", jsString("unsupported check "+string(inv.Kind)))}
}

func featureAssertion(c invariant.FeatureCheck) string {
	at := fmt.Sprintf("valueAt(%s)", jsString(c.Path))
	switch c.Match {
	case invariant.MatchMember:
		if c.Present {
			return fmt.Sprintf("pm.expect(%s || []).to.include(%s);", at, jsValue(c.Value))
		}
		return fmt.Sprintf("pm.expect(%s || []).to.not.include(%s);", at, jsValue(c.Value))
	case invariant.MatchLength:
		return fmt.Sprintf("pm.expect(%s || []).to.have.lengthOf(%s);", at, jsValue(c.Value))
	case invariant.MatchEqual:
		if c.Present {
			return fmt.Sprintf("pm.expect(%s).to.eql(%s);", at, jsValue(c.Value))
		}
	case invariant.MatchExists:
		if c.Present {
			return fmt.Sprintf("pm.expect(%s).to.exist;", at)
		}
	}
	return fmt.Sprintf("pm.expect(%s).to.not.exist;", at)
}
