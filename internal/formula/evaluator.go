// Package formula evaluates the quantity/price entry micro-language: a field
// is either a plain literal number or one or more lines beginning with "=",
// each an arithmetic expression with embedded unit tokens and comments.
package formula

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
)

var (
	// "..." substrings are inline comments and carry no value.
	quotedRe = regexp.MustCompile(`"[^"]*"`)
	// Unit suffixes written after a slash, e.g. /hr, /m3.
	slashUnitRe = regexp.MustCompile(`/[A-Za-z][A-Za-z0-9]*`)
	// x or X used as a multiplication sign between numeric terms.
	multRe = regexp.MustCompile(`(?i)(^|[\d.)\s])x([\s\d.(]|$)`)
	// Bare unit tokens left over after the substitutions, e.g. hrs, pcs.
	alphaRe = regexp.MustCompile(`[A-Za-z]+`)
	// Only arithmetic may reach the expression evaluator.
	arithmeticRe = regexp.MustCompile(`^[0-9+\-*/(). ]+$`)
)

// LineResult reports one input line's evaluation, for live preview.
type LineResult struct {
	Source    string
	Value     float64
	Running   float64
	IsFormula bool
	Numeric   bool
}

// Result is the outcome of evaluating one field's raw text.
type Result struct {
	// Formula is the text to persist alongside the computed value. Empty when
	// the input was a plain literal number.
	Formula string
	Lines   []LineResult
	Total   float64
}

// Evaluate computes the numeric total of raw field text. Lines beginning with
// "=" are sanitized and evaluated as arithmetic; other lines are parsed as
// literal numbers. A line that fails to evaluate contributes 0 and is flagged
// non-numeric; it never aborts the remaining lines. When no line is a formula
// the whole input is treated as a single literal number and no formula text is
// persisted.
func Evaluate(raw string) Result {
	lines := strings.Split(raw, "\n")

	hasFormula := false
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "=") {
			hasFormula = true
			break
		}
	}

	if !hasFormula {
		return evaluateLiteral(raw)
	}

	res := Result{Formula: raw}
	for _, line := range lines {
		lr := LineResult{Source: line}
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			// Blank lines contribute nothing.
		case strings.HasPrefix(trimmed, "="):
			lr.IsFormula = true
			lr.Value, lr.Numeric = evaluateFormulaLine(trimmed)
		default:
			lr.Value, lr.Numeric = parseLiteral(trimmed)
		}
		res.Total += lr.Value
		lr.Running = res.Total
		res.Lines = append(res.Lines, lr)
	}
	return res
}

// evaluateLiteral handles the legacy plain-number path: the raw text is a
// single non-negative decimal, or it counts as 0.
func evaluateLiteral(raw string) Result {
	value, numeric := parseLiteral(strings.TrimSpace(raw))
	return Result{
		Total: value,
		Lines: []LineResult{{Source: raw, Value: value, Running: value, Numeric: numeric}},
	}
}

func parseLiteral(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

// evaluateFormulaLine sanitizes one "=" line down to bare arithmetic and
// evaluates it. The sanitized expression never reaches name or function
// resolution; anything but digits, operators, and parentheses is rejected
// before evaluation.
func evaluateFormulaLine(line string) (value float64, numeric bool) {
	expr := strings.TrimPrefix(line, "=")

	// Everything after the first semicolon is a notes suffix.
	if i := strings.Index(expr, ";"); i >= 0 {
		expr = expr[:i]
	}
	expr = quotedRe.ReplaceAllString(expr, "")
	// Applied twice: a run like 2x3x4 shares boundary characters between
	// adjacent matches, so one pass only rewrites every other sign.
	expr = multRe.ReplaceAllString(expr, "${1}*${2}")
	expr = multRe.ReplaceAllString(expr, "${1}*${2}")
	expr = strings.ReplaceAll(expr, "%", "/100")
	expr = slashUnitRe.ReplaceAllString(expr, "")
	expr = alphaRe.ReplaceAllString(expr, "")
	expr = strings.TrimSpace(expr)

	// A formula carrying only comments still evaluates, to total 0.
	if expr == "" {
		return 0, true
	}
	if !arithmeticRe.MatchString(expr) {
		return 0, false
	}

	parsed, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return 0, false
	}
	result, err := parsed.Evaluate(nil)
	if err != nil {
		return 0, false
	}
	f, ok := result.(float64)
	if !ok {
		return 0, false
	}
	return f, true
}
