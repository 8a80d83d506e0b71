// Package calc evaluates arithmetic typed into the search box.
//
// Input is screened before it reaches the JavaScript VM: only digits,
// whitespace, '.', parentheses and the operators + - * / % ^ are accepted,
// and at least one digit and one binary operator must be present. A bare
// number is not treated as math. '^' is exponentiation.
package calc

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
)

// evalTimeout bounds a single evaluation.
const evalTimeout = 50 * time.Millisecond

// Evaluator evaluates arithmetic expressions. It is safe for concurrent use;
// evaluations are serialized on one VM.
type Evaluator struct {
	mu sync.Mutex
	vm *goja.Runtime
}

// New returns an evaluator.
func New() *Evaluator {
	return &Evaluator{}
}

// Eval returns the formatted value of expr and true if expr is a valid
// arithmetic expression with a finite result. Anything else, including
// syntax errors, is reported as false: "not math" is not an error.
func (e *Evaluator) Eval(expr string) (string, bool) {
	expr = strings.TrimSpace(expr)
	if !looksArithmetic(expr) {
		return "", false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.vm == nil {
		e.vm = goja.New()
	}

	timer := time.AfterFunc(evalTimeout, func() {
		e.vm.Interrupt("evaluation timeout exceeded")
	})
	// Legacy octal literals ("010") are syntax errors in strict mode
	val, err := e.vm.RunString(`"use strict"; (` + strings.ReplaceAll(expr, "^", "**") + `)`)
	timer.Stop()
	e.vm.ClearInterrupt()
	if err != nil {
		return "", false
	}

	f := val.ToFloat()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	return Format(f), true
}

// Format renders f without exponent and without trailing zeros.
func Format(f float64) string {
	if f == 0 {
		return "0" // also covers -0
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	// 12 significant decimals hide binary rounding noise like 0.1+0.2
	s := strconv.FormatFloat(f, 'f', 12, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func looksArithmetic(expr string) bool {
	if expr == "" {
		return false
	}
	hasDigit := false
	hasOperator := false
	prevOperand := false // previous non-space token can end an operand
	for _, r := range expr {
		switch {
		case r >= '0' && r <= '9' || r == '.':
			hasDigit = hasDigit || r != '.'
			prevOperand = true
		case r == ')':
			prevOperand = true
		case r == '(':
			prevOperand = false
		case strings.ContainsRune("+-*/%^", r):
			// a leading or doubled '-' is a sign, not a binary operator
			if prevOperand {
				hasOperator = true
			}
			prevOperand = false
		case r == ' ' || r == '\t':
		default:
			return false
		}
	}
	return hasDigit && hasOperator
}
