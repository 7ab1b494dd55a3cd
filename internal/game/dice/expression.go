package dice

import (
	"fmt"
	"strconv"
	"strings"
)

// Expression is a parsed damage expression ready to be rolled.
//
// Invariant: Count >= 1 and Sides >= 1 after a successful Parse.
type Expression struct {
	Raw      string
	Count    int
	Sides    int
	Modifier int
}

// Min returns the smallest value the expression can roll.
func (e Expression) Min() int { return e.Count + e.Modifier }

// Max returns the largest value the expression can roll.
func (e Expression) Max() int { return e.Count*e.Sides + e.Modifier }

// Range builds the expression rolling uniformly in [lo, hi].
//
// Precondition: lo <= hi.
func Range(lo, hi int) Expression {
	return Expression{
		Raw:      fmt.Sprintf("%d-%d", lo, hi),
		Count:    1,
		Sides:    hi - lo + 1,
		Modifier: lo - 1,
	}
}

// Parse parses a damage expression.
// Supported forms: "d20", "2d6", "2d6+3", "4d8-2", the inclusive range
// "2106-2574", and the constant "50".
//
// Postcondition: Returns a valid Expression or a descriptive error.
func Parse(expr string) (Expression, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}

	dIdx := strings.IndexByte(s, 'd')
	if dIdx < 0 {
		return parseRange(expr, s)
	}

	count := 1
	if dIdx > 0 {
		n, err := strconv.Atoi(s[:dIdx])
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: %w", expr, err)
		}
		if n <= 0 {
			return Expression{}, fmt.Errorf("dice: invalid die count in %q: must be >= 1", expr)
		}
		count = n
	}

	rest := s[dIdx+1:]
	sidesStr, modStr := rest, ""
	if i := strings.IndexAny(rest, "+-"); i > 0 {
		sidesStr, modStr = rest[:i], rest[i:]
	}
	sides, err := strconv.Atoi(sidesStr)
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: %w", expr, err)
	}
	if sides < 2 {
		return Expression{}, fmt.Errorf("dice: invalid die sides in %q: must be >= 2", expr)
	}
	modifier := 0
	if modStr != "" {
		if modifier, err = strconv.Atoi(modStr); err != nil {
			return Expression{}, fmt.Errorf("dice: invalid modifier in %q: %w", expr, err)
		}
	}
	return Expression{Raw: expr, Count: count, Sides: sides, Modifier: modifier}, nil
}

func parseRange(raw, s string) (Expression, error) {
	loStr, hiStr, isRange := strings.Cut(s, "-")
	if !isRange {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Expression{}, fmt.Errorf("dice: invalid expression %q: %w", raw, err)
		}
		hiStr, loStr = s, strconv.Itoa(n)
	}
	lo, err := strconv.Atoi(strings.TrimSpace(loStr))
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid range low in %q: %w", raw, err)
	}
	hi, err := strconv.Atoi(strings.TrimSpace(hiStr))
	if err != nil {
		return Expression{}, fmt.Errorf("dice: invalid range high in %q: %w", raw, err)
	}
	if lo < 0 || hi < lo {
		return Expression{}, fmt.Errorf("dice: invalid range in %q: need 0 <= low <= high", raw)
	}
	e := Range(lo, hi)
	e.Raw = raw
	return e, nil
}

// MustParse parses expr and panics on error. Useful for package-level values.
func MustParse(expr string) Expression {
	e, err := Parse(expr)
	if err != nil {
		panic("dice: MustParse failed for expression " + expr + ": " + err.Error())
	}
	return e
}
