package formula

import (
	"errors"
	"fmt"
	"strings"
)

// Validate performs lightweight syntax checks on a formula before it is
// offered for insertion. It is not a parser; it catches the mistakes models
// actually make.
func Validate(formula string) error {
	if strings.TrimSpace(formula) == "" {
		return errors.New("formula cannot be empty")
	}
	if !strings.HasPrefix(formula, "=") {
		return errors.New("formula must start with '='")
	}
	if strings.Count(formula, "(") != strings.Count(formula, ")") {
		return errors.New("mismatched parentheses")
	}
	if strings.Contains(formula, "==") {
		return errors.New("use a single '=' for comparison, not '=='")
	}
	for _, ch := range []string{"<", ">", "&", "|"} {
		if strings.Contains(formula, ch) {
			return fmt.Errorf("invalid character %q in formula", ch)
		}
	}
	if strings.Count(formula, `"`)%2 != 0 {
		return errors.New("mismatched quotes in formula")
	}
	return nil
}
