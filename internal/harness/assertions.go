package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/fetchview/internal/fetchplan"
	"github.com/roach88/fetchview/internal/ir"
	"github.com/roach88/fetchview/internal/selection"
)

// AssertionError is returned when an assertion fails.
// It includes the rendered plan to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Plan     string // Rendered plan for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Plan != "" {
		fmt.Fprintf(&buf, "\nPlan:\n")
		for _, line := range strings.Split(strings.TrimRight(e.Plan, "\n"), "\n") {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}
	return buf.String()
}

// evaluateAssertion checks one assertion. Assertions are validated when the
// scenario is loaded, so unknown types cannot reach here.
func evaluateAssertion(a Assertion, reg *ir.Registry, sel *selection.Selection, plan *fetchplan.Plan) error {
	switch a.Type {
	case AssertPlanPaths:
		return assertList(AssertPlanPaths, a.Paths, plan.Paths(), plan)
	case AssertTruncated:
		return assertList(AssertTruncated, a.Paths, plan.AllTruncated(), plan)
	case AssertPlanDepth:
		if got := plan.Depth(); got != *a.Depth {
			return &AssertionError{
				Type:     AssertPlanDepth,
				Expected: fmt.Sprintf("depth %d", *a.Depth),
				Actual:   fmt.Sprintf("depth %d", got),
				Plan:     plan.String(),
			}
		}
	case AssertContains, AssertNotContains:
		want := a.Type == AssertContains
		if got := sel.Contains(a.Pattern); got != want {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("Contains(%q) = %t", a.Pattern, want),
				Actual:   fmt.Sprintf("Contains(%q) = %t in %s", a.Pattern, got, sel),
			}
		}
	case AssertRegistryMaxViews:
		if reg.Len() > a.Max {
			return &AssertionError{
				Type:     AssertRegistryMaxViews,
				Expected: fmt.Sprintf("at most %d views", a.Max),
				Actual:   fmt.Sprintf("%d views", reg.Len()),
			}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// assertList compares ordered string lists; nil and empty are equal.
func assertList(kind string, want, got []string, plan *fetchplan.Plan) error {
	if slices.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: formatList(want),
		Actual:   formatList(got),
		Plan:     plan.String(),
	}
}

func formatList(s []string) string {
	if len(s) == 0 {
		return "(none)"
	}
	return "[" + strings.Join(s, ", ") + "]"
}
