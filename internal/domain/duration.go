package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseISOInterval parses a single-component ISO 8601 date duration into a
// custom interval: "P3D" is 3 days, "P2W" 2 weeks, "P1M" 1 month, "P1Y" 1 year.
// Time components and combined designators ("P1Y2M") have no interval form.
func ParseISOInterval(s string) (int, IntervalUnit, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) < 3 || s[0] != 'P' {
		return 0, "", fmt.Errorf("%w: must look like 'P3D' or 'P2W', got %q", ErrInvalidDurationFormat, s)
	}
	if strings.Contains(s, "T") {
		return 0, "", fmt.Errorf("%w: time components are not intervals: %q", ErrInvalidDurationFormat, s)
	}

	body := s[1:]
	designator := body[len(body)-1]
	n, err := strconv.Atoi(body[:len(body)-1])
	if err != nil {
		return 0, "", fmt.Errorf("%w: expected one whole number and one designator: %q", ErrInvalidDurationFormat, s)
	}
	if n <= 0 {
		return 0, "", fmt.Errorf("%w: got %d", ErrInvalidInterval, n)
	}

	switch designator {
	case 'D':
		return n, UnitDays, nil
	case 'W':
		return n, UnitWeeks, nil
	case 'M':
		return n, UnitMonths, nil
	case 'Y':
		return n, UnitYears, nil
	default:
		return 0, "", fmt.Errorf("%w: unknown designator '%c' (valid: D, W, M, Y)", ErrInvalidDurationFormat, designator)
	}
}

// FormatISOInterval renders count units as an ISO 8601 duration.
// Quarters have no designator and are written as months.
func FormatISOInterval(count int, unit IntervalUnit) string {
	switch unit {
	case UnitDays:
		return fmt.Sprintf("P%dD", count)
	case UnitWeeks:
		return fmt.Sprintf("P%dW", count)
	case UnitMonths:
		return fmt.Sprintf("P%dM", count)
	case UnitQuarters:
		return fmt.Sprintf("P%dM", count*3)
	case UnitYears:
		return fmt.Sprintf("P%dY", count)
	default:
		return ""
	}
}
