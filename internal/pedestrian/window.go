package pedestrian

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateRange is a half-open range [Start, End) over date keys. An empty bound
// is unbounded on that side.
type DateRange struct {
	Start string
	End   string
}

// Contains reports whether dateKey falls inside the range. Date keys are
// fixed-width yyyymmdd strings so lexical order is calendar order.
func (r DateRange) Contains(dateKey string) bool {
	if r.Start != "" && dateKey < r.Start {
		return false
	}
	if r.End != "" && dateKey >= r.End {
		return false
	}
	return true
}

func (r DateRange) String() string {
	return r.Start + ".." + r.End
}

// Window is a named union of date ranges, e.g. the lockdown periods
type Window struct {
	Name   string
	Ranges []DateRange
}

// Contains reports whether any range of the window contains dateKey
func (w Window) Contains(dateKey string) bool {
	for _, r := range w.Ranges {
		if r.Contains(dateKey) {
			return true
		}
	}
	return false
}

func (w Window) String() string {
	parts := make([]string, len(w.Ranges))
	for i, r := range w.Ranges {
		parts[i] = r.String()
	}
	return w.Name + "[" + strings.Join(parts, ",") + "]"
}

// ParseWindow parses a comma separated list of "start..end" ranges, where
// start and end are yyyymmdd date keys and either may be omitted.
func ParseWindow(name, spec string) (Window, error) {
	w := Window{Name: name}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		bounds := strings.SplitN(part, "..", 2)
		if len(bounds) != 2 {
			return Window{}, fmt.Errorf("window %s: invalid range %q (expected start..end)", name, part)
		}

		r := DateRange{Start: strings.TrimSpace(bounds[0]), End: strings.TrimSpace(bounds[1])}
		for _, key := range []string{r.Start, r.End} {
			if key == "" {
				continue
			}
			if _, err := time.Parse(DateKeyLayout, key); err != nil {
				return Window{}, fmt.Errorf("window %s: invalid date key %q: %w", name, key, err)
			}
		}
		if r.Start != "" && r.End != "" && r.End <= r.Start {
			return Window{}, fmt.Errorf("window %s: empty range %q", name, part)
		}

		w.Ranges = append(w.Ranges, r)
	}

	if len(w.Ranges) == 0 {
		return Window{}, fmt.Errorf("window %s: no ranges given", name)
	}

	return w, nil
}

// CompareSensorIDs orders sensor ids ascending. Integer ids compare
// numerically, anything else lexically; integers sort before non-integers.
func CompareSensorIDs(a, b string) int {
	ai, aok := parseUint(a)
	bi, bok := parseUint(b)

	switch {
	case aok && bok:
		if ai < bi {
			return -1
		}
		if ai > bi {
			return 1
		}
		return strings.Compare(a, b)
	case aok:
		return -1
	case bok:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func parseUint(s string) (uint64, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	return n, err == nil
}
