// Package portspec expands the comma-separated port-list language
// ("22,80,1000-1010") into a deduplicated, first-seen-ordered slice of
// model.Port values.
package portspec

import (
	"strconv"
	"strings"

	"github.com/svcscan/svcscan/internal/model"
)

// Parse expands spec into a deduplicated port list preserving first-seen
// order. A single "0" token is rejected; "0" inside a range is silently
// skipped. Any other malformed token fails with *model.InvalidPortsError.
func Parse(spec string) ([]model.Port, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, &model.InvalidPortsError{Token: spec}
	}

	seen := make(map[model.Port]bool)
	var out []model.Port

	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, &model.InvalidPortsError{Token: token}
		}

		if strings.Contains(token, "-") {
			lo, hi, err := parseRange(token)
			if err != nil {
				return nil, err
			}
			for p := lo; ; p++ {
				if p != 0 {
					add(&out, seen, p)
				}
				if p >= hi { // p == 65535 would otherwise wrap past hi
					break
				}
			}
			continue
		}

		n, err := parsePort(token)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, &model.InvalidPortsError{Token: token}
		}
		add(&out, seen, n)
	}

	return out, nil
}

func add(out *[]model.Port, seen map[model.Port]bool, p model.Port) {
	if seen[p] {
		return
	}
	seen[p] = true
	*out = append(*out, p)
}

func parseRange(token string) (lo, hi model.Port, err error) {
	parts := strings.SplitN(token, "-", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return 0, 0, &model.InvalidPortsError{Token: token}
	}

	a, err := parsePort(parts[0])
	if err != nil {
		return 0, 0, err
	}
	b, err := parsePort(parts[1])
	if err != nil {
		return 0, 0, err
	}
	if a > b {
		return 0, 0, &model.InvalidPortsError{Token: token}
	}
	return a, b, nil
}

func parsePort(s string) (model.Port, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n > 65535 {
		return 0, &model.InvalidPortsError{Token: s}
	}
	return model.Port(n), nil
}
