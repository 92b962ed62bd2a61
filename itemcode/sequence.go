package itemcode

import (
	"fmt"
	"strconv"
	"strings"
)

// NextCode returns prefix-NNNN where NNNN is the smallest positive number
// not used by any code in existing that carries the same prefix. Codes
// with another prefix or a non-numeric suffix are ignored.
func NextCode(prefix string, existing []string) string {
	head := prefix + "-"

	used := make(map[int]struct{}, len(existing))
	for _, code := range existing {
		rest, ok := strings.CutPrefix(code, head)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		used[n] = struct{}{}
	}

	n := 1
	for {
		if _, taken := used[n]; !taken {
			break
		}
		n++
	}
	return FormatCode(prefix, n)
}

// FormatCode zero-pads n to at least four digits.
func FormatCode(prefix string, n int) string {
	return fmt.Sprintf("%s-%04d", prefix, n)
}

// NeedsReallocation reports whether an existing code must be replaced
// because it does not carry prefix.
func NeedsReallocation(code, prefix string) bool {
	return code == "" || !strings.HasPrefix(code, prefix+"-")
}
