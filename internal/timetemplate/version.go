package timetemplate

import (
	"strconv"
	"strings"
)

// CompareVersions orders two version strings. Dotted numeric versions
// compare component by component ("1.10" > "1.9"); anything else falls
// back to string order. The result is -1, 0 or +1.
func CompareVersions(a, b string) int {
	as, aok := numericParts(a)
	bs, bok := numericParts(b)
	if !aok || !bok {
		return strings.Compare(a, b)
	}
	for i := 0; i < len(as) || i < len(bs); i++ {
		var x, y int
		if i < len(as) {
			x = as[i]
		}
		if i < len(bs) {
			y = bs[i]
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

func numericParts(v string) ([]int, bool) {
	if v == "" {
		return nil, false
	}
	parts := strings.Split(v, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}
