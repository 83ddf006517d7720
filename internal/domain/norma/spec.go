package norma

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/capazme/lexspace/internal/domain"
)

// ParseArticleSpec expands an article request into concrete article
// numbers. Supported forms: a single number ("12"), a comma-separated
// list ("5,7,9") and an inclusive numeric range ("1-3"). Ranges are
// normalized so the lower bound comes first: "3-1" equals "1-3".
// Non-numeric tokens such as "16-bis" pass through verbatim.
func ParseArticleSpec(spec string) ([]string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("%w: empty article spec", domain.ErrInvalidSearch)
	}

	var out []string
	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		lo, hi, ok := parseRange(token)
		if !ok {
			out = append(out, token)
			continue
		}
		for n := lo; n <= hi; n++ {
			out = append(out, strconv.Itoa(n))
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty article spec %q", domain.ErrInvalidSearch, spec)
	}
	return out, nil
}

// parseRange recognizes "A-B" where both sides are plain integers.
// Anything else (including suffixed numbers like "16-bis") is not a range.
func parseRange(token string) (lo, hi int, ok bool) {
	left, right, found := strings.Cut(token, "-")
	if !found {
		return 0, 0, false
	}
	a, errA := strconv.Atoi(strings.TrimSpace(left))
	b, errB := strconv.Atoi(strings.TrimSpace(right))
	if errA != nil || errB != nil {
		return 0, 0, false
	}
	if a > b {
		a, b = b, a
	}
	return a, b, true
}

// ArticleSortValue maps an article number to its ordering key: the
// leading integer of the identifier, or 0 when there is none. Purely
// alphabetic identifiers therefore sort to the front. This mirrors the
// workspace's long-standing presentation order and is intentional.
func ArticleSortValue(numero string) int {
	numero = strings.TrimSpace(numero)
	end := 0
	for end < len(numero) && numero[end] >= '0' && numero[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(numero[:end])
	if err != nil {
		return 0
	}
	return n
}
