// Package ratecode allocates library codes of the form prefix + number +
// letter, e.g. CONC1A. Allocation is a pure function over a supplied code set;
// race safety against concurrent allocators belongs to the persistence layer.
package ratecode

import (
	"fmt"
	"regexp"
	"strconv"
)

// FallbackPrefix is used for categories missing from the prefix table.
const FallbackPrefix = "MISC"

// Prefix resolves the code prefix for a category from the injected
// category-to-prefix table.
func Prefix(category string, prefixes map[string]string) string {
	if p, ok := prefixes[category]; ok && p != "" {
		return p
	}
	return FallbackPrefix
}

// Next returns the next available code for a category given every existing
// code sharing the category's prefix. Codes that do not match the
// prefix+number+letter shape are ignored. The letter advances first; past Z
// the number increments and the letter resets to A. Sequences for different
// prefixes are independent.
func Next(category string, existing []string, prefixes map[string]string) string {
	prefix := Prefix(category, prefixes)
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `(\d+)([A-Z])$`)

	maxNumber := 0
	var maxLetter byte
	for _, code := range existing {
		m := re.FindStringSubmatch(code)
		if m == nil {
			continue
		}
		number, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		letter := m[2][0]
		if number > maxNumber || (number == maxNumber && letter > maxLetter) {
			maxNumber = number
			maxLetter = letter
		}
	}

	if maxNumber == 0 {
		return fmt.Sprintf("%s1A", prefix)
	}
	if maxLetter == 'Z' {
		return fmt.Sprintf("%s%dA", prefix, maxNumber+1)
	}
	return fmt.Sprintf("%s%d%c", prefix, maxNumber, maxLetter+1)
}
