package parse

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	separatorRe = regexp.MustCompile(`[\s\-._]+`)
	tagRe       = regexp.MustCompile(`^[A-Z0-9]{2,16}$`)
)

// VehicleTag normalizes an operator-supplied vehicle registration tag.
// Separators and case vary wildly between guards, so "ka-01 ab 1234" and
// "KA01AB1234" must collapse to the same value. An empty input is returned
// as-is: supplying a tag is optional.
func VehicleTag(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", nil
	}

	s = strings.ToUpper(separatorRe.ReplaceAllString(s, ""))

	if !tagRe.MatchString(s) {
		return "", fmt.Errorf("invalid vehicle tag: %q", raw)
	}
	return s, nil
}
