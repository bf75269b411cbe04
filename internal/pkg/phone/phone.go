// Package phone normalizes Kenyan mobile numbers to the 254XXXXXXXXX form.
package phone

import (
	"errors"
	"regexp"
	"strings"
)

var ErrInvalid = errors.New("invalid phone number")

var msisdn = regexp.MustCompile(`^254\d{9}$`)

// Normalize strips separators and a leading plus, rewrites a leading 0 to
// 254 and prefixes bare 7xx/1xx numbers with 254.
func Normalize(raw string) (string, error) {
	replacer := strings.NewReplacer(" ", "", "-", "", "+", "")
	p := replacer.Replace(strings.TrimSpace(raw))

	switch {
	case strings.HasPrefix(p, "0"):
		p = "254" + p[1:]
	case strings.HasPrefix(p, "7"), strings.HasPrefix(p, "1"):
		p = "254" + p
	}

	if !msisdn.MatchString(p) {
		return "", ErrInvalid
	}
	return p, nil
}
