// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package address

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxVariants bounds the number of suggestions returned by Variants.
const MaxVariants = 10

// abbreviations lists common Hebrew street-type abbreviations, applied in order.
var abbreviations = []struct{ Long, Short string }{
	{"רחוב", "רח'"},
	{"שדרות", "שד'"},
	{"שדרה", "שד'"},
	{"דרך", "ד'"},
	{"כיכר", "כ'"},
}

type variantSet struct {
	values []string
	seen   map[string]bool
}

func (v *variantSet) add(s string) {
	s = strings.TrimSpace(s)
	if s == "" || v.seen[s] {
		return
	}

	v.seen[s] = true
	v.values = append(v.values, s)
}

// Variants returns alternative spellings and orderings of addr that a reviewer
// can geocode to confirm (or refute) the original result.
func Variants(addr string) []string {
	a := Normalize(addr)
	if a == "" {
		return []string{}
	}

	c := Split(a)
	street, number, city := c.Street, c.Number, c.City
	v := &variantSet{seen: make(map[string]bool)}

	// without number
	if city != "" {
		v.add(street + ", " + city)
	}

	v.add(street)

	// reordered
	switch {
	case city != "" && number != "":
		v.add(city + ", " + street + " " + number)
		v.add(street + " " + number + " " + city)
	case city != "":
		v.add(city + ", " + street)
	}

	if city != "" {
		v.add(city)
	}

	if short := abbreviate(street); short != street {
		switch {
		case city != "" && number != "":
			v.add(short + " " + number + ", " + city)
		case city != "":
			v.add(short + ", " + city)
		default:
			v.add(short)
		}
	}

	// hyphen before the number
	if number != "" {
		if city != "" {
			v.add(street + "-" + number + ", " + city)
		}

		v.add(street + "-" + number)
	}

	if bare := StripMarks(street); bare != street {
		if city != "" {
			v.add(bare + ", " + StripMarks(city))
		} else {
			v.add(bare)
		}
	}

	if len(v.values) > MaxVariants {
		return v.values[:MaxVariants]
	}

	return v.values
}

func abbreviate(street string) string {
	for _, a := range abbreviations {
		street = replaceWord(street, a.Long, a.Short)
	}

	return street
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// replaceWord replaces whole-word occurrences of old with repl. Word
// boundaries are Unicode aware, unlike regexp's \b.
func replaceWord(s, old, repl string) string {
	var b strings.Builder

	for {
		i := strings.Index(s, old)
		if i < 0 {
			b.WriteString(s)

			return b.String()
		}

		end := i + len(old)
		before, _ := utf8.DecodeLastRuneInString(s[:i])
		after, _ := utf8.DecodeRuneInString(s[end:])

		bounded := (i == 0 || !isWordRune(before)) && (end == len(s) || !isWordRune(after))

		b.WriteString(s[:i])

		if bounded {
			b.WriteString(repl)
		} else {
			b.WriteString(old)
		}

		s = s[end:]
	}
}
