package utils

import "strings"

// CleanISBN strips separators from an ISBN. Only digits survive, plus a trailing
// X check digit for ISBN-10.
func CleanISBN(isbn string) string {
	var cleaned strings.Builder
	isbn = strings.TrimSpace(isbn)
	for i, r := range isbn {
		switch {
		case r >= '0' && r <= '9':
			cleaned.WriteRune(r)
		case (r == 'X' || r == 'x') && i == len(isbn)-1:
			cleaned.WriteByte('X')
		}
	}
	return cleaned.String()
}

// ValidISBN reports whether cleaned (output of CleanISBN) has the shape of an
// ISBN-10 or ISBN-13. Check digits are not verified.
func ValidISBN(cleaned string) bool {
	switch len(cleaned) {
	case 13:
		return !strings.Contains(cleaned, "X")
	case 10:
		return !strings.Contains(cleaned[:9], "X")
	}
	return false
}

// IsISBN reports whether id looks like an ISBN once separators are removed.
func IsISBN(id string) bool {
	return ValidISBN(CleanISBN(id))
}

// ISBN13 converts a cleaned ISBN-10 to its ISBN-13 form. Other input is returned
// unchanged.
func ISBN13(cleaned string) string {
	if len(cleaned) != 10 {
		return cleaned
	}
	digits := "978" + cleaned[:9]
	sum := 0
	for i, r := range digits {
		d := int(r - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return digits + string(rune('0'+(10-sum%10)%10))
}

// CanonicalBookID maps every spelling of an ISBN to its bare ISBN-13. Ids that
// are not ISBN-shaped, such as catalog volume ids, are only trimmed.
func CanonicalBookID(id string) string {
	id = strings.TrimSpace(id)
	if !IsISBN(id) {
		return id
	}
	return ISBN13(CleanISBN(id))
}
