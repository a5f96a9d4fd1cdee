package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks removes Vietnamese tone and vowel marks. "đ" has no
// decomposition and is mapped by hand.
func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.NewReplacer("đ", "d", "Đ", "D").Replace(out)
}

// fold lower-cases s and strips diacritics while keeping punctuation.
func fold(s string) string {
	return strings.ToLower(stripMarks(strings.TrimSpace(s)))
}

// FoldHeader reduces a column header or label to a comparable key:
// "Biển số xe (*)" becomes "bien so xe".
func FoldHeader(s string) string {
	f := fold(s)
	var b strings.Builder
	b.Grow(len(f))
	space := false
	for _, r := range f {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}

// CleanName collapses whitespace and title-cases a person or department name,
// keeping its diacritics: "  nguyễn  văn AN " becomes "Nguyễn Văn An".
func CleanName(s string) string {
	fields := strings.Fields(s)
	for i, w := range fields {
		rs := []rune(strings.ToLower(w))
		rs[0] = unicode.ToUpper(rs[0])
		fields[i] = string(rs)
	}
	return strings.Join(fields, " ")
}

// CleanPlate canonicalises a licence plate: upper case, no spaces or dots.
// "51b-123.45" becomes "51B-12345".
func CleanPlate(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(stripMarks(s)) {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'Z', r == '-':
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}
