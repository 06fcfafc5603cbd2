package intent

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// arabicProclitics are prefixes that attach to Arabic words ("and", "in",
// "to", "the" and their combinations). Longest first.
var arabicProclitics = []string{"وال", "بال", "فال", "كال", "لل", "ال", "و", "ب", "ل", "ف"}

var arabicFolding = strings.NewReplacer(
	"أ", "ا", "إ", "ا", "آ", "ا", "ٱ", "ا",
	"ى", "ي", "ة", "ه", "ؤ", "و", "ئ", "ي",
	"ـ", "",
)

// tokenize lowercases text, folds Arabic letter variants and splits on
// anything that is not a letter or digit.
func tokenize(text string) []string {
	text = foldArabic(strings.ToLower(text))
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// foldArabic strips diacritics and tatweel and unifies alef, yeh and teh
// marbuta forms so spelling variants compare equal.
func foldArabic(s string) string {
	s = strings.Map(func(r rune) rune {
		if r >= 0x064B && r <= 0x0652 {
			return -1
		}
		return r
	}, s)
	return arabicFolding.Replace(s)
}

// variants returns the token plus its forms with one Arabic proclitic
// removed, keeping at least two letters of stem.
func variants(token string) []string {
	out := []string{token}
	first, _ := utf8.DecodeRuneInString(token)
	if !unicode.Is(unicode.Arabic, first) {
		return out
	}
	for _, p := range arabicProclitics {
		if stem, ok := strings.CutPrefix(token, p); ok && utf8.RuneCountInString(stem) >= 2 {
			out = append(out, stem)
		}
	}
	return out
}

// phrase is a normalized keyword or alias, one entry per token.
type phrase []string

func newPhrase(s string) phrase {
	return phrase(tokenize(s))
}

// at reports whether p occurs in tokens starting at position i.
func (p phrase) at(tokens []string, i int) bool {
	if len(p) == 0 || i+len(p) > len(tokens) {
		return false
	}
	for j, want := range p {
		if !tokenEqual(tokens[i+j], want) {
			return false
		}
	}
	return true
}

// in reports whether p occurs anywhere in tokens.
func (p phrase) in(tokens []string) bool {
	for i := range tokens {
		if p.at(tokens, i) {
			return true
		}
	}
	return false
}

// tokenEqual compares a query token against a keyword token. Only the query
// side may carry an Arabic proclitic; keywords are matched as written.
func tokenEqual(token, keyword string) bool {
	for _, v := range variants(token) {
		if v == keyword {
			return true
		}
	}
	return false
}
