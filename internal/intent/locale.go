package intent

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Locale is the language a query was written in.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleArabic  Locale = "ar"
)

// DetectLocale returns LocaleArabic when Arabic letters outnumber Latin ones,
// so an English question that names "دبي" is still answered in English.
func DetectLocale(text string) Locale {
	arabic, latin := 0, 0
	for _, r := range text {
		switch {
		case !unicode.IsLetter(r):
		case unicode.Is(unicode.Arabic, r):
			arabic++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}
	if arabic > latin {
		return LocaleArabic
	}
	return LocaleEnglish
}

// Aliases maps an alias token or phrase, in any locale, to its canonical
// region identifier.
type Aliases map[string]string

// DefaultAliases covers the UAE cities and warehouses in both locales.
func DefaultAliases() Aliases {
	return Aliases{
		"dubai":     "Dubai",
		"دبي":       "Dubai",
		"abu dhabi": "Abu Dhabi",
		"abudhabi":  "Abu Dhabi",
		"أبوظبي":    "Abu Dhabi",
		"أبو ظبي":   "Abu Dhabi",
		"sharjah":   "Sharjah",
		"الشارقة":   "Sharjah",
		"al ain":    "Al Ain",
		"العين":     "Al Ain",
		"fujairah":  "Fujairah",
		"الفجيرة":   "Fujairah",
	}
}

// LoadAliases reads an alias table from YAML of the form
//
//	Dubai: [dubai, دبي]
//	Abu Dhabi: [abu dhabi, أبوظبي]
//
// keyed by canonical region.
func LoadAliases(r io.Reader) (Aliases, error) {
	var raw map[string][]string
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return Aliases{}, nil
		}
		return nil, fmt.Errorf("intent: decode aliases: %w", err)
	}
	out := make(Aliases)
	for canonical, aliases := range raw {
		canonical = strings.TrimSpace(canonical)
		if canonical == "" {
			return nil, fmt.Errorf("intent: alias table has an empty region name")
		}
		// The canonical name always resolves to itself.
		out[strings.ToLower(canonical)] = canonical
		for _, a := range aliases {
			a = strings.TrimSpace(a)
			if a == "" {
				continue
			}
			if prev, ok := out[strings.ToLower(a)]; ok && prev != canonical {
				return nil, fmt.Errorf("intent: alias %q maps to both %q and %q", a, prev, canonical)
			}
			out[strings.ToLower(a)] = canonical
		}
	}
	return out, nil
}

// Merge returns a copy of a with the entries of b added or overriding.
func (a Aliases) Merge(b Aliases) Aliases {
	out := make(Aliases, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
