package types

import (
	"path"
	"regexp"
	"strings"
	"unicode"
)

// invalidRunIDChars matches every character the management system rejects in
// a test run ID.
var invalidRunIDChars = regexp.MustCompile("[\\\\/.:*\"<>|~!@#$?%^&'()+`,=]")

// DottedPath converts a source file path into its dotted module form:
// the extension is dropped and path separators become dots, so
// "path/to/test_module.py" yields "path.to.test_module". Paths that are
// already dotted pass through unchanged.
func DottedPath(p string) string {
	p = strings.TrimSuffix(p, path.Ext(p))
	return strings.ReplaceAll(p, "/", ".")
}

// CaseIdentity derives the canonical test case ID from a module path, an
// optional class name and a test name. The module path is normalized with
// DottedPath and the non-empty parts are joined with dots.
func CaseIdentity(module, class, name string) string {
	parts := make([]string, 0, 3)
	if module != "" {
		parts = append(parts, DottedPath(module))
	}
	if class != "" {
		parts = append(parts, class)
	}
	if name != "" {
		parts = append(parts, name)
	}
	return strings.Join(parts, ".")
}

// RequirementTitle derives the requirement title a test case links to from
// its module path. The path's base name loses its extension and the first
// "test_" fragment, underscores become spaces and words are title-cased:
// "tests/path/to/test_my_test_module.py" yields "My Test Module".
func RequirementTitle(module string) string {
	base := path.Base(module)
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.Replace(base, "test_", "", 1)
	base = strings.ReplaceAll(base, "_", " ")
	return TitleWords(base)
}

// SanitizeRunID strips every character the management system rejects in run
// IDs. The result may be empty if the input consisted only of rejected
// characters.
func SanitizeRunID(id string) string {
	return invalidRunIDChars.ReplaceAllString(id, "")
}

// PlanID derives a test plan ID from its human-readable name: spaces become
// underscores and the run ID character rules apply, so "Test Plan Name"
// yields "Test_Plan_Name".
func PlanID(name string) string {
	return SanitizeRunID(strings.ReplaceAll(name, " ", "_"))
}

// TitleWords upper-cases the first letter of every word and lower-cases the
// rest, leaving non-letter characters in place.
func TitleWords(s string) string {
	out := []rune(s)
	inWord := false
	for i, r := range out {
		if unicode.IsLetter(r) {
			if inWord {
				out[i] = unicode.ToLower(r)
			} else {
				out[i] = unicode.ToUpper(r)
			}
			inWord = true
		} else {
			inWord = false
		}
	}
	return string(out)
}
