// Package plates resolves vehicle registration numbers to the issuing
// state authority by their plate prefix.
package plates

import "strings"

// stateCodes lists the issuing authorities covered by the agency directory.
var stateCodes = map[string]string{
	"DL": "Delhi",
	"MH": "Maharashtra",
	"KA": "Karnataka",
	"TN": "Tamil Nadu",
	"UP": "Uttar Pradesh",
	"HR": "Haryana",
	"KL": "Kerala",
	"GJ": "Gujarat",
	"WB": "West Bengal",
	"TS": "Telangana",
	"PB": "Punjab",
	"RJ": "Rajasthan",
	"GA": "Goa",
}

type Registry struct {
	codes map[string]string
}

func NewRegistry() *Registry {
	return &Registry{codes: stateCodes}
}

// Resolve extracts the state-code prefix (the leading alphabetic characters of
// a standard-format plate) and looks it up. Malformed or unknown prefixes
// yield ok=false, never an error: callers tolerate partial jurisdiction
// information.
func (r *Registry) Resolve(plate string) (code string, ok bool) {
	prefix := Prefix(plate)
	if prefix == "" {
		return "", false
	}
	if _, known := r.codes[prefix]; !known {
		return "", false
	}
	return prefix, true
}

// StateName returns the issuing state for a known code.
func (r *Registry) StateName(code string) (string, bool) {
	name, ok := r.codes[strings.ToUpper(code)]
	return name, ok
}

// Prefix returns the uppercased leading alphabetic characters of a plate,
// capped at two per the standard registration format.
func Prefix(plate string) string {
	plate = strings.TrimSpace(plate)
	var b strings.Builder
	for _, r := range plate {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		default:
			return b.String()
		}
		if b.Len() == 2 {
			break
		}
	}
	return b.String()
}
