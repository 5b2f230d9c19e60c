package report

// Violation is one entry of the Motor Vehicles (Amendment) Act, 2019 offense
// table used for manual-capture reports.
type Violation struct {
	Code    string
	Name    string
	Section string
	Penalty string
	Notes   string
}

var violations = map[string]Violation{
	"SPD_183_LMV": {
		Code:    "SPD_183_LMV",
		Name:    "Speeding (LMV)",
		Section: "Motor Vehicles Act, 1988 — Section 183",
		Penalty: "₹1,000",
		Notes:   "Light Motor Vehicle (LMV).",
	},
	"SPD_183_MHV": {
		Code:    "SPD_183_MHV",
		Name:    "Speeding (Medium/Heavy Vehicle)",
		Section: "Motor Vehicles Act, 1988 — Section 183",
		Penalty: "₹2,000",
		Notes:   "Medium/Heavy Vehicle.",
	},
	"DNG_184": {
		Code:    "DNG_184",
		Name:    "Dangerous Driving",
		Section: "Motor Vehicles Act, 1988 — Section 184",
		Penalty: "₹1,000 to ₹5,000 (First Offense)",
		Notes:   "Includes: Red Light Jumping, Stop Sign Violation, Use of Handheld Device.",
	},
	"SB_194B": {
		Code:    "SB_194B",
		Name:    "Driving without Safety Belt",
		Section: "Motor Vehicles Act, 1988 — Section 194B",
		Penalty: "₹1,000",
		Notes:   "Safety belt violation.",
	},
	"TR_194C": {
		Code:    "TR_194C",
		Name:    "Triple Riding on Two-Wheeler",
		Section: "Motor Vehicles Act, 1988 — Section 194C",
		Penalty: "₹1,000 + License Disqualification",
		Notes:   "Triple riding prohibited.",
	},
	"HL_194D": {
		Code:    "HL_194D",
		Name:    "Riding without Helmet",
		Section: "Motor Vehicles Act, 1988 — Section 194D",
		Penalty: "₹1,000 + License Disqualification",
		Notes:   "Helmet mandatory on two-wheeler.",
	},
	"EM_194E": {
		Code:    "EM_194E",
		Name:    "Failure to yield to Emergency Vehicles",
		Section: "Motor Vehicles Act, 1988 — Section 194E",
		Penalty: "₹10,000",
		Notes:   "Must yield to ambulance/fire/police vehicles.",
	},
}

func LookupViolation(code string) (Violation, bool) {
	v, ok := violations[code]
	return v, ok
}

func ViolationCodes() []string {
	out := make([]string, 0, len(violations))
	for code := range violations {
		out = append(out, code)
	}
	return out
}
