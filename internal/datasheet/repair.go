package datasheet

import (
	"regexp"
	"sort"
	"strings"
)

// Column-break repairs. PDF text extraction fuses adjacent table cells, so
// a header cell and the first model token arrive as one word
// ("Model NumberM1-1120-3"). Each repair inserts the missing space.
var columnRepairs = []*regexp.Regexp{
	regexp.MustCompile(`([a-z\)])([A-Z]{1,3}\d?-\d{3,4}-\d)`),
	regexp.MustCompile(`(\d)([A-Z]{1,3}\d?-\d{3,4}-\d)`),
	regexp.MustCompile(`([A-Z]{2,})([A-Z][a-z])`),
}

// repairColumns applies each repair until the line stops changing.
func repairColumns(line string) string {
	prev := ""
	for prev != line {
		prev = line
		for _, re := range columnRepairs {
			line = re.ReplaceAllString(line, "$1 $2")
		}
	}
	return line
}

// labelRepairs maps the truncated label fragments left by column breaks to
// the full spec-row labels. Keys are matched as line prefixes, longest
// first.
var labelRepairs = map[string]string{
	"Nomi":                    "Nominal AC Line Voltage (VRMS)",
	"Nominal AC Line Volt":    "Nominal AC Line Voltage (VRMS)",
	"Max Continuous Oper":     "Max Continuous Operating Voltage (MCOV)",
	"MCOV":                    "Max Continuous Operating Voltage (MCOV)",
	"Freq":                    "Frequency Range - USA/Euro Std",
	"Frequency Ra":            "Frequency Range - USA/Euro Std",
	"Max Surge Curr":          "Max Surge Current (8x20us) Per Phase",
	"Peak Surge":              "Max Surge Current (8x20us) Per Phase",
	"Nominal Discharge Curr":  "Nominal Discharge Current (In)",
	"Voltage Protection Rat":  "Voltage Protection Rating (VPR)",
	"VPR":                     "Voltage Protection Rating (VPR)",
	"Short Circuit Curr":      "Short Circuit Current Rating (SCCR)",
	"SCCR":                    "Short Circuit Current Rating (SCCR)",
	"Protection Mod":          "Protection Modes",
	"Response Tim":            "Response Time",
	"Operating Temp":          "Operating Temperature",
	"Operating Humid":         "Operating Humidity",
	"Hum idity":               "Operating Humidity",
	"Operating Altit":         "Operating Altitude",
	"Encl osure Size":         "Enclosure Size (HxWxD)",
	"Enclosure Siz":           "Enclosure Size (HxWxD)",
	"Enclosure Typ":           "Enclosure Type (NEMA Rating)",
	"Enclosure Mat":           "Enclosure Material",
	"Mount":                   "Mounting",
	"Conn ection":             "Connection",
	"Wire Siz":                "Wire Size",
	"Status Indic":            "Status Indication",
	"Remote Alar":             "Remote Alarm",
	"Audible Alar":            "Audible Alarm",
	"Agency Appro":            "Agency Approvals",
	"Certif":                  "Certifications",
	"UL Typ":                  "UL Type",
	"Warr":                    "Warranty",
	"Weig":                    "Weight",
	"Dime nsions":             "Dimensions",
	"Modes of Prot":           "Protection Modes",
	"Max Continuous Current":  "Max Continuous Current",
	"Thermal Prot":            "Thermal Protection",
	"Diag nostics":            "Diagnostics",
	"EMI/ RFI":                "EMI/RFI Noise Filtering",
	"EMI/RFI Noise Filt":      "EMI/RFI Noise Filtering",
}

// sortedLabelFragments returns dictionary keys longest-first so the most
// specific fragment wins.
var sortedLabelFragments = func() []string {
	keys := make([]string, 0, len(labelRepairs))
	for k := range labelRepairs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// repairLabel resolves a spec-row line into its full label and the
// remaining right-hand-side column text.
func repairLabel(line string) (label, rest string, ok bool) {
	for _, frag := range sortedLabelFragments {
		if strings.HasPrefix(line, frag) {
			full := labelRepairs[frag]
			rest = strings.TrimSpace(strings.TrimPrefix(line, frag))
			// The fragment may be a truncation of the full label still
			// present in the line; drop the remainder of the label too.
			if tail := strings.TrimPrefix(full, frag); tail != "" && strings.HasPrefix(rest, strings.TrimSpace(tail)) {
				rest = strings.TrimSpace(strings.TrimPrefix(rest, strings.TrimSpace(tail)))
			}
			return full, rest, true
		}
	}
	return "", "", false
}
