package normalize

import "strings"

// buildSpecAliases maps canonical spec keys to the variations that sources
// print for the same fact. Keys collapse to one canonical form before
// merging so two sources never produce duplicate rows for one spec.
func buildSpecAliases() map[string][]string {
	return map[string][]string{
		"Nominal AC Line Voltage (VRMS)": {
			"System Voltage",
			"Voltage",
			"Nominal Voltage",
			"Line Voltage",
			"Nominal Ac Line Voltage Vrms",
			"Nominal Ac Line Voltage",
		},
		"MCOV": {
			"Mcov",
			"Maximum Continuous Operating Voltage",
			"Max Continuous Operating Voltage",
		},
		"SCCR": {
			"Sccr",
			"Short Circuit Current Rating",
		},
		"VPR": {
			"Vpr",
			"Voltage Protection Rating",
		},
		"Maximum Surge Current": {
			"Max Surge Current",
			"Surge Current Capacity",
			"Surge Capacity",
			"Peak Surge Current",
		},
		"Nominal Discharge Current": {
			"Discharge Current",
			"In Nominal Discharge Current",
		},
		"Frequency Range - USA/Euro Std": {
			"Frequency",
			"Frequency Range",
			"Operating Frequency",
		},
		"Protection Modes": {
			"Protection Mode",
			"Modes Of Protection",
		},
		"Response Time": {
			"Response",
		},
		"Operating Temperature": {
			"Operating Temp",
			"Temperature Range",
			"Ambient Temperature",
		},
		"Operating Humidity": {
			"Humidity",
			"Relative Humidity",
		},
		"Enclosure Type": {
			"Enclosure",
			"Enclosure Rating",
			"Nema Rating",
		},
		"Enclosure Size (HxWxD)": {
			"Enclosure Size",
			"Enclosure Size Hxwxd",
			"Enclosure Dimensions",
		},
		"Mounting": {
			"Mount",
			"Mounting Type",
			"Mounting Options",
		},
		"Wire Size": {
			"Conductor Size",
			"Wire Gauge",
		},
		"Status Indication": {
			"Status Indicator",
			"Status Indicators",
			"Led Indication",
		},
		"Remote Alarm": {
			"Remote Alarm Contacts",
			"Alarm Contacts",
		},
		"Agency Approvals": {
			"Approvals",
			"Certifications",
			"Agency Listings",
		},
		"Warranty": {
			"Product Warranty",
			"Warranty Period",
		},
		"Weight": {
			"Unit Weight",
			"Net Weight",
		},
		"Phase": {
			"Phases",
			"Number Of Phases",
		},
		"Max Service Size": {
			"Service Size",
			"Maximum Service Size",
		},
		"Application": {
			"Applications",
			"Typical Application",
		},
		"Product Type": {
			"Type",
			"Device Type",
		},
		"SKU": {
			"Sku",
			"Item Number",
		},
	}
}

// buildAliasIndex inverts the alias table for case-insensitive lookup.
// Canonical keys index to themselves so canonicalization is idempotent.
func buildAliasIndex() map[string]string {
	index := map[string]string{}
	for canonical, variations := range buildSpecAliases() {
		index[strings.ToLower(canonical)] = canonical
		for _, variation := range variations {
			index[strings.ToLower(variation)] = canonical
		}
	}
	return index
}

var aliasIndex = buildAliasIndex()

// canonicalSpecKey collapses a spec key onto its canonical form. Unknown
// keys pass through unchanged.
func canonicalSpecKey(key string) string {
	trimmed := strings.TrimSpace(key)
	if canonical, ok := aliasIndex[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}
