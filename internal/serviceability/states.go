package serviceability

// StateUnknown is reported when a postcode cannot be resolved. Unresolved
// states never block a courier query; they only affect the same-state flag
// surfaced for downstream tax logic.
const StateUnknown = "Unknown"

// pinPrefixStates maps the first two digits of an Indian PIN code to the
// state most of that range belongs to. Best effort: a handful of border
// districts share prefixes with a neighbouring state, and the carrier does
// not need the value to route.
var pinPrefixStates = map[string]string{
	"11": "Delhi",
	"12": "Haryana", "13": "Haryana",
	"14": "Punjab", "15": "Punjab", "16": "Punjab",
	"17": "Himachal Pradesh",
	"18": "Jammu and Kashmir", "19": "Jammu and Kashmir",
	"20": "Uttar Pradesh", "21": "Uttar Pradesh", "22": "Uttar Pradesh",
	"23": "Uttar Pradesh", "24": "Uttarakhand", "25": "Uttar Pradesh",
	"26": "Uttar Pradesh", "27": "Uttar Pradesh", "28": "Uttar Pradesh",
	"30": "Rajasthan", "31": "Rajasthan", "32": "Rajasthan",
	"33": "Rajasthan", "34": "Rajasthan",
	"36": "Gujarat", "37": "Gujarat", "38": "Gujarat", "39": "Gujarat",
	"40": "Maharashtra", "41": "Maharashtra", "42": "Maharashtra",
	"43": "Maharashtra", "44": "Maharashtra",
	"45": "Madhya Pradesh", "46": "Madhya Pradesh", "47": "Madhya Pradesh",
	"48": "Madhya Pradesh", "49": "Chhattisgarh",
	"50": "Telangana", "51": "Andhra Pradesh", "52": "Andhra Pradesh",
	"53": "Andhra Pradesh",
	"56": "Karnataka", "57": "Karnataka", "58": "Karnataka", "59": "Karnataka",
	"60": "Tamil Nadu", "61": "Tamil Nadu", "62": "Tamil Nadu",
	"63": "Tamil Nadu", "64": "Tamil Nadu",
	"67": "Kerala", "68": "Kerala", "69": "Kerala",
	"70": "West Bengal", "71": "West Bengal", "72": "West Bengal",
	"73": "West Bengal", "74": "West Bengal",
	"75": "Odisha", "76": "Odisha", "77": "Odisha",
	"78": "Assam",
	"79": "Arunachal Pradesh",
	"80": "Bihar", "81": "Bihar", "82": "Jharkhand", "83": "Jharkhand",
	"84": "Bihar", "85": "Bihar",
}

// ResolveState resolves a postcode to a state name, returning StateUnknown
// when the postcode is malformed or outside the known ranges.
func ResolveState(postcode string) string {
	if len(postcode) < 2 {
		return StateUnknown
	}
	for _, r := range postcode {
		if r < '0' || r > '9' {
			return StateUnknown
		}
	}
	if state, ok := pinPrefixStates[postcode[:2]]; ok {
		return state
	}
	return StateUnknown
}

// sameState reports whether both states resolved to the same known state.
// Unknown on either side is never treated as a match.
func sameState(origin, destination string) bool {
	return origin != StateUnknown && origin == destination
}
