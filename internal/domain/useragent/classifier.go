// Package useragent classifies raw User-Agent strings into the device,
// browser, and OS buckets the analytics tables store. Classification is a
// pure function: no I/O, deterministic for identical input.
package useragent

import "strings"

// Unknown is the sentinel stored when a request carries no User-Agent.
const Unknown = "unknown"

// maxFieldLength bounds browser and os strings to the column size.
// Truncation happens after composing family+version.
const maxFieldLength = 50

// Device type buckets.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceOther   = "other"
)

// Classification holds the derived attributes for one User-Agent string.
type Classification struct {
	DeviceType string `json:"deviceType"`
	Browser    string `json:"browser"`
	OS         string `json:"os"`
}

// Classify maps a raw User-Agent string to its classification. An empty
// input yields the unknown sentinel for all three fields.
func Classify(raw string) Classification {
	if raw == "" {
		return Classification{DeviceType: Unknown, Browser: Unknown, OS: Unknown}
	}

	lower := strings.ToLower(raw)

	return Classification{
		DeviceType: classifyDevice(lower),
		Browser:    truncate(classifyBrowser(raw, lower)),
		OS:         truncate(classifyOS(lower)),
	}
}

// tabletSignatures are checked before mobile ones: an iPad UA also says
// "Mobile", and Android tablets omit "Mobile" while phones include it.
var tabletSignatures = []string{"ipad", "tablet", "kindle", "silk", "playbook"}

var mobileSignatures = []string{
	"iphone", "ipod", "android", "mobile", "blackberry",
	"windows phone", "opera mini", "iemobile", "webos",
}

var desktopSignatures = []string{
	"windows nt", "macintosh", "x11", "linux", "cros",
}

func classifyDevice(lower string) string {
	for _, sig := range tabletSignatures {
		if strings.Contains(lower, sig) {
			return DeviceTablet
		}
	}
	for _, sig := range mobileSignatures {
		if strings.Contains(lower, sig) {
			// "Android" without "Mobile" is a tablet.
			if sig == "android" && !strings.Contains(lower, "mobile") {
				return DeviceTablet
			}
			return DeviceMobile
		}
	}
	for _, sig := range desktopSignatures {
		if strings.Contains(lower, sig) {
			return DeviceDesktop
		}
	}
	return DeviceOther
}

// browserFamilies is ordered: more specific tokens first, since Chrome UAs
// contain "Safari" and Edge/Opera UAs contain "Chrome".
var browserFamilies = []struct {
	token  string
	family string
}{
	{"edg/", "Edge"},
	{"edge/", "Edge"},
	{"opr/", "Opera"},
	{"opera", "Opera"},
	{"samsungbrowser/", "Samsung Internet"},
	{"firefox/", "Firefox"},
	{"fxios/", "Firefox"},
	{"crios/", "Chrome"},
	{"chrome/", "Chrome"},
	{"safari/", "Safari"},
	{"msie ", "IE"},
	{"trident/", "IE"},
}

func classifyBrowser(raw, lower string) string {
	for _, entry := range browserFamilies {
		idx := strings.Index(lower, entry.token)
		if idx < 0 {
			continue
		}

		family := entry.family
		// Safari reports its real version in "Version/x.y", not "Safari/x".
		if family == "Safari" {
			if v := versionAfter(raw, lower, "version/"); v != "" {
				return family + " " + v
			}
			return family
		}
		// Trident carries the engine version; IE11 puts its browser
		// version in the "rv:" token instead.
		if entry.token == "trident/" {
			if v := versionAfter(raw, lower, "rv:"); v != "" {
				return family + " " + v
			}
		}
		if v := versionAt(raw, idx+len(entry.token)); v != "" {
			return family + " " + v
		}
		return family
	}
	return Unknown
}

// osFamilies is ordered so that iOS/Android match ahead of the generic
// Mac/Linux tokens their UAs also contain.
var osFamilies = []struct {
	token  string
	family string
}{
	{"windows phone", "Windows Phone"},
	{"windows nt 10", "Windows 10"},
	{"windows nt 6.3", "Windows 8.1"},
	{"windows nt 6.2", "Windows 8"},
	{"windows nt 6.1", "Windows 7"},
	{"windows", "Windows"},
	{"iphone os", "iOS"},
	{"ipad", "iOS"},
	{"cpu os", "iOS"},
	{"android", "Android"},
	{"mac os x", "macOS"},
	{"macintosh", "macOS"},
	{"cros", "Chrome OS"},
	{"ubuntu", "Ubuntu"},
	{"linux", "Linux"},
}

func classifyOS(lower string) string {
	for _, entry := range osFamilies {
		if strings.Contains(lower, entry.token) {
			if entry.family == "Android" {
				if v := versionAfter(lower, lower, "android "); v != "" {
					return entry.family + " " + v
				}
			}
			return entry.family
		}
	}
	return Unknown
}

// versionAt extracts the dotted version number starting at offset in raw.
func versionAt(raw string, offset int) string {
	if offset >= len(raw) {
		return ""
	}
	end := offset
	for end < len(raw) && (isDigit(raw[end]) || raw[end] == '.') {
		end++
	}
	return strings.Trim(raw[offset:end], ".")
}

// versionAfter finds token in lower and extracts the version that follows
// it, using raw for the returned characters.
func versionAfter(raw, lower, token string) string {
	idx := strings.Index(lower, token)
	if idx < 0 {
		return ""
	}
	return versionAt(raw, idx+len(token))
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func truncate(s string) string {
	if len(s) > maxFieldLength {
		return s[:maxFieldLength]
	}
	return s
}
