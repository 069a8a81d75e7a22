// Package device derives human-readable device metadata from User-Agent
// strings for session records shown in the UI.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent extracts a display name from a User-Agent string.
// Returns format: "Browser on OS" (e.g., "Chrome on macOS"). Unknown or
// empty agents yield "Unknown Device".
func ParseUserAgent(userAgentString string) string {
	if userAgentString == "" {
		return "Unknown Device"
	}

	ua := useragent.New(userAgentString)
	browser, _ := ua.Browser()
	os := ua.OSInfo().Name

	browser = strings.TrimSpace(browser)
	os = strings.TrimSpace(os)

	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case os != "":
		return os
	default:
		return "Unknown Device"
	}
}
