package service

import (
	"strings"

	ua "github.com/mileusna/useragent"
)

// DeviceInfo is a readable description of the client behind a session
type DeviceInfo struct {
	Browser string `json:"browser"`
	OS      string `json:"os"`
	Type    string `json:"type"`
}

// DescribeDevice parses a session's user agent. Absent agents are "Unknown".
func DescribeDevice(userAgent *string) DeviceInfo {
	if userAgent == nil || strings.TrimSpace(*userAgent) == "" {
		return DeviceInfo{Browser: "Unknown", OS: "Unknown", Type: "Unknown"}
	}

	parsed := ua.Parse(*userAgent)
	info := DeviceInfo{Browser: parsed.Name, OS: parsed.OS, Type: "Desktop"}
	if info.Browser == "" {
		info.Browser = "Unknown"
	}
	if info.OS == "" {
		info.OS = "Unknown"
	}

	switch {
	case parsed.Tablet:
		info.Type = "Tablet"
	case parsed.Mobile:
		info.Type = "Mobile"
	case parsed.Bot:
		info.Type = "Bot"
	}
	return info
}
