// internal/ua/ua.go
//
// User-Agent summarisation for diagnostic trace records.
//
// This wrapper isolates the third-party `github.com/avct/uasurfer` API so
// the rest of the codebase never sees its enums or structs.  The trace
// subsystem only needs a coarse summary (browser family, OS family,
// device class, bot flag), not full version fidelity.
package ua

import (
	"fmt"

	surfer "github.com/avct/uasurfer"
)

// Summary carries the UA attributes recorded alongside a traced request.
// Device is one of "Desktop", "Mobile", "Tablet", or "Other".
type Summary struct {
	Browser string
	OS      string
	Device  string
	IsBot   bool
}

// Summarize converts a raw User-Agent header into a Summary.
func Summarize(raw string) Summary {
	if raw == "" {
		return Summary{Browser: "Unknown", OS: "Unknown", Device: "Other"}
	}

	parsed := surfer.Parse(raw)

	s := Summary{
		Browser: parsed.Browser.Name.String(),
		OS:      parsed.OS.Name.String(),
		IsBot:   parsed.IsBot(),
	}

	switch parsed.DeviceType {
	case surfer.DeviceComputer:
		s.Device = "Desktop"
	case surfer.DeviceTablet:
		s.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		s.Device = "Mobile"
	default:
		s.Device = "Other"
	}
	return s
}

// String renders a compact single-line form for logs and stored records.
func (s Summary) String() string {
	if s.IsBot {
		return fmt.Sprintf("%s/%s (%s, bot)", s.Browser, s.OS, s.Device)
	}
	return fmt.Sprintf("%s/%s (%s)", s.Browser, s.OS, s.Device)
}
