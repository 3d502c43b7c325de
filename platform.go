package boot

import "runtime"

// Platform identifies the host the application runs on.
type Platform string

const (
	PlatformMacOS   Platform = "darwin"
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformLinux   Platform = "linux"
	PlatformWindows Platform = "windows"
	PlatformWeb     Platform = "js"
	PlatformUnknown Platform = "unknown"
)

// CurrentPlatform returns the platform the binary was built for.
func CurrentPlatform() Platform {
	switch runtime.GOOS {
	case "darwin":
		return PlatformMacOS
	case "ios":
		return PlatformIOS
	case "android":
		return PlatformAndroid
	case "linux":
		return PlatformLinux
	case "windows":
		return PlatformWindows
	case "js", "wasip1":
		return PlatformWeb
	default:
		return PlatformUnknown
	}
}

// IsWeb returns true when running inside a browser page.
func IsWeb() bool {
	return CurrentPlatform() == PlatformWeb
}

// IsMobile returns true on iOS or Android.
func IsMobile() bool {
	p := CurrentPlatform()
	return p == PlatformIOS || p == PlatformAndroid
}

// IsDesktop returns true on macOS, Linux or Windows.
func IsDesktop() bool {
	p := CurrentPlatform()
	return p == PlatformMacOS || p == PlatformLinux || p == PlatformWindows
}

// Agent describes the host beyond the build target, e.g. the browser user
// agent. Hosts that know more implement AgentReporter.
type Agent struct {
	Platform  Platform
	UserAgent string
	Mobile    bool
}

// AgentReporter is implemented by hosts that can describe their agent.
type AgentReporter interface {
	Agent() Agent
}

func agentOf(h Host) Agent {
	if r, ok := h.(AgentReporter); ok {
		return r.Agent()
	}
	return Agent{Platform: CurrentPlatform(), Mobile: IsMobile()}
}
