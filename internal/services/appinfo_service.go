package services

import (
	"fmt"
	"os"
	"runtime"

	"hostkit/internal/logger"
	"hostkit/internal/version"
	"hostkit/pkg/hosttypes"
)

// Observer topics sent by AppStartupService.
const (
	TopicQuitRequested = "quit-application-requested"
	TopicQuit          = "quit-application"
)

// AppInfoService answers both the application and runtime info interfaces.
type AppInfoService struct {
	name   string
	vendor string
}

// NewAppInfoService creates the app-info component.
func NewAppInfoService(name, vendor string) *AppInfoService {
	return &AppInfoService{name: name, vendor: vendor}
}

// Name returns the application name. It serves both the registration
// name and ApplicationInfo.
func (a *AppInfoService) Name() string {
	return a.name
}

// Initialize validates the compiled-in version.
func (a *AppInfoService) Initialize() error {
	if _, err := version.GetInfo(); err != nil {
		return err
	}
	return nil
}

// Vendor returns the application vendor.
func (a *AppInfoService) Vendor() string { return a.vendor }

// Version returns the application version.
func (a *AppInfoService) Version() string { return version.Version }

// BuildID returns the build timestamp identifier.
func (a *AppInfoService) BuildID() string { return version.GetBuildID() }

// PlatformVersion returns the version of the Go toolchain the binary was built with.
func (a *AppInfoService) PlatformVersion() string { return runtime.Version() }

// OS returns the operating system name.
func (a *AppInfoService) OS() string { return runtime.GOOS }

// Arch returns the processor architecture.
func (a *AppInfoService) Arch() string { return runtime.GOARCH }

// Runtime returns the runtime name.
func (a *AppInfoService) Runtime() string { return "go" }

// ProcessID returns the current process ID.
func (a *AppInfoService) ProcessID() int { return os.Getpid() }

// AppStartupService handles quit requests.
type AppStartupService struct {
	observers hosttypes.ObserverService
	exit      func(code int)
	cancelled bool
}

// NewAppStartupService creates the app-startup component. exit is called for
// forced quits; nil means os.Exit.
func NewAppStartupService(observers hosttypes.ObserverService, exit func(int)) *AppStartupService {
	if exit == nil {
		exit = os.Exit
	}
	return &AppStartupService{observers: observers, exit: exit}
}

// Name returns the service name "app-startup" for registration.
func (s *AppStartupService) Name() string {
	return "app-startup"
}

// Initialize is a no-op.
func (s *AppStartupService) Initialize() error {
	return nil
}

// CancelQuit vetoes the quit currently being requested. Observers of
// TopicQuitRequested call it.
func (s *AppStartupService) CancelQuit() {
	s.cancelled = true
}

// Quit asks observers for permission and then announces the quit. A forced
// quit cannot be vetoed and exits the process.
func (s *AppStartupService) Quit(mode hosttypes.QuitMode) error {
	force := mode&hosttypes.QuitForce != 0
	data := "quit"
	if mode&hosttypes.QuitRestart != 0 {
		data = "restart"
	}

	s.cancelled = false
	s.observers.NotifyObservers(s, TopicQuitRequested, data)
	if s.cancelled && !force {
		logger.Debug("Quit cancelled by observer", "mode", int(mode))
		return fmt.Errorf("quit cancelled")
	}

	s.observers.NotifyObservers(s, TopicQuit, data)
	if force {
		s.exit(0)
	}
	return nil
}
