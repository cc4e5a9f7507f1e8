// Package hosttypes defines the contract between hostkit and a host component system.
// It holds the capability enum, the descriptor table, the handle interfaces and the typed errors.
package hosttypes

import (
	"fmt"
	"strings"
)

// Capability identifies a host service by a short stable name.
type Capability int

// Known capabilities, in table order.
const (
	CapUnknown Capability = iota
	CapScriptLoader
	CapAppInfo
	CapRuntimeInfo
	CapAppStartup
	CapSound
	CapObserver
	CapConsole
	CapPrompt
	CapWindowMediator
	CapWindowWatcher
	CapThreadManager
	CapIdle
	CapJSON
	CapUnicodeConverter
	CapHash
	CapHTTP
	CapLocalFile
	CapProcess
	CapStreamConverter
	CapPreferences
	CapFilePicker
	CapUUID
	CapClipboard

	capSentinel
)

var capabilityNames = [...]string{
	CapUnknown:          "unknown",
	CapScriptLoader:     "jssubscript-loader",
	CapAppInfo:          "app-info",
	CapRuntimeInfo:      "runtime-info",
	CapAppStartup:       "app-startup",
	CapSound:            "sound",
	CapObserver:         "observer-service",
	CapConsole:          "consoleservice",
	CapPrompt:           "prompt-service",
	CapWindowMediator:   "window-mediator",
	CapWindowWatcher:    "window-watcher",
	CapThreadManager:    "thread-manager",
	CapIdle:             "idleservice",
	CapJSON:             "json",
	CapUnicodeConverter: "unicodeconverter",
	CapHash:             "hash",
	CapHTTP:             "xmlhttprequest",
	CapLocalFile:        "local-file",
	CapProcess:          "process",
	CapStreamConverter:  "stream-converter",
	CapPreferences:      "preferences-service",
	CapFilePicker:       "filepicker",
	CapUUID:             "uuid-generator",
	CapClipboard:        "clipboard",
}

// String returns the abbreviated name.
func (c Capability) String() string {
	if c < 0 || c >= capSentinel {
		return fmt.Sprintf("capability(%d)", int(c))
	}
	return capabilityNames[c]
}

// Valid reports whether c is a declared capability.
func (c Capability) Valid() bool {
	return c > CapUnknown && c < capSentinel
}

// ParseCapability maps an abbreviated name to its capability.
func ParseCapability(name string) (Capability, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	for c := CapUnknown + 1; c < capSentinel; c++ {
		if capabilityNames[c] == name {
			return c, nil
		}
	}
	return CapUnknown, NewError("hosttypes.ParseCapability", KindNotFound, "unknown capability %q", name)
}

// AllCapabilities lists the declared capabilities in table order.
func AllCapabilities() []Capability {
	caps := make([]Capability, 0, int(capSentinel)-1)
	for c := CapUnknown + 1; c < capSentinel; c++ {
		caps = append(caps, c)
	}
	return caps
}

// MarshalText implements encoding.TextMarshaler.
func (c Capability) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, NewError("hosttypes.Capability", KindInvalidArgument, "undeclared capability %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, so descriptor tables can key on names.
func (c *Capability) UnmarshalText(text []byte) error {
	parsed, err := ParseCapability(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
