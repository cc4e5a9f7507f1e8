package hosttypes

// Descriptor is the pair a host needs to produce a service handle.
type Descriptor struct {
	ComponentID string `yaml:"component" toml:"component" json:"component"`
	InterfaceID string `yaml:"interface" toml:"interface" json:"interface"`
}

// IsZero reports whether neither identifier is set.
func (d Descriptor) IsZero() bool {
	return d.ComponentID == "" && d.InterfaceID == ""
}

// InterfaceSupports is the base interface every live handle answers to.
const InterfaceSupports = "hostkit.Supports"

// Interface identifiers for the handle contracts below.
const (
	IfaceScriptLoader     = "hostkit.ScriptLoader"
	IfaceAppInfo          = "hostkit.ApplicationInfo"
	IfaceRuntimeInfo      = "hostkit.RuntimeInfo"
	IfaceAppStartup       = "hostkit.AppStartup"
	IfaceSound            = "hostkit.SoundPlayer"
	IfaceObserver         = "hostkit.ObserverService"
	IfaceConsole          = "hostkit.Console"
	IfacePrompt           = "hostkit.PromptService"
	IfaceWindowMediator   = "hostkit.WindowMediator"
	IfaceWindowWatcher    = "hostkit.WindowWatcher"
	IfaceThreadManager    = "hostkit.ThreadManager"
	IfaceIdle             = "hostkit.IdleService"
	IfaceJSON             = "hostkit.JSONCodec"
	IfaceUnicodeConverter = "hostkit.UnicodeConverter"
	IfaceHash             = "hostkit.HashEngine"
	IfaceHTTP             = "hostkit.HTTPClient"
	IfaceLocalFile        = "hostkit.FileSystem"
	IfaceProcess          = "hostkit.ProcessLauncher"
	IfaceStreamConverter  = "hostkit.StreamConverter"
	IfacePreferences      = "hostkit.PrefBranch"
	IfaceFilePicker       = "hostkit.FilePicker"
	IfaceUUID             = "hostkit.UUIDGenerator"
	IfaceClipboard        = "hostkit.Clipboard"
)

var defaultDescriptors = map[Capability]Descriptor{
	CapScriptLoader:     {"@hostkit/script-loader;1", IfaceScriptLoader},
	CapAppInfo:          {"@hostkit/app-info;1", IfaceAppInfo},
	CapRuntimeInfo:      {"@hostkit/app-info;1", IfaceRuntimeInfo},
	CapAppStartup:       {"@hostkit/app-startup;1", IfaceAppStartup},
	CapSound:            {"@hostkit/sound;1", IfaceSound},
	CapObserver:         {"@hostkit/observer-service;1", IfaceObserver},
	CapConsole:          {"@hostkit/console-service;1", IfaceConsole},
	CapPrompt:           {"@hostkit/prompt-service;1", IfacePrompt},
	CapWindowMediator:   {"@hostkit/window-mediator;1", IfaceWindowMediator},
	CapWindowWatcher:    {"@hostkit/window-watcher;1", IfaceWindowWatcher},
	CapThreadManager:    {"@hostkit/thread-manager;1", IfaceThreadManager},
	CapIdle:             {"@hostkit/idle-service;1", IfaceIdle},
	CapJSON:             {"@hostkit/json;1", IfaceJSON},
	CapUnicodeConverter: {"@hostkit/unicode-converter;1", IfaceUnicodeConverter},
	CapHash:             {"@hostkit/crypto-hash;1", IfaceHash},
	CapHTTP:             {"@hostkit/http-client;1", IfaceHTTP},
	CapLocalFile:        {"@hostkit/local-file;1", IfaceLocalFile},
	CapProcess:          {"@hostkit/process;1", IfaceProcess},
	CapStreamConverter:  {"@hostkit/stream-converter;1", IfaceStreamConverter},
	CapPreferences:      {"@hostkit/preferences-service;1", IfacePreferences},
	CapFilePicker:       {"@hostkit/filepicker;1", IfaceFilePicker},
	CapUUID:             {"@hostkit/uuid-generator;1", IfaceUUID},
	CapClipboard:        {"@hostkit/clipboard;1", IfaceClipboard},
}

// DefaultDescriptors returns a copy of the built-in descriptor table.
func DefaultDescriptors() map[Capability]Descriptor {
	table := make(map[Capability]Descriptor, len(defaultDescriptors))
	for c, d := range defaultDescriptors {
		table[c] = d
	}
	return table
}
