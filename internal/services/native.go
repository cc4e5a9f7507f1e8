package services

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"github.com/spf13/afero"

	"hostkit/internal/audio"
	"hostkit/internal/config"
	"hostkit/internal/logger"
	"hostkit/internal/testutils"
	"hostkit/pkg/hosttypes"
)

// NativeOption customizes NewNativeHost.
type NativeOption func(*nativeOptions)

type nativeOptions struct {
	fs     afero.Fs
	in     io.Reader
	out    io.Writer
	player audio.Player
	exit   func(int)
}

// WithFs sets the filesystem behind local-file, preferences and sound.
func WithFs(fs afero.Fs) NativeOption {
	return func(o *nativeOptions) { o.fs = fs }
}

// WithPromptIO sets the prompt service input and output.
func WithPromptIO(in io.Reader, out io.Writer) NativeOption {
	return func(o *nativeOptions) {
		o.in = in
		o.out = out
	}
}

// WithPlayer sets the audio backend.
func WithPlayer(p audio.Player) NativeOption {
	return func(o *nativeOptions) { o.player = p }
}

// WithExit replaces os.Exit for forced quits.
func WithExit(exit func(int)) NativeOption {
	return func(o *nativeOptions) { o.exit = exit }
}

// Native is the Go host: a Registry populated with every capability.
type Native struct {
	*Registry

	Console   *ConsoleService
	Observers *ObserverService
	Threads   *ThreadService
	Idle      *IdleService
	Sound     *SoundService
	Prefs     *PrefService
	Files     *FileSystemService

	removeMemoryObserver func()
}

// NewNativeHost builds and initializes the native host from settings.
func NewNativeHost(settings config.Settings, opts ...NativeOption) (*Native, error) {
	o := nativeOptions{in: os.Stdin, out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fs == nil {
		o.fs = afero.NewOsFs()
	}

	n := &Native{
		Registry:  NewRegistry(),
		Console:   NewConsoleService(),
		Observers: NewObserverService(),
		Threads:   NewThreadService(),
		Idle:      NewIdleService(testutils.Clock(settings.TestMode)),
		Files:     NewFileSystemService(o.fs),
		Prefs:     NewPrefService(o.fs, settings.PrefsFile),
	}
	n.Sound = NewSoundService(o.player, n.Files)

	prompt := NewPromptService(o.in, o.out)
	prompt.SetIdleService(n.Idle)

	var newWindowID func() string
	if settings.TestMode {
		newWindowID = func() string { return testutils.GenerateUUID(true) }
	}
	watcher, mediator := NewWindowServices(newWindowID)

	type entry struct {
		componentID string
		service     hosttypes.Service
		interfaces  []string
	}
	d := hosttypes.DefaultDescriptors()
	entries := []entry{
		{d[hosttypes.CapConsole].ComponentID, n.Console, []string{hosttypes.IfaceConsole}},
		{d[hosttypes.CapObserver].ComponentID, n.Observers, []string{hosttypes.IfaceObserver}},
		{d[hosttypes.CapThreadManager].ComponentID, n.Threads, []string{hosttypes.IfaceThreadManager}},
		{d[hosttypes.CapIdle].ComponentID, n.Idle, []string{hosttypes.IfaceIdle}},
		{d[hosttypes.CapLocalFile].ComponentID, n.Files, []string{hosttypes.IfaceLocalFile}},
		{d[hosttypes.CapPreferences].ComponentID, n.Prefs, []string{hosttypes.IfacePreferences}},
		{d[hosttypes.CapSound].ComponentID, n.Sound, []string{hosttypes.IfaceSound}},
		{d[hosttypes.CapPrompt].ComponentID, prompt, []string{hosttypes.IfacePrompt}},
		{d[hosttypes.CapWindowWatcher].ComponentID, watcher, []string{hosttypes.IfaceWindowWatcher}},
		{d[hosttypes.CapWindowMediator].ComponentID, mediator, []string{hosttypes.IfaceWindowMediator}},
		{d[hosttypes.CapHash].ComponentID, NewHashService(), []string{hosttypes.IfaceHash}},
		{d[hosttypes.CapUnicodeConverter].ComponentID, NewUnicodeService(), []string{hosttypes.IfaceUnicodeConverter}},
		{d[hosttypes.CapJSON].ComponentID, NewJSONService(), []string{hosttypes.IfaceJSON}},
		{d[hosttypes.CapStreamConverter].ComponentID, NewStreamConverterService(), []string{hosttypes.IfaceStreamConverter}},
		{d[hosttypes.CapHTTP].ComponentID, NewHTTPRequestService(settings.HTTPTimeout), []string{hosttypes.IfaceHTTP}},
		{d[hosttypes.CapProcess].ComponentID, NewProcessService(), []string{hosttypes.IfaceProcess}},
		{d[hosttypes.CapUUID].ComponentID, NewUUIDService(settings.TestMode), []string{hosttypes.IfaceUUID}},
		{d[hosttypes.CapClipboard].ComponentID, NewClipboardService(), []string{hosttypes.IfaceClipboard}},
		{d[hosttypes.CapScriptLoader].ComponentID, NewScriptLoaderService(n.Console), []string{hosttypes.IfaceScriptLoader}},
		{d[hosttypes.CapAppInfo].ComponentID, NewAppInfoService(settings.AppName, settings.AppVendor),
			[]string{hosttypes.IfaceAppInfo, hosttypes.IfaceRuntimeInfo}},
		{d[hosttypes.CapAppStartup].ComponentID, NewAppStartupService(n.Observers, o.exit), []string{hosttypes.IfaceAppStartup}},
	}
	for _, e := range entries {
		if err := n.RegisterService(e.componentID, e.service, e.interfaces...); err != nil {
			return nil, err
		}
	}

	fs := n.Files
	if err := n.RegisterFactory(d[hosttypes.CapFilePicker].ComponentID, func() (hosttypes.Service, error) {
		return NewFilePickerService(prompt, fs), nil
	}, hosttypes.IfaceFilePicker); err != nil {
		return nil, err
	}

	if err := n.InitializeAll(); err != nil {
		return nil, fmt.Errorf("failed to initialize native host: %w", err)
	}

	n.removeMemoryObserver = n.Observers.AddObserver(hosttypes.TopicMemoryPressure, func(_ any, _ string, data string) {
		logger.Debug("Freeing OS memory", "reason", data)
		debug.FreeOSMemory()
	})

	logger.ServiceOperation("native-host", "initialized", "components", len(entries)+1)
	return n, nil
}

// Close stops worker threads and releases the audio device.
func (n *Native) Close() error {
	if n.removeMemoryObserver != nil {
		n.removeMemoryObserver()
	}
	n.Threads.Shutdown()
	return n.Sound.Close()
}
