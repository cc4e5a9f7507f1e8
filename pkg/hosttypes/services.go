package hosttypes

import (
	"context"
	"hash"
	"io"
	"net/url"
	"os"
	"time"
)

// Console receives diagnostic messages.
type Console interface {
	LogMessage(msg string)
}

// HashEngine creates digest state for a named algorithm.
type HashEngine interface {
	New(algorithm string) (hash.Hash, error)
	Algorithms() []string
}

// UnicodeConverter converts between a named charset and UTF-8.
type UnicodeConverter interface {
	ToUnicode(data []byte, charset string) (string, error)
	FromUnicode(text string, charset string) ([]byte, error)
}

// JSONCodec decodes and encodes JSON documents.
type JSONCodec interface {
	Decode(data []byte) (any, error)
	Encode(v any) ([]byte, error)
	Query(doc []byte, path string) (any, bool)
	Set(doc []byte, path string, value any) ([]byte, error)
}

// Stream formats understood by a StreamConverter.
const (
	FormatUncompressed = "uncompressed"
	FormatDeflate      = "deflate"
	FormatGzip         = "gzip"
)

// StreamConverter transforms a byte stream from one format to another.
type StreamConverter interface {
	Convert(data []byte, from, to string) ([]byte, error)
}

// SoundPlayer plays sounds.
type SoundPlayer interface {
	Init() error
	Play(u *url.URL) error
	Beep() error
	PlaySystemSound(name string) error
}

// ObserverFunc receives notifications for a topic.
type ObserverFunc func(subject any, topic string, data string)

// Memory pressure notification sent by App.RamBack.
const (
	TopicMemoryPressure = "memory-pressure"
	DataHeapMinimize    = "heap-minimize"
)

// ObserverService is a topic based notification bus.
type ObserverService interface {
	AddObserver(topic string, fn ObserverFunc) (remove func())
	NotifyObservers(subject any, topic string, data string)
}

// PromptService shows modal prompts.
type PromptService interface {
	Alert(parent Window, title, text string) error
	Confirm(parent Window, title, text string) (bool, error)
	Prompt(parent Window, title, text, value string) (string, bool, error)
	Select(parent Window, title, text string, list []string, selected int) (int, bool, error)
}

// Window is a top level host window.
type Window interface {
	ID() string
	Name() string
	URL() string
	Type() string
	Features() Features
	Parent() Window
	Args() []any
	Close() error
}

// WindowWatcher opens windows.
type WindowWatcher interface {
	OpenWindow(parent Window, url, name string, features Features, args []any) (Window, error)
}

// WindowMediator enumerates open windows.
type WindowMediator interface {
	MostRecentWindow(windowType string) (Window, error)
	Windows(windowType string) []Window
}

// PickerMode selects the file picker behaviour.
type PickerMode int

const (
	PickerOpen PickerMode = iota
	PickerSave
	PickerFolder
	PickerOpenMultiple
)

// PickerResult is what the user did with a file picker.
type PickerResult int

const (
	PickerOK PickerResult = iota
	PickerCancel
	PickerReplace
)

// FilePicker asks the user for a path.
type FilePicker interface {
	Init(parent Window, title string, mode PickerMode)
	SetDisplayDirectory(dir string)
	Show() (PickerResult, error)
	File() string
}

// DispatchMode controls whether Dispatch waits for the runnable.
type DispatchMode int

const (
	DispatchNormal DispatchMode = iota
	DispatchSync
)

// Runnable is a unit of work executed on a Thread.
type Runnable interface {
	Run()
}

// RunnableFunc adapts a plain function to Runnable.
type RunnableFunc func()

// Run calls f.
func (f RunnableFunc) Run() { f() }

// Thread executes runnables in FIFO order.
type Thread interface {
	ID() string
	Dispatch(ctx context.Context, r Runnable, mode DispatchMode) error
	Shutdown()
}

// ThreadManager owns the main thread and creates workers.
type ThreadManager interface {
	MainThread() Thread
	NewThread() (Thread, error)
}

// IdleObserver is told when the user goes idle and comes back.
type IdleObserver interface {
	ObserveIdle(topic string, idle time.Duration)
}

// Idle observer topics.
const (
	TopicIdle   = "idle"
	TopicActive = "active"
)

// IdleService reports user idle time.
type IdleService interface {
	IdleTime() time.Duration
	AddIdleObserver(o IdleObserver, after time.Duration)
	RemoveIdleObserver(o IdleObserver, after time.Duration)
}

// ApplicationInfo describes the running application.
type ApplicationInfo interface {
	Name() string
	Vendor() string
	Version() string
	BuildID() string
	PlatformVersion() string
}

// RuntimeInfo describes the process environment.
type RuntimeInfo interface {
	OS() string
	Arch() string
	Runtime() string
	ProcessID() int
}

// QuitMode flags for AppStartup.Quit. Modes may be combined.
type QuitMode int

const (
	QuitAttempt QuitMode = 1 << iota
	QuitForce
	QuitRestart
)

// AppStartup controls application shutdown.
type AppStartup interface {
	Quit(mode QuitMode) error
}

// ScriptLoader runs a script with scope entries visible as globals.
type ScriptLoader interface {
	LoadSubScript(ctx context.Context, src string, scope map[string]any) error
}

// HTTPClient fetches remote content.
type HTTPClient interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// File is an open host file.
type File interface {
	io.Reader
	io.Writer
	io.Closer
	Name() string
}

// FileSystem is the local file capability.
type FileSystem interface {
	Stat(path string) (os.FileInfo, error)
	Lstat(path string) (os.FileInfo, error)
	OpenFile(path string, flag int, perm os.FileMode) (File, error)
	Mkdir(path string, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error
	Remove(path string) error
	RemoveAll(path string) error
	ReadDir(path string) ([]os.FileInfo, error)
	Abs(path string) (string, error)
}

// ProcessLauncher starts executables.
type ProcessLauncher interface {
	Start(ctx context.Context, path string, args []string, blocking bool) (pid int, err error)
}

// PrefType is the stored type of a preference.
type PrefType int

const (
	PrefInvalid PrefType = iota
	PrefString
	PrefInt
	PrefBool
)

// String returns the type name.
func (t PrefType) String() string {
	switch t {
	case PrefString:
		return "string"
	case PrefInt:
		return "int"
	case PrefBool:
		return "bool"
	default:
		return "invalid"
	}
}

// PrefBranch is a typed key/value store rooted at a dotted prefix.
type PrefBranch interface {
	Root() string
	Branch(root string) PrefBranch
	Type(name string) PrefType
	GetString(name string) (string, error)
	GetInt(name string) (int, error)
	GetBool(name string) (bool, error)
	SetString(name string, v string) error
	SetInt(name string, v int) error
	SetBool(name string, v bool) error
	Names() []string
	Save() error
}

// UUIDGenerator produces identifiers in the host's braced form.
type UUIDGenerator interface {
	GenerateUUID() (string, error)
}

// Clipboard exchanges text with the system clipboard.
type Clipboard interface {
	WriteText(text string) error
	ReadText() (string, error)
}
