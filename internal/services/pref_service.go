package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"hostkit/internal/logger"
	"hostkit/pkg/hosttypes"
)

// prefKeyDelimiter is the viper key delimiter; it never occurs in pref names.
const prefKeyDelimiter = "::"

// prefStore is the viper instance shared by every branch.
type prefStore struct {
	mu   sync.RWMutex
	v    *viper.Viper
	fs   afero.Fs
	path string
}

// PrefService is a preference branch. The root branch is registered as the
// preferences-service component; Branch returns views sharing its store.
// Names are case-insensitive.
type PrefService struct {
	store *prefStore
	root  string
}

// NewPrefService creates a root branch persisted to path on fs. The file
// format follows the extension: .toml, .yaml/.yml or .json. An empty path
// keeps preferences in memory only.
func NewPrefService(fs afero.Fs, path string) *PrefService {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	// Pref names are flat dotted strings, so "app" and "app.width" must not nest.
	v := viper.NewWithOptions(viper.KeyDelimiter(prefKeyDelimiter))
	return &PrefService{store: &prefStore{v: v, fs: fs, path: path}}
}

// Name returns the service name "preferences-service" for registration.
func (p *PrefService) Name() string {
	return "preferences-service"
}

// Initialize loads the preferences file when it exists.
func (p *PrefService) Initialize() error {
	s := p.store
	if s.path == "" {
		return nil
	}
	exists, err := afero.Exists(s.fs, s.path)
	if err != nil || !exists {
		return err
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return fmt.Errorf("failed to read preferences %s: %w", s.path, err)
	}

	values := make(map[string]any)
	switch prefFormat(s.path) {
	case "toml":
		if _, err := toml.Decode(string(data), &values); err != nil {
			return fmt.Errorf("failed to parse preferences %s: %w", s.path, err)
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("failed to parse preferences %s: %w", s.path, err)
		}
	default:
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("failed to parse preferences %s: %w", s.path, err)
		}
	}

	flat := make(map[string]any)
	flattenPrefs("", values, flat)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.v.MergeConfigMap(flat); err != nil {
		return fmt.Errorf("failed to load preferences %s: %w", s.path, err)
	}
	logger.Debug("Preferences loaded", "path", s.path, "keys", len(s.v.AllKeys()))
	return nil
}

// flattenPrefs turns nested tables into dotted preference names.
func flattenPrefs(prefix string, in, out map[string]any) {
	for k, v := range in {
		name := prefix + k
		if child, ok := v.(map[string]any); ok {
			flattenPrefs(name+".", child, out)
			continue
		}
		out[name] = v
	}
}

func prefFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}

// Root returns the dotted branch prefix, "" for the root branch.
func (p *PrefService) Root() string {
	return p.root
}

// Branch returns a view rooted at root relative to this branch.
func (p *PrefService) Branch(root string) hosttypes.PrefBranch {
	if root != "" && !strings.HasSuffix(root, ".") {
		root += "."
	}
	return &PrefService{store: p.store, root: p.root + root}
}

func (p *PrefService) key(name string) string {
	return strings.ToLower(p.root + name)
}

// Type reports the stored type of name, PrefInvalid when unset.
func (p *PrefService) Type(name string) hosttypes.PrefType {
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()
	return p.typeLocked(p.key(name))
}

func (p *PrefService) typeLocked(key string) hosttypes.PrefType {
	if !p.store.v.IsSet(key) {
		return hosttypes.PrefInvalid
	}
	switch v := p.store.v.Get(key).(type) {
	case string:
		return hosttypes.PrefString
	case bool:
		return hosttypes.PrefBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return hosttypes.PrefInt
	case float64:
		// JSON numbers decode as float64; only integral ones are ints.
		if math.Trunc(v) == v {
			return hosttypes.PrefInt
		}
		return hosttypes.PrefString
	default:
		return hosttypes.PrefInvalid
	}
}

func (p *PrefService) get(name string, want hosttypes.PrefType) (any, error) {
	key := p.key(name)
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()

	got := p.typeLocked(key)
	if got == hosttypes.PrefInvalid {
		return nil, fmt.Errorf("preference %s not found", p.root+name)
	}
	if got != want {
		return nil, fmt.Errorf("preference %s is %s, not %s", p.root+name, got, want)
	}
	return p.store.v.Get(key), nil
}

// GetString returns a string preference.
func (p *PrefService) GetString(name string) (string, error) {
	v, err := p.get(name, hosttypes.PrefString)
	if err != nil {
		return "", err
	}
	return cast.ToStringE(v)
}

// GetInt returns an integer preference.
func (p *PrefService) GetInt(name string) (int, error) {
	v, err := p.get(name, hosttypes.PrefInt)
	if err != nil {
		return 0, err
	}
	return cast.ToIntE(v)
}

// GetBool returns a boolean preference.
func (p *PrefService) GetBool(name string) (bool, error) {
	v, err := p.get(name, hosttypes.PrefBool)
	if err != nil {
		return false, err
	}
	return cast.ToBoolE(v)
}

func (p *PrefService) set(name string, t hosttypes.PrefType, value any) error {
	if name == "" {
		return fmt.Errorf("preference name is required")
	}
	key := p.key(name)
	p.store.mu.Lock()
	defer p.store.mu.Unlock()

	if got := p.typeLocked(key); got != hosttypes.PrefInvalid && got != t {
		return fmt.Errorf("preference %s is %s, not %s", p.root+name, got, t)
	}
	p.store.v.Set(key, value)
	return nil
}

// SetString stores a string preference.
func (p *PrefService) SetString(name string, v string) error {
	return p.set(name, hosttypes.PrefString, v)
}

// SetInt stores an integer preference.
func (p *PrefService) SetInt(name string, v int) error {
	return p.set(name, hosttypes.PrefInt, v)
}

// SetBool stores a boolean preference.
func (p *PrefService) SetBool(name string, v bool) error {
	return p.set(name, hosttypes.PrefBool, v)
}

// Names lists the preferences under this branch, relative to its root, sorted.
func (p *PrefService) Names() []string {
	p.store.mu.RLock()
	defer p.store.mu.RUnlock()

	prefix := strings.ToLower(p.root)
	var names []string
	for _, key := range p.store.v.AllKeys() {
		if strings.HasPrefix(key, prefix) {
			names = append(names, strings.TrimPrefix(key, prefix))
		}
	}
	sort.Strings(names)
	return names
}

// Save writes every preference to the backing file.
func (p *PrefService) Save() error {
	s := p.store
	if s.path == "" {
		return nil
	}

	s.mu.RLock()
	settings := s.v.AllSettings()
	s.mu.RUnlock()

	var buf bytes.Buffer
	switch prefFormat(s.path) {
	case "toml":
		if err := toml.NewEncoder(&buf).Encode(settings); err != nil {
			return fmt.Errorf("failed to encode preferences: %w", err)
		}
	case "yaml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(settings); err != nil {
			return fmt.Errorf("failed to encode preferences: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode preferences: %w", err)
		}
	default:
		data, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode preferences: %w", err)
		}
		buf.Write(data)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, hosttypes.DirDefaultPerms); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(s.fs, s.path, buf.Bytes(), hosttypes.FileDefaultPerms); err != nil {
		return fmt.Errorf("failed to write preferences %s: %w", s.path, err)
	}
	return nil
}
