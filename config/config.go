// Package config loads provider settings from a file, with environment
// overrides and live reload on file change.
package config

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Settings is the on-disk shape of a provider configuration. Exactly one
// provider section is consulted, selected by Provider.
type Settings struct {
	// Provider selects the backend: "openai", "google" or "anthropic".
	Provider string `mapstructure:"provider"`

	Model string `mapstructure:"model"`

	OpenAI struct {
		APIKey  string `mapstructure:"api_key"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"openai"`

	// Vertex settings are shared by the google and anthropic providers.
	Vertex struct {
		ProjectID   string `mapstructure:"project_id"`
		Location    string `mapstructure:"location"`
		AccessToken string `mapstructure:"access_token"`
	} `mapstructure:"vertex"`
}

// Loader reads a settings file once and keeps it fresh as the file changes.
// Get is safe for concurrent use.
type Loader[T any] struct {
	v        *viper.Viper
	value    *T
	mu       sync.RWMutex
	watchers []func(old, new T)
}

type Option[T any] func(*Loader[T])

// WithDefaults seeds default values consulted when the file and environment
// leave a key unset.
func WithDefaults[T any](defaults map[string]any) Option[T] {
	return func(l *Loader[T]) {
		for k, v := range defaults {
			l.v.SetDefault(k, v)
		}
	}
}

// WithEnv binds environment variables with the given prefix; dots in keys
// become underscores, so "vertex.project_id" reads PREFIX_VERTEX_PROJECT_ID.
func WithEnv[T any](prefix string) Option[T] {
	return func(l *Loader[T]) {
		l.v.SetEnvPrefix(prefix)
		l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		l.v.AutomaticEnv()
	}
}

// Load reads the settings file and starts watching it for changes.
func Load[T any](path string, opts ...Option[T]) (*Loader[T], error) {
	v := viper.New()
	v.SetConfigFile(path)

	l := &Loader[T]{v: v}
	for _, opt := range opts {
		opt(l)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var val T
	if err := v.Unmarshal(&val); err != nil {
		return nil, err
	}
	l.value = &val

	l.watch()
	return l, nil
}

// Get returns a deep copy of the current settings.
func (l *Loader[T]) Get() T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return deepCopy(*l.value)
}

// OnChange registers a callback invoked after the file changes and reloads
// to a different value.
func (l *Loader[T]) OnChange(callback func(old, new T)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.watchers = append(l.watchers, callback)
}

func deepCopy[T any](src T) T {
	var dst T
	data, _ := json.Marshal(src)
	_ = json.Unmarshal(data, &dst)
	return dst
}

func (l *Loader[T]) watch() {
	var (
		debounceTimer *time.Timer
		debounceMu    sync.Mutex
	)

	// Editors often fire several events per save; debounce them.
	l.v.OnConfigChange(func(_ fsnotify.Event) {
		debounceMu.Lock()
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
		debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
			l.handleChange()
		})
		debounceMu.Unlock()
	})

	l.v.WatchConfig()
}

func (l *Loader[T]) handleChange() {
	old := l.Get()

	next, watchers, ok := l.reload()
	if !ok {
		return
	}
	if reflect.DeepEqual(old, next) {
		return
	}

	for _, cb := range watchers {
		func() {
			defer func() { _ = recover() }()
			cb(old, next)
		}()
	}
}

func (l *Loader[T]) reload() (T, []func(old, new T), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var zero T
	if err := l.v.ReadInConfig(); err != nil {
		return zero, nil, false
	}

	var val T
	if err := l.v.Unmarshal(&val); err != nil {
		return zero, nil, false
	}
	l.value = &val

	watchers := make([]func(old, new T), len(l.watchers))
	copy(watchers, l.watchers)

	return deepCopy(val), watchers, true
}
