// Package runtimeconfig exposes the public settings browser clients need at
// startup: the backend URL and key and the unsigned image upload settings.
package runtimeconfig

import (
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/diegojoyero/joyeria-backend/api/responses"
	"github.com/diegojoyero/joyeria-backend/pkg/env"
)

// DefaultBaseFolder is used when no image folder is configured.
const DefaultBaseFolder = "DiegoJoyero"

const devPrefix = "VITE_"

// Cloudinary holds the unsigned upload settings.
type Cloudinary struct {
	CloudName    *string `json:"cloudName"`
	UploadPreset *string `json:"uploadPreset"`
	BaseFolder   string  `json:"baseFolder"`
}

// Config is the runtime configuration payload.
type Config struct {
	SupabaseURL     *string    `json:"supabaseUrl"`
	SupabaseAnonKey *string    `json:"supabaseAnonKey"`
	Cloudinary      Cloudinary `json:"cloudinary"`
}

// LookupFunc reads one environment variable.
type LookupFunc func(key string) (string, bool)

// Resolve builds the payload from lookup. Each key falls back to its VITE_
// variant; blank values become null.
func Resolve(lookup LookupFunc) Config {
	get := func(key string) *string {
		return nullable(env.FirstFrom(lookup, key, devPrefix+key))
	}
	return build(get)
}

// ResolveDev reads only the VITE_ variables, the way a local dev server
// exposes them.
func ResolveDev(lookup LookupFunc) Config {
	get := func(key string) *string {
		return nullable(env.FirstFrom(lookup, devPrefix+key))
	}
	return build(get)
}

func build(get func(string) *string) Config {
	folder := DefaultBaseFolder
	if f := get("CLOUDINARY_FOLDER"); f != nil {
		folder = *f
	}
	return Config{
		SupabaseURL:     get("SUPABASE_URL"),
		SupabaseAnonKey: get("SUPABASE_ANON_KEY"),
		Cloudinary: Cloudinary{
			CloudName:    get("CLOUDINARY_CLOUD_NAME"),
			UploadPreset: get("CLOUDINARY_UPLOAD_PRESET"),
			BaseFolder:   folder,
		},
	}
}

func nullable(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

// Loader resolves the configuration once and serves the cached result.
type Loader struct {
	lookup   LookupFunc
	dev      bool
	override *Config

	once sync.Once
	cfg  Config
}

// Option configures a Loader.
type Option func(*Loader)

// WithLookup replaces os.LookupEnv.
func WithLookup(lookup LookupFunc) Option {
	return func(l *Loader) {
		if lookup != nil {
			l.lookup = lookup
		}
	}
}

// WithDev makes the loader read the VITE_ variables directly. When nothing is
// set under those names the regular resolution is used.
func WithDev(dev bool) Option {
	return func(l *Loader) { l.dev = dev }
}

// WithOverride pins the configuration, skipping the environment entirely.
func WithOverride(cfg Config) Option {
	return func(l *Loader) { l.override = &cfg }
}

// NewLoader builds a loader over the process environment.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{lookup: os.LookupEnv}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the cached configuration, resolving it on first use.
func (l *Loader) Load() Config {
	l.once.Do(func() {
		switch {
		case l.override != nil:
			l.cfg = *l.override
		case l.dev:
			l.cfg = ResolveDev(l.lookup)
			if l.cfg.SupabaseURL == nil && l.cfg.Cloudinary.CloudName == nil {
				l.cfg = Resolve(l.lookup)
			}
		default:
			l.cfg = Resolve(l.lookup)
		}
	})
	return l.cfg
}

// Handler serves the configuration as raw JSON that must never be cached.
func Handler(loader *Loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		responses.WriteJSON(w, http.StatusOK, loader.Load())
	}
}
