package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/authkit/logger"
)

// FileSystem is the part of the OS the loader touches. Tests swap it out.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	UserConfigDir() (string, error)
}

// OSFileSystem is the real FileSystem.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// LoadEnv loads a .env file without overriding variables that are already set.
func (OSFileSystem) LoadEnv(path string) error { return godotenv.Load(path) }

func (OSFileSystem) UserConfigDir() (string, error) { return os.UserConfigDir() }

// Files are the config and .env paths a load reads. Empty means none.
type Files struct {
	ConfigFile string
	EnvFile    string
}

// Resolve returns the files Load would read for app. Explicit paths from
// opts win; otherwise the working directory is searched before the user
// config directory.
func Resolve(app string, opts LoaderConfig) Files {
	fs := opts.FileSystem
	if fs == nil {
		fs = OSFileSystem{}
	}
	dirs := searchDirs(fs, app)

	files := Files{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = firstExisting(fs, dirs, "config.yml", "config.yaml", app+".yml")
	}
	if files.EnvFile == "" {
		files.EnvFile = firstExisting(fs, dirs, ".env."+app, ".env")
	}
	return files
}

func searchDirs(fs FileSystem, app string) []string {
	dirs := []string{".", "config"}
	if dir, err := fs.UserConfigDir(); err == nil && dir != "" {
		dirs = append(dirs, filepath.Join(dir, app))
	}
	return dirs
}

func firstExisting(fs FileSystem, dirs []string, names ...string) string {
	for _, dir := range dirs {
		for _, name := range names {
			if p := filepath.Join(dir, name); fs.Exists(p) {
				return p
			}
		}
	}
	return ""
}

// LoaderConfig holds the loader's collaborators and overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	// EnvPrefix namespaces environment variables: with prefix AUTHKIT the key
	// session.api_url reads AUTHKIT_SESSION_API_URL.
	EnvPrefix string
	Defaults  map[string]any
}

// LoaderOption configures Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem replaces the OS file system.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile reads path instead of searching for config.yml.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile reads path instead of searching for a .env file.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = strings.TrimSuffix(strings.ToUpper(prefix), "_") }
}

// WithDefaults sets viper defaults keyed by dotted path. A default applies
// only where neither the file nor the environment sets the key, so a true
// default still yields to an explicit false.
func WithDefaults(defaults map[string]any) LoaderOption {
	return func(lc *LoaderConfig) { lc.Defaults = defaults }
}

// Load fills cfg, a pointer to a struct with mapstructure tags. Sources in
// increasing precedence: defaults, the YAML file, then the environment
// (after merging the .env file into it). Missing files are not an error.
func Load(app string, cfg any, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = OSFileSystem{}
	}
	files := Resolve(app, lc)

	v := viper.New()
	for key, value := range lc.Defaults {
		v.SetDefault(key, value)
	}

	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read %s: %w", files.ConfigFile, err)
		}
		logger.Debug("config file loaded", logger.Fields(logger.FieldPath, files.ConfigFile))
	}

	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			logger.Warn("failed to load .env file", logger.Fields(
				logger.FieldPath, files.EnvFile,
				logger.FieldError, err.Error(),
			))
		}
	}

	t := reflect.TypeOf(cfg)
	if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("config: Load needs a pointer to a struct, got %T", cfg)
	}
	for _, key := range configKeys(t.Elem(), "") {
		if err := v.BindEnv(key, EnvName(lc.EnvPrefix, key)); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// EnvName returns the environment variable that sets key.
//
//	EnvName("AUTHKIT", "session.api_url") == "AUTHKIT_SESSION_API_URL"
func EnvName(prefix, key string) string {
	name := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

var durationType = reflect.TypeFor[time.Duration]()

// configKeys lists the dotted keys of every leaf field in t. Maps are
// skipped: their keys are data, not schema.
func configKeys(t reflect.Type, prefix string) []string {
	var keys []string
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}

		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if strings.Contains(opts, "squash") && ft.Kind() == reflect.Struct {
			keys = append(keys, configKeys(ft, prefix)...)
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}

		switch {
		case ft.Kind() == reflect.Func, ft.Kind() == reflect.Chan, ft.Kind() == reflect.Map:
		case ft.Kind() == reflect.Struct && ft != durationType && ft.PkgPath() != "time":
			keys = append(keys, configKeys(ft, key)...)
		default:
			keys = append(keys, key)
		}
	}
	return keys
}
