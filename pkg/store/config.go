package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config locates everything pismo keeps on disk.
type Config interface {
	// BasePath is the data directory holding the record files and the outbox.
	BasePath() string
	// SettingsPath is the dotenv file with the mail settings.
	SettingsPath() string
	// LogPath is where diagnostics are written.
	LogPath() string
}

// LoadConfig reads .pismo.yaml from $PISMO_CONFIG_PATH or the working
// directory. Every key can be overridden with a PISMO_ prefixed variable.
func LoadConfig() (Config, error) {
	viper.SetDefault("path", "~/.pismo")
	viper.SetDefault("settings", "")
	viper.SetDefault("log", "")
	viper.SetConfigName(".pismo") // .yaml is implicit
	viper.SetEnvPrefix("PISMO")
	viper.AutomaticEnv()

	if override := os.Getenv("PISMO_CONFIG_PATH"); override != "" {
		viper.AddConfigPath(override)
	}

	viper.AddConfigPath("./")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("store: read config: %w", err)
		}
	}

	return newFileConfig(viper.GetString("path"), viper.GetString("settings"), viper.GetString("log"))
}

// NewConfig builds a config rooted at base, with the settings and log files
// inside it.
func NewConfig(base string) (Config, error) {
	return newFileConfig(base, "", "")
}

func newFileConfig(base, settings, log string) (*fileConfig, error) {
	var err error
	if base, err = expand(base); err != nil {
		return nil, err
	}
	if settings == "" {
		settings = filepath.Join(base, "settings.env")
	} else if settings, err = expand(settings); err != nil {
		return nil, err
	}
	if log == "" {
		log = filepath.Join(base, "pismo.log")
	} else if log, err = expand(log); err != nil {
		return nil, err
	}
	return &fileConfig{Path: base, Settings: settings, Log: log}, nil
}

func expand(path string) (string, error) {
	if path == "" {
		return "", errors.New("store: empty path")
	}
	p, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("store: expand %q: %w", path, err)
	}
	return filepath.Clean(p), nil
}

type fileConfig struct {
	Path     string `json:"path"`
	Settings string `json:"settings"`
	Log      string `json:"log"`
}

func (f *fileConfig) BasePath() string {
	return f.Path
}

func (f *fileConfig) SettingsPath() string {
	return f.Settings
}

func (f *fileConfig) LogPath() string {
	return f.Log
}
