package config

import (
	"errors"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "todoqueue.db"
	appDirName            = "todoqueue"

	// TODOQUEUE_CONFIG overrides the resolved config path.
	configEnv = "TODOQUEUE_CONFIG"
)

type Keymap struct {
	Quit      string `toml:"quit"`
	Add       string `toml:"add"`
	Up        string `toml:"up"`
	Down      string `toml:"down"`
	Toggle    string `toml:"toggle"`
	Delete    string `toml:"delete"`
	Edit      string `toml:"edit"`
	Move      string `toml:"move"`
	Filter    string `toml:"filter"`
	Completed string `toml:"completed"`
	ClearDone string `toml:"clear_done"`
	Confirm   string `toml:"confirm"`
	Cancel    string `toml:"cancel"`
}

type Config struct {
	DBPath      string `toml:"db_path"`
	DefaultView string `toml:"default_view"`
	ExportDir   string `toml:"export_dir"`
	Keys        Keymap `toml:"keys"`
}

// ResolveConfigPath returns the config file location: the TODOQUEUE_CONFIG
// environment variable if set, otherwise the per-user config directory,
// otherwise the working directory.
func ResolveConfigPath() string {
	if p := os.Getenv(configEnv); p != "" {
		return p
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(base, appDirName, DefaultConfigFileName)
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig(filepath.Dir(path))
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(filepath.Dir(path), DefaultDBName)
	}
	if cfg.DefaultView != "completed" {
		cfg.DefaultView = "pending"
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig(dir string) Config {
	return Config{
		DBPath:      filepath.Join(dir, DefaultDBName),
		DefaultView: "pending",
		ExportDir:   dir,
		Keys: Keymap{
			Quit:      "q",
			Add:       "a",
			Up:        "k",
			Down:      "j",
			Toggle:    " ",
			Delete:    "d",
			Edit:      "e",
			Move:      "m",
			Filter:    "/",
			Completed: "v",
			ClearDone: "C",
			Confirm:   "enter",
			Cancel:    "esc",
		},
	}
}
