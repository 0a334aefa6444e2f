package internal

import (
	"fmt"

	"github.com/spf13/viper"
)

type ReldbConfig struct {
	AppName string `mapstructure:"app_name"`

	Storage struct {
		DataDir     string `mapstructure:"data_dir"`
		Database    string `mapstructure:"database"`
		BTreeDegree int    `mapstructure:"btree_degree"`
	} `mapstructure:"storage"`

	Server struct {
		Addr  string `mapstructure:"addr"`
		Debug bool   `mapstructure:"debug"`
	} `mapstructure:"server"`
}

// LoadConfig reads a yaml config file. An empty path falls back to defaults
// so the binaries work out of the box.
func LoadConfig(path string) (*ReldbConfig, error) {
	v := viper.New()
	v.SetDefault("app_name", "reldb")
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.database", "default")
	v.SetDefault("storage.btree_degree", 3)
	v.SetDefault("server.addr", ":5433")
	v.SetDefault("server.debug", false)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg ReldbConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
