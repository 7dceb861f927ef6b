package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	PGDSN       string
	CounterFile string
	Fee         uint32
	TickSpacing int32
	TickLower   int32
	TickUpper   int32
	Liquidity   string
	SwapAmount  string
	LogLevel    string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("POOLSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("counter-file", "./data/counters.json")
	v.SetDefault("fee", uint32(3000))
	v.SetDefault("tick-spacing", int32(60))
	v.SetDefault("tick-lower", int32(-600))
	v.SetDefault("tick-upper", int32(600))
	v.SetDefault("liquidity", "10000000000000000000")
	v.SetDefault("swap-amount", "1000000000000000")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		PGDSN:       v.GetString("pg-dsn"),
		CounterFile: v.GetString("counter-file"),
		Fee:         v.GetUint32("fee"),
		TickSpacing: v.GetInt32("tick-spacing"),
		TickLower:   v.GetInt32("tick-lower"),
		TickUpper:   v.GetInt32("tick-upper"),
		Liquidity:   v.GetString("liquidity"),
		SwapAmount:  v.GetString("swap-amount"),
		LogLevel:    v.GetString("log-level"),
	}

	return cfg, nil
}
