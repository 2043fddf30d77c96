package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix marks a config value that names the environment variable holding the real value.
const EnvPrefix = "$env:"

// Load reads configFile into out. Variables from envFile (when it exists) are loaded into
// the process environment first so "$env:NAME" values can refer to them.
func Load(configFile, envFile string, defaults map[string]interface{}, out interface{}) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to read env file %q: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	err := v.ReadInConfig()
	if err != nil {
		return fmt.Errorf("failed to read config %q: %w", configFile, err)
	}
	for _, key := range v.AllKeys() {
		env := v.GetString(key)
		if strings.HasPrefix(env, EnvPrefix) {
			err := v.BindEnv(key, env[len(EnvPrefix):])
			if err != nil {
				return fmt.Errorf("failed to prepare config: %w", err)
			}
		}
	}

	err = v.Unmarshal(out)
	if err != nil {
		return fmt.Errorf("unable to decode into config struct: %w", err)
	}
	return nil
}
