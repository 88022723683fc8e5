package cli

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/viper"
)

const (
	BackendLibPAM = "libpam"
	BackendUserDB = "userdb"
)

// Config is the pamauth configuration. It implements pam.Config.
type Config struct {
	Service               string `mapstructure:"service"`
	Backend               string `mapstructure:"backend"`
	UsersFile             string `mapstructure:"users_file"`
	PasswdFile            string `mapstructure:"passwd_file"`
	CloseSessionOnRelease bool   `mapstructure:"close_session_on_release"`
	InitializeEnvironment bool   `mapstructure:"initialize_environment"`
	Silent                bool   `mapstructure:"silent"`
	Verbose               bool   `mapstructure:"verbose"`
}

func (c Config) GetService() string             { return c.Service }
func (c Config) GetCloseSessionOnRelease() bool { return c.CloseSessionOnRelease }
func (c Config) GetInitializeEnvironment() bool { return c.InitializeEnvironment }
func (c Config) GetSilent() bool                { return c.Silent }

// Validate checks required settings for the selected backend.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Service, validation.Required, validation.Length(1, 64)),
		validation.Field(&c.Backend, validation.Required, validation.In(BackendLibPAM, BackendUserDB)),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid configuration")
	}

	if c.Backend == BackendUserDB && c.UsersFile == "" {
		return goerrors.New("users_file is required for the userdb backend", goerrors.CategoryValidation).
			WithTextCode("USERS_FILE_REQUIRED")
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("pamauth")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/pamauth")

	v.SetEnvPrefix("PAMAUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("service", "login")
	v.SetDefault("backend", BackendLibPAM)
	v.SetDefault("users_file", "")
	v.SetDefault("passwd_file", "")
	v.SetDefault("close_session_on_release", true)
	v.SetDefault("initialize_environment", true)
	v.SetDefault("silent", false)
	v.SetDefault("verbose", false)
	return v
}

// loadConfig reads the optional config file and merges env and flags.
func loadConfig(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
