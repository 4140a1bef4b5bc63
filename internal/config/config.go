package config

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Logging struct {
	Level  string `koanf:"level" json:"level,omitempty"`
	Pretty bool   `koanf:"pretty" json:"pretty,omitempty"`
}

func (l Logging) validate() []error {
	var errs []error
	if _, err := zerolog.ParseLevel(l.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: invalid log level %q: %w", l.Level, err))
	}
	return errs
}

type Etcd struct {
	Endpoints          []string `koanf:"endpoints" json:"endpoints,omitempty"`
	Username           string   `koanf:"username" json:"username,omitempty"`
	Password           string   `koanf:"password" json:"password,omitempty"`
	DialTimeoutSeconds int      `koanf:"dial_timeout_seconds" json:"dial_timeout_seconds,omitempty"`
	LogLevel           string   `koanf:"log_level" json:"log_level,omitempty"`
}

func (e Etcd) validate() []error {
	var errs []error
	if len(e.Endpoints) == 0 {
		errs = append(errs, errors.New("etcd.endpoints: cannot be empty"))
	}
	if _, err := zerolog.ParseLevel(e.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("etcd.log_level: invalid log level %q: %w", e.LogLevel, err))
	}
	return errs
}

type Config struct {
	HostID      string  `koanf:"host_id" json:"host_id,omitempty"`
	EtcdKeyRoot string  `koanf:"etcd_key_root" json:"etcd_key_root,omitempty"`
	Logging     Logging `koanf:"logging" json:"logging,omitempty"`
	Etcd        Etcd    `koanf:"etcd" json:"etcd,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		HostID:      uuid.NewString(),
		EtcdKeyRoot: "indexcore",
		Logging: Logging{
			Level: "info",
		},
		Etcd: Etcd{
			Endpoints:          []string{"http://127.0.0.1:2379"},
			DialTimeoutSeconds: 5,
			LogLevel:           "error",
		},
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.EtcdKeyRoot == "" {
		errs = append(errs, errors.New("etcd_key_root: cannot be empty"))
	}
	errs = append(errs, c.Logging.validate()...)
	errs = append(errs, c.Etcd.validate()...)
	return errors.Join(errs...)
}
