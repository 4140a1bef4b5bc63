package etcd

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/docuseek/indexcore/internal/config"
	"github.com/docuseek/indexcore/internal/logging"
)

// NewClient connects to the etcd cluster backing the document and stage
// stores. The connection is a long-lived shared resource owned by the
// surrounding process.
func NewClient(cfg config.Config, logger zerolog.Logger) (*clientv3.Client, error) {
	level, err := zerolog.ParseLevel(cfg.Etcd.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse etcd log level: %w", err)
	}
	zapLogger := logging.Zap(logger.With().Str("component", "etcd_client").Logger(), level)

	client, err := clientv3.New(clientv3.Config{
		Logger:      zapLogger,
		Endpoints:   cfg.Etcd.Endpoints,
		Username:    cfg.Etcd.Username,
		Password:    cfg.Etcd.Password,
		DialTimeout: time.Duration(cfg.Etcd.DialTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	return client, nil
}
