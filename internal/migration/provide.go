package migration

import (
	"github.com/rs/zerolog"
	"github.com/samber/do"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/docuseek/indexcore/internal/config"
	"github.com/docuseek/indexcore/internal/docstore"
)

// Provide registers migration dependencies with the injector. The runner is
// constructed separately because the migrations list is supplied by the
// caller.
func Provide(i *do.Injector) {
	provideStore(i)
	provideClient(i)
}

func provideClient(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Client, error) {
		store, err := do.Invoke[docstore.Store](i)
		if err != nil {
			return nil, err
		}
		logger, err := do.Invoke[zerolog.Logger](i)
		if err != nil {
			return nil, err
		}
		return NewClient(store, logger), nil
	})
}

func provideStore(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Store, error) {
		cfg, err := do.Invoke[config.Config](i)
		if err != nil {
			return nil, err
		}
		client, err := do.Invoke[*clientv3.Client](i)
		if err != nil {
			return nil, err
		}
		return NewStore(client, cfg.EtcdKeyRoot), nil
	})
}

// NewRunnerFromInjector assembles a Runner for the given ordered migrations
// list.
func NewRunnerFromInjector(i *do.Injector, migrations []Migration) (*Runner, error) {
	cfg, err := do.Invoke[config.Config](i)
	if err != nil {
		return nil, err
	}
	client, err := do.Invoke[*clientv3.Client](i)
	if err != nil {
		return nil, err
	}
	store, err := do.Invoke[*Store](i)
	if err != nil {
		return nil, err
	}
	logger, err := do.Invoke[zerolog.Logger](i)
	if err != nil {
		return nil, err
	}
	return NewRunner(cfg.HostID, client, store, i, logger, migrations), nil
}
