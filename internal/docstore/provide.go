package docstore

import (
	"github.com/rs/zerolog"
	"github.com/samber/do"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/docuseek/indexcore/internal/config"
)

func Provide(i *do.Injector) {
	provideStore(i)
}

func provideStore(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (Store, error) {
		cfg, err := do.Invoke[config.Config](i)
		if err != nil {
			return nil, err
		}
		client, err := do.Invoke[*clientv3.Client](i)
		if err != nil {
			return nil, err
		}
		logger, err := do.Invoke[zerolog.Logger](i)
		if err != nil {
			return nil, err
		}
		return NewEtcdStore(client, cfg.EtcdKeyRoot, logger), nil
	})
}
