package index

import (
	"github.com/rs/zerolog"
	"github.com/samber/do"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/docuseek/indexcore/internal/config"
)

// Provide registers the stage pipeline with the injector. The propagation
// engine is only registered when a Hierarchy has been provided by the schema
// component.
func Provide(i *do.Injector) {
	provideStore(i)
	provideTracker(i)
	provideEngine(i)
}

func provideStore(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*StageStateStore, error) {
		cfg, err := do.Invoke[config.Config](i)
		if err != nil {
			return nil, err
		}
		client, err := do.Invoke[*clientv3.Client](i)
		if err != nil {
			return nil, err
		}
		return NewStageStateStore(client, cfg.EtcdKeyRoot), nil
	})
}

func provideTracker(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*StageTracker, error) {
		store, err := do.Invoke[*StageStateStore](i)
		if err != nil {
			return nil, err
		}
		logger, err := do.Invoke[zerolog.Logger](i)
		if err != nil {
			return nil, err
		}
		return NewStageTracker(store, logger), nil
	})
}

func provideEngine(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*PropagationEngine, error) {
		hierarchy, err := do.Invoke[Hierarchy](i)
		if err != nil {
			return nil, err
		}
		return NewPropagationEngine(hierarchy), nil
	})
}
