package logging

import (
	"github.com/rs/zerolog"
	"go.mau.fi/zerozap"
	"go.uber.org/zap"
)

// Zap bridges a zerolog logger into the zap interface that the etcd client
// expects for its internal logging.
func Zap(base zerolog.Logger, level zerolog.Level) *zap.Logger {
	core := zerozap.New(base.
		Level(level).
		With().
		Logger())
	return zap.New(core)
}
