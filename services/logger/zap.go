package logsvc

import (
	"go.uber.org/zap"

	"github.com/trezcool/mentora/core"
)

// NewZapLogger returns the structured logger every log entry is written to.
func NewZapLogger(conf *core.Config) (*zap.Logger, error) {
	if conf.IsProd() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
