package inference

import (
	"github.com/licensedesk/royalty/internal/config"
	"github.com/licensedesk/royalty/internal/inference/client"
	inferencedomain "github.com/licensedesk/royalty/internal/inference/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("inference",
	fx.Provide(provideClient),
)

func provideClient(cfg config.Config, log *zap.Logger) inferencedomain.Client {
	if cfg.InferenceEndpoint == "" {
		log.Info("inference disabled, resolver degrades to keyword matching only")
		return client.NopClient{}
	}
	return client.NewHTTP(cfg.InferenceEndpoint, cfg.InferenceAPIKey, cfg.InferenceTimeout, log)
}
