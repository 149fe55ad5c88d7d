package mapping

import (
	"github.com/licensedesk/royalty/internal/mapping/repository"
	"github.com/licensedesk/royalty/internal/mapping/service"
	"go.uber.org/fx"
)

var Module = fx.Module("mapping.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
