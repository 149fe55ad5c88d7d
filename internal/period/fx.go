package period

import (
	"github.com/licensedesk/royalty/internal/period/repository"
	"github.com/licensedesk/royalty/internal/period/service"
	"go.uber.org/fx"
)

var Module = fx.Module("period.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
