package ytd

import (
	"github.com/licensedesk/royalty/internal/ytd/service"
	"go.uber.org/fx"
)

var Module = fx.Module("ytd.service",
	fx.Provide(service.New),
)
