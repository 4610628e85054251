package legalentity

import (
	"github.com/smallbiznis/clientdir/internal/legalentity/repository"
	"github.com/smallbiznis/clientdir/internal/legalentity/service"
	"go.uber.org/fx"
)

var Module = fx.Module("legalentity.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
