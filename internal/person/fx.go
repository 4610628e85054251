package person

import (
	"github.com/smallbiznis/clientdir/internal/person/repository"
	"github.com/smallbiznis/clientdir/internal/person/service"
	"go.uber.org/fx"
)

var Module = fx.Module("person.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
