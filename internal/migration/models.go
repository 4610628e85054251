package migration

import (
	departmentdomain "github.com/smallbiznis/clientdir/internal/department/domain"
	legalentitydomain "github.com/smallbiznis/clientdir/internal/legalentity/domain"
	persondomain "github.com/smallbiznis/clientdir/internal/person/domain"
)

func allModels() []any {
	return []any{
		&persondomain.NaturalPerson{},
		&legalentitydomain.LegalEntity{},
		&departmentdomain.Department{},
		&departmentdomain.Member{},
		&departmentdomain.LegalEntityLink{},
	}
}
