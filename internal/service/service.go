package service

import (
	"github.com/kesarsunil/problemstatment/internal/service/catalog"
	"github.com/kesarsunil/problemstatment/internal/service/export"
	"github.com/kesarsunil/problemstatment/internal/service/registration"
	"github.com/kesarsunil/problemstatment/internal/service/roster"
)

type Services struct {
	RegistrationService *registration.RegistrationService
	CatalogService      *catalog.CatalogService
	ExportService       *export.ExportService
	RosterService       *roster.RosterService
}
