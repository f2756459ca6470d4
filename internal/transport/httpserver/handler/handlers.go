package handler

import (
	"menu-app-go/internal/auth"
	catalogdomain "menu-app-go/internal/domain/catalog"
	userdomain "menu-app-go/internal/domain/user"
	"menu-app-go/internal/media"
	"menu-app-go/pkg/logger"
)

type Handlers struct {
	Catalog *catalogdomain.Service
	Users   *userdomain.Service
	Tokens  *auth.Issuer
	Photos  *media.Photos
	Queries *catalogdomain.QueryParser

	maxUploadBytes int64
	log            logger.Logger
}

type Options struct {
	Catalog     *catalogdomain.Service
	Users       *userdomain.Service
	Tokens      *auth.Issuer
	Photos      *media.Photos
	Queries     *catalogdomain.QueryParser
	MaxUploadMB int64
}

func New(opts Options, log logger.Logger) *Handlers {
	maxUpload := opts.MaxUploadMB
	if maxUpload <= 0 {
		maxUpload = 10
	}
	queries := opts.Queries
	if queries == nil {
		queries = catalogdomain.NewQueryParser(nil)
	}
	return &Handlers{
		Catalog:        opts.Catalog,
		Users:          opts.Users,
		Tokens:         opts.Tokens,
		Photos:         opts.Photos,
		Queries:        queries,
		maxUploadBytes: maxUpload << 20,
		log:            log,
	}
}
