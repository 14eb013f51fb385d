package http

import (
	"github.com/nats-io/nats.go"

	"github.com/loross14/lost-and-found/internal/adapters/postgres"
	"github.com/loross14/lost-and-found/internal/adapters/valkey"
	"github.com/loross14/lost-and-found/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Scans *usecases.ScanService
	Sites *usecases.SiteService
	NATS  *nats.Conn
	DB    *postgres.DB
	Cache *valkey.Cache
}
