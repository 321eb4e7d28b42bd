package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/serviceorders/internal/cache"
	"github.com/Additional-Code/serviceorders/internal/config"
	"github.com/Additional-Code/serviceorders/internal/database"
	"github.com/Additional-Code/serviceorders/internal/logger"
	"github.com/Additional-Code/serviceorders/internal/messaging"
	"github.com/Additional-Code/serviceorders/internal/migration"
	"github.com/Additional-Code/serviceorders/internal/observability"
	"github.com/Additional-Code/serviceorders/internal/presentation/http/flash"
	"github.com/Additional-Code/serviceorders/internal/presentation/http/view"
	repositoryorder "github.com/Additional-Code/serviceorders/internal/repository/order"
	grpcserver "github.com/Additional-Code/serviceorders/internal/server/grpc"
	httpserver "github.com/Additional-Code/serviceorders/internal/server/http"
	serviceorder "github.com/Additional-Code/serviceorders/internal/service/order"
	transporthttp "github.com/Additional-Code/serviceorders/internal/transport/http"
	"github.com/Additional-Code/serviceorders/internal/worker"
	workerorder "github.com/Additional-Code/serviceorders/internal/worker/order"
)

// Core provides the modules shared by every executable: configuration,
// logging, telemetry, the store and the order service.
var Core = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
	database.Module,
	cache.Module,
	messaging.Module,
	repositoryorder.Module,
	serviceorder.Module,
)

// HTTP serves the order pages, JSON API and optional gRPC health endpoint.
var HTTP = fx.Options(
	Core,
	migration.Module,
	migration.AutoMigrate,
	view.Module,
	flash.Module,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker consumes order change notifications.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring.
var Module = HTTP
