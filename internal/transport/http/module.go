package http

import (
	"go.uber.org/fx"

	ordertransport "github.com/Additional-Code/serviceorders/internal/transport/http/order"
)

// Module aggregates the HTTP routes of every domain.
var Module = fx.Options(
	ordertransport.Module,
)
