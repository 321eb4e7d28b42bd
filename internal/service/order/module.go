package order

import "go.uber.org/fx"

// Module provides the order service and its validator to Fx.
var Module = fx.Provide(NewValidator, NewService)
