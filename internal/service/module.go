package service

import (
	"go.uber.org/fx"
)

// Module wires the Broker behind the registry, then decorates it with
// request logging — the same Provide-then-Decorate shape the teacher uses
// for Enricher in internal/service/module.go.
var Module = fx.Module(
	"broker-service",

	fx.Provide(NewBroker),

	fx.Decorate(NewObservabilityMiddleware),
)
