package http

import "go.uber.org/fx"

// Module wires the RPC Surface and debug handlers into the fx graph.
var Module = fx.Module("http-handler",
	fx.Provide(New, NewDebugHandler),
)
