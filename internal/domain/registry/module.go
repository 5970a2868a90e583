package registry

import "go.uber.org/fx"

// Module wires the Session Registry singleton into the fx graph.
var Module = fx.Module("registry",
	fx.Provide(New),
)
