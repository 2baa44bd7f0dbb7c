// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/nmoretto/oraclewatch/business/arbitrage/app"
	"github.com/nmoretto/oraclewatch/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Engine  = di.NewToken[*app.Engine]("arbitrage.Engine")
	Watcher = di.NewToken[*app.Watcher]("arbitrage.Watcher")
)

// Private dependency tokens - internal to arbitrage module
var (
	Notifier = di.NewToken[app.Notifier]("arbitrage:notifier")
)

// Helper functions for type-safe access
func GetEngine(c di.ServiceRegistry) *app.Engine {
	return di.GetToken(c, Engine)
}

func GetWatcher(c di.ServiceRegistry) *app.Watcher {
	return di.GetToken(c, Watcher)
}

func GetNotifier(c di.ServiceRegistry) app.Notifier {
	return di.GetToken(c, Notifier)
}
