// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/nmoretto/oraclewatch/business/pricing/app"
	"github.com/nmoretto/oraclewatch/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PricingService = di.NewToken[*app.PricingService]("pricing.PricingService")
	ConfigStore    = di.NewToken[app.ConfigStore]("pricing.ConfigStore")
)

// Private dependency tokens - internal to pricing module
var (
	ChainlinkProvider = di.NewToken[app.ReadingProvider]("pricing:chainlinkProvider")
	FeedProvider      = di.NewToken[app.ReadingProvider]("pricing:feedProvider")
	RestProvider      = di.NewToken[app.ReadingProvider]("pricing:restProvider")
)

// Helper functions for type-safe access
func GetPricingService(c di.ServiceRegistry) *app.PricingService {
	return di.GetToken(c, PricingService)
}

func GetConfigStore(c di.ServiceRegistry) app.ConfigStore {
	return di.GetToken(c, ConfigStore)
}
