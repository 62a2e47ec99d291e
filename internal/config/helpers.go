package config

import (
	"coinlook-api/pkg/market"
	// Registers the coingecko provider type used by gateway configs.
	_ "coinlook-api/pkg/market/coingecko"
)

// MustLoadGateway loads etc/gateway.yaml from the project root and panics on error.
// It lets tools that only need market data skip the main service config.
func MustLoadGateway() *market.Config {
	return market.MustLoad()
}

// MustBuildDefaultGateway loads the default gateway configuration and builds its
// default provider.
func MustBuildDefaultGateway() market.Gateway {
	gw, err := MustLoadGateway().DefaultProvider()
	if err != nil {
		panic(err)
	}
	return gw
}
