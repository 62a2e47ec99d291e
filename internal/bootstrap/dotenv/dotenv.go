// Package dotenv loads .env files as an import side effect, for tests and
// tools that read credentials such as COINGECKO_API_KEY before any config is
// parsed.
package dotenv

import "coinlook-api/pkg/confkit"

func init() {
	confkit.LoadDotenvOnce()
}
