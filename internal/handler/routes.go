package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"
	"github.com/zeromicro/go-zero/rest/httpx"

	"coinlook-api/internal/svc"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	httpx.SetErrorHandlerCtx(errorHandler)

	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/markets",
				Handler: MarketsHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/coins/:id",
				Handler: CoinHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/coins/:id/chart",
				Handler: ChartHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/watchlist",
				Handler: WatchlistHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/watchlist/:id/toggle",
				Handler: ToggleHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/sessions",
				Handler: NewSessionHandler(serverCtx),
			},
		},
		rest.WithPrefix("/api"),
	)
}
