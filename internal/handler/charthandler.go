package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"coinlook-api/internal/logic"
	"coinlook-api/internal/svc"
	"coinlook-api/internal/types"
)

func ChartHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ChartRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, badRequest(err))
			return
		}

		l := logic.NewChartLogic(r.Context(), svcCtx)
		resp, err := l.Chart(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
