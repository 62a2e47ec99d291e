package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"coinlook-api/internal/logic"
	"coinlook-api/internal/svc"
	"coinlook-api/internal/types"
)

func MarketsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.MarketsRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, badRequest(err))
			return
		}

		l := logic.NewMarketsLogic(r.Context(), svcCtx)
		resp, err := l.Markets(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
