package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"coinlook-api/internal/logic"
	"coinlook-api/internal/svc"
	"coinlook-api/internal/types"
)

func ToggleHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ToggleRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, badRequest(err))
			return
		}

		l := logic.NewToggleLogic(r.Context(), svcCtx)
		resp, err := l.Toggle(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
