package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"coinlook-api/internal/logic"
	"coinlook-api/internal/svc"
)

func NewSessionHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewSessionLogic(r.Context(), svcCtx)
		resp, err := l.NewSession()
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
