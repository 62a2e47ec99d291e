package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"coinlook-api/internal/svc"
	"coinlook-api/internal/types"
	"coinlook-api/pkg/dashboard"
)

type CoinLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewCoinLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CoinLogic {
	return &CoinLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *CoinLogic) Coin(req *types.CoinRequest) (*types.CoinResponse, error) {
	res := l.svcCtx.Gateway.FetchCoinDetail(l.ctx, req.ID)
	if !res.OK() {
		l.Errorf("coin %s: %v", req.ID, res.Failure)
		return nil, res.Failure
	}
	store := l.svcCtx.Watchlists.Store(l.ctx, req.Session)
	page := dashboard.BuildCoinPage(res.Data, l.svcCtx.VsCurrency, store.Contains(res.Data.ID))
	return &types.CoinResponse{CoinPage: page}, nil
}
