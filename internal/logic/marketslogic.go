package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"coinlook-api/internal/svc"
	"coinlook-api/internal/types"
	"coinlook-api/pkg/dashboard"
)

type MarketsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewMarketsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *MarketsLogic {
	return &MarketsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Markets returns one page of coins. The q filter applies to the fetched page
// only, matching name or symbol case-insensitively.
func (l *MarketsLogic) Markets(req *types.MarketsRequest) (*types.MarketsResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	res := l.svcCtx.Gateway.FetchMarkets(l.ctx, page, nil)
	if !res.OK() {
		l.Errorf("markets page %d: %v", page, res.Failure)
		return nil, res.Failure
	}

	store := l.svcCtx.Watchlists.Store(l.ctx, req.Session)
	coins := dashboard.FilterCoins(res.Data, req.Query)
	resp := &types.MarketsResponse{
		Page:  page,
		Query: req.Query,
		Rows:  dashboard.BuildRows(coins, store.Contains),
	}
	if len(resp.Rows) == 0 {
		resp.Message = dashboard.NoResults
	}
	return resp, nil
}
