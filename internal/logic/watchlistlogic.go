package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"coinlook-api/internal/svc"
	"coinlook-api/internal/types"
	"coinlook-api/pkg/dashboard"
)

type WatchlistLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewWatchlistLogic(ctx context.Context, svcCtx *svc.ServiceContext) *WatchlistLogic {
	return &WatchlistLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *WatchlistLogic) Watchlist(req *types.SessionRequest) (*types.WatchlistResponse, error) {
	store := l.svcCtx.Watchlists.Store(l.ctx, req.Session)
	page, failure := dashboard.LoadWatchlist(l.ctx, l.svcCtx.Gateway, store)
	if failure != nil {
		l.Errorf("watchlist (%d ids): %v", len(page.IDs), failure)
		return nil, failure
	}
	resp := &types.WatchlistResponse{WatchlistPage: page}
	if page.Empty {
		resp.Title = dashboard.EmptyWatchlistTitle
		resp.Hint = dashboard.EmptyWatchlistHint
	}
	return resp, nil
}
