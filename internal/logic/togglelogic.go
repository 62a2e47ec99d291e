package logic

import (
	"context"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"coinlook-api/internal/svc"
	"coinlook-api/internal/types"
	"coinlook-api/pkg/market"
)

type ToggleLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewToggleLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ToggleLogic {
	return &ToggleLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Toggle adds the coin to the session's watchlist when absent and removes it
// otherwise. The coin id is not checked against the provider.
func (l *ToggleLogic) Toggle(req *types.ToggleRequest) (*types.ToggleResponse, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return nil, &market.Failure{Kind: market.KindInvalid, Message: "coin id is required"}
	}
	store := l.svcCtx.Watchlists.Store(l.ctx, req.Session)
	store.Toggle(l.ctx, id)
	return &types.ToggleResponse{
		ID:      id,
		Watched: store.Contains(id),
		IDs:     store.IDs(),
	}, nil
}
