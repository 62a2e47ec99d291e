package logic

import (
	"context"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"

	"coinlook-api/internal/svc"
	"coinlook-api/internal/types"
)

type SessionLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSessionLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SessionLogic {
	return &SessionLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// NewSession issues a fresh session id and loads its (empty) watchlist.
func (l *SessionLogic) NewSession() (*types.NewSessionResponse, error) {
	id := uuid.NewString()
	l.svcCtx.Watchlists.Store(l.ctx, id)
	l.Infof("session %s created", id)
	return &types.NewSessionResponse{Session: id}, nil
}
