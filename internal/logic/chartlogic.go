package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"coinlook-api/internal/svc"
	"coinlook-api/internal/types"
	"coinlook-api/pkg/dashboard"
)

type ChartLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewChartLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ChartLogic {
	return &ChartLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Chart returns the price history for days, which must be one of the
// supported ranges.
func (l *ChartLogic) Chart(req *types.ChartRequest) (*types.ChartResponse, error) {
	days := req.Days
	if days == 0 {
		days = dashboard.DefaultChartDays
	}
	res := l.svcCtx.Gateway.FetchChart(l.ctx, req.ID, days)
	if !res.OK() {
		l.Errorf("chart %s %dd: %v", req.ID, days, res.Failure)
		return nil, res.Failure
	}
	return &types.ChartResponse{ChartPage: dashboard.BuildChartPage(res.Data)}, nil
}
