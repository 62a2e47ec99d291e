package types

import (
	"coinlook-api/pkg/dashboard"
)

// SessionHeader selects the watchlist a request reads and writes.
const SessionHeader = "X-Session-Id"

type SessionRequest struct {
	Session string `header:"X-Session-Id,optional"`
}

type MarketsRequest struct {
	SessionRequest
	Page  int    `form:"page,default=1"`
	Query string `form:"q,optional"`
}

type MarketsResponse struct {
	Page    int                 `json:"page"`
	Query   string              `json:"q,omitempty"`
	Rows    []dashboard.CoinRow `json:"rows"`
	Message string              `json:"message,omitempty"`
}

type CoinRequest struct {
	SessionRequest
	ID string `path:"id"`
}

type CoinResponse struct {
	dashboard.CoinPage
}

type ChartRequest struct {
	ID   string `path:"id"`
	Days int    `form:"days,default=1"`
}

type ChartResponse struct {
	dashboard.ChartPage
}

type WatchlistResponse struct {
	dashboard.WatchlistPage
	Title string `json:"title,omitempty"`
	Hint  string `json:"hint,omitempty"`
}

type ToggleRequest struct {
	SessionRequest
	ID string `path:"id"`
}

type ToggleResponse struct {
	ID      string   `json:"id"`
	Watched bool     `json:"watched"`
	IDs     []string `json:"ids"`
}

type NewSessionResponse struct {
	Session string `json:"session"`
}

type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
