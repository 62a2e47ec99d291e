package dashboard

import "coinlook-api/pkg/market"

// Notice titles.
const (
	TitleMarkets = "Error fetching data"
	TitleChart   = "Chart Error"
	TitleDetail  = "Error loading coin"
)

// Notice is a dismissible error attached to a view.
type Notice struct {
	Title   string             `json:"title"`
	Message string             `json:"message"`
	Kind    market.FailureKind `json:"kind"`
}

func noticeFrom(title string, f *market.Failure) *Notice {
	if f == nil {
		return nil
	}
	return &Notice{Title: title, Message: f.Message, Kind: f.Kind}
}
