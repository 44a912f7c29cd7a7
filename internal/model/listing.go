package model

// Sort indexes accepted by the listing endpoint.
const (
	SortLatest    = 0
	SortDownloads = 1
	SortViews     = 2
)

// SortNames labels the known sort indexes.
var SortNames = map[int]string{
	SortLatest:    "latest",
	SortDownloads: "downloads",
	SortViews:     "views",
}

// SortName returns the label for a sort index.
func SortName(sort int) string {
	if name, ok := SortNames[sort]; ok {
		return name
	}
	return "custom"
}

// DefaultPageSize matches the page size the web client requests.
const DefaultPageSize = 20

// ListingFilter is the tuple of independent filter axes.
type ListingFilter struct {
	Device  string `json:"device"`
	Sort    int    `json:"sort"`
	Keyword string `json:"keyword,omitempty"`
}

// Searching reports whether results come from the keyword search endpoint.
func (f ListingFilter) Searching() bool {
	return f.Keyword != ""
}

// ListingState is the reconciled, scrollable result list.
type ListingState struct {
	Filter   ListingFilter `json:"filter"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	// Loaded is set once Page has been fetched and merged.
	Loaded  bool        `json:"loaded"`
	HasMore bool        `json:"hasMore"`
	Loading bool        `json:"-"`
	Items   []Watchface `json:"items"`
}

// Clone returns a deep copy safe to hand to callers.
func (s ListingState) Clone() ListingState {
	out := s
	if s.Items != nil {
		out.Items = make([]Watchface, len(s.Items))
		copy(out.Items, s.Items)
	}
	return out
}
