package dto

// ListResponse wraps a list result
type ListResponse[T any] struct {
	Items []T `json:"items"`
}

// NewListResponse wraps items. A nil slice is rendered as [].
func NewListResponse[T any](items []T) *ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return &ListResponse[T]{Items: items}
}

// DebtSummaryResult carries an optional summary. Summary is null when the
// participant is unknown or has no events.
type DebtSummaryResult struct {
	Summary *DebtSummaryResponse `json:"summary"`
}

// EmptyResponse is the body of calls without a result
type EmptyResponse struct{}
