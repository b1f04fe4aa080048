package enums

import "fmt"

// ProductStatus tracks where a product is in its launch lifecycle.
// Transitions only move forward: draft -> scheduled -> launched.
type ProductStatus string

const (
	ProductStatusDraft     ProductStatus = "draft"
	ProductStatusScheduled ProductStatus = "scheduled"
	ProductStatusLaunched  ProductStatus = "launched"
)

var productStatusOrder = map[ProductStatus]int{
	ProductStatusDraft:     0,
	ProductStatusScheduled: 1,
	ProductStatusLaunched:  2,
}

// String implements fmt.Stringer.
func (s ProductStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ProductStatus.
func (s ProductStatus) IsValid() bool {
	_, ok := productStatusOrder[s]
	return ok
}

// HasLaunchDate reports whether products in this status must carry a launch date.
func (s ProductStatus) HasLaunchDate() bool {
	return s == ProductStatusScheduled || s == ProductStatusLaunched
}

// CanTransitionTo reports whether moving to next keeps the lifecycle monotonic.
func (s ProductStatus) CanTransitionTo(next ProductStatus) bool {
	from, okFrom := productStatusOrder[s]
	to, okTo := productStatusOrder[next]
	return okFrom && okTo && to >= from
}

// ParseProductStatus converts raw input into a ProductStatus.
func ParseProductStatus(value string) (ProductStatus, error) {
	status := ProductStatus(value)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid product status %q", value)
	}
	return status, nil
}

// MediaKind classifies product media rows.
type MediaKind string

const (
	MediaKindIcon       MediaKind = "icon"
	MediaKindThumbnail  MediaKind = "thumbnail"
	MediaKindScreenshot MediaKind = "screenshot"
)

// String implements fmt.Stringer.
func (k MediaKind) String() string {
	return string(k)
}
