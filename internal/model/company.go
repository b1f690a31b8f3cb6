// Package model defines the data structures used throughout the application.
// These mirror the JSON shapes the upstream Rootz API sends — the upstream is
// MongoDB-backed, which is why identifiers arrive under the "_id" key.
package model

// Company is one shop in the cashback catalog.
//
// WHY `json:"_id"`?
// The upstream serializes Mongo documents directly, so the primary key is
// "_id", not "id". We keep the upstream key on the inbound side and re-emit
// the same shape to the UI so the gateway stays a transparent pane for
// catalog data.
type Company struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Image       string `json:"image,omitempty"`       // logo URL
	Description string `json:"description,omitempty"` // may be empty — UI hides the line
	Discount    string `json:"discount,omitempty"`    // display string, e.g. "5%"
	SiteURL     string `json:"siteUrl,omitempty"`     // outbound shop link opened on purchase
	ClickCount  int    `json:"clickCount,omitempty"`
}
