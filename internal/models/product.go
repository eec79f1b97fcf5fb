package models

import "encoding/json"

// RentType is the frontend rental-period enumeration.
type RentType string

const (
	RentTypeHourly  RentType = "HOURLY"
	RentTypeDaily   RentType = "DAILY"
	RentTypeWeekly  RentType = "WEEKLY"
	RentTypeMonthly RentType = "MONTHLY"
)

// Wire-format rent options as the backend spells them.
const (
	RentOptionHour  = "hour"
	RentOptionDay   = "day"
	RentOptionWeek  = "week"
	RentOptionMonth = "month"
)

// WireProduct is the flat product shape exchanged with the backend.
// Prices travel as strings, and optional fields are pointers so that
// "absent" stays distinguishable from a zero value.
type WireProduct struct {
	ID            json.Number `json:"id"`
	Seller        json.Number `json:"seller,omitempty"`
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Categories    []string    `json:"categories"`
	ProductImage  string      `json:"product_image,omitempty"`
	PurchasePrice *string     `json:"purchase_price,omitempty"`
	RentPrice     *string     `json:"rent_price,omitempty"`
	RentOption    string      `json:"rent_option,omitempty"`
	DatePosted    string      `json:"date_posted,omitempty"`
}

// ProductImage is one entry of the frontend image gallery. The backend only
// carries a single image URL; the transformer synthesizes this richer shape.
type ProductImage struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Alt          string `json:"alt"`
	Order        int    `json:"order"`
}

// Owner is the product owner as the presentation layer consumes it.
type Owner struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Product is the frontend product model: the wire scalars carried through
// verbatim plus the derived fields the screens read (parsed prices,
// availability flags, synthesized image gallery).
type Product struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Categories   []string `json:"categories"`
	ProductImage string   `json:"product_image,omitempty"`
	DatePosted   string   `json:"date_posted,omitempty"`

	// Raw wire price strings, kept alongside the parsed values.
	WirePurchasePrice *string `json:"purchase_price,omitempty"`
	WireRentPrice     *string `json:"rent_price,omitempty"`
	RentOption        string  `json:"rent_option,omitempty"`

	// Derived fields.
	Images           []ProductImage `json:"images"`
	PurchasePrice    *float64       `json:"purchasePrice,omitempty"`
	RentPrice        *float64       `json:"rentPrice,omitempty"`
	RentType         RentType       `json:"rentType,omitempty"`
	AvailableForSale bool           `json:"availableForSale"`
	AvailableForRent bool           `json:"availableForRent"`

	// Fields the wire format does not carry at all; the transformer
	// fabricates them because dependent screens read them unconditionally.
	Owner         Owner  `json:"owner"`
	Condition     string `json:"condition"`
	IsActive      bool   `json:"isActive"`
	ViewCount     int    `json:"viewCount"`
	FavoriteCount int    `json:"favoriteCount"`
}

// ProductInput is the loosely-shaped draft the outbound mapping consumes.
// Optional fields are pointers or slices so the mapping can tell "not given"
// from an explicit empty value.
type ProductInput struct {
	Title       string
	Description string

	// Category ids may arrive under either name; CategoryIDs wins.
	Categories  []string
	CategoryIDs []string

	// New image URLs; the first one becomes product_image. ProductImage is
	// the passthrough scalar used when the list is empty.
	Images       []string
	ProductImage string

	PurchasePrice     *float64
	WirePurchasePrice *string

	RentPrice *float64
	RentType  RentType

	Seller string
}

// ProductPayload is the create/update request body. rent_price and
// rent_option are unconditional: the backend rejects payloads without them
// even for sale-only listings.
type ProductPayload struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Categories    []string `json:"categories"`
	ProductImage  string   `json:"product_image,omitempty"`
	PurchasePrice *string  `json:"purchase_price,omitempty"`
	RentPrice     string   `json:"rent_price"`
	RentOption    string   `json:"rent_option"`
	Seller        string   `json:"seller,omitempty"`
}
