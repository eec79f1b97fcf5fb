// Package transform reconciles the backend's flat wire product shape with
// the richer frontend product model consumed by the listing screens.
package transform

import (
	"strconv"
	"strings"

	"pasar/internal/models"
)

// MapRentOptionToType maps a wire rent option onto the frontend rent type.
// The mapping is a total bijection over the four-element domain; anything
// absent or unrecognized falls back to DAILY.
func MapRentOptionToType(option string) models.RentType {
	switch option {
	case models.RentOptionHour:
		return models.RentTypeHourly
	case models.RentOptionDay:
		return models.RentTypeDaily
	case models.RentOptionWeek:
		return models.RentTypeWeekly
	case models.RentOptionMonth:
		return models.RentTypeMonthly
	default:
		return models.RentTypeDaily
	}
}

// MapTypeToRentOption is the reverse of MapRentOptionToType, with the same
// "day" default for an absent or unrecognized rent type.
func MapTypeToRentOption(rentType models.RentType) string {
	switch rentType {
	case models.RentTypeHourly:
		return models.RentOptionHour
	case models.RentTypeDaily:
		return models.RentOptionDay
	case models.RentTypeWeekly:
		return models.RentOptionWeek
	case models.RentTypeMonthly:
		return models.RentOptionMonth
	default:
		return models.RentOptionDay
	}
}

// parsePrice parses a wire price string into a float. A nil source stays nil
// (an absent price must never be coerced to 0). Malformed strings also come
// back nil; guarding against them is the validators' job, not ours.
func parsePrice(raw *string) *float64 {
	if raw == nil {
		return nil
	}
	value, err := strconv.ParseFloat(*raw, 64)
	if err != nil {
		return nil
	}
	return &value
}

// ToProduct maps an inbound wire product onto the frontend model: wire
// scalars copied through, prices parsed, rent type mapped, the image gallery
// synthesized from the single product_image URL, and availability flags
// derived from price presence (the wire format has no such flags).
func ToProduct(wire models.WireProduct) models.Product {
	product := models.Product{
		ID:           wire.ID.String(),
		Title:        wire.Title,
		Description:  wire.Description,
		Categories:   wire.Categories,
		ProductImage: wire.ProductImage,
		DatePosted:   wire.DatePosted,

		WirePurchasePrice: wire.PurchasePrice,
		WireRentPrice:     wire.RentPrice,
		RentOption:        wire.RentOption,

		Images:        []models.ProductImage{},
		PurchasePrice: parsePrice(wire.PurchasePrice),
		RentPrice:     parsePrice(wire.RentPrice),

		AvailableForSale: wire.PurchasePrice != nil && *wire.PurchasePrice != "",
		AvailableForRent: wire.RentPrice != nil && *wire.RentPrice != "",

		// The backend does not send an owner record, condition, activity
		// flag, or counters; screens read them unconditionally, so they are
		// fabricated here with fixed placeholders.
		Owner: models.Owner{
			ID:        wire.Seller.String(),
			FirstName: "Product",
			LastName:  "Owner",
		},
		Condition:     "GOOD",
		IsActive:      true,
		ViewCount:     0,
		FavoriteCount: 0,
	}

	if wire.ProductImage != "" {
		product.Images = []models.ProductImage{{
			ID:           "1",
			URL:          wire.ProductImage,
			ThumbnailURL: wire.ProductImage,
			Alt:          wire.Title,
			Order:        0,
		}}
	}

	if wire.RentOption != "" {
		product.RentType = MapRentOptionToType(wire.RentOption)
	}

	return product
}

// FormatPrice renders a parsed price back into its wire string form.
func FormatPrice(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// ToPayload maps a frontend product draft onto the create/update request
// shape. rent_price and rent_option are always emitted, defaulting to
// "0.00" / "day" when renting is not offered: the backend requires both
// fields unconditionally, even for sale-only listings.
func ToPayload(input models.ProductInput) models.ProductPayload {
	payload := models.ProductPayload{
		Title:       input.Title,
		Description: input.Description,
		RentPrice:   "0.00",
		RentOption:  models.RentOptionDay,
		Seller:      input.Seller,
	}

	// Explicit categoryIds win over the passthrough categories field.
	switch {
	case input.CategoryIDs != nil:
		payload.Categories = input.CategoryIDs
	default:
		payload.Categories = input.Categories
	}

	if len(input.Images) > 0 {
		payload.ProductImage = input.Images[0]
	} else {
		payload.ProductImage = input.ProductImage
	}

	switch {
	case input.PurchasePrice != nil:
		formatted := FormatPrice(*input.PurchasePrice)
		payload.PurchasePrice = &formatted
	case input.WirePurchasePrice != nil:
		payload.PurchasePrice = input.WirePurchasePrice
	}

	if input.RentPrice != nil {
		payload.RentPrice = FormatPrice(*input.RentPrice)
	}
	if input.RentType != "" {
		payload.RentOption = MapTypeToRentOption(input.RentType)
	}

	return payload
}

// SanitizePrice normalizes a typed price string before parsing: every
// character that is not a digit or a dot is stripped, then any extra dot
// segments are collapsed by re-joining them without dots, so "12.34.56"
// becomes "12.3456" and "12.5x9" becomes "12.59".
func SanitizePrice(raw string) string {
	var builder strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			builder.WriteRune(r)
		}
	}
	cleaned := builder.String()

	parts := strings.Split(cleaned, ".")
	if len(parts) > 2 {
		return parts[0] + "." + strings.Join(parts[1:], "")
	}
	return cleaned
}

// ParsePriceText sanitizes and parses user-typed price text. The boolean is
// false when nothing numeric remains after sanitizing.
func ParsePriceText(raw string) (float64, bool) {
	sanitized := SanitizePrice(raw)
	if sanitized == "" || sanitized == "." {
		return 0, false
	}
	value, err := strconv.ParseFloat(sanitized, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
