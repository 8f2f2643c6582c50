package model

import "time"

// Property represents a rental listing as stored in the `properties`
// table.  Images is filled from the `images` table by every read and is
// an empty list, never nil, when the property has none.
//
// Fields:
//  ID                – primary key identifier.
//  OwnerID           – users.id of the landlord who listed it.
//  CostPerMonth      – monthly rent in whole currency units.
//  Area              – floor area in square feet.
//  AvailableFrom     – first day the unit can be rented (nullable).
//  Images            – photo URLs, oldest first.
type Property struct {
	ID                uint64     `json:"id"`                  // properties.id
	OwnerID           uint64     `json:"owner_id"`            // properties.owner_id
	Title             string     `json:"title"`               // properties.title
	Description       string     `json:"description"`         // properties.description
	ThumbnailPhotoURL string     `json:"thumbnail_photo_url"` // properties.thumbnail_photo_url
	CoverPhotoURL     string     `json:"cover_photo_url"`     // properties.cover_photo_url
	CostPerMonth      int        `json:"cost_per_month"`      // properties.cost_per_month
	Street            string     `json:"street"`              // properties.street
	City              string     `json:"city"`                // properties.city
	Province          string     `json:"province"`            // properties.province
	PostCode          string     `json:"post_code"`           // properties.post_code
	Country           string     `json:"country"`             // properties.country
	Area              int        `json:"area"`                // properties.area
	Bathrooms         int        `json:"number_of_bathrooms"` // properties.number_of_bathrooms
	Bedrooms          int        `json:"number_of_bedrooms"`  // properties.number_of_bedrooms
	AvailableFrom     *time.Time `json:"available_from,omitempty"`
	Images            []string   `json:"images"`
}

// Image is a row of the `images` table.  An image has no lifecycle of its
// own: it is removed together with its property.
type Image struct {
	ID         uint64 `json:"id"`          // images.id
	PropertyID uint64 `json:"property_id"` // images.property_id
	URL        string `json:"photo_url"`   // images.photo_url
}
