package model

// Location is an embedded value, not an entity. Coordinates stay nil until
// a geocode succeeds; a record with nil coordinates is still insertable and
// listable, just not plottable.
type Location struct {
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	Address string   `json:"address"`
}

const UnknownAddress = "Unknown location"

// NewLocation builds a Location, defaulting a blank address.
func NewLocation(lat, lng *float64, address string) Location {
	if address == "" {
		address = UnknownAddress
	}
	return Location{Lat: lat, Lng: lng, Address: address}
}
