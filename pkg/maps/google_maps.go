package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

type GoogleGeocoder struct {
	client *maps.Client
}

func NewGoogleGeocoder(apiKey string) (*GoogleGeocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleGeocoder{
		client: client,
	}, nil
}

func (g *GoogleGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (*PlaceInfo, error) {
	req := &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lng},
	}

	resp, err := g.client.ReverseGeocode(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("reverse geocoding failed: %w", err)
	}
	if len(resp) == 0 {
		return &PlaceInfo{}, nil
	}

	result := resp[0]
	info := &PlaceInfo{
		PlaceID: result.PlaceID,
		Address: result.FormattedAddress,
	}

	for _, component := range result.AddressComponents {
		for _, t := range component.Types {
			switch t {
			case "locality":
				info.City = component.LongName
			case "administrative_area_level_1":
				info.State = component.ShortName
			case "country":
				info.Country = component.LongName
			}
		}
	}

	return info, nil
}
