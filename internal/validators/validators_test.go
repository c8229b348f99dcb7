package validators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCreateRequest() SegmentCreateRequest {
	return SegmentCreateRequest{
		Name: "River loop",
		Type: "run",
		Route: []RoutePointRequest{
			{Lat: 0, Lng: 0},
			{Lat: 0, Lng: 0.01},
		},
	}
}

func TestSegmentCreateRequestValid(t *testing.T) {
	assert.Empty(t, ValidateStruct(validCreateRequest()))
}

func TestSegmentCreateRequestRejectsBadType(t *testing.T) {
	req := validCreateRequest()
	req.Type = "swim"

	errs := ValidateStruct(req)
	require.Len(t, errs, 1)
	assert.Equal(t, "Type", errs[0].Field)
	assert.Equal(t, "Segment type must be run or ride", errs[0].Message)
}

func TestSegmentCreateRequestRequiresTwoRoutePoints(t *testing.T) {
	req := validCreateRequest()
	req.Route = req.Route[:1]

	errs := ValidateStruct(req)
	require.Len(t, errs, 1)
	assert.Equal(t, "Route", errs[0].Field)
}

func TestSegmentCreateRequestShortName(t *testing.T) {
	req := validCreateRequest()
	req.Name = "ab"

	errs := ValidateStruct(req)
	require.Len(t, errs, 1)
	assert.Equal(t, "min", errs[0].Tag)
}

func TestRoutePointBounds(t *testing.T) {
	req := validCreateRequest()
	req.Route[0].Lat = 91

	errs := ValidateStruct(req)
	require.NotEmpty(t, errs)
	assert.Equal(t, "max", errs[0].Tag)
}

func validActivityRequest() ActivityCreateRequest {
	return ActivityCreateRequest{
		Type:            "run",
		Title:           "Morning run",
		DistanceMeters:  5000,
		DurationSeconds: 1500,
		StartedAt:       time.Date(2026, 3, 14, 7, 0, 0, 0, time.UTC),
	}
}

func TestActivityCreateRequestValid(t *testing.T) {
	assert.Empty(t, ValidateStruct(validActivityRequest()))
}

func TestActivityCreateRequestVisibilityOptional(t *testing.T) {
	req := validActivityRequest()
	req.Visibility = ""
	assert.Empty(t, ValidateStruct(req))

	req.Visibility = "friends"
	errs := ValidateStruct(req)
	require.Len(t, errs, 1)
	assert.Equal(t, "Visibility must be public, followers or private", errs[0].Message)
}

func TestActivityCreateRequestHeartRateBounds(t *testing.T) {
	req := validActivityRequest()
	hr := 250
	req.MaxHeartRate = &hr

	errs := ValidateStruct(req)
	require.Len(t, errs, 1)
	assert.Equal(t, "MaxHeartRate", errs[0].Field)
}

func TestActivityCreateRequestRequiresDuration(t *testing.T) {
	req := validActivityRequest()
	req.DurationSeconds = 0

	errs := ValidateStruct(req)
	require.Len(t, errs, 1)
	assert.Equal(t, "required", errs[0].Tag)
}

func TestTrackPointRequestBounds(t *testing.T) {
	req := TrackPointRequest{Lat: 0, Lng: 0}
	assert.Empty(t, ValidateStruct(req))

	hr := 20
	req.HeartRate = &hr
	errs := ValidateStruct(req)
	require.Len(t, errs, 1)
	assert.Equal(t, "HeartRate", errs[0].Field)
}
