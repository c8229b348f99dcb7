package interfaces

import (
	"fittrack/internal/apperrors"
)

// GeometryField names a geo-indexed document field that spatial queries may
// target. Callers pass one of the declared constants; anything else is
// rejected so request input can never steer a query at an arbitrary field.
type GeometryField string

const (
	GeometryFieldRoute      GeometryField = "route"
	GeometryFieldLocation   GeometryField = "location"
	GeometryFieldStartPoint GeometryField = "start_point"
	GeometryFieldEndPoint   GeometryField = "end_point"
)

func (f GeometryField) Validate() error {
	switch f {
	case GeometryFieldRoute, GeometryFieldLocation, GeometryFieldStartPoint, GeometryFieldEndPoint:
		return nil
	}
	return apperrors.NewValidationError("geometry_field", "unknown geometry field")
}

func (f GeometryField) String() string {
	return string(f)
}

// SortDirection constrains the sort order accepted by spatial list queries.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

func (d SortDirection) Validate() error {
	if d == SortAsc || d == SortDesc {
		return nil
	}
	return apperrors.NewValidationError("sort_direction", "must be asc or desc")
}
