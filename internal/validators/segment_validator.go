package validators

type RoutePointRequest struct {
	Lat float64  `json:"lat" validate:"min=-90,max=90"`
	Lng float64  `json:"lng" validate:"min=-180,max=180"`
	Alt *float64 `json:"alt" validate:"omitempty"`
}

type SegmentCreateRequest struct {
	Name        string              `json:"name" validate:"required,min=3,max=100"`
	Description string              `json:"description" validate:"omitempty,max=500"`
	Type        string              `json:"type" validate:"required,segment_type"`
	Route       []RoutePointRequest `json:"route" validate:"required,min=2,dive"`
	IsHazardous bool                `json:"is_hazardous"`
}

type SegmentUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=3,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	IsHazardous *bool   `json:"is_hazardous"`
}

type SegmentListRequest struct {
	Type string `json:"type" form:"type" validate:"omitempty,segment_type"`
}
