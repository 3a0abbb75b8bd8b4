package staff

type UpsertRequest struct {
	ProviderID string   `json:"providerId" validate:"required"`
	Name       string   `json:"name" validate:"required,min=2,max=120"`
	Email      string   `json:"email" validate:"omitempty,email"`
	ServiceIDs []string `json:"serviceIds" validate:"omitempty,dive,required"`
	IsActive   *bool    `json:"isActive"`
}

type AssignServicesRequest struct {
	ServiceIDs []string `json:"serviceIds" validate:"required,dive,required"`
}

// OverrideRequest blocks or opens an ad hoc window for one staff member.
// Start and end are RFC 3339 instants; the window is half-open.
type OverrideRequest struct {
	Start  string `json:"start" validate:"required,rfc3339"`
	End    string `json:"end" validate:"required,rfc3339"`
	Type   string `json:"type" validate:"required,oneof=UNAVAILABLE AVAILABLE"`
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type AdminListFilter struct {
	ProviderID      string
	ServiceID       string
	IncludeInactive bool
}
