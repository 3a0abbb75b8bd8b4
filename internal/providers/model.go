package providers

type UpsertRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Email    string `json:"email" validate:"omitempty,email"`
	Timezone string `json:"timezone" validate:"required,timezone_name"`
	IsActive *bool  `json:"isActive"`
}

type HoursRuleRequest struct {
	DayOfWeek *int   `json:"dayOfWeek" validate:"required,gte=0,lte=6"`
	IsOpen    *bool  `json:"isOpen" validate:"required"`
	OpenTime  string `json:"openTime" validate:"omitempty,clock"`
	CloseTime string `json:"closeTime" validate:"omitempty,clock"`
}

// SetHoursRequest replaces the provider's whole weekly template in one call.
// Weekdays absent from the list fall back to closed.
type SetHoursRequest struct {
	Rules []HoursRuleRequest `json:"rules" validate:"required,min=1,max=7,dive"`
}

type AdminListFilter struct {
	IncludeInactive bool
}
