package blueprint

import "time"

// Preferences are per-request knobs the caller passes alongside the
// blueprint. Everything here is optional; a zero WeekStart means the next
// Monday.
type Preferences struct {
	WeekStart      time.Time `json:"week_start,omitempty"`
	IncludeSnacks  bool      `json:"include_snacks"`
	CuisineFocus   string    `json:"cuisine_focus,omitempty"`
	AvoidRecipeIDs []string  `json:"avoid_recipe_ids,omitempty"`
}
