package branch

import "time"

// Branch is a registered work site with its geofence.
type Branch struct {
	ID           string
	TenantID     string
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters int
	Timezone     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
