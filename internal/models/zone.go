package models

// Zone is one row of the taxi zone lookup table
type Zone struct {
	LocationID  int32  `json:"location_id" db:"location_id"`
	Borough     string `json:"borough" db:"borough"`
	Zone        string `json:"zone" db:"zone"`
	ServiceZone string `json:"service_zone,omitempty" db:"service_zone"`
}
