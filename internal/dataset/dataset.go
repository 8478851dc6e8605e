package dataset

import "time"

// Dataset is the owned result of one pipeline run
type Dataset struct {
	Trips    *Table
	Zones    *ZoneLookup
	LoadedAt time.Time
}
