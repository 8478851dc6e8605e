package dataset

import (
	"sort"

	"github.com/jengzang/taxi-analytics-go/internal/models"
)

// ZoneLookup maps pickup location ids to zones. Read-only after construction.
type ZoneLookup struct {
	byID map[int32]models.Zone
}

// NewZoneLookup indexes zones by location id; later duplicates win
func NewZoneLookup(zones []models.Zone) *ZoneLookup {
	byID := make(map[int32]models.Zone, len(zones))
	for _, z := range zones {
		byID[z.LocationID] = z
	}
	return &ZoneLookup{byID: byID}
}

// Get returns the zone for a location id
func (z *ZoneLookup) Get(id int32) (models.Zone, bool) {
	if z == nil {
		return models.Zone{}, false
	}
	zone, ok := z.byID[id]
	return zone, ok
}

// Len returns the number of zones
func (z *ZoneLookup) Len() int {
	if z == nil {
		return 0
	}
	return len(z.byID)
}

// Zones returns all zones ordered by location id
func (z *ZoneLookup) Zones() []models.Zone {
	if z == nil {
		return nil
	}
	zones := make([]models.Zone, 0, len(z.byID))
	for _, zone := range z.byID {
		zones = append(zones, zone)
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].LocationID < zones[j].LocationID })
	return zones
}
