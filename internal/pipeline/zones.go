package pipeline

import (
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"

	"github.com/jengzang/taxi-analytics-go/internal/models"
)

const (
	zoneColumnID          = "LocationID"
	zoneColumnBorough     = "Borough"
	zoneColumnZone        = "Zone"
	zoneColumnServiceZone = "service_zone"
)

// LoadZones reads the zone lookup CSV fully into memory
func LoadZones(path string) ([]models.Zone, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrSourceFileMissing, "zone file %s", path)
		}
		return nil, errors.Wrapf(err, "failed to open zone file %s", path)
	}
	defer func() { _ = f.Close() }()

	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.WithTypes(map[string]series.Type{
			zoneColumnID:          series.Int,
			zoneColumnBorough:     series.String,
			zoneColumnZone:        series.String,
			zoneColumnServiceZone: series.String,
		}),
	)
	if df.Err != nil {
		return nil, &SchemaError{File: path, Reason: "is not a readable CSV file: " + df.Err.Error()}
	}

	names := make(map[string]bool, df.Ncol())
	for _, n := range df.Names() {
		names[n] = true
	}
	for _, required := range []string{zoneColumnID, zoneColumnBorough, zoneColumnZone} {
		if !names[required] {
			return nil, &SchemaError{File: path, Column: required, Reason: "is missing"}
		}
	}

	ids := df.Col(zoneColumnID)
	boroughs := df.Col(zoneColumnBorough)
	zoneNames := df.Col(zoneColumnZone)
	var services series.Series
	hasService := names[zoneColumnServiceZone]
	if hasService {
		services = df.Col(zoneColumnServiceZone)
	}

	zones := make([]models.Zone, 0, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		idElem := ids.Elem(i)
		if idElem.IsNA() {
			continue
		}
		id, err := idElem.Int()
		if err != nil {
			return nil, &SchemaError{File: path, Column: zoneColumnID, Reason: "has a non-integer value: " + err.Error()}
		}
		z := models.Zone{
			LocationID: int32(id),
			Borough:    stringAt(boroughs, i),
			Zone:       stringAt(zoneNames, i),
		}
		if hasService {
			z.ServiceZone = stringAt(services, i)
		}
		zones = append(zones, z)
	}
	return zones, nil
}

func stringAt(s series.Series, i int) string {
	e := s.Elem(i)
	if e.IsNA() {
		return ""
	}
	return e.String()
}
