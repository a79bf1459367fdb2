package dataset

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Municipality identifies one agent of the simulation together with its
// boundary geometry.
type Municipality struct {
	// Code is the official municipality code (CCA_2 in the source data).
	Code string

	// Name is the municipality name, the join key across all input tables.
	Name string

	// District is the district the municipality belongs to.
	District string

	// Geometry is the municipality boundary.
	Geometry orb.Geometry
}

// LoadBoundaries reads the municipalities GeoJSON file.
//
// Each feature must carry CCA_2, Municipality and District properties.
// The truncated shapefile spelling "Municipali" is accepted as an alias.
// Features with missing properties fail the load, listing the offenders.
func LoadBoundaries(path string) ([]Municipality, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var munics []Municipality
	var incomplete []string
	for i, feat := range fc.Features {
		code := feat.Properties.MustString("CCA_2", "")
		name := feat.Properties.MustString("Municipality", "")
		if name == "" {
			name = feat.Properties.MustString("Municipali", "")
		}
		district := feat.Properties.MustString("District", "")

		if code == "" || name == "" || district == "" || feat.Geometry == nil {
			label := name
			if label == "" {
				label = fmt.Sprintf("feature %d", i)
			}
			incomplete = append(incomplete, label)
			continue
		}

		munics = append(munics, Municipality{
			Code:     code,
			Name:     name,
			District: district,
			Geometry: feat.Geometry,
		})
	}

	if len(incomplete) > 0 {
		return nil, fmt.Errorf("%s: the municipalities dataset is missing values for: %s",
			path, strings.Join(incomplete, ", "))
	}
	if len(munics) == 0 {
		return nil, fmt.Errorf("%s: no municipalities found", path)
	}

	// Stable agent ordering keeps seeded runs reproducible.
	sort.Slice(munics, func(i, j int) bool { return munics[i].Code < munics[j].Code })

	return munics, nil
}
