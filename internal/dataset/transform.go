package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// censusFeatureNames are the census covariates the statistical models were
// trained on. Everything else in the census table is dropped.
var censusFeatureNames = []string{
	"pastures_area_var",
	"pastures_area_mean",
	"educ_second_super",
	"farmers_over65",
	"inc_mainly_ext",
	"educ_none",
	"work_unit_100ha",
	"agric_area_owned",
	"lu_cattle",
	"lu_per_agric_area",
}

// climateFeaturePrefixes select the climate covariates kept for inference.
var climateFeaturePrefixes = []string{
	"av_d_mean_t_average",
	"av_d_max_t_average",
	"cons_days_no_prec_average",
}

// soilFeatureDropped is excluded from the soil covariates.
const soilFeatureDropped = "pH_mean_munic"

// SelectCensusFeatures keeps only the trained census covariates.
// Missing covariates are an error naming every absent column.
func SelectCensusFeatures(f Features) (Features, error) {
	out := make(Features, len(censusFeatureNames))
	var missing []string
	for _, name := range censusFeatureNames {
		v, ok := f[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		out[name] = v
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("census features missing: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

// SelectClimateFeatures keeps the mean/max temperature and consecutive
// dry-day covariates.
func SelectClimateFeatures(f Features) Features {
	out := make(Features)
	for name, v := range f {
		for _, prefix := range climateFeaturePrefixes {
			if strings.Contains(name, prefix) {
				out[name] = v
				break
			}
		}
	}
	return out
}

// SelectSoilFeatures keeps every soil covariate except the mean pH.
func SelectSoilFeatures(f Features) Features {
	out := make(Features, len(f))
	for name, v := range f {
		if name == soilFeatureDropped {
			continue
		}
		out[name] = v
	}
	return out
}

// TransformCensus applies the census feature selection to a whole table.
func TransformCensus(t CensusTable) (CensusTable, error) {
	out := make(CensusTable, len(t))
	for munic, years := range t {
		out[munic] = make(map[int]Features, len(years))
		for year, feats := range years {
			sel, err := SelectCensusFeatures(feats)
			if err != nil {
				return nil, fmt.Errorf("municipality %s, year %d: %w", munic, year, err)
			}
			out[munic][year] = sel
		}
	}
	return out, nil
}

// TransformClimate applies the climate feature selection to a whole table.
func TransformClimate(t FeatureTable) FeatureTable {
	out := make(FeatureTable, len(t))
	for munic, feats := range t {
		out[munic] = SelectClimateFeatures(feats)
	}
	return out
}

// TransformSoil applies the soil feature selection to a whole table.
func TransformSoil(t FeatureTable) FeatureTable {
	out := make(FeatureTable, len(t))
	for munic, feats := range t {
		out[munic] = SelectSoilFeatures(feats)
	}
	return out
}
