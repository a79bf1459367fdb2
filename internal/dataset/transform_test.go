package dataset

import (
	"strings"
	"testing"
)

func fullCensusFeatures() Features {
	f := make(Features, len(censusFeatureNames)+1)
	for i, name := range censusFeatureNames {
		f[name] = float64(i)
	}
	f["untrained_column"] = 99
	return f
}

func TestSelectCensusFeatures(t *testing.T) {
	out, err := SelectCensusFeatures(fullCensusFeatures())
	if err != nil {
		t.Fatalf("SelectCensusFeatures failed: %v", err)
	}
	if len(out) != len(censusFeatureNames) {
		t.Errorf("expected %d features, got %d", len(censusFeatureNames), len(out))
	}
	if _, ok := out["untrained_column"]; ok {
		t.Error("untrained column should have been dropped")
	}
}

func TestSelectCensusFeaturesMissing(t *testing.T) {
	f := fullCensusFeatures()
	delete(f, "lu_cattle")
	delete(f, "educ_none")

	_, err := SelectCensusFeatures(f)
	if err == nil {
		t.Fatal("expected error for missing census features")
	}
	if !strings.Contains(err.Error(), "lu_cattle") || !strings.Contains(err.Error(), "educ_none") {
		t.Errorf("error should name every missing feature, got %v", err)
	}
}

func TestSelectClimateFeatures(t *testing.T) {
	in := Features{
		"av_d_mean_t_average_spring":    17.1,
		"av_d_max_t_average_summer":     31.4,
		"cons_days_no_prec_average_jja": 42,
		"precipitation_sum_winter":      300,
	}
	out := SelectClimateFeatures(in)

	if len(out) != 3 {
		t.Fatalf("expected 3 features, got %d: %v", len(out), out)
	}
	if _, ok := out["precipitation_sum_winter"]; ok {
		t.Error("precipitation_sum_winter should have been dropped")
	}
}

func TestSelectSoilFeatures(t *testing.T) {
	in := Features{
		"clay_mean_munic": 22.5,
		"pH_mean_munic":   6.2,
	}
	out := SelectSoilFeatures(in)

	if _, ok := out["pH_mean_munic"]; ok {
		t.Error("pH_mean_munic should have been dropped")
	}
	if out["clay_mean_munic"] != 22.5 {
		t.Errorf("expected clay_mean_munic 22.5, got %v", out["clay_mean_munic"])
	}
}

func TestTransformCensusNamesMunicipalityOnError(t *testing.T) {
	table := CensusTable{
		"Mértola": {1995: Features{"educ_none": 0.3}},
	}
	_, err := TransformCensus(table)
	if err == nil {
		t.Fatal("expected error for incomplete census row")
	}
	if !strings.Contains(err.Error(), "Mértola") {
		t.Errorf("error should name the municipality, got %v", err)
	}
}
