package results

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/giacrava/sbp-adoption-abm/internal/dataset"
	"github.com/giacrava/sbp-adoption-abm/internal/mlmodel"
	"github.com/giacrava/sbp-adoption-abm/internal/sim"
)

func testStore(t *testing.T) *SQLiteRunStore {
	t.Helper()
	store, err := NewSQLiteRunStore(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRunStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveRunRoundtrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	national := []NationalPoint{
		{Year: 1995, YearlyHa: 20, CumulativeHa: 20},
		{Year: 1996, YearlyHa: 200, CumulativeHa: 220},
	}
	obs := []Observation{
		{Municipality: "Évora", Year: 1996, Fraction: 0.1, Hectares: 100},
		{Municipality: "Mértola", Year: 1996, Fraction: 0.1, Hectares: 100},
	}

	id, err := store.SaveRun(ctx, 7, 1996, 1996, national, obs)
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	run, err := store.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Seed != 7 || run.StartYear != 1996 || run.EndYear != 1996 {
		t.Errorf("unexpected run metadata: %+v", run)
	}
	if run.CreatedAt.IsZero() {
		t.Error("expected a created_at timestamp")
	}

	series, err := store.NationalSeries(ctx, id)
	if err != nil {
		t.Fatalf("NationalSeries failed: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("expected 2 national points, got %d", len(series))
	}
	if series[0].Year != 1995 || series[1].CumulativeHa != 220 {
		t.Errorf("unexpected national series: %+v", series)
	}

	got, err := store.Observations(ctx, id)
	if err != nil {
		t.Fatalf("Observations failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(got))
	}
}

func TestGetRunNotFound(t *testing.T) {
	store := testStore(t)

	_, err := store.GetRun(context.Background(), 42)
	if err == nil {
		t.Fatal("expected error for unknown run id")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected a not-found error, got %v", err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first, err := store.SaveRun(ctx, 1, 1996, 2000, nil, nil)
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	second, err := store.SaveRun(ctx, 2, 1996, 2000, nil, nil)
	if err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != second || runs[1].ID != first {
		t.Errorf("expected newest run first, got ids %d, %d", runs[0].ID, runs[1].ID)
	}
}

func TestWriteNationalCSV(t *testing.T) {
	var buf bytes.Buffer
	points := []NationalPoint{{Year: 1996, YearlyHa: 200, CumulativeHa: 220.5}}

	if err := WriteNationalCSV(&buf, points); err != nil {
		t.Fatalf("WriteNationalCSV failed: %v", err)
	}
	want := "Year,yearly_sbp_ha,cumulative_sbp_ha\n1996,200,220.5\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestFromModel(t *testing.T) {
	writeModel := func(kind string, intercept float64) string {
		dir := filepath.Join(t.TempDir(), kind)
		if err := os.MkdirAll(dir, 0700); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "features.csv"), []byte("sbp_payment\n"), 0600); err != nil {
			t.Fatalf("write features.csv: %v", err)
		}
		spec := fmt.Sprintf(`{"kind":%q,"intercept":%g,"coefficients":[0]}`, kind, intercept)
		if err := os.WriteFile(filepath.Join(dir, "model.json"), []byte(spec), 0600); err != nil {
			t.Fatalf("write model.json: %v", err)
		}
		return dir
	}
	clsf, err := mlmodel.LoadClassifier(writeModel(mlmodel.KindLogistic, 50))
	if err != nil {
		t.Fatalf("LoadClassifier failed: %v", err)
	}
	regr, err := mlmodel.LoadRegressor(writeModel(mlmodel.KindLinear, 0.1))
	if err != nil {
		t.Fatalf("LoadRegressor failed: %v", err)
	}

	b := &dataset.Bundle{
		Municipalities: []dataset.Municipality{{Code: "0210", Name: "Mértola", District: "Beja"}},
		Census:         dataset.CensusTable{"Mértola": {}},
		Climate:        dataset.FeatureTable{"Mértola": {}},
		Soil:           dataset.FeatureTable{"Mértola": {}},
		Pastures: dataset.SeriesTable{"Mértola": {
			1995: 1000, 1996: 1000, 1997: 1000, dataset.ReferenceYear: 1000,
		}},
		Adoption: dataset.SeriesTable{"Mértola": {1995: 0.02}},
		Payments: dataset.PaymentSchedule{1996: 100, 1997: 100},
	}
	m, err := sim.New(b, clsf, regr, sim.Params{StartYear: 1996, Seed: 1})
	if err != nil {
		t.Fatalf("sim.New failed: %v", err)
	}
	if err := m.Run(context.Background(), 1997); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	national, obs := FromModel(m, 1996)

	// Pre-seeded 1995 row plus the two simulated years.
	if len(national) != 3 {
		t.Fatalf("expected 3 national points, got %d", len(national))
	}
	if national[0].Year != 1995 || national[0].CumulativeHa != 20 {
		t.Errorf("unexpected pre-seeded point %+v", national[0])
	}

	// Observations cover only the simulated years, not the history.
	if len(obs) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(obs))
	}
	if obs[0].Year != 1996 || obs[1].Year != 1997 {
		t.Errorf("expected observations for 1996 and 1997, got %+v", obs)
	}
	if obs[0].Hectares != 100 {
		t.Errorf("expected 100 ha in 1996, got %v", obs[0].Hectares)
	}
}

func TestExportRun(t *testing.T) {
	dir := t.TempDir()
	national := []NationalPoint{{Year: 1996, YearlyHa: 200, CumulativeHa: 220}}
	obs := []Observation{{Municipality: "Mértola", Year: 1996, Fraction: 0.1, Hectares: 100}}

	nationalPath, obsPath, err := ExportRun(dir, 3, national, obs)
	if err != nil {
		t.Fatalf("ExportRun failed: %v", err)
	}
	if filepath.Base(nationalPath) != "run_3_national.csv" {
		t.Errorf("unexpected national path %s", nationalPath)
	}
	if filepath.Base(obsPath) != "run_3_municipalities.csv" {
		t.Errorf("unexpected observations path %s", obsPath)
	}

	data, err := os.ReadFile(obsPath)
	if err != nil {
		t.Fatalf("read observations: %v", err)
	}
	if !strings.Contains(string(data), "Mértola,1996,0.1,100") {
		t.Errorf("observations CSV missing row, got %q", string(data))
	}
}
