package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadCensus(t *testing.T) {
	path := writeFile(t, t.TempDir(), "census.csv", strings.Join([]string{
		"Municipality,Year,educ_none,farmers_over65",
		"Mértola,1995,0.31,0.44",
		"Mértola,1996,0.30,0.45",
		"Évora,1995,0.21,0.38",
	}, "\n"))

	table, err := LoadCensus(path)
	if err != nil {
		t.Fatalf("LoadCensus failed: %v", err)
	}

	if len(table) != 2 {
		t.Fatalf("expected 2 municipalities, got %d", len(table))
	}
	if got := table["Mértola"][1996]["educ_none"]; got != 0.30 {
		t.Errorf("expected Mértola 1996 educ_none 0.30, got %v", got)
	}
	if got := table["Évora"][1995]["farmers_over65"]; got != 0.38 {
		t.Errorf("expected Évora 1995 farmers_over65 0.38, got %v", got)
	}
}

func TestLoadCensusRejectsBadValue(t *testing.T) {
	path := writeFile(t, t.TempDir(), "census.csv",
		"Municipality,Year,educ_none\nMértola,1995,n/a\n")

	_, err := LoadCensus(path)
	if err == nil {
		t.Fatal("expected error for non-numeric cell")
	}
	if !strings.Contains(err.Error(), "educ_none") {
		t.Errorf("error should name the column, got %v", err)
	}
}

func TestLoadCensusRequiresKeyColumns(t *testing.T) {
	dir := t.TempDir()

	noMunic := writeFile(t, dir, "a.csv", "Year,educ_none\n1995,0.3\n")
	if _, err := LoadCensus(noMunic); err == nil {
		t.Error("expected error for missing Municipality column")
	}

	noYear := writeFile(t, dir, "b.csv", "Municipality,educ_none\nMértola,0.3\n")
	if _, err := LoadCensus(noYear); err == nil {
		t.Error("expected error for missing Year column")
	}
}

func TestLoadClimate(t *testing.T) {
	path := writeFile(t, t.TempDir(), "climate.csv", strings.Join([]string{
		"Municipality,av_d_mean_t_average_1,pH_mean_munic",
		"Mértola,17.2,6.1",
	}, "\n"))

	table, err := LoadClimate(path)
	if err != nil {
		t.Fatalf("LoadClimate failed: %v", err)
	}
	if got := table["Mértola"]["av_d_mean_t_average_1"]; got != 17.2 {
		t.Errorf("expected 17.2, got %v", got)
	}
}

func TestLoadPastures(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pastures.csv", strings.Join([]string{
		"Municipality,Year,pastures_area_munic_ha",
		"Mértola,2008,12000",
		"Mértola,2009,12500",
	}, "\n"))

	table, err := LoadPastures(path)
	if err != nil {
		t.Fatalf("LoadPastures failed: %v", err)
	}
	if got := table["Mértola"][2009]; got != 12500 {
		t.Errorf("expected 12500 ha in 2009, got %v", got)
	}
}

func TestLoadAdoptionDropsSimulatedYears(t *testing.T) {
	path := writeFile(t, t.TempDir(), "adoption.csv", strings.Join([]string{
		"Municipality,1995,1996,1997",
		"Mértola,0.001,0.002,0.003",
	}, "\n"))

	table, err := LoadAdoption(path, 1997)
	if err != nil {
		t.Fatalf("LoadAdoption failed: %v", err)
	}

	series := table["Mértola"]
	if len(series) != 2 {
		t.Fatalf("expected 2 historical years, got %d", len(series))
	}
	if _, ok := series[1997]; ok {
		t.Error("year 1997 should have been dropped (>= start year)")
	}
	if series[1996] != 0.002 {
		t.Errorf("expected 0.002 for 1996, got %v", series[1996])
	}
}

func TestLoadAdoptionNoHistoricalYears(t *testing.T) {
	path := writeFile(t, t.TempDir(), "adoption.csv",
		"Municipality,2000\nMértola,0.001\n")

	if _, err := LoadAdoption(path, 1996); err == nil {
		t.Fatal("expected error when every year is >= the start year")
	}
}
