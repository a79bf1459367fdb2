package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// newTestRootCmd creates a root command with the persistent flags subcommands
// expect when executed through the real root.
func newTestRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use: "sbpabm",
	}
	rootCmd.PersistentFlags().String("config", "sbpabm.yaml", "Configuration file path")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	return rootCmd
}

// writeFixture lays out a complete two-municipality dataset, both model
// artifacts, and a config file pointing at them. It returns the config path.
//
// The artifacts are rigged for predictable output: the classifier intercept
// saturates the adoption probability and the regressor always predicts a 2%
// adoption fraction, so every municipality adopts 20 ha per simulated year.
func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			t.Fatalf("mkdir for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	write("data/municipalities.geojson", `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"CCA_2":"0210","Municipality":"Mértola","District":"Beja"},"geometry":{"type":"Polygon","coordinates":[[[-8,37.5],[-7.5,37.5],[-7.5,38],[-8,38],[-8,37.5]]]}},
{"type":"Feature","properties":{"CCA_2":"0705","Municipality":"Évora","District":"Évora"},"geometry":{"type":"Polygon","coordinates":[[[-8,38.5],[-7.5,38.5],[-7.5,39],[-8,39],[-8,38.5]]]}}
]}`)

	censusHeader := "Municipality,Year,pastures_area_var,pastures_area_mean,educ_second_super,farmers_over65,inc_mainly_ext,educ_none,work_unit_100ha,agric_area_owned,lu_cattle,lu_per_agric_area"
	var census strings.Builder
	census.WriteString(censusHeader + "\n")
	for _, munic := range []string{"Mértola", "Évora"} {
		for year := 1995; year <= 1996; year++ {
			fmt.Fprintf(&census, "%s,%d,0.1,0.2,0.3,0.4,0.5,0.6,0.7,0.8,0.9,1.0\n", munic, year)
		}
	}
	write("data/census.csv", census.String())

	write("data/climate.csv", `Municipality,av_d_mean_t_average_1,av_d_max_t_average_1,cons_days_no_prec_average_1
Mértola,17.5,24.1,45
Évora,16.2,23.4,40
`)
	write("data/soil.csv", `Municipality,clay_mean_munic,pH_mean_munic
Mértola,21,6.1
Évora,24,6.4
`)

	var pastures strings.Builder
	pastures.WriteString("Municipality,Year,pastures_area_munic_ha\n")
	for _, munic := range []string{"Mértola", "Évora"} {
		for _, year := range []int{1995, 1996, 1997, 1998, 2009} {
			fmt.Fprintf(&pastures, "%s,%d,1000\n", munic, year)
		}
	}
	write("data/pastures.csv", pastures.String())

	write("data/adoption.csv", `Municipality,1995,1996,1997
Mértola,0.001,0.002,0.004
Évora,0,0,0
`)
	write("data/payments.csv", "Year,sbp_payment\n1996,100\n1997,100\n")

	write("ml_model/classifier/features.csv", "educ_none,sbp_payment\n")
	write("ml_model/classifier/model.json", `{"kind":"logistic","intercept":50,"coefficients":[0,0]}`)
	write("ml_model/regressor/features.csv", "av_d_mean_t_average_1,sbp_payment\n")
	write("ml_model/regressor/model.json", `{"kind":"linear","intercept":0.02,"coefficients":[0,0]}`)

	return write("sbpabm.yaml", fmt.Sprintf(`data:
  boundaries: %[1]s/data/municipalities.geojson
  census: %[1]s/data/census.csv
  climate: %[1]s/data/climate.csv
  soil: %[1]s/data/soil.csv
  pastures: %[1]s/data/pastures.csv
  adoption: %[1]s/data/adoption.csv
  payments: %[1]s/data/payments.csv
  classifier: %[1]s/ml_model/classifier
  regressor: %[1]s/ml_model/regressor
simulation:
  start_year: 1996
  end_year: 1997
  seed: 1
  runs: 3
store:
  path: %[1]s/out/runs.db
  output_dir: %[1]s/out
logging:
  level: info
`, dir))
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) string {
	t.Helper()
	rootCmd := newTestRootCmd()
	rootCmd.AddCommand(cmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v failed: %v\noutput: %s", args, err, out.String())
	}
	return out.String()
}

func TestNewVersionCmd(t *testing.T) {
	cmd := newVersionCmd()
	if cmd.Use != "version" {
		t.Errorf("Use = %q, want %q", cmd.Use, "version")
	}
}

func TestNewServeCmd(t *testing.T) {
	cmd := newServeCmd()
	if cmd.Use != "serve" {
		t.Errorf("Use = %q, want %q", cmd.Use, "serve")
	}
}

func TestCheckCommand(t *testing.T) {
	configPath := writeFixture(t)

	out := execute(t, newCheckCmd(), "check", "--config", configPath)
	if !strings.Contains(out, "Datasets OK: 2 municipalities, 2 payment years") {
		t.Errorf("unexpected check output: %s", out)
	}
	if !strings.Contains(out, "classifier (2 features)") {
		t.Errorf("expected artifact summary, got: %s", out)
	}
}

func TestCheckCommandJSON(t *testing.T) {
	configPath := writeFixture(t)

	out := execute(t, newCheckCmd(), "check", "--config", configPath, "--json")
	var resp map[string]any
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output: %v\noutput: %s", err, out)
	}
	if resp["municipalities"] != 2.0 {
		t.Errorf("expected 2 municipalities, got %v", resp["municipalities"])
	}
}

func TestCheckCommandBrokenDataset(t *testing.T) {
	configPath := writeFixture(t)
	dir := filepath.Dir(configPath)

	// Drop Évora from the soil table; the integrity check must name it.
	soilPath := filepath.Join(dir, "data", "soil.csv")
	if err := os.WriteFile(soilPath, []byte("Municipality,clay_mean_munic\nMértola,21\n"), 0600); err != nil {
		t.Fatalf("rewrite soil.csv: %v", err)
	}

	rootCmd := newTestRootCmd()
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"check", "--config", configPath})

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("expected integrity error")
	}
	if !strings.Contains(err.Error(), "soil data missing for: Évora") {
		t.Errorf("expected the missing municipality in the error, got %v", err)
	}
}

func TestRunCommand(t *testing.T) {
	configPath := writeFixture(t)
	dir := filepath.Dir(configPath)

	out := execute(t, newRunCmd(), "run", "--config", configPath, "--json")
	var resp map[string]any
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output: %v\noutput: %s", err, out)
	}

	if resp["run_id"] != 1.0 {
		t.Errorf("expected run id 1, got %v", resp["run_id"])
	}
	// 1 ha of 1995 history plus 20 ha per municipality for 1996 and 1997.
	if resp["cumulative_ha"] != 81.0 {
		t.Errorf("expected 81 cumulative ha, got %v", resp["cumulative_ha"])
	}

	nationalCSV, _ := resp["national_csv"].(string)
	data, err := os.ReadFile(nationalCSV)
	if err != nil {
		t.Fatalf("read national export: %v", err)
	}
	if !strings.Contains(string(data), "1997,40,81") {
		t.Errorf("unexpected national export content: %s", data)
	}

	if _, err := os.Stat(filepath.Join(dir, "out", "runs.db")); err != nil {
		t.Errorf("expected the run store on disk: %v", err)
	}
}

func TestRunCommandSeedOverride(t *testing.T) {
	configPath := writeFixture(t)

	out := execute(t, newRunCmd(), "run", "--config", configPath, "--json", "--seed", "42")
	var resp map[string]any
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output: %v\noutput: %s", err, out)
	}
	if resp["seed"] != 42.0 {
		t.Errorf("expected seed 42, got %v", resp["seed"])
	}
}

func TestValidateCommand(t *testing.T) {
	configPath := writeFixture(t)
	dir := filepath.Dir(configPath)

	out := execute(t, newValidateCmd(), "validate", "--config", configPath, "--json", "--runs", "2")
	var resp map[string]any
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output: %v\noutput: %s", err, out)
	}

	if resp["runs"] != 2.0 {
		t.Errorf("expected 2 runs, got %v", resp["runs"])
	}
	// Pre-seeded 1995 plus the simulated 1996 and 1997 all appear in the
	// observed record.
	if resp["matched_years"] != 3.0 {
		t.Errorf("expected 3 matched years, got %v", resp["matched_years"])
	}

	statsPath := filepath.Join(dir, "out", "validation_stats.csv")
	data, err := os.ReadFile(statsPath)
	if err != nil {
		t.Fatalf("read stats export: %v", err)
	}
	if !strings.HasPrefix(string(data), "Year,mean_yearly_ha") {
		t.Errorf("unexpected stats header: %s", data)
	}
}

func TestExportCommand(t *testing.T) {
	configPath := writeFixture(t)

	execute(t, newRunCmd(), "run", "--config", configPath)

	out := execute(t, newExportCmd(), "export", "--config", configPath)
	if !strings.Contains(out, "run 1: seed 1, 1996-1997") {
		t.Errorf("unexpected run listing: %s", out)
	}

	out = execute(t, newExportCmd(), "export", "1", "--config", configPath, "--json")
	var resp map[string]string
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output: %v\noutput: %s", err, out)
	}
	if _, err := os.Stat(resp["national_csv"]); err != nil {
		t.Errorf("expected re-exported national CSV: %v", err)
	}
}

func TestExportCommandEmptyStore(t *testing.T) {
	configPath := writeFixture(t)

	out := execute(t, newExportCmd(), "export", "--config", configPath)
	if !strings.Contains(out, "No persisted runs.") {
		t.Errorf("expected empty listing, got: %s", out)
	}
}

func TestExportCommandBadRunID(t *testing.T) {
	configPath := writeFixture(t)

	rootCmd := newTestRootCmd()
	rootCmd.AddCommand(newExportCmd())
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"export", "nope", "--config", configPath})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected error for a non-numeric run id")
	}
}
