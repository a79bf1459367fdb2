package visualization

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/giacrava/sbp-adoption-abm/internal/dataset"
	"github.com/giacrava/sbp-adoption-abm/internal/sim"
)

// Server serves the interactive adoption map and steps the model year by
// year on request.
type Server struct {
	munics  []dataset.Municipality
	endYear int

	mu    sync.Mutex
	model *sim.Model

	httpServer *http.Server
	listenAddr string
	addr       string

	registry     *prometheus.Registry
	stepsTotal   prometheus.Counter
	cumulativeHa prometheus.Gauge
	adopting     prometheus.Gauge
	stepDuration prometheus.Histogram
}

// NewServer creates a map server over the model. listenAddr may be empty,
// in which case localhost with an OS-assigned port is used.
func NewServer(model *sim.Model, munics []dataset.Municipality, endYear int, listenAddr string) *Server {
	registry := prometheus.NewRegistry()

	s := &Server{
		munics:     munics,
		endYear:    endYear,
		model:      model,
		listenAddr: listenAddr,
		registry:   registry,
		stepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sbpabm_steps_total",
			Help: "Number of simulated years executed by the server.",
		}),
		cumulativeHa: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sbpabm_cumulative_adoption_hectares",
			Help: "National cumulative SBP area after the last simulated year.",
		}),
		adopting: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sbpabm_adopting_municipalities",
			Help: "Municipalities that adopted a positive SBP area in the last simulated year.",
		}),
		stepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sbpabm_step_duration_seconds",
			Help:    "Wall time of one simulated year.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	registry.MustRegister(s.stepsTotal, s.cumulativeHa, s.adopting, s.stepDuration)
	s.cumulativeHa.Set(model.CumulativeHaNational())
	return s
}

// Addr returns the address the server is listening on.
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// ListenAndServe starts the HTTP server and blocks until the context is
// cancelled. Returns nil on clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/step", s.handleStep)
	mux.HandleFunc("/api/series", s.handleSeries)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	listenAddr := s.listenAddr
	if listenAddr == "" {
		// Let the OS pick a free port.
		listenAddr = "localhost:0"
	}
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{Handler: mux}
	s.mu.Unlock()

	// Graceful shutdown when context is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	err = s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// handleIndex serves the choropleth page for the current model state.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	cumulative := make(map[string]float64, len(s.model.Municipalities()))
	for _, agent := range s.model.Municipalities() {
		cumulative[agent.Name()] = agent.CumulativeHa()
	}
	records := s.model.Records()
	year := s.model.Year()
	s.mu.Unlock()

	fc, err := BuildFeatureCollection(s.munics, cumulative)
	if err != nil {
		http.Error(w, "build map: "+err.Error(), http.StatusInternalServerError)
		return
	}
	svg, err := RenderSVG(fc, 600, 800)
	if err != nil {
		http.Error(w, "render map: "+err.Error(), http.StatusInternalServerError)
		return
	}

	rows := make([]recordRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, recordRow{Year: rec.Year, YearlyHa: rec.YearlyHa, CumulativeHa: rec.CumulativeHa})
	}

	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, pageData{
		YearPassed: year - 1,
		Done:       year > s.endYear,
		SVG:        template.HTML(svg),
		Records:    rows,
	})
	if err != nil {
		http.Error(w, "render page: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// stepResponse is the JSON body returned by /api/step.
type stepResponse struct {
	Year         int     `json:"year"`
	YearlyHa     float64 `json:"yearly_ha"`
	CumulativeHa float64 `json:"cumulative_ha"`
}

// handleStep advances the model one year.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model.Year() > s.endYear {
		http.Error(w, fmt.Sprintf("simulation finished at %d", s.endYear), http.StatusConflict)
		return
	}

	year := s.model.Year()
	start := time.Now()
	if err := s.model.Step(); err != nil {
		http.Error(w, "step: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.stepDuration.Observe(time.Since(start).Seconds())
	s.stepsTotal.Inc()
	s.cumulativeHa.Set(s.model.CumulativeHaNational())

	adopting := 0
	for _, agent := range s.model.Municipalities() {
		if agent.YearlyHa()[year] > 0 {
			adopting++
		}
	}
	s.adopting.Set(float64(adopting))

	resp := stepResponse{
		Year:         year,
		YearlyHa:     s.model.YearlyHaNational()[year],
		CumulativeHa: s.model.CumulativeHaNational(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleSeries returns the collected national records as JSON.
func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	records := s.model.Records()
	s.mu.Unlock()

	type row struct {
		Year         int     `json:"year"`
		YearlyHa     float64 `json:"yearly_ha"`
		CumulativeHa float64 `json:"cumulative_ha"`
	}
	rows := make([]row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, row{rec.Year, rec.YearlyHa, rec.CumulativeHa})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}
