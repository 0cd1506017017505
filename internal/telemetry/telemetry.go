// Package telemetry collects per-tick simulation statistics, computes trend
// aggregates over the recent history, and exports the series as CSV.
package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"
)

// SimStats is one tick's worth of observable simulation state.
type SimStats struct {
	Tick       uint64  `csv:"tick"`
	Population int     `csv:"population"`
	Births     int     `csv:"births"`
	Deaths     int     `csv:"deaths"`
	Food       float64 `csv:"food"`
	Wood       float64 `csv:"wood"`
	Stone      float64 `csv:"stone"`
	Water      float64 `csv:"water"`
	Faith      float64 `csv:"faith"`
	Structures int     `csv:"structures"`
	Climate    string  `csv:"climate"`
	Explored   float64 `csv:"explored"`
}

// Trend summarizes a resource series over the collector's window.
type Trend struct {
	Mean  float64 `json:"mean"`
	Slope float64 `json:"slope"` // units per tick
}

// Collector accumulates SimStats rows in a bounded ring.
type Collector struct {
	history []SimStats
	window  int
}

// NewCollector creates a collector retaining at most window rows; window <= 0
// means unbounded.
func NewCollector(window int) *Collector {
	return &Collector{window: window}
}

// Record appends one tick's stats, evicting the oldest row past the window.
func (c *Collector) Record(s SimStats) {
	c.history = append(c.history, s)
	if c.window > 0 && len(c.history) > c.window {
		c.history = c.history[len(c.history)-c.window:]
	}
}

// History returns the retained rows, oldest first.
func (c *Collector) History() []SimStats { return c.history }

// Latest returns the most recent row, or a zero row when empty.
func (c *Collector) Latest() SimStats {
	if len(c.history) == 0 {
		return SimStats{}
	}
	return c.history[len(c.history)-1]
}

// ResourceTrend computes the mean and per-tick slope of one series, selected
// by the given accessor, over the retained history.
func (c *Collector) ResourceTrend(sel func(SimStats) float64) Trend {
	n := len(c.history)
	if n == 0 {
		return Trend{}
	}
	ys := make([]float64, n)
	for i, s := range c.history {
		ys[i] = sel(s)
	}
	if n == 1 {
		return Trend{Mean: ys[0]}
	}
	xs := make([]float64, n)
	for i, s := range c.history {
		xs[i] = float64(s.Tick)
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return Trend{Mean: stat.Mean(ys, nil), Slope: slope}
}

// FoodTrend is the trend of the food stockpile.
func (c *Collector) FoodTrend() Trend {
	return c.ResourceTrend(func(s SimStats) float64 { return s.Food })
}

// PopulationTrend is the trend of the living population.
func (c *Collector) PopulationTrend() Trend {
	return c.ResourceTrend(func(s SimStats) float64 { return float64(s.Population) })
}

// WriteCSV writes the retained history, with headers, to w.
func (c *Collector) WriteCSV(w io.Writer) error {
	if err := gocsv.Marshal(c.history, w); err != nil {
		return fmt.Errorf("writing telemetry: %w", err)
	}
	return nil
}

// WriteFile writes the retained history to a CSV file, creating parent
// directories as needed.
func (c *Collector) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating telemetry directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return c.WriteCSV(f)
}
