package optim

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/pairsim/internal/config"
	"github.com/san-kum/pairsim/internal/experiment"
	"github.com/san-kum/pairsim/internal/metrics"
)

// Axis is one scanned pair parameter. An empty Pair applies the value to
// every pair that has Key.
type Axis struct {
	Pair   string
	Key    string
	Values []float64
}

func (a Axis) Name() string {
	if a.Pair == "" {
		return a.Key
	}
	return a.Pair + "/" + a.Key
}

// ParseAxis reads "[A,B/]key=lo:hi:n" (n evenly spaced values, ends
// included) or "[A,B/]key=v1;v2;...".
func ParseAxis(s string) (Axis, error) {
	name, vals, ok := strings.Cut(s, "=")
	if !ok {
		return Axis{}, fmt.Errorf("axis %q: expected key=lo:hi:n", s)
	}
	var ax Axis
	if pairKey, key, ok := strings.Cut(name, "/"); ok {
		ax.Pair, ax.Key = strings.TrimSpace(pairKey), strings.TrimSpace(key)
	} else {
		ax.Key = strings.TrimSpace(name)
	}
	if ax.Key == "" {
		return Axis{}, fmt.Errorf("axis %q: empty key", s)
	}

	if parts := strings.Split(vals, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return Axis{}, fmt.Errorf("axis %q: bad range %q", s, vals)
		}
		ax.Values = linspace(lo, hi, n)
		return ax, nil
	}

	for _, part := range strings.Split(vals, ";") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("axis %q: %w", s, err)
		}
		ax.Values = append(ax.Values, v)
	}
	return ax, nil
}

func linspace(lo, hi float64, n int) []float64 {
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

// Metric reduces a run to the scalar being minimized.
type Metric func(metrics.Summary) float64

var metricsByName = map[string]Metric{
	"energy":       func(s metrics.Summary) float64 { return s.EnergyPerPart },
	"pressure":     func(s metrics.Summary) float64 { return s.Pressure },
	"abs_pressure": func(s metrics.Summary) float64 { return math.Abs(s.Pressure) },
	"max_force":    func(s metrics.Summary) float64 { return s.MaxForce },
}

func MetricByName(name string) (Metric, error) {
	m, ok := metricsByName[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric %q (available: %s)", name, strings.Join(MetricNames(), ", "))
	}
	return m, nil
}

func MetricNames() []string {
	names := make([]string, 0, len(metricsByName))
	for name := range metricsByName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Point is one evaluated grid point.
type Point struct {
	Values  map[string]float64
	Summary metrics.Summary
	Metric  float64
}

// Runner evaluates one configuration.
type Runner func(ctx context.Context, cfg *config.Config) (*experiment.Result, error)

type GridSearch struct {
	axes   []Axis
	metric Metric
}

func NewGridSearch(axes []Axis, metric Metric) *GridSearch {
	return &GridSearch{axes: axes, metric: metric}
}

// Search evaluates the full grid over base and returns the point with the
// smallest metric together with every point in scan order.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, run Runner) (Point, []Point, error) {
	for _, ax := range g.axes {
		if err := checkAxis(base, ax); err != nil {
			return Point{}, nil, err
		}
	}

	var all []Point
	err := g.searchRecursive(ctx, 0, base, make(map[string]float64), run, &all)
	if err != nil {
		return Point{}, nil, err
	}
	if len(all) == 0 {
		return Point{}, nil, fmt.Errorf("empty grid")
	}

	best := all[0]
	for _, p := range all[1:] {
		if p.Metric < best.Metric {
			best = p
		}
	}
	return best, all, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	cfg *config.Config,
	current map[string]float64,
	run Runner,
	all *[]Point,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.axes) {
		res, err := run(ctx, cfg)
		if err != nil {
			return err
		}
		values := make(map[string]float64, len(current))
		for k, v := range current {
			values[k] = v
		}
		*all = append(*all, Point{Values: values, Summary: res.Summary, Metric: g.metric(res.Summary)})
		return nil
	}

	ax := g.axes[depth]
	for _, val := range ax.Values {
		next := cfg.Clone()
		for pairKey, rec := range next.PairParams {
			if ax.Pair != "" && pairKey != ax.Pair {
				continue
			}
			if _, ok := rec[ax.Key]; ok {
				rec[ax.Key] = val
			}
		}
		current[ax.Name()] = val
		if err := g.searchRecursive(ctx, depth+1, next, current, run, all); err != nil {
			return err
		}
	}
	delete(current, ax.Name())
	return nil
}

func checkAxis(cfg *config.Config, ax Axis) error {
	if len(ax.Values) == 0 {
		return fmt.Errorf("axis %s has no values", ax.Name())
	}
	for pairKey, rec := range cfg.PairParams {
		if ax.Pair != "" && pairKey != ax.Pair {
			continue
		}
		if _, ok := rec[ax.Key]; ok {
			return nil
		}
	}
	return fmt.Errorf("axis %s matches no pair parameter", ax.Name())
}
