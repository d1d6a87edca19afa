// Package optim tunes controller gains against the experiment objective.
package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/hoversim/internal/config"
	"github.com/san-kum/hoversim/internal/dynamo"
	"github.com/san-kum/hoversim/internal/experiment"
	"github.com/san-kum/hoversim/internal/logging"
	"github.com/san-kum/hoversim/internal/metrics"
)

// Tunable controller parameters.
var setters = map[string]func(c *config.ControllerConfig, v float64){
	"kp": func(c *config.ControllerConfig, v float64) { c.Kp = v },
	"ki": func(c *config.ControllerConfig, v float64) { c.Ki = v },
	"kd": func(c *config.ControllerConfig, v float64) { c.Kd = v },
}

// Point is one evaluated grid point.
type Point struct {
	Params  map[string]float64
	Summary metrics.Summary
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	logger     logging.Logger
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, dynamo.Configf("grid search has %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		if _, ok := setters[name]; !ok {
			return nil, dynamo.Configf("cannot tune %q", name)
		}
		if len(ranges[i]) == 0 {
			return nil, dynamo.Configf("empty range for %s", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges, logger: logging.Noop()}, nil
}

func (g *GridSearch) SetLogger(l logging.Logger) { g.logger = l }

// Search evaluates base with every combination of parameter values over
// seeds and returns the point with the lowest mean fitness, along with
// every point visited.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, seeds []int64) (Point, []Point, error) {
	best := Point{Summary: metrics.Summary{Mean: math.Inf(1)}}
	var all []Point

	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) error {
		cfg := base.Clone()
		for name, val := range params {
			setters[name](&cfg.Controller, val)
		}
		e, err := experiment.New(cfg)
		if err != nil {
			return err
		}
		_, summary, err := e.Batch(ctx, seeds)
		if err != nil {
			return fmt.Errorf("evaluate %v: %w", params, err)
		}

		p := Point{Params: params, Summary: summary}
		all = append(all, p)
		g.logger.Debug(ctx, "grid point", logging.Any("params", params), logging.Float("mean", summary.Mean))
		if summary.Mean < best.Summary.Mean {
			best = p
		}
		return nil
	})
	if err != nil {
		return Point{}, nil, err
	}
	return best, all, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, eval func(map[string]float64) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		return eval(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, eval); err != nil {
			return err
		}
	}
	return nil
}
