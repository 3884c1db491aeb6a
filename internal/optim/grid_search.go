// Package optim searches tuning parameters by exhaustive grid evaluation.
package optim

import (
	"context"
	"math"
)

// Objective runs one closed-loop evaluation with the given parameter values
// and returns the score to minimize.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search evaluates every combination of the parameter ranges and returns the
// best parameter set and its score. Evaluations that fail are skipped.
func (g *GridSearch) Search(ctx context.Context, obj Objective) (map[string]float64, float64, error) {
	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), obj, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	obj Objective,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		val, err := obj(ctx, current)
		if err != nil {
			return nil
		}
		if val < *best {
			*best = val
			copied := make(map[string]float64, len(current))
			for k, v := range current {
				copied[k] = v
			}
			*bestParams = copied
		}
		return nil
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[name] = val
		if err := g.searchRecursive(ctx, depth+1, current, obj, best, bestParams); err != nil {
			return err
		}
	}
	delete(current, name)
	return nil
}
