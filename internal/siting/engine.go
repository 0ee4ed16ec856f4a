package siting

import (
	"context"
	"runtime"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/opencivic/event-siting/internal/config"
	"github.com/opencivic/event-siting/internal/model"
)

// Inputs carries the pre-loaded data for one siting pass. Loading and
// parsing happen at the process boundary; the engine itself performs no I/O.
type Inputs struct {
	Tracts []model.Tract
	POIs   []model.PointOfInterest
}

// Result is the outcome of one siting pass. Sites are ranked; Unmatched
// holds every POI excluded from scoring together with the reason.
type Result struct {
	Sites     []model.ScoredSite
	Unmatched []model.UnmatchedPOI
	Summary   model.RunSummary
}

// Engine runs the siting pass: join, normalize, compose, rank. It holds no
// mutable state across runs; the config is treated as immutable.
type Engine struct {
	cfg config.SitingConfig
}

// New creates an Engine for the given scoring configuration.
func New(cfg config.SitingConfig) *Engine {
	return &Engine{cfg: cfg}
}

// resolvedIndicator is an IndicatorConfig bound to its normalization
// reference, fixed once at setup so per-POI scoring is a pure lookup.
type resolvedIndicator struct {
	name     string
	weight   float64
	negative bool
	bounds   Bounds
	method   string
}

// Run executes the full pass. Structural problems (bad config, malformed
// geometry) abort with a kinded error before any partial results exist;
// per-record issues are counted in the summary and never abort.
func (e *Engine) Run(ctx context.Context, in Inputs) (*Result, error) {
	start := time.Now()

	if err := ValidateConfig(e.cfg); err != nil {
		return nil, err
	}
	if err := CheckSchema(e.cfg, indicatorColumns(in.Tracts)); err != nil {
		return nil, err
	}

	resolved := e.resolveIndicators(in.Tracts)

	focus, err := FocusTracts(in.Tracts, e.cfg.Focus)
	if err != nil {
		return nil, err
	}

	idx, err := BuildIndex(in.Tracts)
	if err != nil {
		return nil, err
	}

	tractByID := make(map[string]*model.Tract, len(in.Tracts))
	for i := range in.Tracts {
		if _, ok := tractByID[in.Tracts[i].GEOID]; !ok {
			tractByID[in.Tracts[i].GEOID] = &in.Tracts[i]
		}
	}

	// Each POI's computation is independent once the index and indicator
	// references are built; both are read-only from here on.
	outcomes := make([]poiOutcome, len(in.POIs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers())
	for i := range in.POIs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return eris.Wrap(err, "siting: run cancelled")
			}
			outcomes[i] = e.scoreOne(in.POIs[i], idx, tractByID, resolved, focus)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{
		Summary: model.RunSummary{
			Tracts:      len(in.Tracts),
			FocusTracts: len(focus),
			TotalPOIs:   len(in.POIs),
			StartedAt:   start,
		},
	}
	for _, o := range outcomes {
		res.Summary.MissingIndicators += o.missing
		if o.site != nil {
			res.Sites = append(res.Sites, *o.site)
			res.Summary.Matched++
			continue
		}
		res.Unmatched = append(res.Unmatched, *o.unmatched)
		switch o.unmatched.Reason {
		case model.ReasonInvalidCoords:
			res.Summary.InvalidCoords++
		case model.ReasonOutOfFocus:
			res.Summary.OutOfFocus++
		}
		res.Summary.Unmatched++
	}

	Rank(res.Sites)
	res.Summary.FinishedAt = time.Now()

	zap.L().Info("siting: pass complete",
		zap.Int("pois", res.Summary.TotalPOIs),
		zap.Int("matched", res.Summary.Matched),
		zap.Int("unmatched", res.Summary.Unmatched),
		zap.Int("out_of_focus", res.Summary.OutOfFocus),
		zap.Int("missing_indicator_values", res.Summary.MissingIndicators),
		zap.Duration("elapsed", res.Summary.FinishedAt.Sub(start)),
	)
	return res, nil
}

type poiOutcome struct {
	site      *model.ScoredSite
	unmatched *model.UnmatchedPOI
	missing   int
}

// scoreOne joins a single POI and, when matched and in focus, normalizes and
// composes its indicators.
func (e *Engine) scoreOne(
	poi model.PointOfInterest,
	idx *TractIndex,
	tractByID map[string]*model.Tract,
	resolved []resolvedIndicator,
	focus map[string]bool,
) poiOutcome {
	joined := joinOne(poi, idx)
	if !joined.Matched() {
		return poiOutcome{unmatched: &model.UnmatchedPOI{POI: poi, Reason: joined.Reason}}
	}
	if focus != nil && !focus[joined.GEOID] {
		return poiOutcome{unmatched: &model.UnmatchedPOI{POI: poi, Reason: model.ReasonOutOfFocus}}
	}

	tract := tractByID[joined.GEOID]
	contribs := make([]model.Contribution, 0, len(resolved))
	var missing int
	for _, ind := range resolved {
		c := e.normalizeOne(ind, tract)
		if c.Missing {
			missing++
		}
		contribs = append(contribs, c)
	}

	score, ok := Compose(contribs)
	if !ok {
		return poiOutcome{
			unmatched: &model.UnmatchedPOI{POI: poi, Reason: model.ReasonNoIndicators},
			missing:   missing,
		}
	}
	return poiOutcome{
		site: &model.ScoredSite{
			POI:           poi,
			TractGEOID:    joined.GEOID,
			Score:         score,
			Contributions: contribs,
		},
		missing: missing,
	}
}

// normalizeOne produces the contribution of one indicator for one tract.
// Missing values follow the configured policy: midpoint substitutes 0.5 and
// keeps the weight; exclude zeroes the weight so Compose skips it. Either
// way the Missing flag stays on the contribution for auditability.
func (e *Engine) normalizeOne(ind resolvedIndicator, tract *model.Tract) model.Contribution {
	raw, ok := tract.Indicators[ind.name]
	if !ok {
		c := model.Contribution{Indicator: ind.name, Missing: true}
		if e.cfg.MissingPolicy == PolicyMidpoint {
			c.Normalized = 0.5
			c.Weight = ind.weight
		}
		return c
	}

	var norm float64
	switch ind.method {
	case MethodZScore:
		norm = NormalizeZScore(raw, ind.bounds.Mean, ind.bounds.Std)
	default:
		norm = NormalizeMinMax(raw, ind.bounds.Min, ind.bounds.Max)
	}
	if ind.negative {
		norm = 1 - norm
	}
	return model.Contribution{
		Indicator:  ind.name,
		Raw:        raw,
		Normalized: norm,
		Weight:     ind.weight,
	}
}

// resolveIndicators binds each configured indicator to its normalization
// reference. Config-pinned bounds win; otherwise bounds are derived from
// the observed values. The zscore method always standardizes against the
// observed mean and deviation.
func (e *Engine) resolveIndicators(tracts []model.Tract) []resolvedIndicator {
	resolved := make([]resolvedIndicator, 0, len(e.cfg.Indicators))
	for _, ind := range e.cfg.Indicators {
		var values []float64
		for _, t := range tracts {
			if v, ok := t.Indicators[ind.Name]; ok {
				values = append(values, v)
			}
		}
		b := DeriveBounds(values)
		if ind.Min != nil && ind.Max != nil {
			b.Min = *ind.Min
			b.Max = *ind.Max
		}
		resolved = append(resolved, resolvedIndicator{
			name:     ind.Name,
			weight:   ind.Weight,
			negative: ind.Direction == DirectionNegative,
			bounds:   b,
			method:   e.cfg.Method,
		})
	}
	return resolved
}

func (e *Engine) workers() int {
	if e.cfg.Workers > 0 {
		return e.cfg.Workers
	}
	return runtime.NumCPU()
}

// indicatorColumns returns every indicator name present in the tract
// dataset, the schema CheckSchema validates against.
func indicatorColumns(tracts []model.Tract) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, t := range tracts {
		for name := range t.Indicators {
			if !seen[name] {
				seen[name] = true
				cols = append(cols, name)
			}
		}
	}
	return cols
}
