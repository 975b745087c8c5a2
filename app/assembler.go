// Package app orchestrates one assembly run: resolve the raster files a
// request names, load their bands lazily with retry, merge per variable,
// combine across variables and bind provenance attributes.
package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"rastercube/domain/core"
	"rastercube/domain/grid"
	"rastercube/domain/request"
	"rastercube/internal/config"
	apperrors "rastercube/internal/errors"
	"rastercube/internal/retry"
	"rastercube/ports"
)

// Assembler builds one AssembledDataset per call. It holds no per-run
// state, so one Assembler may serve concurrent runs; credentials travel
// inside each run's metadata.
type Assembler struct {
	store       ports.RasterStore
	lister      ports.ObjectLister
	factory     ports.RasterStoreFactory
	retryPolicy retry.Policy
	parallelism int
	align       bool
}

// Option customizes an Assembler
type Option func(*Assembler)

// WithRetryPolicy overrides the backoff schedule for remote loads.
func WithRetryPolicy(p retry.Policy) Option {
	return func(a *Assembler) { a.retryPolicy = p }
}

// WithParallelism bounds how many files load concurrently.
func WithParallelism(n int) Option {
	return func(a *Assembler) {
		if n > 0 {
			a.parallelism = n
		}
	}
}

// WithAlignment enables the explicit nearest-neighbour alignment step
// for timed stacks on mismatched grids. Off by default: mismatches fail.
func WithAlignment() Option {
	return func(a *Assembler) { a.align = true }
}

// WithObjectStore wires the object-store input path: a prefix lister and
// a factory producing run-scoped fetching stores.
func WithObjectStore(lister ports.ObjectLister, factory ports.RasterStoreFactory) Option {
	return func(a *Assembler) {
		a.lister = lister
		a.factory = factory
	}
}

// New creates an assembler over a raster store, with defaults from the
// environment-level configuration.
func New(store ports.RasterStore, cfg *config.Config, opts ...Option) *Assembler {
	a := &Assembler{
		store: store,
		retryPolicy: retry.Policy{
			MaxAttempts:  cfg.Retry.MaxAttempts,
			InitialDelay: cfg.Retry.InitialDelay,
			Multiplier:   cfg.Retry.Multiplier,
		},
		parallelism: cfg.Assembly.Parallelism,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble executes one synchronous run and returns the assembled
// dataset plus every diagnostic gathered along the way. Recoverable
// failures (flaky loads, dropped variables, fallback grouping) surface
// as diagnostics; only unrecoverable conditions return an error.
func (a *Assembler) Assemble(ctx context.Context, meta request.Metadata) (_ *grid.Dataset, diags Diagnostics, _ error) {
	if err := meta.Validate(); err != nil {
		return nil, nil, err
	}

	run := core.NewRunID()
	defer func() { diags.stampRun(run) }()

	store := a.store
	var p *plan
	var refGeo *grid.Geometry
	refCRS := ""

	if meta.UsesObjectStore() {
		if a.lister == nil || a.factory == nil {
			return nil, nil, apperrors.InvalidRequest("assembler has no object-store support configured")
		}
		if meta.Credentials.Expired(time.Now()) {
			return nil, nil, apperrors.InvalidRequest("object-store credentials are expired")
		}

		keys, err := retry.Do(ctx, a.retryPolicy, func(ctx context.Context) ([]string, error) {
			return a.lister.List(ctx, *meta.Bucket, *meta.Credentials)
		})
		if err != nil {
			return nil, nil, apperrors.Wrapf(err, "listing bucket %s", meta.Bucket.Name)
		}

		p, err = planObjectStore(meta, keys)
		if err != nil {
			return nil, nil, err
		}
		store = a.factory.ForRun(*meta.Bucket, *meta.Credentials)

		// The first file's grid is the reference for the whole run;
		// every later file is validated against it during loading.
		if len(p.files) > 0 {
			src, err := a.openSource(ctx, store, p.files[0].location)
			if err != nil {
				return nil, nil, apperrors.Wrapf(err, "inspecting reference file %s", p.files[0].location)
			}
			g := src.Geometry()
			refGeo = &g
			refCRS = g.CRS
		}
	} else {
		var err error
		p, err = planDirect(meta)
		if err != nil {
			return nil, nil, err
		}
	}

	if len(p.files) == 0 {
		return nil, nil, apperrors.NoData("no raster files resolved for this request")
	}

	loaded, loadDiags, err := a.loadAll(ctx, store, p, refGeo)
	diags = append(diags, loadDiags...)
	if err != nil {
		return nil, diags, err
	}

	byVariable := make(map[core.VariableName][]loadedBand)
	for _, lb := range loaded {
		byVariable[lb.variable] = append(byVariable[lb.variable], lb)
	}

	var merged []grid.Named
	for _, v := range p.variables {
		bands := byVariable[v]
		if len(bands) == 0 {
			diags = append(diags, Diagnostic{
				Severity: SeverityError,
				Code:     apperrors.CodeEmptyVariable,
				Variable: v,
				Message:  "no planes loaded; variable omitted from the result",
			})
			continue
		}
		// Parallel loading scrambles arrival order; restore encounter
		// order so the stable sort's tie-breaking is deterministic.
		sortByOrder(bands)

		array, mergeDiags, err := mergeVariable(v, bands, a.align)
		diags = append(diags, mergeDiags...)
		if err != nil {
			diags = append(diags, Diagnostic{
				Severity: SeverityError,
				Code:     apperrors.GetCode(err),
				Variable: v,
				Message:  err.Error(),
			})
			continue
		}
		merged = append(merged, grid.Named{Name: v, Array: array})
	}

	// Last cancellation checkpoint before the combine work.
	if err := ctx.Err(); err != nil {
		return nil, diags, err
	}

	selected, excluded, err := grid.Combine(merged)
	if err != nil {
		return nil, diags, err
	}
	for _, name := range excluded {
		diags = append(diags, Diagnostic{
			Severity: SeverityError,
			Code:     apperrors.CodeCombineIncompatible,
			Variable: name,
			Message:  "excluded by fallback grouping: spatial signature differs from the selected group",
		})
	}

	dataset := grid.NewDataset(selected).WithAttributes(meta.Attributes(refCRS))
	return dataset, diags, nil
}

// openSource opens one raster location under the retry policy.
func (a *Assembler) openSource(ctx context.Context, store ports.RasterStore, location string) (ports.RasterSource, error) {
	return retry.Do(ctx, a.retryPolicy, func(ctx context.Context) (ports.RasterSource, error) {
		return store.Open(ctx, location)
	})
}

// loadAll opens every planned file and collects its band planes. Files
// load concurrently up to the parallelism bound; a backoff wait blocks
// only the file it belongs to. Per-file and per-band failures become
// diagnostics, not errors — only cancellation aborts the group.
func (a *Assembler) loadAll(ctx context.Context, store ports.RasterStore, p *plan, refGeo *grid.Geometry) ([]loadedBand, Diagnostics, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism)

	var mu sync.Mutex
	var loaded []loadedBand
	var diags Diagnostics

	note := func(d Diagnostic) {
		mu.Lock()
		diags = append(diags, d)
		mu.Unlock()
	}

	for _, ft := range p.files {
		ft := ft
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			src, err := a.openSource(ctx, store, ft.location)
			if err != nil {
				if isCancellation(err) {
					return err
				}
				for _, bt := range ft.bands {
					note(Diagnostic{
						Severity: SeverityError,
						Code:     apperrors.GetCode(err),
						Variable: bt.variable,
						Message:  fmt.Sprintf("loading %s: %v", ft.location, err),
					})
				}
				return nil
			}

			geo := src.Geometry()
			if refGeo != nil && !geo.Equal(*refGeo) {
				for _, bt := range ft.bands {
					note(Diagnostic{
						Severity: SeverityError,
						Code:     apperrors.CodeDimensionMismatch,
						Variable: bt.variable,
						Message: fmt.Sprintf("file %s grid (%dx%d, %s) does not match the reference grid (%dx%d, %s)",
							ft.location, geo.Rows(), geo.Cols(), geo.CRS,
							refGeo.Rows(), refGeo.Cols(), refGeo.CRS),
					})
				}
				return nil
			}

			for _, bt := range ft.bands {
				plane, err := src.Band(bt.number)
				if err != nil {
					note(Diagnostic{
						Severity: SeverityError,
						Code:     apperrors.GetCode(err),
						Variable: bt.variable,
						Message:  fmt.Sprintf("band %d of %s: %v", bt.number, ft.location, err),
					})
					continue
				}
				mu.Lock()
				loaded = append(loaded, loadedBand{
					variable: bt.variable,
					when:     bt.when,
					geo:      geo,
					plane:    plane,
					order:    bt.order,
				})
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, diags, err
	}
	return loaded, diags, nil
}

func sortByOrder(bands []loadedBand) {
	sort.Slice(bands, func(i, j int) bool { return bands[i].order < bands[j].order })
}

func isCancellation(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}
