package engine

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// CoreVersion is the version of the scoring formulas.
const CoreVersion = "0.1.0"

const (
	opacityStaleWeight = 0.4
	minOpacity         = 0.6
	maxOpacity         = 1.0
)

// ComputeScores computes staleness for every atom first, then priority,
// energy and opacity per atom using that staleness map. Duplicate ids keep
// the last atom's result.
func ComputeScores(atoms []Atom, nowMs float64) map[string]AtomScore {
	idx := newAtomIndex(atoms)
	stale := stalenessPass(atoms, idx, nowMs)

	out := make([]AtomScore, len(atoms))
	for i := range atoms {
		out[i] = scoreAtom(&atoms[i], idx, stale, nowMs)
	}
	return collect(out)
}

// ComputeScoresParallel is ComputeScores with both passes split into
// contiguous chunks across at most workers goroutines. Each chunk writes only
// its own slice range, so the result is identical to the sequential pass.
func ComputeScoresParallel(ctx context.Context, atoms []Atom, nowMs float64, workers int) (map[string]AtomScore, error) {
	if workers <= 1 || len(atoms) < 2 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return ComputeScores(atoms, nowMs), nil
	}

	idx := newAtomIndex(atoms)

	perAtom := make([]float64, len(atoms))
	err := forChunks(ctx, len(atoms), workers, func(i int) {
		perAtom[i] = staleness(&atoms[i], idx, nowMs)
	})
	if err != nil {
		return nil, err
	}
	stale := make(map[string]float64, len(atoms))
	for i := range atoms {
		stale[atoms[i].ID] = perAtom[i]
	}

	out := make([]AtomScore, len(atoms))
	err = forChunks(ctx, len(atoms), workers, func(i int) {
		out[i] = scoreAtom(&atoms[i], idx, stale, nowMs)
	})
	if err != nil {
		return nil, err
	}
	return collect(out), nil
}

func forChunks(ctx context.Context, n, workers int, fn func(i int)) error {
	g, ctx := errgroup.WithContext(ctx)
	size := (n + workers - 1) / workers
	for start := 0; start < n; start += size {
		end := min(start+size, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				fn(i)
			}
			return nil
		})
	}
	return g.Wait()
}

func stalenessPass(atoms []Atom, idx atomIndex, nowMs float64) map[string]float64 {
	stale := make(map[string]float64, len(atoms))
	for i := range atoms {
		stale[atoms[i].ID] = staleness(&atoms[i], idx, nowMs)
	}
	return stale
}

func scoreAtom(a *Atom, idx atomIndex, stale map[string]float64, nowMs float64) AtomScore {
	s := stale[a.ID]
	score := AtomScore{
		ID:        a.ID,
		Staleness: s,
		Energy:    EnergyOf(*a),
		Opacity:   clamp(1-s*opacityStaleWeight, minOpacity, maxOpacity),
	}
	if a.scored() {
		p, tier := priority(a, idx, stale, nowMs)
		score.PriorityScore = p
		score.PriorityTier = &tier
	}
	return score
}

func collect(scores []AtomScore) map[string]AtomScore {
	m := make(map[string]AtomScore, len(scores))
	for _, s := range scores {
		m[s.ID] = s
	}
	return m
}

// Engine wraps the pure scoring operations with logging and a configured
// parallelism. It holds no state between calls.
type Engine struct {
	Workers int
	log     *slog.Logger
}

// New creates a new Engine. A nil logger uses slog.Default().
func New(logger *slog.Logger, workers int) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		Workers: workers,
		log:     logger.With("component", "engine"),
	}
}

// Ping is a liveness check for hosts.
func (e *Engine) Ping() string {
	return "pong"
}

// Version returns the scoring core version.
func (e *Engine) Version() string {
	return CoreVersion
}

// Scores runs ComputeScores, in parallel when Workers > 1.
func (e *Engine) Scores(ctx context.Context, atoms []Atom, nowMs float64) (map[string]AtomScore, error) {
	scores, err := ComputeScoresParallel(ctx, atoms, nowMs, e.Workers)
	if err != nil {
		return nil, err
	}
	e.log.Debug("computed scores", "atoms", len(atoms), "workers", e.Workers)
	return scores, nil
}

// Entropy runs ComputeEntropy.
func (e *Engine) Entropy(atoms []Atom, inboxCount, inboxCap, taskCap uint32, nowMs float64) EntropyScore {
	es := ComputeEntropy(atoms, inboxCount, inboxCap, taskCap, nowMs)
	e.log.Debug("computed entropy", "atoms", len(atoms), "score", es.Score, "level", es.Level)
	return es
}

// Compression runs FilterCompressionCandidates.
func (e *Engine) Compression(atoms []Atom, nowMs float64) []CompressionCandidate {
	cs := FilterCompressionCandidates(atoms, nowMs)
	e.log.Debug("filtered compression candidates", "atoms", len(atoms), "candidates", len(cs))
	return cs
}
