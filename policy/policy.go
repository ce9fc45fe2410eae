package policy

import (
	"sort"
	"sync"

	"github.com/brian14708/tsar/codec"
	"github.com/brian14708/tsar/etype"
	"github.com/brian14708/tsar/internal/hash"
	"github.com/brian14708/tsar/pipeline"
)

// probeSize is the bounded head spec §4.5 probes candidate chains against
// before committing to a full-blob run.
const probeSize = 64 * 1024

// Option configures a Policy (functional-options pattern, mirrored from the
// teacher's encoder-option constructors).
type Option func(*Policy)

// WithChains replaces the candidate chains tried for t, or adds t to the
// table if it has none; earlier chains for t are not kept.
func WithChains(t etype.Type, chains ...codec.Chain) Option {
	return func(p *Policy) {
		p.table[t] = chains
	}
}

// WithMetric selects the error metric used for both acceptance-filtering and
// the reported error (spec §9's resolved Open Question: never mix metrics
// within one Policy).
func WithMetric(m etype.Metric) Option {
	return func(p *Policy) { p.metric = m }
}

// Policy selects a compression chain per blob against a caller's error
// budget (spec §4.5).
type Policy struct {
	table  map[etype.Type][]codec.Chain
	metric etype.Metric

	mu        sync.Mutex
	probeSeen map[probeKey]bool
}

type probeKey struct {
	digest uint64
	t      etype.Type
	eps    float64
}

// New builds a Policy seeded from DefaultTable, applying opts in order.
func New(opts ...Option) *Policy {
	p := &Policy{
		table:     make(map[etype.Type][]codec.Chain, len(DefaultTable)),
		metric:    etype.Absolute,
		probeSeen: make(map[probeKey]bool),
	}
	for t, cs := range DefaultTable {
		p.table[t] = cs
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Selection is the outcome of Select: the chosen chain, its chunk outputs,
// and the round-trip error measured against the full blob.
type Selection struct {
	Chain  codec.Chain
	Result pipeline.Result
}

// Select probes candidatesFor(t) on min(64KiB, len(data)), keeps only
// probes whose round-trip error is within eps, ranks survivors by encoded
// size, and re-validates them on the full blob in that order. The first
// full-blob run within eps wins; if none qualify, Select falls back to the
// empty chain (spec §4.5 steps 1-4).
func (p *Policy) Select(data []byte, t etype.Type, shape []int, eps float64) (Selection, error) {
	candidates := candidatesFor(p.table, t)

	probe := data
	if len(probe) > probeSize {
		probe = probe[:probeSize]
	}

	type scored struct {
		chain codec.Chain
		size  int
	}

	var survivors []scored
	for _, chain := range candidates {
		if p.probeRejected(probe, t, eps, chain) {
			continue
		}

		res, err := pipeline.Compress(probe, t, nil, chain, eps, p.metric)
		if err != nil || res.Error > eps {
			p.markProbeRejected(probe, t, eps, chain)

			continue
		}

		survivors = append(survivors, scored{chain: chain, size: totalSize(res.Outputs)})
	}

	sort.Slice(survivors, func(i, j int) bool { return survivors[i].size < survivors[j].size })

	for _, cand := range survivors {
		res, err := pipeline.Compress(data, t, shape, cand.chain, eps, p.metric)
		if err != nil {
			continue
		}

		if res.Error <= eps {
			return Selection{Chain: cand.chain, Result: res}, nil
		}
	}

	// No candidate survived the full-blob check: fall back to raw storage
	// (spec §4.5 step 4). The empty chain is the identity, so its round trip
	// is exact without measuring it; measuring would fail on payloads such as
	// NaN floats, for which the error metric is undefined.
	raw := append([]byte(nil), data...)

	return Selection{Chain: codec.Chain{}, Result: pipeline.Result{Outputs: [][]byte{raw}}}, nil
}

func totalSize(outputs [][]byte) int {
	n := 0
	for _, o := range outputs {
		n += len(o)
	}

	return n
}

// probeRejected/markProbeRejected implement the probe short-circuit: once a
// chain has been probed against a given 64KiB head (identified by its
// xxhash digest, not the archive's SHA-1 content address) and rejected,
// repeated Select calls against byte-identical data with the same eps skip
// re-running the pipeline for it.
func (p *Policy) probeRejected(probe []byte, t etype.Type, eps float64, chain codec.Chain) bool {
	key := probeKey{digest: hash.Bytes(probe) ^ chainDigest(chain), t: t, eps: eps}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.probeSeen[key]
}

func (p *Policy) markProbeRejected(probe []byte, t etype.Type, eps float64, chain codec.Chain) {
	key := probeKey{digest: hash.Bytes(probe) ^ chainDigest(chain), t: t, eps: eps}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.probeSeen[key] = true
}

func chainDigest(chain codec.Chain) uint64 {
	b := make([]byte, len(chain))
	for i, tag := range chain {
		b[i] = byte(tag)
	}

	return hash.Bytes(b)
}
