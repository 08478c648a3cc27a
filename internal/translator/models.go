package translator

import "sync/atomic"

// modelRing hands out models in order, one per call, so a provider with
// several models spreads load across them and runs stay reproducible.
type modelRing struct {
	models []string
	next   atomic.Uint64
}

func newModelRing(models, defaults []string) *modelRing {
	if len(models) == 0 {
		models = defaults
	}
	return &modelRing{models: append([]string(nil), models...)}
}

func (r *modelRing) pick() string {
	n := r.next.Add(1) - 1
	return r.models[n%uint64(len(r.models))]
}

func (r *modelRing) list() []string {
	return append([]string(nil), r.models...)
}
