package agast

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts what evaluations do.  A nil *Metrics counts nothing.
type Metrics struct {
	Instructions *prometheus.CounterVec
	Frames       *prometheus.CounterVec
	TagsEmitted  *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with `reg`
// unless it's nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Instructions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agast_instructions_total",
				Help: "Counter for the instructions dispatched, by verb.",
			},
			[]string{"verb"},
		),
		Frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agast_frames_total",
				Help: "Counter for the frames finished, by outcome.",
			},
			[]string{"outcome"},
		),
		TagsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agast_tags_emitted_total",
				Help: "Counter for the tags emitted, by kind.",
			},
			[]string{"kind"},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Instructions, m.Frames, m.TagsEmitted} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) instruction(verb Verb) {
	if m == nil {
		return
	}
	label := "unknown"
	for _, v := range verbs {
		if v == verb {
			label = string(v)
			break
		}
	}
	m.Instructions.WithLabelValues(label).Inc()
}

func (m *Metrics) frame(accepted bool) {
	if m == nil {
		return
	}
	outcome := "rejected"
	if accepted {
		outcome = "accepted"
	}
	m.Frames.WithLabelValues(outcome).Inc()
}

func (m *Metrics) tagEmitted(t Tag) {
	if m == nil {
		return
	}
	m.TagsEmitted.WithLabelValues(t.Kind().String()).Inc()
}

func (vm *vm) observeFrame(accepted bool) {
	vm.metrics.frame(accepted)
}
