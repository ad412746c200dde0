package harness

import (
	"context"
	"fmt"

	"github.com/roach88/rill/internal/ir"
)

// collect reads every listened signal. Receivers replaced by a later listen
// were closed by the engine and are drained to the end; the current one is
// read until the expected count arrives, then for one settle period more.
func (s *session) collect(ctx context.Context) {
	want := make(map[string]int)
	for _, exp := range s.scenario.Expect {
		want[exp.Signal] = len(exp.Values)
	}

	for _, l := range s.listens {
		var got []ir.Value
		for i, rx := range l.receivers {
			if i < len(l.receivers)-1 {
				got = append(got, s.drain(ctx, rx, -1)...)
				continue
			}
			if !l.closed {
				got = append(got, s.drain(ctx, rx, max(0, want[l.label]-len(got)))...)
			}
		}
		s.observed[l.label] = got
	}
}

// drain receives from rx until it closes. With need >= 0 it stops waiting
// once need values arrived and no more show up within the settle period.
func (s *session) drain(ctx context.Context, rx receiver, need int) []ir.Value {
	var got []ir.Value
	for {
		wait := s.cfg.timeout
		if need >= 0 && len(got) >= need {
			wait = s.cfg.settle
		}
		wctx, cancel := context.WithTimeout(ctx, wait)
		v, err := rx.recv(wctx)
		cancel()
		if err != nil {
			return got
		}
		got = append(got, v)
	}
}

// record numbers observations in listen order, then delivery order.
func (s *session) record(result *Result) {
	var seq int64
	for _, l := range s.listens {
		for _, v := range s.observed[l.label] {
			seq++
			result.Observations = append(result.Observations, Observation{
				Signal: l.label,
				Value:  v,
				Seq:    seq,
			})
		}
	}
}

// check compares observations with the scenario's expectations.
func (s *session) check(result *Result) {
	for _, exp := range s.scenario.Expect {
		n, ok := s.graph.Node(exp.Signal)
		if !ok {
			result.AddError("signal %s: not in graph", exp.Signal)
			continue
		}

		want := make([]ir.Value, 0, len(exp.Values))
		for i, raw := range exp.Values {
			v, err := ir.FromNative(n.Type(), raw)
			if err != nil {
				result.AddError("signal %s: values[%d]: %v", exp.Signal, i, err)
				continue
			}
			want = append(want, v)
		}

		got := s.observed[exp.Signal]
		if !equalValues(want, got) {
			result.AddError("signal %s: expected %s, got %s",
				exp.Signal, formatValues(want), formatValues(got))
		}
	}
}

func equalValues(a, b []ir.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatValues(vs []ir.Value) string {
	natives := make([]any, len(vs))
	for i, v := range vs {
		natives[i] = ir.Native(v)
	}
	return fmt.Sprint(natives)
}
