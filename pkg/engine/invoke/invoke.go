// Package invoke provides the node invokers that back an execution
// run: a deterministic simulated invoker for offline test runs and a
// remote invoker that calls an external execution service over HTTPS.
package invoke

import (
	"context"
	"fmt"
	"hash/fnv"
	"maps"
	"slices"
	"time"

	"github.com/iamoneai/laneflow/pkg/engine"
	"github.com/iamoneai/laneflow/pkg/flow"
)

// PortSource resolves the declared output ports of a node template.
// Implemented by the template catalog; nil is allowed and falls back
// to a single generic result port.
type PortSource interface {
	OutputPorts(templateID string) []flow.Port
}

// Simulated fabricates deterministic per-template outputs without
// touching any external system. The same template id and inputs always
// produce the same outputs, so simulated runs are reproducible.
type Simulated struct {
	// Ports shapes outputs to the template's declared output ports
	// when set. Without it every node emits a single "result" port.
	Ports PortSource

	// Latency, when positive, sleeps per invocation so step-wise runs
	// feel like real work in interactive sessions.
	Latency time.Duration
}

var _ engine.NodeInvoker = (*Simulated)(nil)

// Invoke fabricates outputs for the template. The per-port values fold
// the template id, port key, and input keys through FNV-1a so wiring
// changes upstream visibly change the fabricated payload downstream.
func (s *Simulated) Invoke(ctx context.Context, templateID string, _ engine.Mode, inputs map[string]any) (map[string]any, error) {
	if s.Latency > 0 {
		select {
		case <-time.After(s.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	seed := fnv.New64a()
	seed.Write([]byte(templateID))
	for _, k := range sortedKeys(inputs) {
		seed.Write([]byte(k))
	}
	base := seed.Sum64()

	var ports []flow.Port
	if s.Ports != nil {
		ports = s.Ports.OutputPorts(templateID)
	}
	if len(ports) == 0 {
		ports = []flow.Port{{Key: "result", DataType: flow.TypeAny}}
	}

	outputs := make(map[string]any, len(ports))
	for _, p := range ports {
		outputs[p.Key] = fabricate(p, base, templateID)
	}
	return outputs, nil
}

// fabricate produces a value of the port's declared type from the
// run-stable seed.
func fabricate(p flow.Port, base uint64, templateID string) any {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d/%s", base, p.Key)
	v := h.Sum64()

	switch p.DataType {
	case flow.TypeNumber:
		return float64(v % 1000)
	case flow.TypeBoolean:
		return v%2 == 0
	case flow.TypeObject:
		return map[string]any{"templateId": templateID, "port": p.Key, "seed": v % 100000}
	case flow.TypeArray:
		n := int(v%3) + 1
		items := make([]any, n)
		for i := range items {
			items[i] = fmt.Sprintf("%s-item-%d", p.Key, i)
		}
		return items
	default:
		return fmt.Sprintf("simulated %s output from %s (%04d)", p.Key, templateID, v%10000)
	}
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
