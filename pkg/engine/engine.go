// Package engine executes a pipeline document against a node invoker.
//
// # Overview
//
// A run walks the document's nodes in topological order, drives each
// node through a small state machine, and records one trace entry per
// node. The engine is deliberately sequential: node invocation is
// asynchronous in the sense that it may block on external I/O, but the
// engine never invokes two nodes concurrently, trading throughput for
// a strictly ordered trace that is easy to reason about and test.
//
// # Step-wise control flow
//
// "Waiting for the next step" is just a position in the order, not a
// suspended call stack. [Engine.NewRun] captures a snapshot and
// returns a [Run]; each [Run.Step] call executes exactly one node and
// returns. [Engine.Execute] is the convenience loop over Step for
// non-interactive use. [Run.Stop] cancels the remaining order
// cooperatively: it never interrupts an in-flight invocation, it takes
// effect between nodes.
//
// # Failure locality
//
// A node fault skips its forward-reachable downstream cone; unrelated
// branches continue executing. The run as a whole still reports
// success=false once any node ends in error or skipped.
package engine

import (
	"context"
	"time"

	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/flow"
	"github.com/iamoneai/laneflow/pkg/observability"
)

// State is a node's position in the execution state machine:
//
//	idle -> pending -> running -> completed | error
//	idle -> skipped
//
// Completed, error, and skipped are terminal.
type State int

const (
	StateIdle State = iota
	StatePending
	StateRunning
	StateCompleted
	StateError
	StateSkipped
)

var stateNames = [...]string{"idle", "pending", "running", "completed", "error", "skipped"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether the state is final for a run.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateError || s == StateSkipped
}

// Mode selects how the external invoker realizes a node: fabricated
// deterministic outputs or the node's real effect. The engine itself
// is mode-agnostic and only forwards the value.
type Mode string

const (
	ModeSimulated Mode = "simulated"
	ModeLive      Mode = "live"
)

// NodeInvoker performs one node's computation. Implementations are
// keyed by template id and opaque to the engine. A fault is reported
// as a non-nil error; outputs are keyed by output port.
type NodeInvoker interface {
	Invoke(ctx context.Context, templateID string, mode Mode, inputs map[string]any) (map[string]any, error)
}

// InvokerFunc adapts a function to the NodeInvoker interface.
type InvokerFunc func(ctx context.Context, templateID string, mode Mode, inputs map[string]any) (map[string]any, error)

func (f InvokerFunc) Invoke(ctx context.Context, templateID string, mode Mode, inputs map[string]any) (map[string]any, error) {
	return f(ctx, templateID, mode, inputs)
}

// TraceEntry records one node's outcome within a run, append-only.
type TraceEntry struct {
	NodeID   string         `json:"nodeId"`
	NodeName string         `json:"nodeName"`
	State    State          `json:"-"`
	Status   string         `json:"state"`
	Duration time.Duration  `json:"duration"`
	Output   map[string]any `json:"output,omitempty"`
	Fault    string         `json:"fault,omitempty"`
}

// Result is the final outcome of a run. FinalOutput maps each terminal
// completed node (no outgoing wires) to its outputs; it is empty when
// the run was stopped or no terminal node completed.
type Result struct {
	Success       bool                      `json:"success"`
	FinalOutput   map[string]map[string]any `json:"finalOutput"`
	TotalDuration time.Duration             `json:"totalDuration"`
	Trace         []TraceEntry              `json:"trace"`
	Err           error                     `json:"-"`
}

// Options configures one run.
type Options struct {
	// Mode is forwarded verbatim to the invoker. Defaults to ModeSimulated.
	Mode Mode

	// OnStateChange, if set, fires synchronously on every node state
	// transition so an observer can render live progress.
	OnStateChange func(nodeID string, state State)
}

// Engine executes documents against a fixed invoker.
type Engine struct {
	invoker NodeInvoker
}

// New creates an engine backed by the given invoker.
func New(invoker NodeInvoker) *Engine {
	return &Engine{invoker: invoker}
}

// Execute runs the whole document to completion: every node in
// topological order, no pauses. A cyclic document is rejected before
// any node runs.
func (e *Engine) Execute(ctx context.Context, doc *flow.Document, input map[string]any, opts Options) (*Result, error) {
	run, err := e.NewRun(doc, input, opts)
	if err != nil {
		return nil, err
	}
	for run.Step(ctx) {
	}
	return run.Result(), nil
}

// runNode is the engine's frozen view of one document node.
type runNode struct {
	id         string
	name       string
	templateID string
	incoming   []*flow.Wire
	downstream []string // direct successors
	terminal   bool     // no outgoing wires
}

// Run is one pausable execution of a document snapshot. A Run is not
// safe for concurrent use: Step, Stop, and Result must be called from
// a single goroutine.
type Run struct {
	engine   *Engine
	document string
	opts     Options

	order []*runNode
	byID  map[string]*runNode
	next  int

	states  map[string]State
	outputs map[string]map[string]any
	input   map[string]any

	trace    []TraceEntry
	started  time.Time
	stopped  bool
	finished bool
	faulted  bool
	skipped  bool
	firstErr error
	result   *Result
}

// NewRun captures a snapshot of the document and prepares a pausable
// run. A cycle in the document is a precondition failure: NewRun
// returns an EXECUTION_CYCLE error and no Run, and nothing executes.
func (e *Engine) NewRun(doc *flow.Document, input map[string]any, opts Options) (*Run, error) {
	if opts.Mode == "" {
		opts.Mode = ModeSimulated
	}

	nodes := doc.Nodes()
	wires := doc.Wires()

	order, ok := topoOrder(nodes, wires)
	if !ok {
		return nil, flowerrors.New(flowerrors.ErrCodeCycle, "document contains a cycle; execution order is undefined")
	}

	r := &Run{
		engine:   e,
		document: doc.Name,
		opts:     opts,
		byID:     make(map[string]*runNode, len(nodes)),
		states:   make(map[string]State, len(nodes)),
		outputs:  make(map[string]map[string]any, len(nodes)),
		input:    input,
		started:  time.Now(),
	}

	for _, n := range nodes {
		rn := &runNode{id: n.ID, name: n.Name, templateID: n.TemplateID, terminal: true}
		r.byID[n.ID] = rn
		r.states[n.ID] = StateIdle
	}
	for _, w := range wires {
		from, okFrom := r.byID[w.FromNode]
		to, okTo := r.byID[w.ToNode]
		if !okFrom || !okTo {
			continue
		}
		from.downstream = append(from.downstream, w.ToNode)
		from.terminal = false
		to.incoming = append(to.incoming, w.Clone())
	}
	for _, id := range order {
		r.order = append(r.order, r.byID[id])
	}

	observability.Execution().OnRunStart(context.Background(), r.document, len(nodes))
	return r, nil
}

// topoOrder computes a Kahn topological order over the wire-derived
// adjacency, seeded in insertion order for determinism. ok is false
// when a cycle leaves nodes unordered.
func topoOrder(nodes []*flow.Node, wires []*flow.Wire) ([]string, bool) {
	byID := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = true
	}

	inDegree := make(map[string]int, len(nodes))
	children := make(map[string][]string)
	for _, w := range wires {
		if !byID[w.FromNode] || !byID[w.ToNode] {
			continue
		}
		children[w.FromNode] = append(children[w.FromNode], w.ToNode)
		inDegree[w.ToNode]++
	}

	var queue, order []string
	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		order = append(order, curr)
		for _, child := range children[curr] {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}
	return order, len(order) == len(nodes)
}

// StateOf returns a node's current execution state.
func (r *Run) StateOf(nodeID string) State { return r.states[nodeID] }

// Remaining returns how many nodes have not yet been processed.
func (r *Run) Remaining() int {
	if r.finished {
		return 0
	}
	return len(r.order) - r.next
}

// Finished reports whether the run has processed or cancelled every node.
func (r *Run) Finished() bool { return r.finished }

// Step processes the next node in order and returns true while more
// remain. In step mode the caller simply spaces out its Step calls;
// between calls the run is plain paused state, not a blocked goroutine.
// A cancelled context behaves like Stop.
func (r *Run) Step(ctx context.Context) bool {
	if r.finished {
		return false
	}
	if r.stopped || ctx.Err() != nil {
		r.stopped = true
		r.cancelRemaining(ctx)
		r.finalize(ctx)
		return false
	}
	if r.next >= len(r.order) {
		r.finalize(ctx)
		return false
	}

	node := r.order[r.next]
	r.next++

	if r.states[node.id] == StateSkipped {
		// Pre-marked by an upstream failure; record in trace order.
		r.trace = append(r.trace, TraceEntry{
			NodeID: node.id, NodeName: node.name,
			State: StateSkipped, Status: StateSkipped.String(),
		})
	} else {
		r.invoke(ctx, node)
	}

	if r.next >= len(r.order) {
		r.finalize(ctx)
		return false
	}
	return true
}

// Stop requests cooperative cancellation: the node currently being
// invoked (if any) finishes, every not-yet-started node is marked
// skipped, and the run finalizes with success=false on the next Step.
// Calling Stop after the run finished is a no-op.
func (r *Run) Stop() {
	if !r.finished {
		r.stopped = true
	}
}

// invoke drives one node through pending -> running -> completed|error
// and appends its trace entry. On error the node's forward-reachable
// cone is marked skipped.
func (r *Run) invoke(ctx context.Context, node *runNode) {
	r.setState(ctx, node.id, StatePending)
	r.setState(ctx, node.id, StateRunning)

	inputs := r.gatherInputs(node)
	start := time.Now()
	outputs, err := r.engine.invoker.Invoke(ctx, node.templateID, r.opts.Mode, inputs)
	elapsed := time.Since(start)

	if err != nil {
		r.setState(ctx, node.id, StateError)
		r.trace = append(r.trace, TraceEntry{
			NodeID: node.id, NodeName: node.name,
			State: StateError, Status: StateError.String(),
			Duration: elapsed, Fault: err.Error(),
		})
		r.faulted = true
		if r.firstErr == nil {
			r.firstErr = flowerrors.Wrap(flowerrors.ErrCodeExecutionFault, err, "node %s faulted", node.id)
		}
		r.skipDownstream(ctx, node)
		return
	}

	r.setState(ctx, node.id, StateCompleted)
	r.outputs[node.id] = outputs
	r.trace = append(r.trace, TraceEntry{
		NodeID: node.id, NodeName: node.name,
		State: StateCompleted, Status: StateCompleted.String(),
		Duration: elapsed, Output: outputs,
	})
}

// gatherInputs assembles a node's input map from the stored outputs of
// its upstream nodes, keyed by input port. Fan-in merges in upstream
// completion order, which equals wire insertion order here. A source
// node (no incoming wires) receives the run's sample input.
func (r *Run) gatherInputs(node *runNode) map[string]any {
	if len(node.incoming) == 0 {
		if r.input == nil {
			return map[string]any{}
		}
		inputs := make(map[string]any, len(r.input))
		for k, v := range r.input {
			inputs[k] = v
		}
		return inputs
	}
	inputs := make(map[string]any, len(node.incoming))
	for _, w := range node.incoming {
		upstream, ok := r.outputs[w.FromNode]
		if !ok {
			continue // upstream errored or skipped; leave the port unset
		}
		if v, ok := upstream[w.FromPort]; ok {
			inputs[w.ToPort] = v
		}
	}
	return inputs
}

// skipDownstream marks every node forward-reachable from the failed
// node as skipped. Nodes not reachable from it keep executing.
func (r *Run) skipDownstream(ctx context.Context, failed *runNode) {
	stack := append([]string(nil), failed.downstream...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if r.states[id] != StateIdle {
			continue
		}
		r.setState(ctx, id, StateSkipped)
		r.skipped = true
		stack = append(stack, r.byID[id].downstream...)
	}
}

// cancelRemaining marks every not-yet-processed node skipped and
// appends their trace entries, in order.
func (r *Run) cancelRemaining(ctx context.Context) {
	for ; r.next < len(r.order); r.next++ {
		node := r.order[r.next]
		if r.states[node.id] == StateIdle {
			r.setState(ctx, node.id, StateSkipped)
		}
		r.skipped = true
		r.trace = append(r.trace, TraceEntry{
			NodeID: node.id, NodeName: node.name,
			State: StateSkipped, Status: StateSkipped.String(),
		})
	}
}

// finalize computes the Result exactly once.
func (r *Run) finalize(ctx context.Context) {
	if r.finished {
		return
	}
	r.finished = true

	final := make(map[string]map[string]any)
	if !r.stopped {
		for _, node := range r.order {
			if node.terminal && r.states[node.id] == StateCompleted {
				final[node.id] = r.outputs[node.id]
			}
		}
	}

	err := r.firstErr
	if r.stopped && err == nil {
		err = flowerrors.New(flowerrors.ErrCodeExecutionStopped, "execution stopped before completion")
	}

	r.result = &Result{
		Success:       !r.faulted && !r.skipped && !r.stopped,
		FinalOutput:   final,
		TotalDuration: time.Since(r.started),
		Trace:         r.trace,
		Err:           err,
	}
	observability.Execution().OnRunComplete(ctx, r.document, r.result.Success, r.result.TotalDuration, err)
}

// Result returns the run outcome, finalizing first if every node has
// been processed. Calling Result before the run finished finalizes it
// as if stopped.
func (r *Run) Result() *Result {
	if !r.finished {
		r.stopped = true
		r.cancelRemaining(context.Background())
		r.finalize(context.Background())
	}
	return r.result
}

// setState transitions one node and fires the observer synchronously.
func (r *Run) setState(ctx context.Context, nodeID string, s State) {
	r.states[nodeID] = s
	observability.Execution().OnNodeStateChange(ctx, nodeID, s.String())
	if r.opts.OnStateChange != nil {
		r.opts.OnStateChange(nodeID, s)
	}
}
