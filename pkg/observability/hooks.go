// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register
// hooks at startup to receive events about document edits, pipeline
// execution, and store operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, which avoids import
// cycles and keeps the core packages free of observability frameworks.
//
// # Usage
//
//	func main() {
//	    observability.SetExecutionHooks(&myExecHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Execution().OnRunStart(ctx, docName, nodeCount)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Document Hooks
// =============================================================================

// DocumentHooks receives events from document edit operations.
type DocumentHooks interface {
	// OnOperation records one recorded edit operation.
	OnOperation(ctx context.Context, opType, elementID string)

	// OnUndo records an undo, with the reversed operation's description.
	OnUndo(ctx context.Context, description string)

	// OnRedo records a redo, with the replayed operation's description.
	OnRedo(ctx context.Context, description string)
}

// =============================================================================
// Execution Hooks
// =============================================================================

// ExecutionHooks receives events from pipeline execution runs.
type ExecutionHooks interface {
	// OnRunStart fires once when a run begins.
	OnRunStart(ctx context.Context, document string, nodeCount int)

	// OnNodeStateChange fires synchronously on every node state transition.
	OnNodeStateChange(ctx context.Context, nodeID, state string)

	// OnRunComplete fires once when a run finalizes.
	OnRunComplete(ctx context.Context, document string, success bool, duration time.Duration, err error)
}

// =============================================================================
// Store Hooks
// =============================================================================

// StoreHooks receives events from document store operations.
type StoreHooks interface {
	// OnSave records a document save.
	OnSave(ctx context.Context, backend, id string)

	// OnLoad records a document load.
	OnLoad(ctx context.Context, backend, id string)

	// OnSnapshot records a snapshot save or restore.
	OnSnapshot(ctx context.Context, backend, id, action string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopDocumentHooks is a no-op implementation of DocumentHooks.
type NoopDocumentHooks struct{}

func (NoopDocumentHooks) OnOperation(context.Context, string, string) {}
func (NoopDocumentHooks) OnUndo(context.Context, string)              {}
func (NoopDocumentHooks) OnRedo(context.Context, string)              {}

// NoopExecutionHooks is a no-op implementation of ExecutionHooks.
type NoopExecutionHooks struct{}

func (NoopExecutionHooks) OnRunStart(context.Context, string, int)                           {}
func (NoopExecutionHooks) OnNodeStateChange(context.Context, string, string)                 {}
func (NoopExecutionHooks) OnRunComplete(context.Context, string, bool, time.Duration, error) {}

// NoopStoreHooks is a no-op implementation of StoreHooks.
type NoopStoreHooks struct{}

func (NoopStoreHooks) OnSave(context.Context, string, string)             {}
func (NoopStoreHooks) OnLoad(context.Context, string, string)             {}
func (NoopStoreHooks) OnSnapshot(context.Context, string, string, string) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	documentHooks  DocumentHooks  = NoopDocumentHooks{}
	executionHooks ExecutionHooks = NoopExecutionHooks{}
	storeHooks     StoreHooks     = NoopStoreHooks{}
	hooksMu        sync.RWMutex
)

// SetDocumentHooks registers custom document hooks.
// This should be called once at application startup.
func SetDocumentHooks(h DocumentHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		documentHooks = h
	}
}

// SetExecutionHooks registers custom execution hooks.
// This should be called once at application startup.
func SetExecutionHooks(h ExecutionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		executionHooks = h
	}
}

// SetStoreHooks registers custom store hooks.
// This should be called once at application startup.
func SetStoreHooks(h StoreHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		storeHooks = h
	}
}

// Document returns the registered document hooks.
func Document() DocumentHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return documentHooks
}

// Execution returns the registered execution hooks.
func Execution() ExecutionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return executionHooks
}

// Store returns the registered store hooks.
func Store() StoreHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return storeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	documentHooks = NoopDocumentHooks{}
	executionHooks = NoopExecutionHooks{}
	storeHooks = NoopStoreHooks{}
}
