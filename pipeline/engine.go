package pipeline

import (
	"context"
	"time"

	"github.com/freemocap/skellysubs/errors"
	"github.com/freemocap/skellysubs/logger"
)

// StageEvent describes a stage status change. Events are delivered to
// listeners synchronously under the engine's commit lock, in commit order.
type StageEvent struct {
	Stage     string    `json:"stage"`
	Status    Status    `json:"status"`
	Artifact  string    `json:"artifact,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Listener receives stage events. It must not call back into the engine.
type Listener func(StageEvent)

// StageStatus is a point-in-time snapshot of one stage.
type StageStatus struct {
	Name     string   `json:"name"`
	Status   Status   `json:"status"`
	Error    string   `json:"error,omitempty"`
	Requires []string `json:"requires,omitempty"`
	Produces string   `json:"produces"`
	Missing  []string `json:"missing,omitempty"`
}

// Engine owns the artifact store and drives the per-stage status machine.
// Artifacts are written only through stage completion or PutArtifact; a
// failed run never touches the store.
type Engine struct {
	registry  *Registry
	state     *State
	log       *logger.Logger
	mu        chan struct{} // commit lock; chan-based so goroutines can't re-enter
	statuses  map[string]Status
	failures  map[string]string
	listeners []Listener
}

// NewEngine validates the registry and initializes every stage to Ready if it
// has no requirements, Idle otherwise. External artifact keys (written via
// PutArtifact rather than produced by a stage) must be declared up front.
func NewEngine(registry *Registry, log *logger.Logger, external ...string) (*Engine, error) {
	if err := registry.Validate(external...); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewDefault()
	}

	e := &Engine{
		registry: registry,
		state:    NewState(),
		log:      log.WithComponent("pipeline"),
		mu:       make(chan struct{}, 1),
		statuses: make(map[string]Status),
		failures: make(map[string]string),
	}

	for _, d := range registry.Descriptors() {
		if len(d.Requires) == 0 {
			e.statuses[d.Name] = StatusReady
		} else {
			e.statuses[d.Name] = StatusIdle
		}
	}
	return e, nil
}

// Subscribe registers a listener for stage events. Not safe to call
// concurrently with RunStage; wire listeners during startup.
func (e *Engine) Subscribe(fn Listener) {
	e.listeners = append(e.listeners, fn)
}

// Artifacts exposes the artifact store.
func (e *Engine) Artifacts() *State {
	return e.state
}

// Close releases all stored artifacts.
func (e *Engine) Close() {
	e.state.Close()
}

// RunStage validates and executes a stage, blocking until its processor
// finishes. Validation failures (unknown stage, missing requirements, stage
// already processing, wrong input type) return before the processor starts
// and leave all state unchanged. A processor failure is recorded on the
// stage and returned; the artifact store is never partially written.
func (e *Engine) RunStage(ctx context.Context, name string, input any) error {
	stage, ok := e.registry.Get(name)
	if !ok {
		return errors.NotFound("stage", name)
	}

	if err := e.beginRun(stage, input); err != nil {
		return err
	}

	start := time.Now()
	output, err := stage.processor.Process(ctx, input, e.state)
	if err != nil {
		appErr := errors.ProcessorFailure(name, err)
		e.commitFailure(stage, appErr)
		e.log.Error("stage failed", logger.Fields(
			logger.FieldStage, name,
			logger.FieldDuration, time.Since(start).String(),
			logger.FieldError, err.Error(),
		))
		return appErr
	}

	e.commitSuccess(stage, output)
	e.log.Info("stage completed", logger.Fields(
		logger.FieldStage, name,
		logger.FieldArtifact, stage.Descriptor().Produces,
		logger.FieldDuration, time.Since(start).String(),
	))
	return nil
}

// PutArtifact stores an externally supplied artifact (such as the uploaded
// media file) and recomputes stage readiness.
func (e *Engine) PutArtifact(key string, value any) {
	e.lock()
	defer e.unlock()

	e.state.Set(key, value)
	e.recomputeLocked()
}

// StageStatuses returns a snapshot of every stage in registration order.
func (e *Engine) StageStatuses() []StageStatus {
	e.lock()
	defer e.unlock()

	out := make([]StageStatus, 0, len(e.registry.order))
	for _, d := range e.registry.Descriptors() {
		out = append(out, StageStatus{
			Name:     d.Name,
			Status:   e.statuses[d.Name],
			Error:    e.failures[d.Name],
			Requires: d.Requires,
			Produces: d.Produces,
			Missing:  e.missingLocked(d),
		})
	}
	return out
}

// StageStatusByName returns the snapshot for one stage.
func (e *Engine) StageStatusByName(name string) (StageStatus, error) {
	stage, ok := e.registry.Get(name)
	if !ok {
		return StageStatus{}, errors.NotFound("stage", name)
	}

	e.lock()
	defer e.unlock()

	d := stage.Descriptor()
	return StageStatus{
		Name:     d.Name,
		Status:   e.statuses[d.Name],
		Error:    e.failures[d.Name],
		Requires: d.Requires,
		Produces: d.Produces,
		Missing:  e.missingLocked(d),
	}, nil
}

// beginRun performs the synchronous validation phase and moves the stage to
// Processing. Requirements are re-validated here rather than trusted from
// the Ready flag, to protect against stale callers.
func (e *Engine) beginRun(stage *Stage, input any) error {
	e.lock()
	defer e.unlock()

	d := stage.Descriptor()
	if e.statuses[d.Name] == StatusProcessing {
		return errors.StageConflict(d.Name)
	}
	if missing := e.missingLocked(d); len(missing) > 0 {
		return errors.MissingRequirements(d.Name, missing)
	}
	if err := stage.CheckInput(input); err != nil {
		return err
	}

	e.statuses[d.Name] = StatusProcessing
	delete(e.failures, d.Name)
	e.emitLocked(StageEvent{Stage: d.Name, Status: StatusProcessing, Timestamp: time.Now()})
	return nil
}

// commitSuccess writes the produced artifact, marks the stage Completed, and
// promotes any newly satisfied stages, all in one commit.
func (e *Engine) commitSuccess(stage *Stage, output any) {
	e.lock()
	defer e.unlock()

	d := stage.Descriptor()
	e.state.Set(d.Produces, output)
	e.statuses[d.Name] = StatusCompleted
	e.emitLocked(StageEvent{Stage: d.Name, Status: StatusCompleted, Artifact: d.Produces, Timestamp: time.Now()})
	e.recomputeLocked()
}

// commitFailure records the failure reason on the stage. The artifact store
// is untouched.
func (e *Engine) commitFailure(stage *Stage, cause error) {
	e.lock()
	defer e.unlock()

	name := stage.Descriptor().Name
	e.statuses[name] = StatusFailed
	e.failures[name] = cause.Error()
	e.emitLocked(StageEvent{Stage: name, Status: StatusFailed, Error: cause.Error(), Timestamp: time.Now()})
}

// recomputeLocked re-evaluates readiness for every stage and emits events
// for promotions. Must be called with the commit lock held.
func (e *Engine) recomputeLocked() {
	next := ComputeReadiness(e.registry.Descriptors(), e.state.Has, e.statuses)
	for _, d := range e.registry.Descriptors() {
		if next[d.Name] != e.statuses[d.Name] {
			e.statuses[d.Name] = next[d.Name]
			e.emitLocked(StageEvent{Stage: d.Name, Status: next[d.Name], Timestamp: time.Now()})
		}
	}
}

func (e *Engine) missingLocked(d Descriptor) []string {
	var missing []string
	for _, req := range d.Requires {
		if !e.state.Has(req) {
			missing = append(missing, req)
		}
	}
	return missing
}

func (e *Engine) emitLocked(ev StageEvent) {
	for _, fn := range e.listeners {
		fn(ev)
	}
}

func (e *Engine) lock()   { e.mu <- struct{}{} }
func (e *Engine) unlock() { <-e.mu }

// ComputeReadiness is the pure readiness function: given the stage
// descriptors, artifact presence, and current statuses, it returns the next
// status for every stage. Only Idle and Ready stages move; Processing,
// Completed, and Failed are preserved. Every stage is re-evaluated on every
// call so multi-stage unlocking cascades within a single artifact write.
func ComputeReadiness(descriptors []Descriptor, has func(key string) bool, current map[string]Status) map[string]Status {
	next := make(map[string]Status, len(descriptors))
	for _, d := range descriptors {
		cur := current[d.Name]
		switch cur {
		case StatusProcessing, StatusCompleted, StatusFailed:
			next[d.Name] = cur
			continue
		}

		satisfied := true
		for _, req := range d.Requires {
			if !has(req) {
				satisfied = false
				break
			}
		}
		if satisfied {
			next[d.Name] = StatusReady
		} else {
			next[d.Name] = StatusIdle
		}
	}
	return next
}
