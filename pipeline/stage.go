package pipeline

import (
	"context"
	"fmt"

	"github.com/freemocap/skellysubs/errors"
)

// Status is the lifecycle state of a stage.
type Status string

const (
	// StatusIdle means at least one required artifact is missing.
	StatusIdle Status = "idle"
	// StatusReady means all required artifacts are present and the stage can run.
	StatusReady Status = "ready"
	// StatusProcessing means the stage's processor is executing.
	StatusProcessing Status = "processing"
	// StatusCompleted means the last run succeeded and the produced artifact is stored.
	StatusCompleted Status = "completed"
	// StatusFailed means the last run failed; the failure reason is recorded on the stage.
	StatusFailed Status = "failed"
)

// Descriptor declares a stage's identity and data dependencies.
// It is fixed at registration and never mutated.
type Descriptor struct {
	// Name is the unique stage identifier.
	Name string
	// Requires lists the artifact keys that must be present before the stage runs.
	Requires []string
	// Produces is the single artifact key written on successful completion.
	Produces string
}

// Processor executes a stage's work. It receives the run's opaque input and
// a read-only view of the artifact store, and returns the produced artifact
// value. It must not write to state; the engine commits the result.
type Processor interface {
	Process(ctx context.Context, input any, artifacts *State) (any, error)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, input any, artifacts *State) (any, error)

func (f ProcessorFunc) Process(ctx context.Context, input any, artifacts *State) (any, error) {
	return f(ctx, input, artifacts)
}

// Stage pairs a descriptor with its processor and input check.
type Stage struct {
	descriptor Descriptor
	processor  Processor
	checkInput func(any) error
}

// Descriptor returns the stage's declaration.
func (s *Stage) Descriptor() Descriptor { return s.descriptor }

// Name returns the stage name.
func (s *Stage) Name() string { return s.descriptor.Name }

// CheckInput validates a run input against the stage's expected input type.
func (s *Stage) CheckInput(input any) error {
	if s.checkInput == nil {
		return nil
	}
	return s.checkInput(input)
}

// Use wraps the stage's processor with middleware, outermost last.
func (s *Stage) Use(mw ...Middleware) *Stage {
	for _, m := range mw {
		s.processor = m(s.descriptor.Name, s.processor)
	}
	return s
}

// StageConfig configures a typed stage. The processor receives the run input
// asserted to I and returns the produced artifact value of type O.
type StageConfig[I, O any] struct {
	// Name is the unique stage identifier.
	Name string
	// Requires lists required artifact keys.
	Requires []string
	// Produces is the artifact key written on success.
	Produces string
	// Process executes the stage's work.
	Process func(ctx context.Context, input I, artifacts *State) (O, error)
}

// NewStage builds a Stage from a typed config. A run input that is not an I
// is rejected synchronously as invalid input, before the processor starts.
func NewStage[I, O any](cfg StageConfig[I, O]) *Stage {
	return &Stage{
		descriptor: Descriptor{
			Name:     cfg.Name,
			Requires: cfg.Requires,
			Produces: cfg.Produces,
		},
		checkInput: func(input any) error {
			if _, ok := input.(I); !ok {
				var want I
				return errors.InvalidInput("input", fmt.Sprintf("stage %q expects %T, got %T", cfg.Name, want, input))
			}
			return nil
		},
		processor: ProcessorFunc(func(ctx context.Context, input any, artifacts *State) (any, error) {
			typed, ok := input.(I)
			if !ok {
				var want I
				return nil, errors.InvalidInput("input", fmt.Sprintf("stage %q expects %T, got %T", cfg.Name, want, input))
			}
			return cfg.Process(ctx, typed, artifacts)
		}),
	}
}
