package storefront

import (
	"context"

	"go.uber.org/zap"
)

// Step is one named unit of the login sequence.
type Step struct {
	Name string
	Run  func(ctx context.Context) (any, error)
}

// PipelineResult holds step outputs in execution order.
type PipelineResult struct {
	names   []string
	outputs map[string]any
}

func newPipelineResult() *PipelineResult {
	return &PipelineResult{outputs: make(map[string]any)}
}

func (r *PipelineResult) record(name string, out any) {
	if _, seen := r.outputs[name]; !seen {
		r.names = append(r.names, name)
	}
	r.outputs[name] = out
}

// Get returns the output of the named step.
func (r *PipelineResult) Get(name string) (any, bool) {
	out, ok := r.outputs[name]
	return out, ok
}

// Steps lists the steps that completed, in order.
func (r *PipelineResult) Steps() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Pipeline runs steps strictly in sequence and stops at the first failure.
type Pipeline struct {
	steps    []Step
	logger   *zap.Logger
	progress func(string)
}

// NewPipeline creates a pipeline over steps.
func NewPipeline(logger *zap.Logger, progress func(string), steps ...Step) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if progress == nil {
		progress = func(string) {}
	}
	return &Pipeline{steps: steps, logger: logger, progress: progress}
}

// Run executes every step in order. On failure the partial result is
// returned together with a *StepError for the failing step; later steps
// never run.
func (p *Pipeline) Run(ctx context.Context) (*PipelineResult, error) {
	result := newPipelineResult()
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return result, &StepError{Step: step.Name, Err: err}
		}
		p.progress("Running " + step.Name)
		out, err := step.Run(ctx)
		if err != nil {
			p.logger.Debug("step failed", zap.String("step", step.Name), zap.Error(err))
			p.progress("FAILED " + step.Name + ": " + err.Error())
			return result, &StepError{Step: step.Name, Err: err}
		}
		result.record(step.Name, out)
	}
	return result, nil
}

// discard wraps a step so that neither its output nor its error matter.
// The portal only needs the request to have happened.
func discard(step Step, logger *zap.Logger) Step {
	return Step{
		Name: step.Name,
		Run: func(ctx context.Context) (any, error) {
			if _, err := step.Run(ctx); err != nil {
				logger.Debug("ignoring probe failure", zap.String("step", step.Name), zap.Error(err))
			}
			return nil, nil
		},
	}
}
