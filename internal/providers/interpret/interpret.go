package interpret

import (
	"context"

	"mathviz/internal/domain/scenecfg"
)

// Interpreter converts natural language into scene parameters. Both methods
// return a scene-type-tagged parameter set that still has to pass
// scenecfg.Validate before a job is created.
type Interpreter interface {
	Interpret(ctx context.Context, description string) (*scenecfg.Params, error)
	InterpretEdit(ctx context.Context, original *scenecfg.Params, editDescription string) (*scenecfg.Params, error)
}
