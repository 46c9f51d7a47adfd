package queryaql

import (
	"context"

	"github.com/quilldb/quill/internal/aql"
	"github.com/quilldb/quill/internal/queryir"
)

// Options tunes the compilation.
type Options struct {
	// ProjectionIndirection enables the projection-indirection rewrite for
	// the named root entity types. The rewrite defers document
	// materialization until after LIMIT and SORT, trading an extra
	// DOCUMENT lookup for lower peak memory in the engine.
	ProjectionIndirection map[string]bool
}

// compileContext carries the scope and the shared compound-query state of
// one compilation. Scope extension clones the context, so a handler can
// never observe its sibling's variables; the pre-execution queue and the
// namer are shared by pointer along the whole call chain.
type compileContext struct {
	namer *aql.Namer

	// vars maps IR variables to their fragment variables. Append-only
	// within a scope; cloned on introduction.
	vars map[*queryir.Variable]*aql.Variable

	// resultVars maps IR variables to cross-query result bindings. These
	// survive into pre-execution contexts; transient vars do not.
	resultVars map[*queryir.Variable]*aql.ResultVariable

	// preExec is the compound query's pre-execution queue, shared across
	// all contexts of the compilation.
	preExec *[]PreExecQuery

	opts Options
}

func newCompileContext(opts Options) *compileContext {
	return &compileContext{
		namer:      aql.NewNamer(),
		vars:       make(map[*queryir.Variable]*aql.Variable),
		resultVars: make(map[*queryir.Variable]*aql.ResultVariable),
		preExec:    &[]PreExecQuery{},
		opts:       opts,
	}
}

// introduceVariable clones the context with a fresh fragment variable for
// v. Introducing the same identity twice is a compiler bug surfaced as
// DoubleIntroduction.
func (c *compileContext) introduceVariable(v *queryir.Variable) (*compileContext, *aql.Variable, error) {
	if _, exists := c.vars[v]; exists {
		return nil, nil, compileErrorf(ErrCodeDoubleIntroduction, v, "variable %s introduced twice", v)
	}
	if _, exists := c.resultVars[v]; exists {
		return nil, nil, compileErrorf(ErrCodeDoubleIntroduction, v, "variable %s shadows a query result binding", v)
	}
	clone := c.cloneVars()
	fragVar := c.namer.Variable(v.Label())
	clone.vars[v] = fragVar
	return clone, fragVar, nil
}

// resolveVariable returns the fragment for a variable reference:
// a transient variable of the current query, or a result binding of an
// earlier pre-execution query.
func (c *compileContext) resolveVariable(v *queryir.Variable) (*aql.Fragment, error) {
	if fragVar, ok := c.vars[v]; ok {
		return aql.Var(fragVar), nil
	}
	if resultVar, ok := c.resultVars[v]; ok {
		return aql.ResultVar(resultVar), nil
	}
	return nil, compileErrorf(ErrCodeUnboundVariable, v, "variable %s used but not introduced", v)
}

// addPreExecuteQuery compiles a query node in a fresh pre-execution
// context, appends it to the queue, and returns a context extended with
// the step's result binding when one is declared.
func (c *compileContext) addPreExecuteQuery(ctx context.Context, step queryir.PreExecStep) (*compileContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frag, err := lowerStatement(ctx, step.Query, c.newPreExecContext())
	if err != nil {
		return nil, err
	}

	query := PreExecQuery{Query: aql.Serialize(frag), Validator: step.ResultValidator}

	next := c
	if step.ResultVariable != nil {
		if _, exists := c.vars[step.ResultVariable]; exists {
			return nil, compileErrorf(ErrCodeDoubleIntroduction, step.ResultVariable, "result variable %s already introduced", step.ResultVariable)
		}
		if _, exists := c.resultVars[step.ResultVariable]; exists {
			return nil, compileErrorf(ErrCodeDoubleIntroduction, step.ResultVariable, "result variable %s already bound", step.ResultVariable)
		}
		resultVar := c.namer.ResultVariable(step.ResultVariable.Label())
		next = c.cloneVars()
		next.resultVars[step.ResultVariable] = resultVar
		query.ResultBinding = resultVar.Name()
	}

	*c.preExec = append(*c.preExec, query)
	return next, nil
}

// newPreExecContext hides the transient scope but keeps the result
// bindings of earlier pre-execution queries, the shared queue, and the
// namer.
func (c *compileContext) newPreExecContext() *compileContext {
	return &compileContext{
		namer:      c.namer,
		vars:       make(map[*queryir.Variable]*aql.Variable),
		resultVars: c.resultVars,
		preExec:    c.preExec,
		opts:       c.opts,
	}
}

// cloneVars copies the scope maps, sharing everything else.
func (c *compileContext) cloneVars() *compileContext {
	vars := make(map[*queryir.Variable]*aql.Variable, len(c.vars)+1)
	for k, v := range c.vars {
		vars[k] = v
	}
	resultVars := make(map[*queryir.Variable]*aql.ResultVariable, len(c.resultVars)+1)
	for k, v := range c.resultVars {
		resultVars[k] = v
	}
	return &compileContext{
		namer:      c.namer,
		vars:       vars,
		resultVars: resultVars,
		preExec:    c.preExec,
		opts:       c.opts,
	}
}
