package queryaql

import (
	"context"

	"github.com/quilldb/quill/internal/aql"
	"github.com/quilldb/quill/internal/queryir"
)

// Compile lowers a query IR tree to a compound query.
//
// The context is polled between pre-execution queries; cancellation
// discards all partial output. Compilation itself is synchronous and
// never suspends on I/O.
func Compile(ctx context.Context, root queryir.Node, opts Options) (*CompoundQuery, error) {
	if root == nil {
		return nil, compileErrorf(ErrCodeMalformedIR, nil, "cannot compile nil query")
	}

	c := newCompileContext(opts)
	frag, err := lowerStatement(ctx, root, c)
	if err != nil {
		return nil, err
	}

	main := aql.Serialize(frag)
	read, write := collectAccess(*c.preExec, main)

	return &CompoundQuery{
		PreExec:          *c.preExec,
		Main:             main,
		ResultBinding:    c.namer.ResultVariable("result").Name(),
		ReadCollections:  read,
		WriteCollections: write,
	}, nil
}

// lowerStatement lowers a node in statement position: mutations emit
// their native statement form, everything else is hoisted and wrapped in
// RETURN.
func lowerStatement(ctx context.Context, node queryir.Node, c *compileContext) (*aql.Fragment, error) {
	switch node.(type) {
	case *queryir.CreateEntity, *queryir.UpdateEntities, *queryir.DeleteEntities,
		*queryir.AddEdges, *queryir.RemoveEdges, *queryir.SetEdge:
		return lowerMutation(ctx, node, c)
	}

	// Hoist assignments that sit directly on the returned expression into
	// LET statements, sparing the engine a FIRST(LET ...) wrapper per
	// value.
	rewritten, assignments := queryir.ExtractVariableAssignments(node)
	lets, c, err := lowerAssignments(ctx, assignments, c)
	if err != nil {
		return nil, err
	}

	expr, err := lowerExpr(ctx, rewritten, c)
	if err != nil {
		return nil, err
	}
	lets = append(lets, aql.Concat(aql.Code("RETURN "), expr))
	return aql.Lines(lets...), nil
}

// lowerAssignments emits one LET line per hoisted assignment, extending
// the scope left to right so later values see earlier variables.
func lowerAssignments(ctx context.Context, assignments []*queryir.VariableAssignment, c *compileContext) ([]*aql.Fragment, *compileContext, error) {
	var lines []*aql.Fragment
	for _, a := range assignments {
		value, err := lowerExpr(ctx, a.Value, c)
		if err != nil {
			return nil, nil, err
		}
		next, fragVar, err := c.introduceVariable(a.Variable)
		if err != nil {
			return nil, nil, err
		}
		lines = append(lines, aql.Concat(aql.Code("LET "), aql.Var(fragVar), aql.Code(" = "), value))
		c = next
	}
	return lines, c, nil
}
