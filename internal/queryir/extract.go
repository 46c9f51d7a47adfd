package queryir

// ExtractVariableAssignments lifts VariableAssignment nodes reachable from
// the root along direct value edges, replacing each by its result node.
// The lifted assignments are returned in evaluation order so the caller
// can turn them into LET statements of the enclosing scope.
//
// Direct value edges are the edges that neither cross a list or function
// boundary nor change how often the child evaluates: the assignment's own
// value and result, object property values, and merge operands. An assignment below
// any other edge (a projection body, a conditional branch, a short-circuit
// operand) stays in place - lifting it would alter its evaluation count or
// let it escape the scope that owns its variable.
func ExtractVariableAssignments(n Node) (Node, []*VariableAssignment) {
	var assignments []*VariableAssignment
	rewritten := extractAssignments(n, &assignments)
	return rewritten, assignments
}

func extractAssignments(n Node, out *[]*VariableAssignment) Node {
	switch node := n.(type) {
	case *VariableAssignment:
		value := extractAssignments(node.Value, out)
		*out = append(*out, &VariableAssignment{Variable: node.Variable, Value: value, Result: nil})
		return extractAssignments(node.Result, out)

	case *Object:
		props := make([]ObjectProperty, len(node.Properties))
		changed := false
		for i, p := range node.Properties {
			v := extractAssignments(p.Value, out)
			props[i] = ObjectProperty{Key: p.Key, Value: v}
			changed = changed || v != p.Value
		}
		if !changed {
			return n
		}
		return &Object{Properties: props}

	case *MergeObjects:
		objects := make([]Node, len(node.Objects))
		changed := false
		for i, o := range node.Objects {
			objects[i] = extractAssignments(o, out)
			changed = changed || objects[i] != o
		}
		if !changed {
			return n
		}
		return &MergeObjects{Objects: objects}

	default:
		return n
	}
}
