package queryir

// TransformChildren rebuilds a node with each direct child replaced by
// fn(child), visiting children in declared order. The input node is never
// mutated; when no child changes, the original node is returned unchanged
// so shared subtrees keep their identity.
func TransformChildren(n Node, fn func(Node) Node) Node {
	switch node := n.(type) {
	case *Literal, *ConstBool, *ConstInt, *Null, *RuntimeError, *Variable, *Entities:
		return n

	case *Object:
		props := make([]ObjectProperty, len(node.Properties))
		changed := false
		for i, p := range node.Properties {
			v := fn(p.Value)
			props[i] = ObjectProperty{Key: p.Key, Value: v}
			changed = changed || v != p.Value
		}
		if !changed {
			return n
		}
		return &Object{Properties: props}

	case *List:
		items, changed := transformSlice(node.Items, fn)
		if !changed {
			return n
		}
		return &List{Items: items}

	case *MergeObjects:
		objects, changed := transformSlice(node.Objects, fn)
		if !changed {
			return n
		}
		return &MergeObjects{Objects: objects}

	case *ConcatLists:
		lists, changed := transformSlice(node.Lists, fn)
		if !changed {
			return n
		}
		return &ConcatLists{Lists: lists}

	case *FirstOfList:
		list := fn(node.List)
		if list == node.List {
			return n
		}
		return &FirstOfList{List: list}

	case *SafeList:
		list := fn(node.List)
		if list == node.List {
			return n
		}
		return &SafeList{List: list}

	case *VariableAssignment:
		value, result := fn(node.Value), fn(node.Result)
		if value == node.Value && result == node.Result {
			return n
		}
		return &VariableAssignment{Variable: node.Variable, Value: value, Result: result}

	case *WithPreExecution:
		steps := make([]PreExecStep, len(node.Steps))
		changed := false
		for i, step := range node.Steps {
			q := fn(step.Query)
			steps[i] = PreExecStep{Query: q, ResultVariable: step.ResultVariable, ResultValidator: step.ResultValidator}
			changed = changed || q != step.Query
		}
		result := fn(node.Result)
		if !changed && result == node.Result {
			return n
		}
		return &WithPreExecution{Steps: steps, Result: result}

	case *Field:
		object := fn(node.Object)
		if object == node.Object {
			return n
		}
		return &Field{Object: object, Name: node.Name, Path: node.Path}

	case *RootEntityID:
		object := fn(node.Object)
		if object == node.Object {
			return n
		}
		return &RootEntityID{Object: object}

	case *EntityFromID:
		id := fn(node.ID)
		if id == node.ID {
			return n
		}
		return &EntityFromID{Type: node.Type, ID: id}

	case *FollowEdge:
		source := fn(node.Source)
		if source == node.Source {
			return n
		}
		return &FollowEdge{Side: node.Side, Source: source}

	case *TransformList:
		out := *node
		changed := false
		out.List = fn(node.List)
		changed = changed || out.List != node.List
		if node.Filter != nil {
			out.Filter = fn(node.Filter)
			changed = changed || out.Filter != node.Filter
		}
		if len(node.OrderBy) > 0 {
			orderBy := make([]OrderClause, len(node.OrderBy))
			for i, c := range node.OrderBy {
				e := fn(c.Expression)
				orderBy[i] = OrderClause{Expression: e, Descending: c.Descending}
				changed = changed || e != c.Expression
			}
			out.OrderBy = orderBy
		}
		out.Inner = fn(node.Inner)
		changed = changed || out.Inner != node.Inner
		if !changed {
			return n
		}
		return &out

	case *Count:
		list := fn(node.List)
		if list == node.List {
			return n
		}
		return &Count{List: list}

	case *BinaryOp:
		lhs, rhs := fn(node.LHS), fn(node.RHS)
		if lhs == node.LHS && rhs == node.RHS {
			return n
		}
		return &BinaryOp{Op: node.Op, LHS: lhs, RHS: rhs}

	case *UnaryOp:
		value := fn(node.Value)
		if value == node.Value {
			return n
		}
		return &UnaryOp{Op: node.Op, Value: value}

	case *Conditional:
		cond, then, els := fn(node.Condition), fn(node.Then), fn(node.Else)
		if cond == node.Condition && then == node.Then && els == node.Else {
			return n
		}
		return &Conditional{Condition: cond, Then: then, Else: els}

	case *TypeCheck:
		value := fn(node.Value)
		if value == node.Value {
			return n
		}
		return &TypeCheck{Value: value, Type: node.Type}

	case *OperatorWithLanguage:
		lhs, rhs := fn(node.LHS), fn(node.RHS)
		if lhs == node.LHS && rhs == node.RHS {
			return n
		}
		return &OperatorWithLanguage{Op: node.Op, LHS: lhs, RHS: rhs, Language: node.Language}

	case *QuantifierFilter:
		list, cond := fn(node.List), fn(node.Condition)
		if list == node.List && cond == node.Condition {
			return n
		}
		return &QuantifierFilter{Quantifier: node.Quantifier, List: list, ItemVariable: node.ItemVariable, Condition: cond}

	case *QuickSearch:
		filter := fn(node.Filter)
		if filter == node.Filter {
			return n
		}
		return &QuickSearch{Type: node.Type, ItemVariable: node.ItemVariable, Filter: filter}

	case *CreateEntity:
		object := fn(node.Object)
		if object == node.Object {
			return n
		}
		return &CreateEntity{Type: node.Type, Object: object}

	case *UpdateEntities:
		list := fn(node.List)
		updates := make([]PropertyUpdate, len(node.Updates))
		changed := list != node.List
		for i, u := range node.Updates {
			v := fn(u.Value)
			updates[i] = PropertyUpdate{Key: u.Key, Value: v}
			changed = changed || v != u.Value
		}
		if !changed {
			return n
		}
		return &UpdateEntities{Type: node.Type, List: list, CurrentVariable: node.CurrentVariable, Updates: updates}

	case *DeleteEntities:
		list := fn(node.List)
		if list == node.List {
			return n
		}
		return &DeleteEntities{Type: node.Type, List: list}

	case *AddEdges:
		edges, changed := transformEdges(node.Edges, fn)
		if !changed {
			return n
		}
		return &AddEdges{Relation: node.Relation, Edges: edges}

	case *RemoveEdges:
		filter, changed := transformEdgeFilter(node.Filter, fn)
		if !changed {
			return n
		}
		return &RemoveEdges{Relation: node.Relation, Filter: filter}

	case *SetEdge:
		existing, filterChanged := transformEdgeFilter(node.Existing, fn)
		from, to := fn(node.New.From), fn(node.New.To)
		if !filterChanged && from == node.New.From && to == node.New.To {
			return n
		}
		return &SetEdge{Relation: node.Relation, Existing: existing, New: Edge{From: from, To: to}}

	default:
		return n
	}
}

func transformSlice(nodes []Node, fn func(Node) Node) ([]Node, bool) {
	out := make([]Node, len(nodes))
	changed := false
	for i, n := range nodes {
		out[i] = fn(n)
		changed = changed || out[i] != n
	}
	return out, changed
}

func transformEdges(edges []Edge, fn func(Node) Node) ([]Edge, bool) {
	out := make([]Edge, len(edges))
	changed := false
	for i, e := range edges {
		from, to := fn(e.From), fn(e.To)
		out[i] = Edge{From: from, To: to}
		changed = changed || from != e.From || to != e.To
	}
	return out, changed
}

func transformEdgeFilter(f EdgeFilter, fn func(Node) Node) (EdgeFilter, bool) {
	changed := false
	var from, to []Node
	if f.From != nil {
		from, changed = transformSlice(f.From, fn)
	}
	if f.To != nil {
		var toChanged bool
		to, toChanged = transformSlice(f.To, fn)
		changed = changed || toChanged
	}
	return EdgeFilter{From: from, To: to}, changed
}

// Transform applies fn to every node of the tree bottom-up and returns
// the rebuilt root.
func Transform(n Node, fn func(Node) Node) Node {
	rebuilt := TransformChildren(n, func(child Node) Node {
		return Transform(child, fn)
	})
	return fn(rebuilt)
}

// Walk visits n and its descendants pre-order. Returning false from visit
// prunes the subtree below the current node.
func Walk(n Node, visit func(Node) bool) {
	if !visit(n) {
		return
	}
	TransformChildren(n, func(child Node) Node {
		Walk(child, visit)
		return child
	})
}

// ReferencesVariable reports whether v occurs anywhere in the tree.
func ReferencesVariable(n Node, v *Variable) bool {
	found := false
	Walk(n, func(node Node) bool {
		if node == Node(v) {
			found = true
		}
		return !found
	})
	return found
}

// SubstituteVariable replaces every reference to v with replacement.
func SubstituteVariable(n Node, v *Variable, replacement Node) Node {
	return Transform(n, func(node Node) Node {
		if node == Node(v) {
			return replacement
		}
		return node
	})
}
