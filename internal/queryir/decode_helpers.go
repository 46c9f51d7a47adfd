package queryir

import (
	"fmt"

	"github.com/quilldb/quill/internal/model"
)

func (d *decoder) child(obj map[string]any, key string) (Node, error) {
	raw, ok := obj[key]
	if !ok {
		return nil, fmt.Errorf("missing %q node", key)
	}
	node, err := d.node(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return node, nil
}

func (d *decoder) optionalChild(obj map[string]any, key string) (Node, error) {
	if _, ok := obj[key]; !ok {
		return nil, nil
	}
	return d.child(obj, key)
}

func (d *decoder) nodeList(raw any, what string) ([]Node, error) {
	rawList, _ := raw.([]any)
	nodes := make([]Node, 0, len(rawList))
	for i, item := range rawList {
		node, err := d.node(item)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", what, i, err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (d *decoder) entityType(obj map[string]any) (*model.RootEntityType, error) {
	name, _ := obj["type"].(string)
	t, ok := d.model.RootEntityType(name)
	if !ok {
		return nil, fmt.Errorf("unknown root entity type %q", name)
	}
	return t, nil
}

func (d *decoder) relation(obj map[string]any) (*model.Relation, error) {
	name, _ := obj["relation"].(string)
	rel, ok := d.model.Relation(name)
	if !ok {
		return nil, fmt.Errorf("unknown relation %q", name)
	}
	return rel, nil
}

func (d *decoder) relationSide(obj map[string]any) (model.RelationSide, error) {
	rel, err := d.relation(obj)
	if err != nil {
		return model.RelationSide{}, err
	}
	side, _ := obj["side"].(string)
	switch side {
	case "from", "":
		return model.RelationSide{Relation: rel, FromSide: true}, nil
	case "to":
		return model.RelationSide{Relation: rel, FromSide: false}, nil
	default:
		return model.RelationSide{}, fmt.Errorf("invalid relation side %q (want \"from\" or \"to\")", side)
	}
}

func (d *decoder) transformList(obj map[string]any) (Node, error) {
	list, err := d.child(obj, "list")
	if err != nil {
		return nil, err
	}

	itemVar, _ := obj["itemVar"].(string)
	if itemVar == "" {
		return nil, fmt.Errorf("transformList: missing itemVar")
	}

	t := TransformList{List: list}
	if rawSkip, ok := obj["skip"].(float64); ok {
		t.Skip = int64(rawSkip)
	}
	if rawMax, ok := obj["maxCount"].(float64); ok {
		maxCount := int64(rawMax)
		t.MaxCount = &maxCount
	}

	v, err := d.withVar(itemVar, func(*Variable) error {
		var innerErr error
		if t.Filter, innerErr = d.optionalChild(obj, "filter"); innerErr != nil {
			return innerErr
		}
		if rawOrder, ok := obj["orderBy"].([]any); ok {
			for i, rawClause := range rawOrder {
				clauseObj, ok := rawClause.(map[string]any)
				if !ok {
					return fmt.Errorf("orderBy[%d] is not an object", i)
				}
				expr, clauseErr := d.child(clauseObj, "expr")
				if clauseErr != nil {
					return fmt.Errorf("orderBy[%d]: %w", i, clauseErr)
				}
				descending, _ := clauseObj["descending"].(bool)
				t.OrderBy = append(t.OrderBy, OrderClause{Expression: expr, Descending: descending})
			}
		}
		t.Inner, innerErr = d.child(obj, "inner")
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	t.ItemVariable = v
	return NewTransformList(t)
}

func (d *decoder) quantifier(obj map[string]any) (Node, error) {
	quantifier, _ := obj["quantifier"].(string)
	switch Quantifier(quantifier) {
	case QuantifierSome, QuantifierEvery, QuantifierNone:
	default:
		return nil, fmt.Errorf("invalid quantifier %q", quantifier)
	}

	list, err := d.child(obj, "list")
	if err != nil {
		return nil, err
	}
	itemVar, _ := obj["itemVar"].(string)
	if itemVar == "" {
		return nil, fmt.Errorf("quantifier: missing itemVar")
	}

	var condition Node
	v, err := d.withVar(itemVar, func(*Variable) error {
		var innerErr error
		condition, innerErr = d.child(obj, "condition")
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return &QuantifierFilter{
		Quantifier:   Quantifier(quantifier),
		List:         list,
		ItemVariable: v,
		Condition:    condition,
	}, nil
}

func (d *decoder) quickSearch(obj map[string]any) (Node, error) {
	t, err := d.entityType(obj)
	if err != nil {
		return nil, err
	}
	itemVar, _ := obj["itemVar"].(string)
	if itemVar == "" {
		return nil, fmt.Errorf("quickSearch: missing itemVar")
	}

	var filter Node
	v, err := d.withVar(itemVar, func(*Variable) error {
		var innerErr error
		filter, innerErr = d.child(obj, "filter")
		return innerErr
	})
	if err != nil {
		return nil, err
	}
	return &QuickSearch{Type: t, ItemVariable: v, Filter: filter}, nil
}

func (d *decoder) updateEntities(obj map[string]any) (Node, error) {
	t, err := d.entityType(obj)
	if err != nil {
		return nil, err
	}
	list, err := d.child(obj, "list")
	if err != nil {
		return nil, err
	}
	currentVar, _ := obj["currentVar"].(string)
	if currentVar == "" {
		return nil, fmt.Errorf("updateEntities: missing currentVar")
	}

	var updates []PropertyUpdate
	v, err := d.withVar(currentVar, func(*Variable) error {
		rawUpdates, _ := obj["updates"].([]any)
		for i, rawUpdate := range rawUpdates {
			updateObj, ok := rawUpdate.(map[string]any)
			if !ok {
				return fmt.Errorf("updates[%d] is not an object", i)
			}
			key, _ := updateObj["key"].(string)
			value, updateErr := d.child(updateObj, "value")
			if updateErr != nil {
				return fmt.Errorf("updates[%d]: %w", i, updateErr)
			}
			updates = append(updates, PropertyUpdate{Key: key, Value: value})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &UpdateEntities{Type: t, List: list, CurrentVariable: v, Updates: updates}, nil
}

func (d *decoder) edges(raw any) ([]Edge, error) {
	rawList, _ := raw.([]any)
	edges := make([]Edge, 0, len(rawList))
	for i, rawEdge := range rawList {
		edgeObj, ok := rawEdge.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("edges[%d] is not an object", i)
		}
		edge, err := d.edge(edgeObj)
		if err != nil {
			return nil, fmt.Errorf("edges[%d]: %w", i, err)
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

func (d *decoder) edge(obj map[string]any) (Edge, error) {
	from, err := d.child(obj, "from")
	if err != nil {
		return Edge{}, err
	}
	to, err := d.child(obj, "to")
	if err != nil {
		return Edge{}, err
	}
	return Edge{From: from, To: to}, nil
}

func (d *decoder) edgeFilter(raw any) (EdgeFilter, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return EdgeFilter{}, nil
	}
	var filter EdgeFilter
	if _, present := obj["from"]; present {
		from, err := d.nodeList(obj["from"], "filter.from")
		if err != nil {
			return EdgeFilter{}, err
		}
		filter.From = from
	}
	if _, present := obj["to"]; present {
		to, err := d.nodeList(obj["to"], "filter.to")
		if err != nil {
			return EdgeFilter{}, err
		}
		filter.To = to
	}
	return filter, nil
}

func (d *decoder) withPreExecution(obj map[string]any) (Node, error) {
	rawSteps, _ := obj["steps"].([]any)
	steps := make([]PreExecStep, 0, len(rawSteps))

	// Result variables of earlier steps stay visible for all later steps
	// and the result node, so the bindings are not restored until the
	// whole node is decoded.
	type binding struct {
		name     string
		prev     *Variable
		shadowed bool
	}
	var introduced []binding
	defer func() {
		for i := len(introduced) - 1; i >= 0; i-- {
			b := introduced[i]
			if b.shadowed {
				d.vars[b.name] = b.prev
			} else {
				delete(d.vars, b.name)
			}
		}
	}()

	for i, rawStep := range rawSteps {
		stepObj, ok := rawStep.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("steps[%d] is not an object", i)
		}
		query, err := d.child(stepObj, "query")
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		step := PreExecStep{Query: query}
		if resultVar, ok := stepObj["resultVar"].(string); ok && resultVar != "" {
			v := NewVariable(resultVar)
			prev, shadowed := d.vars[resultVar]
			introduced = append(introduced, binding{name: resultVar, prev: prev, shadowed: shadowed})
			d.vars[resultVar] = v
			step.ResultVariable = v
		}
		if validatorName, ok := stepObj["validator"].(string); ok && validatorName != "" {
			step.ResultValidator = &ResultValidator{Name: validatorName}
		}
		steps = append(steps, step)
	}

	result, err := d.child(obj, "result")
	if err != nil {
		return nil, err
	}
	return &WithPreExecution{Steps: steps, Result: result}, nil
}
