package queryir

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/text/language"

	"github.com/quilldb/quill/internal/ir"
	"github.com/quilldb/quill/internal/model"
)

var jsonDecoder = jsoniter.ConfigCompatibleWithStandardLibrary

// Decode parses a JSON query document into a node tree, resolving type,
// relation, and field references against the model.
//
// Every node is an object with a "kind" discriminator. Variables are
// referenced by name; binder kinds (transformList, quantifier,
// quickSearch, updateEntities, variableAssignment, withPreExecution)
// introduce them and scope them to their subdocuments.
func Decode(data []byte, m *model.Model) (Node, error) {
	var raw any
	if err := jsonDecoder.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing query document: %w", err)
	}
	d := &decoder{model: m, vars: make(map[string]*Variable)}
	return d.node(raw)
}

type decoder struct {
	model *model.Model
	vars  map[string]*Variable
}

// withVar introduces a variable for the duration of fn, restoring any
// shadowed binding afterwards.
func (d *decoder) withVar(name string, fn func(v *Variable) error) (*Variable, error) {
	prev, shadowed := d.vars[name]
	v := NewVariable(name)
	d.vars[name] = v
	err := fn(v)
	if shadowed {
		d.vars[name] = prev
	} else {
		delete(d.vars, name)
	}
	return v, err
}

func (d *decoder) node(raw any) (Node, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a node object, got %T", raw)
	}
	kind, _ := obj["kind"].(string)

	switch kind {
	case "literal":
		value, ok := ir.FromNative(obj["value"])
		if !ok {
			return nil, fmt.Errorf("literal: unsupported value %v", obj["value"])
		}
		return &Literal{Value: value}, nil

	case "constBool":
		b, ok := obj["value"].(bool)
		if !ok {
			return nil, fmt.Errorf("constBool: value must be a boolean")
		}
		return &ConstBool{Value: b}, nil

	case "constInt":
		f, ok := obj["value"].(float64)
		if !ok || f != float64(int64(f)) {
			return nil, fmt.Errorf("constInt: value must be an integer")
		}
		return &ConstInt{Value: int64(f)}, nil

	case "null":
		return &Null{}, nil

	case "runtimeError":
		msg, _ := obj["message"].(string)
		return &RuntimeError{Message: msg}, nil

	case "object":
		rawProps, _ := obj["properties"].([]any)
		props := make([]ObjectProperty, 0, len(rawProps))
		for i, rawProp := range rawProps {
			propObj, ok := rawProp.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("object: property %d is not an object", i)
			}
			key, _ := propObj["key"].(string)
			value, err := d.node(propObj["value"])
			if err != nil {
				return nil, fmt.Errorf("object property %q: %w", key, err)
			}
			props = append(props, ObjectProperty{Key: key, Value: value})
		}
		return &Object{Properties: props}, nil

	case "list":
		items, err := d.nodeList(obj["items"], "list items")
		if err != nil {
			return nil, err
		}
		return &List{Items: items}, nil

	case "mergeObjects":
		objects, err := d.nodeList(obj["objects"], "mergeObjects")
		if err != nil {
			return nil, err
		}
		return &MergeObjects{Objects: objects}, nil

	case "concatLists":
		lists, err := d.nodeList(obj["lists"], "concatLists")
		if err != nil {
			return nil, err
		}
		return &ConcatLists{Lists: lists}, nil

	case "firstOfList":
		list, err := d.child(obj, "list")
		if err != nil {
			return nil, err
		}
		return &FirstOfList{List: list}, nil

	case "safeList":
		list, err := d.child(obj, "list")
		if err != nil {
			return nil, err
		}
		return &SafeList{List: list}, nil

	case "variable":
		name, _ := obj["name"].(string)
		v, ok := d.vars[name]
		if !ok {
			return nil, fmt.Errorf("variable %q referenced before introduction", name)
		}
		return v, nil

	case "variableAssignment":
		name, _ := obj["variable"].(string)
		value, err := d.child(obj, "value")
		if err != nil {
			return nil, err
		}
		var result Node
		v, err := d.withVar(name, func(*Variable) error {
			var innerErr error
			result, innerErr = d.child(obj, "result")
			return innerErr
		})
		if err != nil {
			return nil, err
		}
		return &VariableAssignment{Variable: v, Value: value, Result: result}, nil

	case "field":
		object, err := d.child(obj, "object")
		if err != nil {
			return nil, err
		}
		name, _ := obj["field"].(string)
		var path []string
		if rawPath, ok := obj["path"].([]any); ok {
			for _, seg := range rawPath {
				s, ok := seg.(string)
				if !ok {
					return nil, fmt.Errorf("field: path segments must be strings")
				}
				path = append(path, s)
			}
		}
		return &Field{Object: object, Name: name, Path: path}, nil

	case "rootEntityId":
		object, err := d.child(obj, "object")
		if err != nil {
			return nil, err
		}
		return &RootEntityID{Object: object}, nil

	case "entities":
		t, err := d.entityType(obj)
		if err != nil {
			return nil, err
		}
		return &Entities{Type: t}, nil

	case "entityFromId":
		t, err := d.entityType(obj)
		if err != nil {
			return nil, err
		}
		id, err := d.child(obj, "id")
		if err != nil {
			return nil, err
		}
		return &EntityFromID{Type: t, ID: id}, nil

	case "followEdge":
		side, err := d.relationSide(obj)
		if err != nil {
			return nil, err
		}
		source, err := d.child(obj, "source")
		if err != nil {
			return nil, err
		}
		return &FollowEdge{Side: side, Source: source}, nil

	case "transformList":
		return d.transformList(obj)

	case "count":
		list, err := d.child(obj, "list")
		if err != nil {
			return nil, err
		}
		return &Count{List: list}, nil

	case "binary":
		op, _ := obj["op"].(string)
		lhs, err := d.child(obj, "lhs")
		if err != nil {
			return nil, err
		}
		rhs, err := d.child(obj, "rhs")
		if err != nil {
			return nil, err
		}
		return NewBinaryOp(BinaryOperator(op), lhs, rhs)

	case "unary":
		op, _ := obj["op"].(string)
		value, err := d.child(obj, "value")
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: UnaryOperator(op), Value: value}, nil

	case "conditional":
		cond, err := d.child(obj, "condition")
		if err != nil {
			return nil, err
		}
		then, err := d.child(obj, "then")
		if err != nil {
			return nil, err
		}
		els, err := d.child(obj, "else")
		if err != nil {
			return nil, err
		}
		return &Conditional{Condition: cond, Then: then, Else: els}, nil

	case "typeCheck":
		value, err := d.child(obj, "value")
		if err != nil {
			return nil, err
		}
		basicType, _ := obj["type"].(string)
		return &TypeCheck{Value: value, Type: BasicType(basicType)}, nil

	case "languageOp":
		op, _ := obj["op"].(string)
		lhs, err := d.child(obj, "lhs")
		if err != nil {
			return nil, err
		}
		rhs, err := d.child(obj, "rhs")
		if err != nil {
			return nil, err
		}
		tag := language.Und
		if langStr, ok := obj["language"].(string); ok && langStr != "" {
			tag, err = language.Parse(langStr)
			if err != nil {
				return nil, fmt.Errorf("languageOp: invalid language %q: %w", langStr, err)
			}
		}
		return &OperatorWithLanguage{Op: LanguageOperator(op), LHS: lhs, RHS: rhs, Language: tag}, nil

	case "quantifier":
		return d.quantifier(obj)

	case "quickSearch":
		return d.quickSearch(obj)

	case "createEntity":
		t, err := d.entityType(obj)
		if err != nil {
			return nil, err
		}
		object, err := d.child(obj, "object")
		if err != nil {
			return nil, err
		}
		return &CreateEntity{Type: t, Object: object}, nil

	case "updateEntities":
		return d.updateEntities(obj)

	case "deleteEntities":
		t, err := d.entityType(obj)
		if err != nil {
			return nil, err
		}
		list, err := d.child(obj, "list")
		if err != nil {
			return nil, err
		}
		return &DeleteEntities{Type: t, List: list}, nil

	case "addEdges":
		rel, err := d.relation(obj)
		if err != nil {
			return nil, err
		}
		edges, err := d.edges(obj["edges"])
		if err != nil {
			return nil, err
		}
		return &AddEdges{Relation: rel, Edges: edges}, nil

	case "removeEdges":
		rel, err := d.relation(obj)
		if err != nil {
			return nil, err
		}
		filter, err := d.edgeFilter(obj["filter"])
		if err != nil {
			return nil, err
		}
		return &RemoveEdges{Relation: rel, Filter: filter}, nil

	case "setEdge":
		rel, err := d.relation(obj)
		if err != nil {
			return nil, err
		}
		existing, err := d.edgeFilter(obj["existing"])
		if err != nil {
			return nil, err
		}
		rawNew, ok := obj["new"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("setEdge: missing new edge")
		}
		newEdge, err := d.edge(rawNew)
		if err != nil {
			return nil, err
		}
		return &SetEdge{Relation: rel, Existing: existing, New: newEdge}, nil

	case "withPreExecution":
		return d.withPreExecution(obj)

	case "":
		return nil, fmt.Errorf("node object without a kind")
	default:
		return nil, fmt.Errorf("unknown node kind %q", kind)
	}
}
