package queryir

import (
	"fmt"
	"strings"

	"github.com/quilldb/quill/internal/ir"
)

// Dump renders a node tree as an indented s-expression for diagnostics.
// The output is stable but not parseable; it exists for humans reading
// explain output.
func Dump(n Node) string {
	var b strings.Builder
	dumpNode(&b, n, 0)
	return b.String()
}

func dumpNode(b *strings.Builder, n Node, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	label, children := describeNode(n)
	b.WriteString("(" + label)
	for _, child := range children {
		b.WriteString("\n")
		dumpNode(b, child, depth+1)
	}
	b.WriteString(")")
}

// describeNode returns the head of a node's s-expression and its children
// in declared order.
func describeNode(n Node) (string, []Node) {
	switch node := n.(type) {
	case nil:
		return "nil", nil
	case *Literal:
		out, err := ir.MarshalCanonical(node.Value)
		if err != nil {
			return fmt.Sprintf("literal <%v>", err), nil
		}
		return "literal " + string(out), nil
	case *ConstBool:
		return fmt.Sprintf("const %t", node.Value), nil
	case *ConstInt:
		return fmt.Sprintf("const %d", node.Value), nil
	case *Null:
		return "null", nil
	case *RuntimeError:
		return fmt.Sprintf("runtime-error %q", node.Message), nil
	case *Variable:
		return "var " + node.String(), nil
	case *Entities:
		return "entities " + node.Type.Name, nil
	case *Field:
		return "field ." + strings.Join(append(append([]string{}, node.Path...), node.Name), "."), []Node{node.Object}
	case *RootEntityID:
		return "root-entity-id", []Node{node.Object}
	case *EntityFromID:
		return "entity-from-id " + node.Type.Name, []Node{node.ID}
	case *FollowEdge:
		direction := "inbound"
		if node.Side.Outbound() {
			direction = "outbound"
		}
		return "follow-edge " + node.Side.Relation.Name + " " + direction, []Node{node.Source}
	case *Object:
		keys := make([]string, len(node.Properties))
		children := make([]Node, len(node.Properties))
		for i, p := range node.Properties {
			keys[i] = p.Key
			children[i] = p.Value
		}
		return "object " + strings.Join(keys, ","), children
	case *List:
		return "list", node.Items
	case *MergeObjects:
		return "merge-objects", node.Objects
	case *ConcatLists:
		return "concat-lists", node.Lists
	case *FirstOfList:
		return "first", []Node{node.List}
	case *SafeList:
		return "safe-list", []Node{node.List}
	case *VariableAssignment:
		return "let " + node.Variable.String(), []Node{node.Value, node.Result}
	case *WithPreExecution:
		children := make([]Node, 0, len(node.Steps)+1)
		for _, step := range node.Steps {
			children = append(children, step.Query)
		}
		return "with-pre-execution", append(children, node.Result)
	case *TransformList:
		label := fmt.Sprintf("transform-list item=%s skip=%d", node.ItemVariable, node.Skip)
		if node.MaxCount != nil {
			label += fmt.Sprintf(" max=%d", *node.MaxCount)
		}
		children := []Node{node.List}
		if node.Filter != nil {
			children = append(children, node.Filter)
		}
		for _, clause := range node.OrderBy {
			children = append(children, clause.Expression)
		}
		return label, append(children, node.Inner)
	case *Count:
		return "count", []Node{node.List}
	case *BinaryOp:
		return string(node.Op), []Node{node.LHS, node.RHS}
	case *UnaryOp:
		return string(node.Op), []Node{node.Value}
	case *Conditional:
		return "if", []Node{node.Condition, node.Then, node.Else}
	case *TypeCheck:
		return "is-" + strings.ToLower(string(node.Type)), []Node{node.Value}
	case *OperatorWithLanguage:
		return fmt.Sprintf("%s lang=%s", node.Op, node.Language), []Node{node.LHS, node.RHS}
	case *QuantifierFilter:
		return fmt.Sprintf("%s item=%s", node.Quantifier, node.ItemVariable), []Node{node.List, node.Condition}
	case *QuickSearch:
		return fmt.Sprintf("quick-search %s item=%s", node.Type.Name, node.ItemVariable), []Node{node.Filter}
	case *CreateEntity:
		return "create-entity " + node.Type.Name, []Node{node.Object}
	case *UpdateEntities:
		children := []Node{node.List}
		keys := make([]string, len(node.Updates))
		for i, u := range node.Updates {
			keys[i] = u.Key
			children = append(children, u.Value)
		}
		return fmt.Sprintf("update-entities %s current=%s set=%s", node.Type.Name, node.CurrentVariable, strings.Join(keys, ",")), children
	case *DeleteEntities:
		return "delete-entities " + node.Type.Name, []Node{node.List}
	case *AddEdges:
		var children []Node
		for _, e := range node.Edges {
			children = append(children, e.From, e.To)
		}
		return "add-edges " + node.Relation.Name, children
	case *RemoveEdges:
		var children []Node
		children = append(children, node.Filter.From...)
		children = append(children, node.Filter.To...)
		return "remove-edges " + node.Relation.Name, children
	case *SetEdge:
		return "set-edge " + node.Relation.Name, []Node{node.New.From, node.New.To}
	default:
		return fmt.Sprintf("unknown %T", n), nil
	}
}
