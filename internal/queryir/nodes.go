package queryir

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/text/language"

	"github.com/quilldb/quill/internal/ir"
	"github.com/quilldb/quill/internal/model"
)

// Node represents one node of the query IR.
//
// This is a sealed interface - only types in this package implement it.
type Node interface {
	queryNode() // Marker method - seals interface to this package
}

// ---------------------------------------------------------------------------
// Value nodes

// Literal carries a JSON value that is bound as a query parameter.
type Literal struct {
	Value ir.IRValue
}

// ConstBool is a boolean constant emitted as query text rather than bound.
// The boolean rewrites fold over these.
type ConstBool struct {
	Value bool
}

// ConstInt is an integer constant emitted as query text rather than bound.
type ConstInt struct {
	Value int64
}

// Null evaluates to null.
type Null struct{}

// RuntimeError evaluates to an object carrying the runtime-error sentinel
// key and a message. The executing layer detects the sentinel and fails
// the operation after the fact.
type RuntimeError struct {
	Message string
}

func (*Literal) queryNode()      {}
func (*ConstBool) queryNode()    {}
func (*ConstInt) queryNode()     {}
func (*Null) queryNode()         {}
func (*RuntimeError) queryNode() {}

// ---------------------------------------------------------------------------
// Structural nodes

// ObjectProperty is one key-value entry of an Object node.
type ObjectProperty struct {
	Key   string
	Value Node
}

// Object constructs an object from properties, preserving insertion order.
type Object struct {
	Properties []ObjectProperty
}

// List constructs a list from item expressions.
type List struct {
	Items []Node
}

// MergeObjects merges object expressions right-biased.
type MergeObjects struct {
	Objects []Node
}

// ConcatLists appends list expressions without deduplication.
type ConcatLists struct {
	Lists []Node
}

// FirstOfList evaluates to the first element of a list, or null.
type FirstOfList struct {
	List Node
}

// SafeList coerces a value to a list: non-list values become the empty
// list.
type SafeList struct {
	List Node
}

func (*Object) queryNode()       {}
func (*List) queryNode()         {}
func (*MergeObjects) queryNode() {}
func (*ConcatLists) queryNode()  {}
func (*FirstOfList) queryNode()  {}
func (*SafeList) queryNode()     {}

// ---------------------------------------------------------------------------
// Variable and scope nodes

// variableIDs allocates Variable identities. Never reused.
var variableIDs atomic.Int64

// Variable references a value introduced by an enclosing scope. Identity
// is the ID, never the label: two variables with the same label are
// distinct, and a scope introduces each identity at most once.
type Variable struct {
	label string
	id    int64
}

// NewVariable allocates a variable with a fresh identity. The label is
// only a naming hint for the emitted query.
func NewVariable(label string) *Variable {
	return &Variable{label: label, id: variableIDs.Add(1)}
}

// Label returns the naming hint.
func (v *Variable) Label() string {
	return v.label
}

// ID returns the variable's identity.
func (v *Variable) ID() int64 {
	return v.id
}

func (v *Variable) String() string {
	return fmt.Sprintf("$%s#%d", v.label, v.id)
}

// VariableAssignment evaluates Value once, binds it to Variable, and
// evaluates to Result. Without the hoisting rewrite it lowers to a
// FIRST(LET ... RETURN ...) wrapper.
type VariableAssignment struct {
	Variable *Variable
	Value    Node
	Result   Node
}

// PreExecStep is one pre-execution query of a WithPreExecution node. Its
// result may be bound to ResultVariable, which becomes visible to all
// later queries of the compound query. ResultValidator is opaque to the
// compiler and travels with the emitted query.
type PreExecStep struct {
	Query           Node
	ResultVariable  *Variable
	ResultValidator *ResultValidator
}

// ResultValidator names a validation routine the executor applies to a
// pre-execution result before continuing.
type ResultValidator struct {
	Name   string
	Config ir.IRValue
}

// WithPreExecution registers pre-execution queries in declaration order,
// then evaluates to Result with their result variables in scope.
type WithPreExecution struct {
	Steps  []PreExecStep
	Result Node
}

func (*Variable) queryNode()           {}
func (*VariableAssignment) queryNode() {}
func (*WithPreExecution) queryNode()   {}

// ---------------------------------------------------------------------------
// Access nodes

// Field accesses a field of an object expression, optionally through a
// path of intermediate segments.
type Field struct {
	Object Node
	Name   string
	Path   []string
}

// RootEntityID evaluates to the document key of a root entity.
type RootEntityID struct {
	Object Node
}

// EntityFromID fetches one root entity document by key. Implies a read on
// the type's collection.
type EntityFromID struct {
	Type *model.RootEntityType
	ID   Node
}

// Entities evaluates to all documents of a root entity type. Implies a
// read on the type's collection.
type Entities struct {
	Type *model.RootEntityType
}

// FollowEdge traverses a relation from a source entity and evaluates to
// the reached entities. Dangling edges are filtered out: as a direct FOR
// source by a FILTER on the loop variable, elsewhere inside a subquery.
type FollowEdge struct {
	Side   model.RelationSide
	Source Node
}

func (*Field) queryNode()        {}
func (*RootEntityID) queryNode() {}
func (*EntityFromID) queryNode() {}
func (*Entities) queryNode()     {}
func (*FollowEdge) queryNode()   {}

// ---------------------------------------------------------------------------
// Transformation nodes

// OrderClause is one component of a TransformList ordering.
type OrderClause struct {
	Expression Node
	Descending bool
}

// TransformList filters, orders, paginates, and projects a list. The
// item variable is in scope for Filter, OrderBy, and Inner; Inner may also
// reference any variable visible at the TransformList itself.
//
// Skip must be non-negative. MaxCount nil means no upper bound; when set
// it must be non-negative.
type TransformList struct {
	List         Node
	ItemVariable *Variable
	Filter       Node
	OrderBy      []OrderClause
	Skip         int64
	MaxCount     *int64
	Inner        Node
}

// NewTransformList validates the pagination invariants.
func NewTransformList(t TransformList) (*TransformList, error) {
	if t.List == nil || t.ItemVariable == nil || t.Inner == nil {
		return nil, fmt.Errorf("transform list requires list, item variable, and inner node")
	}
	if t.Skip < 0 {
		return nil, fmt.Errorf("transform list skip must be non-negative, got %d", t.Skip)
	}
	if t.MaxCount != nil && *t.MaxCount < 0 {
		return nil, fmt.Errorf("transform list maxCount must be non-negative, got %d", *t.MaxCount)
	}
	return &t, nil
}

// Count evaluates to the number of elements of a list.
type Count struct {
	List Node
}

func (*TransformList) queryNode() {}
func (*Count) queryNode()        {}

// ---------------------------------------------------------------------------
// Operation nodes

// BinaryOp applies a binary operator.
type BinaryOp struct {
	Op  BinaryOperator
	LHS Node
	RHS Node
}

// NewBinaryOp validates operator and arity.
func NewBinaryOp(op BinaryOperator, lhs, rhs Node) (*BinaryOp, error) {
	if op == "" {
		return nil, fmt.Errorf("binary operator must not be empty")
	}
	if lhs == nil || rhs == nil {
		return nil, fmt.Errorf("binary operator %s requires two operands", op)
	}
	return &BinaryOp{Op: op, LHS: lhs, RHS: rhs}, nil
}

// UnaryOp applies a unary operator.
type UnaryOp struct {
	Op    UnaryOperator
	Value Node
}

// Conditional evaluates Then or Else depending on Condition.
type Conditional struct {
	Condition Node
	Then      Node
	Else      Node
}

// TypeCheck tests the runtime type class of a value.
type TypeCheck struct {
	Value Node
	Type  BasicType
}

// OperatorWithLanguage applies an analyzer-aware search operator. The
// language selects the text analyzer; LanguageOperatorStartsWith ignores
// it and uses the identity analyzer.
type OperatorWithLanguage struct {
	Op       LanguageOperator
	LHS      Node
	RHS      Node
	Language language.Tag
}

func (*BinaryOp) queryNode()             {}
func (*UnaryOp) queryNode()              {}
func (*Conditional) queryNode()          {}
func (*TypeCheck) queryNode()            {}
func (*OperatorWithLanguage) queryNode() {}

// ---------------------------------------------------------------------------
// Quantifier and search nodes

// QuantifierFilter tests a predicate over the elements of a list with an
// existential or universal quantifier.
type QuantifierFilter struct {
	Quantifier   Quantifier
	List         Node
	ItemVariable *Variable
	Condition    Node
}

// QuickSearch evaluates to the documents of a flex-search view matching a
// search filter. The filter references ItemVariable.
type QuickSearch struct {
	Type         *model.RootEntityType
	ItemVariable *Variable
	Filter       Node
}

func (*QuantifierFilter) queryNode() {}
func (*QuickSearch) queryNode()     {}

// ---------------------------------------------------------------------------
// Mutation nodes

// CreateEntity inserts a new root entity document and evaluates to its
// key. Implies a write on the type's collection.
type CreateEntity struct {
	Type   *model.RootEntityType
	Object Node
}

// PropertyUpdate is one field update of an UpdateEntities node. The value
// may reference the node's current variable.
type PropertyUpdate struct {
	Key   string
	Value Node
}

// UpdateEntities updates every entity of a list and evaluates to the list
// of updated keys. CurrentVariable is bound to the entity being updated
// inside the update values.
type UpdateEntities struct {
	Type            *model.RootEntityType
	List            Node
	CurrentVariable *Variable
	Updates         []PropertyUpdate
}

// DeleteEntities removes every entity of a list and evaluates to the list
// of removed keys.
type DeleteEntities struct {
	Type *model.RootEntityType
	List Node
}

// Edge is one edge of an AddEdges or SetEdge node. From and To evaluate
// to full document ids.
type Edge struct {
	From Node
	To   Node
}

// EdgeFilter matches edges by their endpoints. A nil side is
// unconstrained; a non-nil side lists the accepted document ids.
type EdgeFilter struct {
	From []Node
	To   []Node
}

// AddEdges inserts edges into a relation, skipping edges that already
// exist.
type AddEdges struct {
	Relation *model.Relation
	Edges    []Edge
}

// RemoveEdges removes all edges of a relation matching a filter.
type RemoveEdges struct {
	Relation *model.Relation
	Filter   EdgeFilter
}

// SetEdge replaces the edge matching Existing with New, inserting if no
// edge matches.
type SetEdge struct {
	Relation *model.Relation
	Existing EdgeFilter
	New      Edge
}

func (*CreateEntity) queryNode()   {}
func (*UpdateEntities) queryNode() {}
func (*DeleteEntities) queryNode() {}
func (*AddEdges) queryNode()       {}
func (*RemoveEdges) queryNode()    {}
func (*SetEdge) queryNode()        {}

// ---------------------------------------------------------------------------

// Equals reports equality of two nodes: structural for the value-like
// nodes, identity for variables, and pointer identity otherwise.
func Equals(a, b Node) bool {
	if a == b {
		return true
	}
	switch av := a.(type) {
	case *Literal:
		bv, ok := b.(*Literal)
		return ok && ir.Equal(av.Value, bv.Value)
	case *ConstBool:
		bv, ok := b.(*ConstBool)
		return ok && av.Value == bv.Value
	case *ConstInt:
		bv, ok := b.(*ConstInt)
		return ok && av.Value == bv.Value
	case *Null:
		_, ok := b.(*Null)
		return ok
	default:
		return false
	}
}
