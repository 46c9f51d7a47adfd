// Package queryir defines the typed intermediate representation of
// database queries.
//
// Node is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the lowering pass. Nodes are immutable after
// construction; children are owned by their parent, and literal or
// variable nodes may be shared between positions as long as no cycles are
// introduced.
//
// Node groups:
//   - Value: Literal, ConstBool, ConstInt, Null, RuntimeError
//   - Structural: Object, List, MergeObjects, ConcatLists, FirstOfList, SafeList
//   - Variable/scope: Variable, VariableAssignment, WithPreExecution
//   - Access: Field, RootEntityID, EntityFromID, Entities, FollowEdge
//   - Transformation: TransformList, Count
//   - Operation: BinaryOp, UnaryOp, Conditional, TypeCheck, OperatorWithLanguage
//   - Mutation: CreateEntity, UpdateEntities, DeleteEntities, AddEdges, RemoveEdges, SetEdge
//   - Quantifier: QuantifierFilter
//   - Search: QuickSearch
//
// Variables are identity-based: two Variable nodes with the same label are
// distinct. The schema-generation layer constructs trees from this package
// and hands them to the compiler; the compiler never mutates them.
package queryir
