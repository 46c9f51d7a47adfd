package queryir

// BinaryOperator enumerates the operators a BinaryOp node may carry.
type BinaryOperator string

const (
	BinaryOperatorAnd                BinaryOperator = "AND"
	BinaryOperatorOr                 BinaryOperator = "OR"
	BinaryOperatorEqual              BinaryOperator = "EQUAL"
	BinaryOperatorUnequal            BinaryOperator = "UNEQUAL"
	BinaryOperatorLessThan           BinaryOperator = "LESS_THAN"
	BinaryOperatorLessThanOrEqual    BinaryOperator = "LESS_THAN_OR_EQUAL"
	BinaryOperatorGreaterThan        BinaryOperator = "GREATER_THAN"
	BinaryOperatorGreaterThanOrEqual BinaryOperator = "GREATER_THAN_OR_EQUAL"
	BinaryOperatorIn                 BinaryOperator = "IN"
	BinaryOperatorAdd                BinaryOperator = "ADD"
	BinaryOperatorSubtract           BinaryOperator = "SUBTRACT"
	BinaryOperatorMultiply           BinaryOperator = "MULTIPLY"
	BinaryOperatorDivide             BinaryOperator = "DIVIDE"
	BinaryOperatorModulo             BinaryOperator = "MODULO"
	BinaryOperatorContains           BinaryOperator = "CONTAINS"
	BinaryOperatorStartsWith         BinaryOperator = "STARTS_WITH"
	BinaryOperatorEndsWith           BinaryOperator = "ENDS_WITH"
	BinaryOperatorLike               BinaryOperator = "LIKE"
	BinaryOperatorAppend             BinaryOperator = "APPEND"
	BinaryOperatorPrepend            BinaryOperator = "PREPEND"
)

// UnaryOperator enumerates the operators a UnaryOp node may carry.
type UnaryOperator string

const (
	UnaryOperatorNot           UnaryOperator = "NOT"
	UnaryOperatorJSONStringify UnaryOperator = "JSON_STRINGIFY"
)

// LanguageOperator enumerates the analyzer-aware search operators.
type LanguageOperator string

const (
	LanguageOperatorStartsWith      LanguageOperator = "QUICKSEARCH_STARTS_WITH"
	LanguageOperatorContainsAnyWord LanguageOperator = "QUICKSEARCH_CONTAINS_ANY_WORD"
	LanguageOperatorContainsPrefix  LanguageOperator = "QUICKSEARCH_CONTAINS_PREFIX"
	LanguageOperatorContainsPhrase  LanguageOperator = "QUICKSEARCH_CONTAINS_PHRASE"
)

// Quantifier enumerates the shapes of a QuantifierFilter.
type Quantifier string

const (
	QuantifierSome  Quantifier = "some"
	QuantifierEvery Quantifier = "every"
	QuantifierNone  Quantifier = "none"
)

// BasicType enumerates the runtime type classes a TypeCheck node tests.
type BasicType string

const (
	BasicTypeScalar BasicType = "SCALAR"
	BasicTypeList   BasicType = "LIST"
	BasicTypeObject BasicType = "OBJECT"
	BasicTypeNull   BasicType = "NULL"
)
