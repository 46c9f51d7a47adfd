package queryaql

import (
	"context"

	"golang.org/x/text/language"

	"github.com/quilldb/quill/internal/aql"
	"github.com/quilldb/quill/internal/model"
	"github.com/quilldb/quill/internal/queryir"
)

// lowerLanguageOperator emits an ANALYZER-wrapped search predicate. The
// language-aware operators tokenize through "text_<lang>"; the exact
// prefix match uses the identity analyzer and ignores the language.
func lowerLanguageOperator(ctx context.Context, n *queryir.OperatorWithLanguage, c *compileContext) (*aql.Fragment, error) {
	lhs, err := lowerExpr(ctx, n.LHS, c)
	if err != nil {
		return nil, err
	}
	rhs, err := lowerExpr(ctx, n.RHS, c)
	if err != nil {
		return nil, err
	}

	if n.Op == queryir.LanguageOperatorStartsWith {
		return aql.Concat(
			aql.Code("ANALYZER(STARTS_WITH("), lhs, aql.Code(", "), rhs,
			aql.Code(`), "`+model.IdentityAnalyzer+`")`),
		), nil
	}

	if n.Language == language.Und {
		return nil, compileErrorf(ErrCodeMalformedIR, n, "operator %s requires a language", n.Op)
	}
	analyzer := model.AnalyzerForLanguage(n.Language)

	switch n.Op {
	case queryir.LanguageOperatorContainsAnyWord:
		return aql.Concat(
			aql.Code("ANALYZER("), lhs, aql.Code(" IN TOKENS("), rhs,
			aql.Code(`, "`+analyzer+`"), "`+analyzer+`")`),
		), nil

	case queryir.LanguageOperatorContainsPrefix:
		return aql.Concat(
			aql.Code("ANALYZER(STARTS_WITH("), lhs, aql.Code(", FIRST(TOKENS("), rhs,
			aql.Code(`, "`+analyzer+`"))), "`+analyzer+`")`),
		), nil

	case queryir.LanguageOperatorContainsPhrase:
		return aql.Concat(
			aql.Code("ANALYZER(PHRASE("), lhs, aql.Code(", "), rhs,
			aql.Code(`), "`+analyzer+`")`),
		), nil

	default:
		return nil, compileErrorf(ErrCodeUnsupportedOperator, n, "language operator %q has no lowering rule", n.Op)
	}
}
