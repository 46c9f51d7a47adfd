package queryaql

import (
	"sort"

	"github.com/quilldb/quill/internal/aql"
	"github.com/quilldb/quill/internal/queryir"
)

// RuntimeErrorToken is the sentinel key of error objects a query may
// evaluate to. The executing layer scans results for this key and fails
// the operation with the accompanying message.
const RuntimeErrorToken = "_runtime_error"

// CompoundQuery is the output of a compilation: pre-execution queries in
// declaration order, the main query, and the union of collection accesses
// over all of them.
type CompoundQuery struct {
	PreExec []PreExecQuery

	Main *aql.Serialized

	// ResultBinding names the main query's result for the caller.
	ResultBinding string

	ReadCollections  []string
	WriteCollections []string
}

// PreExecQuery is one query executed before the main query within the
// same transaction. When ResultBinding is set, the executor binds the
// query's result under that name in every later query.
type PreExecQuery struct {
	Query *aql.Serialized

	ResultBinding string

	// Validator travels with the query; the compiler never interprets it.
	Validator *queryir.ResultValidator
}

// collectAccess unions the collection sets of all serialized queries.
func collectAccess(preExec []PreExecQuery, main *aql.Serialized) (read, write []string) {
	readSet := make(map[string]bool)
	writeSet := make(map[string]bool)
	add := func(s *aql.Serialized) {
		for _, c := range s.ReadCollections {
			readSet[c] = true
		}
		for _, c := range s.WriteCollections {
			writeSet[c] = true
		}
	}
	for _, q := range preExec {
		add(q.Query)
	}
	add(main)
	return sortedSet(readSet), sortedSet(writeSet)
}

func sortedSet(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
