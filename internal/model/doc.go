// Package model carries the compiler-facing metadata of the application
// schema: root entity types and their collections, relations and their edge
// collections, flex-search configuration, and naming rules for views,
// analyzers, and document ids.
//
// The schema builder that parses full schema documents is a separate
// collaborator; this package only holds what query compilation needs, and
// can load that subset from CUE or YAML model files so the CLI runs
// standalone.
package model
