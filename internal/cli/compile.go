package cli

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/quilldb/quill/internal/queryaql"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Model  string // model file path
	Config string // compiler config file path
}

// QueryResult is one serialized query of the compile response.
type QueryResult struct {
	Text          string         `json:"text"`
	Bindings      map[string]any `json:"bindings"`
	ResultBinding string         `json:"resultBinding,omitempty"`
	Validator     string         `json:"validator,omitempty"`
}

// CompileResult is the compile command's success payload.
type CompileResult struct {
	ArtifactID       string        `json:"artifactId"`
	PreExec          []QueryResult `json:"preExec,omitempty"`
	Main             QueryResult   `json:"main"`
	ResultBinding    string        `json:"resultBinding"`
	ReadCollections  []string      `json:"readCollections"`
	WriteCollections []string      `json:"writeCollections"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query.json>",
		Short: "Compile a query document to a native compound query",
		Long: `Compile a JSON query document against a model into the native query
dialect: pre-execution queries, the main query, bound parameters, and the
read/write collection sets.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "model file (.cue or .yaml)")
	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "compiler config file")

	return cmd
}

func runCompile(opts *CompileOptions, queryPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	m, err := LoadModel(opts.Model)
	if err != nil {
		return failCompile(formatter, "E_MODEL", ExitCommandError, err)
	}
	formatter.VerboseLog("Loaded model with %d root entity types, %d relations",
		len(m.RootEntityTypes), len(m.Relations))

	compilerOpts, err := LoadCompilerOptions(opts.Config)
	if err != nil {
		return failCompile(formatter, "E_CONFIG", ExitCommandError, err)
	}

	node, err := LoadQuery(queryPath, m)
	if err != nil {
		return failCompile(formatter, "E_QUERY", ExitCommandError, err)
	}

	compound, err := queryaql.Compile(cmd.Context(), node, compilerOpts)
	if err != nil {
		return failCompile(formatter, "E_COMPILE", ExitFailure, err)
	}

	result := buildCompileResult(compound)
	if opts.Format == "json" {
		if err := formatter.SuccessJSON(result); err != nil {
			return WrapExitError(ExitCommandError, "encoding response", err)
		}
		return nil
	}

	printCompileText(formatter, result)
	return nil
}

func failCompile(f *OutputFormatter, code string, exitCode int, err error) error {
	if outputErr := f.Failure(code, err); outputErr != nil {
		return WrapExitError(ExitCommandError, "encoding error response", outputErr)
	}
	return &ExitError{Code: exitCode, Message: err.Error(), Err: err}
}

func buildCompileResult(compound *queryaql.CompoundQuery) CompileResult {
	result := CompileResult{
		ArtifactID:       uuid.NewString(),
		ResultBinding:    compound.ResultBinding,
		ReadCollections:  compound.ReadCollections,
		WriteCollections: compound.WriteCollections,
		Main: QueryResult{
			Text:     compound.Main.Text,
			Bindings: compound.Main.Bindings,
		},
	}
	for _, pre := range compound.PreExec {
		query := QueryResult{
			Text:          pre.Query.Text,
			Bindings:      pre.Query.Bindings,
			ResultBinding: pre.ResultBinding,
		}
		if pre.Validator != nil {
			query.Validator = pre.Validator.Name
		}
		result.PreExec = append(result.PreExec, query)
	}
	return result
}

func printCompileText(f *OutputFormatter, result CompileResult) {
	for i, pre := range result.PreExec {
		title := fmt.Sprintf("pre-exec %d", i)
		if pre.ResultBinding != "" {
			title += " -> " + pre.ResultBinding
		}
		f.Heading("%s", title)
		f.Line("%s", pre.Text)
		printBindings(f, pre.Bindings)
		f.Line("")
	}

	f.Heading("main")
	f.Line("%s", result.Main.Text)
	printBindings(f, result.Main.Bindings)
	f.Line("reads:  %v", result.ReadCollections)
	f.Line("writes: %v", result.WriteCollections)
}

func printBindings(f *OutputFormatter, bindings map[string]any) {
	if len(bindings) == 0 {
		return
	}
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f.Line("  @%s = %v", name, bindings[name])
	}
}
