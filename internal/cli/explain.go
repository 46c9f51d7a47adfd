package cli

import (
	"github.com/spf13/cobra"

	"github.com/quilldb/quill/internal/queryir"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	Model string
}

// ExplainResult is the explain command's success payload.
type ExplainResult struct {
	Tree string `json:"tree"`
}

// NewExplainCommand creates the explain command. It prints the decoded
// query tree after boolean folding, which is what the lowering pass
// actually sees.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "explain <query.json>",
		Short:         "Print the query IR for a query document",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Model, "model", "m", "", "model file (.cue or .yaml)")

	return cmd
}

func runExplain(opts *ExplainOptions, queryPath string, cmd *cobra.Command) error {
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
	node, err := LoadQuery(queryPath, m)
	if err != nil {
		return failCompile(formatter, "E_QUERY", ExitCommandError, err)
	}

	tree := queryir.Dump(queryir.SimplifyBooleans(node))
	if opts.Format == "json" {
		if err := formatter.SuccessJSON(ExplainResult{Tree: tree}); err != nil {
			return WrapExitError(ExitCommandError, "encoding response", err)
		}
		return nil
	}
	formatter.Line("%s", tree)
	return nil
}
