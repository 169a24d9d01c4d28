// Command codehem is the command-line front-end of the engine: detect a
// file's language, extract its element tree, or patch one element.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/termfx/codehem"
	"github.com/termfx/codehem/core"
)

// Exit codes per the CLI contract.
const (
	exitOK       = 0
	exitNotFound = 2
	exitConflict = 3
	exitIO       = 4
	exitUsage    = 5
)

func main() {
	_ = godotenv.Load()
	configureLogging()

	root := &cobra.Command{
		Use:           "codehem",
		Short:         "Syntax-aware code query and patching",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(detectCmd(), extractCmd(), patchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

func configureLogging() {
	level := slog.LevelWarn
	if os.Getenv("CODEHEM_DEBUG") == "1" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file>",
		Short: "Print the detected language of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := codehem.Default().Detect(args[0])
			if err != nil {
				return err
			}
			fmt.Println(code)
			return nil
		},
	}
}

func extractCmd() *cobra.Command {
	var summary, rawJSON, recursive bool

	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Extract the element tree of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := os.ReadFile(args[0])
			if err != nil {
				return core.IOError(args[0], err)
			}
			lang, err := codehem.Default().Detect(args[0])
			if err != nil {
				return err
			}
			tree, err := codehem.Default().Extract(source, lang)
			if err != nil {
				return err
			}

			switch {
			case summary:
				fmt.Print(tree.Summary())
			case rawJSON:
				return printJSON(tree)
			default:
				if !recursive {
					// Default output lists top-level elements only.
					trimmed := *tree
					trimmed.Elements = shallow(tree.Elements)
					return printJSON(&trimmed)
				}
				return printJSON(tree)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&summary, "summary", false, "compact kind/name/range listing")
	cmd.Flags().BoolVar(&rawJSON, "raw-json", false, "full tree as JSON")
	cmd.Flags().BoolVar(&recursive, "recursive", false, "include nested children in JSON output")
	return cmd
}

func patchCmd() *cobra.Command {
	var (
		xpath    string
		codeFile string
		mode     string
		dryRun   bool
		hash     string
	)

	cmd := &cobra.Command{
		Use:   "patch <file>",
		Short: "Patch one element of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if xpath == "" || codeFile == "" {
				return core.ValidationError("--xpath and --file are required")
			}
			source, err := os.ReadFile(args[0])
			if err != nil {
				return core.IOError(args[0], err)
			}
			newCode, err := os.ReadFile(codeFile)
			if err != nil {
				return core.IOError(codeFile, err)
			}
			lang, err := codehem.Default().Detect(args[0])
			if err != nil {
				return err
			}

			result, err := codehem.Default().ApplyPatch(source, lang, xpath, string(newCode),
				core.PatchMode(mode), codehem.PatchOptions{OriginalHash: hash, DryRun: dryRun})
			if err != nil {
				return err
			}

			if !dryRun {
				if err := os.WriteFile(args[0], []byte(result.ModifiedCode), 0o644); err != nil {
					return core.IOError(args[0], err)
				}
				result.ModifiedCode = ""
			}
			return printJSON(result)
		},
	}
	cmd.Flags().StringVar(&xpath, "xpath", "", "element path expression")
	cmd.Flags().StringVar(&codeFile, "file", "", "file holding the new code")
	cmd.Flags().StringVar(&mode, "mode", "replace", "replace, append or prepend")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report the diff without writing")
	cmd.Flags().StringVar(&hash, "hash", "", "expected fragment hash (conflict detection)")
	return cmd
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func shallow(es []*core.Element) []*core.Element {
	out := make([]*core.Element, len(es))
	for i, e := range es {
		clone := *e
		clone.Children = nil
		out[i] = &clone
	}
	return out
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, core.ErrElementNotFound):
		return exitNotFound
	case errors.Is(err, core.ErrWriteConflict):
		return exitConflict
	case errors.Is(err, core.ErrIO):
		return exitIO
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrPathSyntax),
		errors.Is(err, core.ErrUnsupportedLanguage):
		return exitUsage
	}
	return 1
}
