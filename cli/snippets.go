package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rivo/uniseg"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"snipt/store"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty snippet store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.New(a.paths.Store).Init(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "snippet store ready at %s\n", a.paths.Store)
			return nil
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a snippet",
		Long:  "Add a snippet. The body comes from --snippet or, when omitted, from stdin.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shortcut, body, err := snippetFlags(cmd)
			if err != nil {
				return err
			}
			rec, err := store.New(a.paths.Store).Add(shortcut, body)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", rec.Shortcut)
			return nil
		},
	}
	cmd.Flags().StringP("shortcut", "s", "", "Shortcut, typed after : or ! (required)")
	cmd.Flags().StringP("snippet", "t", "", "Snippet body")
	cmd.MarkFlagRequired("shortcut")
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Replace a snippet's body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shortcut, body, err := snippetFlags(cmd)
			if err != nil {
				return err
			}
			s := store.New(a.paths.Store)
			rec, err := s.Update(shortcut, body)
			if err != nil {
				return withSuggestions(s, shortcut, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", rec.Shortcut)
			return nil
		},
	}
	cmd.Flags().StringP("shortcut", "s", "", "Shortcut to update (required)")
	cmd.Flags().StringP("snippet", "t", "", "New snippet body")
	cmd.MarkFlagRequired("shortcut")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete every snippet with a shortcut",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shortcut, _ := cmd.Flags().GetString("shortcut")
			n, err := store.New(a.paths.Store).Delete(shortcut)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d snippet(s)\n", n)
			return nil
		},
	}
	cmd.Flags().StringP("shortcut", "s", "", "Shortcut to delete (required)")
	cmd.MarkFlagRequired("shortcut")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print a snippet's body",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shortcut, _ := cmd.Flags().GetString("shortcut")
			s := store.New(a.paths.Store)
			rec, err := s.Get(shortcut)
			if err != nil {
				return withSuggestions(s, shortcut, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), rec.Snippet)
			return nil
		},
	}
	cmd.Flags().StringP("shortcut", "s", "", "Shortcut to print (required)")
	cmd.MarkFlagRequired("shortcut")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snippets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := store.New(a.paths.Store).Load()
			if errors.Is(err, store.ErrStoreMissing) {
				records, err = []store.Record{}, nil
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				data, err := store.Encode(records)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(out, "no snippets")
				return nil
			}
			width := termWidth(out)
			for _, r := range records {
				fmt.Fprintf(out, "%-20s %s\n", r.Shortcut, preview(r.Snippet, width-21))
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print the raw store")
	return cmd
}

// snippetFlags reads --shortcut and the body, falling back to stdin when
// --snippet was not given and input is piped.
func snippetFlags(cmd *cobra.Command) (string, string, error) {
	shortcut, _ := cmd.Flags().GetString("shortcut")
	if cmd.Flags().Changed("snippet") {
		body, _ := cmd.Flags().GetString("snippet")
		return shortcut, body, nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok {
		if stat, err := f.Stat(); err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return "", "", fmt.Errorf("snippet is required (--snippet or stdin)")
		}
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", "", fmt.Errorf("read stdin: %w", err)
	}
	body := strings.TrimRight(string(b), "\r\n")
	if body == "" {
		return "", "", fmt.Errorf("snippet is required (--snippet or stdin)")
	}
	return shortcut, body, nil
}

func withSuggestions(s *store.Store, shortcut string, err error) error {
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if sug := s.Suggest(shortcut); len(sug) > 0 {
		return fmt.Errorf("%w (did you mean %s?)", err, strings.Join(sug, ", "))
	}
	return err
}

// termWidth returns the terminal width of out, or 0 when out is not a
// terminal.
func termWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// preview flattens body onto one line and cuts it to max display cells.
// max <= 0 disables the cut.
func preview(body string, max int) string {
	line := strings.Join(strings.Fields(body), " ")
	if max <= 0 || uniseg.StringWidth(line) <= max {
		return line
	}
	var sb strings.Builder
	width := 0
	g := uniseg.NewGraphemes(line)
	for g.Next() {
		w := g.Width()
		if width+w > max-1 {
			break
		}
		sb.WriteString(g.Str())
		width += w
	}
	return sb.String() + "…"
}
