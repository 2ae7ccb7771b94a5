package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"snipt/engine"
	"snipt/keys"
	"snipt/platform"
	"snipt/store"
)

func newExpandCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand <typed text>",
		Short: "Show what typing some text would inject",
		Long: "Runs the expansion pipeline against the store without touching the keyboard.\n" +
			"A trailing space is assumed when the text does not end in a commit key.\n" +
			"Commands still run; URLs are reported instead of opened.",
		Example: `  snipt expand ':hi'
  snipt expand --app "Microsoft Teams" ':gh'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appName, _ := cmd.Flags().GetString("app")
			typed := args[0]
			if !strings.HasSuffix(typed, " ") && !strings.HasSuffix(typed, "\t") && !strings.HasSuffix(typed, "\n") {
				typed += " "
			}

			rec := platform.NewRecorder(appName)
			// Output files are only shown, never catted; drop them on exit.
			var cleanups []func()
			defer func() {
				for _, f := range cleanups {
					f()
				}
			}()
			eng := engine.New(engine.Options{
				Store:     store.New(a.paths.Store),
				Settings:  a.settings,
				Keys:      rec,
				App:       rec,
				Opener:    rec,
				Logger:    a.log,
				Sleep:     func(time.Duration) {},
				AfterFunc: func(_ time.Duration, f func()) { cleanups = append(cleanups, f) },
			})
			if err := eng.Reload(); err != nil {
				return err
			}
			for _, ev := range keys.Sequence(typed) {
				eng.HandleEvent(ev)
			}
			n := eng.Flush(cmd.Context())

			out := cmd.OutOrStdout()
			if n == 0 {
				fmt.Fprintln(out, "no expansion")
				return nil
			}
			if last := eng.Activity().Recent(); len(last) > 0 {
				if e := last[len(last)-1]; e.Error != "" {
					return fmt.Errorf("expansion failed: %s", e.Error)
				}
			}
			fmt.Fprintf(out, "delete: %d\n", rec.Backspaces())
			for _, u := range rec.Opened() {
				fmt.Fprintf(out, "open: %s\n", u)
			}
			if typedOut := rec.Typed(); typedOut != "" {
				fmt.Fprintf(out, "type:\n%s\n", typedOut)
			}
			return nil
		},
	}
	cmd.Flags().String("app", "", "Foreground application name to assume")
	return cmd
}
