package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/agbru/tmmcalc/internal/ui"
)

// setCustomUsage configures the flag set with a colored usage function.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		// NO_COLOR applies before the theme is initialized.
		t := ui.GetCurrentTheme()
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			t = ui.NoColorTheme
		}

		out := fs.Output()

		fmt.Fprintf(out, "\n%sTransfer-Matrix Calculator%s\n", t.Bold, t.Reset)
		fmt.Fprintf(out, "Vectorized reflection and transmission of planar multilayer stacks.\n\n")
		fmt.Fprintf(out, "%sUsage:%s\n  %s [flags]\n\n%sFlags:%s\n", t.Warning, t.Reset, fs.Name(), t.Warning, t.Reset)

		fs.VisitAll(func(f *flag.Flag) {
			name, usage := flag.UnquoteUsage(f)
			flagSig := fmt.Sprintf("-%s", f.Name)
			if len(name) > 0 {
				flagSig += " " + name
			}
			fmt.Fprintf(out, "  %s%-25s%s %s", t.Primary, flagSig, t.Reset, usage)
			if f.DefValue != "" && f.DefValue != "0" && f.DefValue != "false" {
				fmt.Fprintf(out, " %s(default %s)%s", t.Secondary, f.DefValue, t.Reset)
			}
			fmt.Fprintln(out)
		})

		fmt.Fprintf(out, "\n%sExamples:%s\n", t.Warning, t.Reset)
		fmt.Fprintf(out, "  %s -pol s -n 1,1.5,1 -d 1 -unit um\n", fs.Name())
		fmt.Fprintf(out, "  %s -freq 200e12 -angle 0:80:81 -stack film.json5 -backend gonum\n", fs.Name())
		fmt.Fprintf(out, "  %s -calibrate\n", fs.Name())
		fmt.Fprintf(out, "  %s -server -port 9090\n\n", fs.Name())
	}
}
