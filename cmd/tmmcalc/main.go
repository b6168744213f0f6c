// Command tmmcalc evaluates planar multilayer stacks with the transfer-matrix
// method, either once from the command line or as an HTTP service.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/agbru/tmmcalc/internal/app"
	apperrors "github.com/agbru/tmmcalc/internal/errors"
)

func main() {
	if app.HasVersionFlag(os.Args[1:]) {
		app.PrintVersion(os.Stdout)
		os.Exit(apperrors.ExitSuccess)
	}

	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			os.Exit(apperrors.ExitSuccess)
		}
		os.Exit(apperrors.ExitErrorConfig)
	}

	if err := application.ConfigureProcess(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(apperrors.ExitErrorConfig)
	}

	os.Exit(application.Run(context.Background(), os.Stdout))
}
