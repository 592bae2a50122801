// Package main is the camcalib command line tool: it inspects camera model files, projects and lifts
// points through them and estimates target poses from calibration views.
package main

import (
	"os"

	"go.viam.com/utils"

	"github.com/plushpluto/MYNT-EYE-S-SDK/logging"
)

func main() {
	logger := logging.NewLogger("camcalib")
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		logger.Errorw("command failed", "error", err)
		utils.UncheckedError(logger.Sync())
		os.Exit(1)
	}
}
