// Command edusynth generates synthetic student datasets, trains the
// exam-score model and serves predictions.
package main

import (
	"os"

	"github.com/YuminosukeSato/edusynth/pkg/log"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.GetLogger().Error("command failed", err)
		os.Exit(1)
	}
}
