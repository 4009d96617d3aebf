package main

import (
	"log/slog"

	"github.com/dripware/dripflow/pkg/dripflow"
)

func main() {

	//you may do your own logger setup here or use this default one with slog
	dripflow.SetupLogger()

	if err := dripflow.Start(nil); err != nil {
		slog.Error("Engine exited with error", "error", err)
	}
}
