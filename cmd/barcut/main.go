// BarCut: lexicographic cutting-stock optimizer for bars and rebar.
//
// Reads cut lists from CSV, Excel, YAML/JSON or DXF, minimizes the number of
// stock bars per category, then minimizes waste at that bar count, and
// writes cutting instructions as text, PDF, XLSX, DXF or QR labels.
//
// Build:
//   go build -o barcut ./cmd/barcut

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}
