// Command provisionctl runs provisioning batches and ledger maintenance from a
// shell, against the same stores as the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		code := 1
		var coded *exitError
		if errors.As(err, &coded) {
			code = coded.code
		}
		os.Exit(code)
	}
}
