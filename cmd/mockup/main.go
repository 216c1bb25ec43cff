// Command mockup designs, prices and previews custom garments.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/mockup/internal/cli"
	mockuperr "github.com/matzehuels/mockup/pkg/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.New(os.Stderr, cli.LogInfo).RootCommand().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err))
}

// exitCode maps err to the process status: 130 after an interrupt, 2 for
// invalid input, 1 for anything else.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	}
	fmt.Fprintln(os.Stderr, err)
	if mockuperr.Is(err, mockuperr.ErrCodeValidation) || mockuperr.Is(err, mockuperr.ErrCodeInvalidInput) {
		return 2
	}
	return 1
}
