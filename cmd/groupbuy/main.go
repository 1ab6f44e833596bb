// Command groupbuy runs the LINE group-buy bot as a standalone server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/xraph/groupbuy/app"
)

func main() {
	if err := app.Run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "groupbuy:", err)
		os.Exit(1)
	}
}
