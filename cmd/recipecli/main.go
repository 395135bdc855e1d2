// Command recipecli is a terminal client for the recipe API.
//
//	recipecli [-server URL] register -email you@example.com
//	recipecli login -email you@example.com
//	recipecli profile
//	recipecli generate -tags vegan,quick -ingredients rice,beans
//	recipecli save -name Soup -ingredients water,salt -instructions "Boil."
//	recipecli list
//	recipecli logout
//
// Passwords are read from the terminal without echo.  The token from login
// is kept in the user config directory.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &App{
		In:        os.Stdin,
		Out:       os.Stdout,
		TokenPath: defaultTokenPath(),
	}
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
