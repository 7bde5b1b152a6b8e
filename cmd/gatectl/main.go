package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/gophgate/internal/client/cli"
	"github.com/dmitrijs2005/gophgate/internal/client/config"
	"github.com/dmitrijs2005/gophgate/internal/flagx"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	err = app.Run(ctx, flagx.Positional(os.Args[1:], config.ValueFlags))
	if cerr := app.Close(); cerr != nil {
		log.Printf("close: %v", cerr)
	}

	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}
