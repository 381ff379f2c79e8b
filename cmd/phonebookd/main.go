package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"github.com/nexoft/phonebook/internal/daemon"
	"github.com/nexoft/phonebook/internal/profile"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	flag.Parse()

	// Optional .env in the working directory feeds PHONEBOOK_* overrides.
	_ = godotenv.Load()

	name := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(name); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{Profile: name}),
	)

	app.Run()
}
