package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/spendtrail/spendtraild/internal/config"
	"github.com/spendtrail/spendtraild/internal/daemon"
	"github.com/spendtrail/spendtraild/internal/profile"
	"go.uber.org/fx"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadOrDefault(profile.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load config: %v\n", err)
		os.Exit(1)
	}

	app := fx.New(
		daemon.Module(daemon.Params{ProfileName: profileName, Config: cfg}),
	)

	app.Run()
}
