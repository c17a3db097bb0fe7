// Package main is the entry point for the git-cob CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/runoshun/git-cob/internal/app"
	"github.com/runoshun/git-cob/internal/cli"
	"github.com/runoshun/git-cob/internal/domain"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	container, err := app.New(cwd)
	if err != nil {
		// Allow running without git repo for help/version/config template
		if errors.Is(err, domain.ErrNotGitRepository) {
			return runWithoutContainer(err)
		}
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() { _ = container.Close() }()

	return cli.NewRootCommand(container, version).Execute()
}

// runWithoutContainer handles cases where git repo is not found.
func runWithoutContainer(gitErr error) error {
	if !canRunWithoutGit(os.Args[1:]) {
		return gitErr
	}
	return cli.NewRootCommand(nil, version).Execute()
}

func canRunWithoutGit(args []string) bool {
	if len(args) == 0 {
		return true
	}
	switch args[0] {
	case "help":
		return true
	case "config":
		return len(args) > 1 && args[1] == "template"
	}
	for _, arg := range args {
		if arg == "--version" || arg == "-v" || arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}
