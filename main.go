// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/nomad-rest-client/command"
	"github.com/hashicorp/nomad-rest-client/version"
	"github.com/mitchellh/cli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// create context to handle signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ui := &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}
	meta := command.Meta{Ctx: ctx, Ui: ui}

	c := cli.NewCLI("nomad-rest-client", version.GetHumanVersion())
	c.Args = args
	c.Commands = map[string]cli.CommandFactory{
		"logs": func() (cli.Command, error) {
			return &command.LogsCommand{Meta: meta}, nil
		},
		"alloc-wait": func() (cli.Command, error) {
			return command.NewAllocWaitCommand(meta), nil
		},
		"task-wait": func() (cli.Command, error) {
			return command.NewTaskWaitCommand(meta), nil
		},
		"job-wait": func() (cli.Command, error) {
			return command.NewJobWaitCommand(meta), nil
		},
		"deployment-wait": func() (cli.Command, error) {
			return command.NewDeploymentWaitCommand(meta), nil
		},
		"node-drain": func() (cli.Command, error) {
			return &command.NodeDrainCommand{Meta: meta}, nil
		},
		"version": func() (cli.Command, error) {
			return &command.VersionCommand{Version: version.GetHumanVersion(), Ui: ui}, nil
		},
	}

	exitCode, err := c.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %v\n", err)
		return 1
	}
	return exitCode
}
