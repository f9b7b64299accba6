// SPDX-FileCopyrightText: Copyright 2026 The metamcp-go Authors
// SPDX-License-Identifier: Apache-2.0

// Package main is the entry point for the smartproxyctl command.
package main

import (
	"fmt"
	"os"

	"github.com/lukolszewski/metamcp-go/cmd/smartproxyctl/app"
)

func main() {
	if err := app.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
