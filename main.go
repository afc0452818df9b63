// Copyright 2025 The Itur Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/jcodagnone/itur/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
