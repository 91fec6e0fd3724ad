/*
 * Copyright (C) 2025-2026, LabForge Authors. All rights reserved.
 * See LICENSE for license information.
 */

package main

import (
	"fmt"

	worker "github.com/labforge/homeops/worker/pkg/server"
)

func main() {
	s, err := worker.NewServer()
	if err != nil {
		fmt.Println("failed to new server")
		return
	}
	s.Start()
}
