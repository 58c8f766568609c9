//go:build tools
// +build tools

// Package tools pins build tooling versions.
package tools

import (
	_ "github.com/golangci/golangci-lint/cmd/golangci-lint"
)
