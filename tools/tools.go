//go:build tools
// +build tools

// Package tools 記錄 go generate 所需的工具依賴
package tools

import (
	_ "go.uber.org/mock/mockgen"
)

//go:generate go run go.uber.org/mock/mockgen -package=slack -destination=../adapters/slack/mock.go -source=../adapters/slack/interfaces.go
