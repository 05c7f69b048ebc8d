// Package main is the entry point for the paceline application
package main

import (
	"github.com/tmcf/paceline/cmd"
	"github.com/tmcf/paceline/internal/config"
	"github.com/tmcf/paceline/internal/logger"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	cmd.Execute(cfg)
}
