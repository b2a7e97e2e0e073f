// Manual split editor
//
// Opens (or prepares) the manual workspace of a source folder and lets the
// user place split lines page by page.
//
// Usage:
//
//	manualsplit -source <folder> [-workspace <dir>] [-overwrite] [-config <file>] [-debug]
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"

	"github.com/x956606865/reiChan-sub000/internal/config"
	"github.com/x956606865/reiChan-sub000/internal/gui"
	"github.com/x956606865/reiChan-sub000/internal/manual"
)

const (
	AppID      = "com.reichan.manualsplit"
	AppVersion = "1.0.0"
)

func main() {
	source := flag.String("source", "", "Folder with the scanned pages")
	workspace := flag.String("workspace", "", "Manual workspace folder (default <source>/split-manual)")
	overwrite := flag.Bool("overwrite", false, "Recreate the workspace")
	configPath := flag.String("config", "", "YAML configuration file")
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	logger := config.NewLogger(cfg.Logging, *debugMode)
	if err != nil {
		logger.WithError(err).Error("Invalid configuration")
		os.Exit(2)
	}
	if *source == "" {
		fmt.Fprintln(os.Stderr, "usage: manualsplit -source <folder> [-workspace <dir>] [-overwrite]")
		os.Exit(2)
	}
	directive, err := cfg.Directive()
	if err != nil {
		logger.WithError(err).Error("Invalid accelerator")
		os.Exit(2)
	}

	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"debug_mode": *debugMode,
		"source":     *source,
	}).Info("Starting manual split editor")

	svc := manual.NewService(logger)
	ctx, err := svc.Prepare(manual.PrepareRequest{
		SourceDirectory: *source,
		WorkspaceRoot:   *workspace,
		Overwrite:       *overwrite,
	})
	if err != nil {
		logger.WithError(err).Error("Failed to open workspace")
		if errors.Is(err, manual.ErrSourceMissing) || errors.Is(err, manual.ErrWorkspaceUnsafe) {
			os.Exit(2)
		}
		os.Exit(3)
	}

	a := app.NewWithID(AppID)
	a.SetIcon(theme.DocumentIcon())
	a.Settings().SetTheme(theme.DefaultTheme())

	gui.NewApplication(a, svc, ctx, directive, logger).ShowAndRun()

	logger.Info("Application shutting down gracefully")
}
