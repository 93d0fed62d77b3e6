package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/0x0FACED/go-hydromesh/pkg/config"
	meshErr "github.com/0x0FACED/go-hydromesh/pkg/errors"
	"github.com/0x0FACED/go-hydromesh/pkg/logger"
	"github.com/0x0FACED/go-hydromesh/pkg/raster"
	"github.com/0x0FACED/go-hydromesh/pkg/watershed"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(meshErr.ExitCode(err))
	}
}

// app holds the flags shared by every command.
type app struct {
	configPath    string
	watershedPath string
	demPath       string
	outDir        string
	verbose       bool
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "hydromesh",
		Short:         "Build river and Voronoi mesh element files from a delineated watershed",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "YAML or TOML config file")
	pf.StringVarP(&a.watershedPath, "watershed", "w", "", "watershed file (YAML or JSON)")
	pf.StringVar(&a.demPath, "dem", "", "ESRI ASCII elevation grid")
	pf.StringVarP(&a.outDir, "out-dir", "o", "", "output directory, overrides output.dir")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(a.newRunCmd())
	root.AddCommand(a.newPreviewCmd())
	root.AddCommand(a.newServeCmd())
	root.AddCommand(a.newValidateCmd())
	return root
}

// loadConfig reads the config layers and applies the command line
// overrides on top.
func (a *app) loadConfig() (config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return cfg, err
	}
	if a.outDir != "" {
		cfg.Output.Dir = a.outDir
	}
	if a.verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

func (a *app) newLogger(cfg config.Config, capture bool) (*logger.ZapLogger, error) {
	log, err := logger.New(logger.Options{
		Level:    logger.ParseLevel(cfg.Log.Level),
		JSONFile: cfg.Log.JSONFile,
		Capture:  capture,
	})
	if err != nil {
		return nil, meshErr.Wrap(meshErr.ErrCodeIO, err, "open log file %s", cfg.Log.JSONFile)
	}
	return log, nil
}

// loadInputs reads the watershed and, when --dem is set, the elevation
// grid.
func (a *app) loadInputs() (*watershed.Basin, *raster.DEM, error) {
	if a.watershedPath == "" {
		return nil, nil, meshErr.New(meshErr.ErrCodeInvalidInput, "--watershed is required")
	}
	ws, err := watershed.Load(a.watershedPath)
	if err != nil {
		return nil, nil, err
	}
	if a.demPath == "" {
		return ws, nil, nil
	}
	dem, err := raster.LoadASCII(a.demPath)
	if err != nil {
		return nil, nil, err
	}
	return ws, dem, nil
}
