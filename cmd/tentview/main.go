package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/tentview/internal/config"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	// serve and export
	addr           string
	field          string
	colormapName   string
	representation string
	theme          string
	opacity        float64
	level          float64
	thresholdMode  string
	cellMode       string
	baseLayer      bool
	baseZ          float64
	axes           bool
	watchFile      bool
	withTUI        bool
	sessionID      string
	outPath        string
	svgPath        string
	bins           int
)

// main registers the tentview commands and runs the root command. With a
// file argument and no subcommand it serves the viewer.
func main() {
	rootCmd := &cobra.Command{
		Use:           "tentview [file]",
		Short:         "browser viewer for tent-pitched spacetime meshes",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return runServe(cmd, args)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "session directory (default from config)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	addViewFlags(rootCmd)
	addServeFlags(rootCmd)

	serveCmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "serve the viewer for a mesh file",
		Args:  cobra.ExactArgs(1),
		RunE:  runServe,
	}
	addViewFlags(serveCmd)
	addServeFlags(serveCmd)

	inspectCmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "summarise a mesh and plot a field histogram",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	inspectCmd.Flags().StringVar(&field, "field", "", "field to plot (default first field)")
	inspectCmd.Flags().IntVar(&bins, "bins", 40, "histogram bins")

	checkCmd := &cobra.Command{
		Use:   "check [file]...",
		Short: "validate mesh files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCheck,
	}

	exportCmd := &cobra.Command{
		Use:   "export [file]",
		Short: "write the thresholded geometry as a VTK file",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	addViewFlags(exportCmd)
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "threshold.vtk", "output file")
	exportCmd.Flags().StringVar(&svgPath, "svg", "", "also draw the view to an svg file")

	tuiCmd := &cobra.Command{
		Use:   "tui [file]",
		Short: "serve the viewer with a terminal control surface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			withTUI = true
			return runServe(cmd, args)
		},
	}
	addViewFlags(tuiCmd)
	addServeFlags(tuiCmd)

	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "list saved sessions",
		RunE:  listSessions,
	}
	sessionsCmd.AddCommand(&cobra.Command{
		Use:   "rm [id]",
		Short: "delete a saved session",
		Args:  cobra.ExactArgs(1),
		RunE:  removeSession,
	})

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list viewer presets",
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the effective configuration as yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(serveCmd, inspectCmd, checkCmd, exportCmd, tuiCmd, sessionsCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addViewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&field, "field", "", "active scalar field")
	cmd.Flags().StringVar(&colormapName, "colormap", "", "colormap preset")
	cmd.Flags().StringVar(&representation, "representation", "", "Points, Wireframe, Surface or \"Surface With Edges\"")
	cmd.Flags().StringVar(&theme, "theme", "", "light or dark")
	cmd.Flags().Float64Var(&opacity, "opacity", 1, "layer opacity in [0,1]")
	cmd.Flags().Float64Var(&level, "level", 0, "initial threshold level (default field maximum)")
	cmd.Flags().StringVar(&thresholdMode, "mode", "", "threshold bounds: lower [min, level] or upper [level, max]")
	cmd.Flags().StringVar(&cellMode, "cell-mode", "", "all: every point in range, any: value span overlaps range")
	cmd.Flags().BoolVar(&baseLayer, "base-layer", false, "draw the base slice layer")
	cmd.Flags().Float64Var(&baseZ, "base-z", config.DefaultBaseZ, "height of the base slice")
	cmd.Flags().BoolVar(&axes, "axes", false, "show axes")
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&watchFile, "watch", false, "reload the mesh when the file changes")
	cmd.Flags().BoolVar(&withTUI, "tui", false, "also show the terminal control surface")
	cmd.Flags().StringVar(&sessionID, "session", "", "restore a saved session by id or name")
}

// loadConfig applies the preset, then the config file on top of it, then
// any flag the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = addr
	}
	if flags.Changed("field") {
		cfg.Field = field
	}
	if flags.Changed("colormap") {
		cfg.Colormap = colormapName
		if !contains(cfg.Colormaps, colormapName) {
			cfg.Colormaps = append(cfg.Colormaps, colormapName)
		}
	}
	if flags.Changed("representation") {
		cfg.Representation = representation
	}
	if flags.Changed("theme") {
		cfg.Theme = theme
	}
	if flags.Changed("opacity") {
		cfg.Opacity = opacity
	}
	if flags.Changed("mode") {
		cfg.Threshold.Mode = thresholdMode
	}
	if flags.Changed("cell-mode") {
		cfg.Threshold.CellMode = cellMode
	}
	if flags.Changed("base-layer") {
		cfg.BaseLayer.Enabled = baseLayer
	}
	if flags.Changed("base-z") {
		cfg.BaseLayer.Z = baseZ
	}
	if flags.Changed("axes") {
		cfg.Axes = axes
	}
	if flags.Changed("watch") {
		cfg.Watch = watchFile
	}
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", logLevel)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
