package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/higgsanim/internal/automation"
	"github.com/san-kum/higgsanim/internal/config"
	"github.com/san-kum/higgsanim/internal/experiment"
	"github.com/san-kum/higgsanim/internal/lineshape"
	"github.com/san-kum/higgsanim/internal/lookup"
	"github.com/san-kum/higgsanim/internal/storage"
)

var (
	dataDir  string
	gridPath string
	// Config file
	configFile string
	// Preset name, mode/name
	preset string

	tanBeta    float64
	maRange    string
	particles  []string
	summed     []string
	mode       string
	channel    string
	sigmaSpec  string
	luminosity float64
	bins       int
	durationMS int
	frameTime  int
	logScale   bool
	logMin     float64
	shape      string
	sum        bool
	loopCount  int
	out        string
	framesDir  string
	reportPath string
	workers    int

	progress bool
	debug    bool
	frameIdx int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "higgsanim",
		Short: "animate Higgs boson lineshapes across an m_A scan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".higgsanim", "run store directory")
	rootCmd.PersistentFlags().StringVar(&gridPath, "grid", "", "lookup grid database (default from config)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log per-frame timings")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "render an animation",
		Args:  cobra.NoArgs,
		RunE:  runRender,
	}
	addAnimFlags(renderCmd)
	renderCmd.Flags().BoolVar(&progress, "progress", false, "show a live progress view")

	estimateCmd := &cobra.Command{
		Use:   "estimate",
		Short: "predict the peak height bound without rendering",
		Args:  cobra.NoArgs,
		RunE:  runEstimate,
	}
	addAnimFlags(estimateCmd)

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "render a single frame to png, svg or pdf",
		Args:  cobra.NoArgs,
		RunE:  runSnapshot,
	}
	addAnimFlags(snapshotCmd)
	snapshotCmd.Flags().IntVar(&frameIdx, "frame", 0, "frame index")

	inspectCmd := &cobra.Command{
		Use:   "inspect [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectRun,
	}
	inspectCmd.Flags().IntVar(&frameIdx, "frame", 0, "frame index to plot")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	importCmd := &cobra.Command{
		Use:   "import [csv]",
		Short: "load dataset,ma,tanb,value rows into the lookup grid",
		Args:  cobra.ExactArgs(1),
		RunE:  importGrid,
	}
	importCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	datasetsCmd := &cobra.Command{
		Use:   "datasets",
		Short: "list datasets in the lookup grid",
		RunE:  listDatasets,
	}
	datasetsCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	presetsCmd := &cobra.Command{
		Use:   "presets [mode]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modes := config.Modes()
			if len(args) > 0 {
				modes = args
			}
			for _, m := range modes {
				names := config.ListPresets(m)
				if len(names) == 0 {
					fmt.Printf("no presets for mode: %s\n", m)
					continue
				}
				fmt.Printf("presets for %s:\n", m)
				for _, p := range names {
					fmt.Printf("  %s/%s\n", m, p)
				}
			}
			return nil
		},
	}

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "render every animation of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	rootCmd.AddCommand(renderCmd, estimateCmd, snapshotCmd, inspectCmd, listCmd, exportJSONCmd, importCmd, datasetsCmd, presetsCmd, batchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addAnimFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration (mode/name)")
	f.Float64Var(&tanBeta, "tan-beta", d.TanBeta, "tan β")
	f.StringVar(&maRange, "ma", fmt.Sprintf("%g-%g", d.MAMin, d.MAMax), "m_A range in GeV (min-max)")
	f.StringSliceVar(&particles, "particles", d.Particles, "particles to draw")
	f.StringSliceVar(&summed, "summed", nil, "particles included in the sum (default all)")
	f.StringVar(&mode, "mode", d.Mode, "production mode")
	f.StringVar(&channel, "channel", "", "decay channel; applies branching ratios")
	f.StringVar(&sigmaSpec, "sigma", "", "gaussian resolution: absolute GeV or percent of mass (default 20%)")
	f.Float64Var(&luminosity, "lumi", d.Luminosity, "integrated luminosity in fb^-1")
	f.IntVar(&bins, "bins", d.Bins, "bins per curve")
	f.IntVar(&durationMS, "duration", d.DurationMS, "animation duration in ms")
	f.IntVar(&frameTime, "frame-time", d.FrameTimeMS, "time per frame in ms")
	f.BoolVar(&logScale, "log", false, "logarithmic y axis")
	f.Float64Var(&logMin, "log-min", d.LogMin, "y axis minimum with --log")
	f.StringVar(&shape, "shape", d.Shape, "lineshape: "+strings.Join(lineshape.Names(), "|"))
	f.BoolVar(&sum, "sum", false, "draw the summed curve")
	f.IntVar(&loopCount, "loop", 0, "gif loop count (0 forever, -1 once)")
	f.StringVarP(&out, "out", "o", d.Out, "output file")
	f.StringVar(&framesDir, "frames-dir", "", "also write every frame as png here")
	f.StringVar(&reportPath, "report", "", "write an html peak report here")
	f.IntVar(&workers, "workers", 0, "worker goroutines (0 = all cpus)")
}

// resolveConfig layers defaults, preset, config file and changed flags.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		m, name, _ := strings.Cut(preset, "/")
		p := config.GetPreset(m, name)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(m))
		}
		cfg = p
	}
	// config file overrides preset
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("tan-beta") {
		cfg.TanBeta = tanBeta
	}
	if f.Changed("ma") {
		lo, hi, err := parseRange(maRange)
		if err != nil {
			return nil, err
		}
		cfg.MAMin, cfg.MAMax = lo, hi
	}
	if f.Changed("particles") {
		cfg.Particles = particles
	}
	if f.Changed("summed") {
		cfg.Summed = summed
	}
	if f.Changed("mode") {
		cfg.Mode = mode
	}
	if f.Changed("channel") {
		cfg.Channel = channel
	}
	if f.Changed("sigma") {
		cfg.Sigma = sigmaSpec
	}
	if f.Changed("lumi") {
		cfg.Luminosity = luminosity
	}
	if f.Changed("bins") {
		cfg.Bins = bins
	}
	if f.Changed("duration") {
		cfg.DurationMS = durationMS
	}
	if f.Changed("frame-time") {
		cfg.FrameTimeMS = frameTime
	}
	if f.Changed("log") {
		cfg.LogScale = logScale
	}
	if f.Changed("log-min") {
		cfg.LogMin = logMin
	}
	if f.Changed("shape") {
		cfg.Shape = shape
	}
	if f.Changed("sum") {
		cfg.Sum = sum
	}
	if f.Changed("loop") {
		cfg.LoopCount = loopCount
	}
	if f.Changed("out") {
		cfg.Out = out
	}
	if f.Changed("frames-dir") {
		cfg.FramesDir = framesDir
	}
	if f.Changed("report") {
		cfg.Report = reportPath
	}
	if f.Changed("workers") {
		cfg.Workers = workers
	}
	if gridPath != "" {
		cfg.Grid = gridPath
	}
	return cfg, cfg.Validate()
}

func parseRange(s string) (float64, float64, error) {
	a, b, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("range %q must be min-max", s)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("range %q: %w", s, err)
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("range %q: %w", s, err)
	}
	return lo, hi, nil
}

func newLogger() *log.Logger {
	return log.New(os.Stderr, "", log.LstdFlags)
}

func openGrid(path string, logger *log.Logger) (*lookup.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("lookup grid %s: %w (load one with `higgsanim import`)", path, err)
	}
	return lookup.Open(path, logger)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()
	grid, err := openGrid(cfg.Grid, logger)
	if err != nil {
		return err
	}
	defer grid.Close()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	opts := experiment.Options{Debug: debug, Logger: logger}
	if progress {
		opts.Progress = os.Stdout
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("rendering %d frames of %s (m_A %g-%g GeV, tan β %g)...\n",
		cfg.FrameCount(), strings.Join(cfg.Particles, ","), cfg.MAMin, cfg.MAMax, cfg.TanBeta)
	res, err := experiment.New(cfg, grid, st, opts).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", res.Result.Elapsed)
	fmt.Printf("output: %s\n", cfg.Out)
	fmt.Printf("run id: %s\n", res.RunID)
	fmt.Printf("height bound: %.6g (axis max %.6g)\n", res.Result.Bound.Height, res.Result.YMax)
	fmt.Println("\nmetrics:")
	for name, val := range res.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}
	return nil
}

func runEstimate(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()
	grid, err := openGrid(cfg.Grid, logger)
	if err != nil {
		return err
	}
	defer grid.Close()

	ds, b, axis, err := experiment.New(cfg, grid, nil, experiment.Options{Debug: debug, Logger: logger}).Estimate(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("height bound: %.6g events/GeV (particle %s, frame %d, m_A %g)\n",
		b.Height, ds.Particles[b.Particle].Label, b.Frame, ds.Scan[b.Frame])
	if ds.AnySummed() {
		fmt.Printf("sum bound:    %.6g events/GeV\n", b.Total)
	}
	fmt.Printf("fwhm range:   %.4g - %.4g GeV\n", b.MinFWHM, b.MaxFWHM)
	fmt.Printf("axis:         [%.4g, %.4g] GeV, %d bins of %.4g GeV\n\n", axis.Min, axis.Max, axis.Bins, axis.BinWidth())

	data := make([]float64, ds.Frames())
	for i := range data {
		data[i] = b.FrameMax(i)
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("predicted peak per frame"),
	)
	fmt.Println(graph)
	return nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("out") {
		cfg.Out = fmt.Sprintf("frame_%04d.png", frameIdx)
	}
	logger := newLogger()
	grid, err := openGrid(cfg.Grid, logger)
	if err != nil {
		return err
	}
	defer grid.Close()

	f, err := experiment.New(cfg, grid, nil, experiment.Options{Debug: debug, Logger: logger}).Snapshot(cmd.Context(), frameIdx, cfg.Out)
	if err != nil {
		return err
	}
	fmt.Printf("%s\nwrote %s\n", f.Title, cfg.Out)
	return nil
}

func inspectRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rec, err := st.LoadCurves(runID)
	if err != nil {
		return err
	}
	if frameIdx < 0 || frameIdx >= len(rec.Frames) {
		return fmt.Errorf("frame %d outside [0, %d)", frameIdx, len(rec.Frames))
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("particles: %s  mode: %s  tan β: %g\n", strings.Join(meta.Particles, ","), meta.Mode, meta.TanBeta)
	fmt.Printf("frames: %d  bins: %d  sigma: %s  lumi: %g fb^-1\n", meta.Frames, meta.Bins, meta.Sigma, meta.Luminosity)
	fmt.Printf("bound: %.6g  axis: [%.4g, %.4g]\n\n", meta.Bound, meta.AxisMin, meta.AxisMax)

	frame := rec.Frames[frameIdx]
	graph := asciigraph.PlotMany(frame.Y,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green, asciigraph.Blue, asciigraph.Yellow),
		asciigraph.Caption(fmt.Sprintf("frame %d, m_A = %g GeV", frame.Index, frame.ScanValue)),
	)
	fmt.Println(graph)
	fmt.Printf("series (red, green, blue, yellow): %s\n", strings.Join(rec.Labels, ", "))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tPARTICLES\tMODE\tTANB\tM_A\tFRAMES\tOUTPUT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%g-%g\t%d\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			strings.Join(run.Particles, ","),
			run.Mode,
			run.TanBeta,
			run.ScanMin, run.ScanMax,
			run.Frames,
			run.Output,
		)
	}

	return w.Flush()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rec, err := st.LoadCurves(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Metadata *storage.RunMetadata `json:"metadata"`
		Curves   *storage.Recording   `json:"curves"`
	}{meta, rec})
}

func gridFromFlags() (string, error) {
	if gridPath != "" {
		return gridPath, nil
	}
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return "", fmt.Errorf("failed to load config: %w", err)
		}
		return cfg.Grid, nil
	}
	return config.DefaultGrid, nil
}

func importGrid(cmd *cobra.Command, args []string) error {
	path, err := gridFromFlags()
	if err != nil {
		return err
	}
	grid, err := lookup.Open(path, newLogger())
	if err != nil {
		return err
	}
	defer grid.Close()

	file, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	n, err := grid.Import(cmd.Context(), file)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d grid points into %s\n", n, path)
	return nil
}

func listDatasets(cmd *cobra.Command, args []string) error {
	path, err := gridFromFlags()
	if err != nil {
		return err
	}
	grid, err := openGrid(path, newLogger())
	if err != nil {
		return err
	}
	defer grid.Close()

	sets, err := grid.Datasets(cmd.Context())
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		fmt.Println("no datasets found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATASET\tPOINTS\tM_A\tTANB")
	for _, d := range sets {
		fmt.Fprintf(w, "%s\t%d\t%g-%g\t%g-%g\n", d.Name, d.Points, d.MAMin, d.MAMax, d.TanBetaMin, d.TanBetaMax)
	}
	return w.Flush()
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	cfgs, err := scenario.Configs()
	if err != nil {
		return err
	}

	path := cfgs[0].Grid
	if gridPath != "" {
		path = gridPath
	}
	logger := newLogger()
	grid, err := openGrid(path, logger)
	if err != nil {
		return err
	}
	defer grid.Close()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunScenario(ctx, scenario, grid, st, experiment.Options{Debug: debug, Logger: logger}, os.Stdout)
	for _, r := range results {
		fmt.Printf("  %s  %d frames  %v\n", r.RunID, r.Result.Frames, r.Result.Elapsed)
	}
	return err
}
