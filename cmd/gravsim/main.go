package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/analysis"
	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/experiment"
	"github.com/san-kum/gravsim/internal/export"
	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/spawn"
	"github.com/san-kum/gravsim/internal/storage"
	"github.com/san-kum/gravsim/internal/viz"
)

var (
	dataDir  string
	logLevel string

	configFile   string
	preset       string
	dt           float64
	duration     float64
	seed         uint64
	solver       string
	integrator   string
	theta        float64
	epsilon      float64
	numBodies    int
	sampleEvery  int
	noCollisions bool
	watch        bool
	frameRate    int

	format    string
	outFile   string
	sizes     string
	repeats   int
	runs      int
	bodyID    uint64
	axis      string
	plane     string
	maxBodies int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gravsim",
		Short: "barnes-hut n-body gravity simulator",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gravsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a simulation and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().BoolVar(&watch, "watch", false, "draw the bodies while running")
	runCmd.Flags().IntVar(&frameRate, "fps", 30, "redraw rate with --watch")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot body count and energy of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportDataCmd := &cobra.Command{
		Use:   "export-data [run_id]",
		Short: "export metadata, frames and merges",
		Args:  cobra.ExactArgs(1),
		RunE:  exportData,
	}
	exportDataCmd.Flags().StringVar(&format, "format", "json", "output format (json|msgpack)")
	exportDataCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw body trajectories as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default <run_id>.svg)")
	exportSVGCmd.Flags().StringVar(&plane, "plane", "xy", "projection plane (xy|xz|yz)")
	exportSVGCmd.Flags().IntVar(&maxBodies, "max-bodies", 500, "draw only the heaviest n bodies (0 for all)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "estimate the orbital period of a body",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Uint64Var(&bodyID, "body", 1, "body id")
	analyzeCmd.Flags().StringVar(&axis, "axis", "x", "coordinate to analyse (x|y|z|r)")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time each force solver over a range of body counts",
		RunE:  benchSolvers,
	}
	benchCmd.Flags().StringVar(&sizes, "n", "100,1000,5000", "comma separated body counts")
	benchCmd.Flags().IntVar(&repeats, "repeat", 3, "evaluations per measurement")
	benchCmd.Flags().Float64Var(&theta, "theta", gravity.DefaultTheta, "opening angle")
	benchCmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "compare solver accelerations against direct summation",
		RunE:  compareSolvers,
	}
	compareCmd.Flags().IntVar(&numBodies, "bodies", 1000, "number of bodies")
	compareCmd.Flags().Float64Var(&theta, "theta", gravity.DefaultTheta, "opening angle")
	compareCmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in presets",
		RunE:  listPresets,
	}

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [preset]",
		Short: "run one configuration over consecutive seeds",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	addConfigFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&runs, "runs", 4, "number of seeds")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addConfigFlags(liveCmd)

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportDataCmd, exportSVGCmd,
		analyzeCmd, benchCmd, compareCmd, presetsCmd, ensembleCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
	return nil
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file (yaml, or .gcfg/.ini)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "random seed")
	cmd.Flags().StringVar(&solver, "solver", config.DefaultSolver, "force solver ("+strings.Join(compute.Names(), "|")+")")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator (symplectic|euler)")
	cmd.Flags().Float64Var(&theta, "theta", gravity.DefaultTheta, "opening angle")
	cmd.Flags().Float64Var(&epsilon, "epsilon", gravity.DefaultEpsilon, "softening length")
	cmd.Flags().IntVar(&numBodies, "bodies", 0, "number of spawned bodies")
	cmd.Flags().IntVar(&sampleEvery, "sample-every", config.DefaultSampleEvery, "record a frame every n ticks")
	cmd.Flags().BoolVar(&noCollisions, "no-collisions", false, "disable merging")
}

// resolveConfig picks the base configuration (preset argument, --preset,
// --config, or the default spawn) and applies the flags the user set.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	name := preset
	if len(args) > 0 {
		name = args[0]
	}

	var cfg *config.Config
	switch {
	case name != "":
		cfg = config.GetPreset(name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", name, strings.Join(config.ListPresets(), ", "))
		}
	case configFile != "":
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	default:
		cfg = config.DefaultConfig()
		cfg.Spawn.Count = 200
		cfg.Spawn.CentralBody = true
		cfg.Spawn.CenterMassMin, cfg.Spawn.CenterMassMax = 1000, 1000
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("solver") {
		cfg.Solver = solver
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("theta") {
		cfg.Gravity.Theta = theta
	}
	if flags.Changed("epsilon") {
		cfg.Gravity.Epsilon = epsilon
	}
	if flags.Changed("bodies") {
		cfg.Spawn.Count = numBodies
	}
	if flags.Changed("sample-every") {
		cfg.SampleEvery = sampleEvery
	}
	if flags.Changed("no-collisions") {
		cfg.Collision.Enabled = !noCollisions
	}

	return cfg, cfg.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return err
	}

	if watch {
		p := viz.NewPrinter(os.Stdout, cfg.Name, frameRate, viz.FitScale(exp.Simulator().Store().Bodies()))
		exp.Simulator().AddObserver(p)
		p.Start()
		defer p.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}
	elapsed := time.Since(start)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(exp.Info(), result)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	fmt.Printf("run: %s\n", runID)
	fmt.Printf("steps: %d  frames: %d  merges: %d  bodies: %d  elapsed: %v\n",
		result.StepsTaken, len(result.Frames), len(result.Merges), result.FinalCount, elapsed.Round(time.Millisecond))
	fmt.Printf("energy drift: %.3e\n", result.EnergyDrift)
	for _, name := range []string{"energy", "momentum_drift", "containment"} {
		if v, ok := result.Metrics[name]; ok {
			fmt.Printf("%s: %.6g\n", name, v)
		}
	}
	for _, e := range result.Errors {
		fmt.Printf("error: %v\n", e)
	}

	if runErr != nil {
		return fmt.Errorf("run interrupted, partial result saved: %w", runErr)
	}
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
	fmt.Fprintln(w, "ID\tTIME\tSOLVER\tINTEG\tDT\tDURATION\tBODIES\tMERGES\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.4g\t%.2f\t%d→%d\t%d\t%.2e\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Solver,
			run.Integrator,
			run.Dt,
			run.Duration,
			run.InitialBodies,
			run.FinalBodies,
			run.Merges,
			run.EnergyDrift,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no data to plot")
	}

	law := gravity.NewLaw(meta.G, meta.Epsilon)
	counts := make([]float64, len(frames))
	energy := make([]float64, len(frames))
	for i, fr := range frames {
		counts[i] = float64(len(fr.Bodies))
		energy[i] = metrics.TotalEnergy(law, fr.Bodies)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("solver: %s  integrator: %s\n", meta.Solver, meta.Integrator)
	fmt.Printf("frames: %d  t=[%.3f, %.3f]\n\n", len(frames), frames[0].Time, frames[len(frames)-1].Time)

	fmt.Println(asciigraph.Plot(counts,
		asciigraph.Height(8),
		asciigraph.Width(80),
		asciigraph.Caption("body count"),
	))
	fmt.Println()
	fmt.Println(asciigraph.Plot(energy,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("total energy"),
	))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportData(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	data, err := st.Export(args[0])
	if err != nil {
		return err
	}

	out := os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if err := storage.Export(out, format, data); err != nil {
		return err
	}
	if outFile != "" {
		fmt.Fprintf(os.Stderr, "exported %s to %s (%s)\n", args[0], outFile, format)
	}
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	merges, err := st.LoadMerges(runID)
	if err != nil {
		return err
	}

	path := outFile
	if path == "" {
		path = runID + ".svg"
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := export.TrajectoriesSVG(f, frames, merges, export.SVGOptions{Plane: plane, MaxBodies: maxBodies}); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", runID, path)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	ax, err := analysis.ParseAxis(axis)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	series, err := analysis.Track(frames, dynamo.BodyID(bodyID), ax)
	if err != nil {
		return err
	}
	period, err := analysis.DominantPeriod(series)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s  body: %d  axis: %s\n", runID, bodyID, axis)
	fmt.Printf("samples: %d  interval: %.4g\n", len(series.Values), series.Interval)
	fmt.Printf("dominant period: %.6g\n\n", period)
	fmt.Println(asciigraph.Plot(series.Values,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("body %d %s (centre-of-mass frame)", bodyID, axis)),
	))
	return nil
}

func parseSizes(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid body count %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

// benchBodies spawns n bodies in a unit-density ball of radius 10.
func benchBodies(n int, seed uint64) ([]mgl64.Vec3, []float64, error) {
	bodies, err := spawn.Generate(spawn.Config{
		Seed:     seed,
		Count:    n,
		Bounds:   mgl64.Vec3{10, 10, 10},
		MassMin:  0.5,
		MassMax:  1.5,
		Velocity: spawn.VelocityNone,
	})
	if err != nil {
		return nil, nil, err
	}
	pos := make([]mgl64.Vec3, n)
	mass := make([]float64, n)
	for i, b := range bodies {
		pos[i], mass[i] = b.Position, b.Mass
	}
	return pos, mass, nil
}

func benchSolvers(cmd *cobra.Command, args []string) error {
	ns, err := parseSizes(sizes)
	if err != nil {
		return err
	}
	params := gravity.DefaultParams()
	params.Theta = theta

	fmt.Printf("benchmarking force solvers (theta=%.2f, %d evaluations each)\n\n", theta, repeats)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "N\tSOLVER\tTIME/EVAL\tBODIES/SEC")

	for _, n := range ns {
		pos, mass, err := benchBodies(n, seed)
		if err != nil {
			return err
		}
		acc := make([]mgl64.Vec3, n)

		for _, name := range []string{"direct", "tree", "gonum"} {
			backend, err := compute.New(name, params)
			if err != nil {
				return err
			}

			start := time.Now()
			for r := 0; r < max(repeats, 1); r++ {
				if err := backend.Accelerations(pos, mass, acc); err != nil {
					return err
				}
			}
			per := time.Since(start) / time.Duration(max(repeats, 1))

			fmt.Fprintf(w, "%d\t%s\t%v\t%.0f\n", n, name, per, float64(n)/per.Seconds())
		}
	}

	return w.Flush()
}

func compareSolvers(cmd *cobra.Command, args []string) error {
	params := gravity.DefaultParams()
	params.Theta = theta

	pos, mass, err := benchBodies(numBodies, seed)
	if err != nil {
		return err
	}

	ref := make([]mgl64.Vec3, numBodies)
	if err := compute.NewDirectBackend(params).Accelerations(pos, mass, ref); err != nil {
		return err
	}

	fmt.Printf("comparing solvers against direct summation (n=%d, theta=%.2f)\n\n", numBodies, theta)
	fmt.Printf("%-8s  %-12s  %-12s  %-12s\n", "solver", "mean_rel", "max_rel", "time_ms")
	fmt.Println(strings.Repeat("-", 50))

	for _, name := range []string{"tree", "gonum"} {
		backend, err := compute.New(name, params)
		if err != nil {
			fmt.Printf("%-8s  error: %v\n", name, err)
			continue
		}

		acc := make([]mgl64.Vec3, numBodies)
		start := time.Now()
		if err := backend.Accelerations(pos, mass, acc); err != nil {
			fmt.Printf("%-8s  error: %v\n", name, err)
			continue
		}
		elapsed := time.Since(start)

		var sum, worst float64
		for i := range acc {
			denom := ref[i].Len()
			if denom == 0 {
				continue
			}
			rel := acc[i].Sub(ref[i]).Len() / denom
			sum += rel
			worst = math.Max(worst, rel)
		}

		fmt.Printf("%-8s  %12.3e  %12.3e  %12.2f\n", name, sum/float64(numBodies), worst, float64(elapsed.Microseconds())/1000)
	}

	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSOLVER\tBODIES\tDT\tDURATION\tTHETA\tCOLLISIONS")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%d\t%g\t%g\t%g\t%v\n",
			name, p.Solver, experiment.Info(p).Bodies, p.Dt, p.Duration, p.Gravity.Theta, p.Collision.Enabled)
	}
	return w.Flush()
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if runs <= 0 {
		return fmt.Errorf("runs must be positive, got %d", runs)
	}

	reg := experiment.NewRegistry()
	factory := func(s uint64) (*sim.Simulator, error) {
		c := cfg.Clone()
		c.Seed = s
		return experiment.Build(reg, c)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	ens := sim.NewEnsemble(factory, runs, cfg.Seed)
	results, runErr := ens.Run(ctx, cfg.RunConfig())
	if runErr != nil {
		slog.Warn("ensemble members failed", "error", runErr)
	}

	fmt.Printf("ensemble of %d runs of %s in %v\n\n", runs, cfg.Name, time.Since(start).Round(time.Millisecond))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTEPS\tBODIES\tMERGES\tDRIFT\tCONTAINMENT")
	for i, r := range results {
		if r == nil {
			fmt.Fprintf(w, "%d\t-\t-\t-\t-\t-\n", ens.Seed(i))
			continue
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%.2e\t%.3f\n",
			ens.Seed(i), r.StepsTaken, r.FinalCount, len(r.Merges), r.EnergyDrift, r.Metrics["containment"])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	m, err := viz.NewConfigModel(cfg)
	if err != nil {
		return err
	}
	return viz.RunLive(m)
}
