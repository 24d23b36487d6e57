package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/san-kum/pairsim/internal/analysis"
	"github.com/san-kum/pairsim/internal/config"
	"github.com/san-kum/pairsim/internal/dynamo"
	"github.com/san-kum/pairsim/internal/experiment"
	"github.com/san-kum/pairsim/internal/export"
	"github.com/san-kum/pairsim/internal/logger"
	"github.com/san-kum/pairsim/internal/optim"
	"github.com/san-kum/pairsim/internal/sim"
	"github.com/san-kum/pairsim/internal/storage"
	"github.com/san-kum/pairsim/internal/tui"
)

var (
	dataDir  string
	logLevel string
	logJSON  bool

	configFile string
	preset     string
	backend    string
	nlistMode  string
	particles  int
	box        float64
	workers    int
	seed       int64
	noStore    bool
	tail       bool

	sets   []string
	radius float64
	rFrom  float64
	rTo    float64
	points int
	shift  bool
	force  bool
	svgOut string
	charge []float64
	diam   []float64

	repeats     int
	backendList string
	metricsAddr string

	rdfMax  float64
	rdfBins int

	axes       []string
	metricName string

	outFile string
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

var registry = experiment.NewRegistry()

func main() {
	rootCmd := &cobra.Command{
		Use:   "pairsim",
		Short: "short-range pair force evaluation",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logJSON {
				logger.SetDefault(logger.New(logLevel, os.Stderr))
			} else {
				logger.SetDefault(logger.NewText(logLevel, os.Stderr))
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(registry, "")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pairsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")

	runCmd := &cobra.Command{
		Use:   "run [family]",
		Short: "compute forces for a configured system",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCompute,
	}
	addSystemFlags(runCmd)
	runCmd.Flags().BoolVar(&noStore, "no-store", false, "do not persist the run")

	evalCmd := &cobra.Command{
		Use:   "eval [family]",
		Short: "evaluate one pair at a separation",
		Args:  cobra.ExactArgs(1),
		RunE:  evalPair,
	}
	addPairFlags(evalCmd)
	evalCmd.Flags().Float64Var(&radius, "r", 1.0, "separation")

	curveCmd := &cobra.Command{
		Use:   "curve [family]",
		Short: "plot U(r) and F(r) for one pair",
		Args:  cobra.ExactArgs(1),
		RunE:  plotCurve,
	}
	addPairFlags(curveCmd)
	curveCmd.Flags().Float64Var(&rFrom, "from", 0, "first separation (default 0.3 r_cut)")
	curveCmd.Flags().Float64Var(&rTo, "to", 0, "cutoff (default from the preset)")
	curveCmd.Flags().IntVar(&points, "points", 80, "number of samples")
	curveCmd.Flags().BoolVar(&force, "force", false, "also plot the force")
	curveCmd.Flags().StringVar(&svgOut, "svg", "", "write the curve to an SVG file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata and particles to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	replayCmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "recompute a stored run from its configuration",
		Args:  cobra.ExactArgs(1),
		RunE:  replayRun,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).Delete(args[0])
		},
	}

	familiesCmd := &cobra.Command{
		Use:   "families",
		Short: "list compiled-in potential families",
		RunE:  listFamilies,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [family]",
		Short: "list available presets for a family",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init [family]",
		Short: "write a preset as a config file",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().StringVar(&preset, "preset", "", "preset name (default: first preset)")
	initCmd.Flags().StringVarP(&outFile, "out", "o", "pairsim.yaml", "output file")

	benchCmd := &cobra.Command{
		Use:   "bench [family]",
		Short: "time backends against each other",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchBackends,
	}
	addSystemFlags(benchCmd)
	benchCmd.Flags().IntVar(&repeats, "repeats", 5, "evaluations per backend")
	benchCmd.Flags().StringVar(&backendList, "backends", "cpu,group", "backends to compare")
	benchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")

	rdfCmd := &cobra.Command{
		Use:   "rdf [run_id]",
		Short: "radial distribution function of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  rdfRun,
	}
	rdfCmd.Flags().Float64Var(&rdfMax, "rmax", 0, "largest distance (default min(box/2, 3))")
	rdfCmd.Flags().IntVar(&rdfBins, "bins", 60, "number of bins")

	scanCmd := &cobra.Command{
		Use:   "scan [family]",
		Short: "grid search over pair parameters",
		Args:  cobra.MaximumNArgs(1),
		RunE:  scanParams,
	}
	addSystemFlags(scanCmd)
	scanCmd.Flags().StringArrayVar(&axes, "axis", nil, "scanned parameter, [A,B/]key=lo:hi:n or key=v1;v2 (repeatable)")
	scanCmd.Flags().StringVar(&metricName, "metric", "energy", "minimized metric ("+strings.Join(optim.MetricNames(), ", ")+")")

	exploreCmd := &cobra.Command{
		Use:   "explore [family]",
		Short: "interactive curve explorer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			family := ""
			if len(args) > 0 {
				family = args[0]
			}
			return tui.Run(registry, family)
		},
	}

	rootCmd.AddCommand(runCmd, evalCmd, curveCmd, listCmd, showCmd, exportCmd, replayCmd, deleteCmd,
		familiesCmd, presetsCmd, initCmd, benchCmd, scanCmd, rdfCmd, exploreCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func addSystemFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&backend, "backend", "", "auto, cpu or group")
	cmd.Flags().StringVar(&nlistMode, "nlist", "", "neighbor list mode (half, full)")
	cmd.Flags().IntVarP(&particles, "particles", "n", 0, "number of particles")
	cmd.Flags().Float64Var(&box, "box", 0, "cubic box edge")
	cmd.Flags().IntVar(&workers, "workers", 0, "host workers (0 = GOMAXPROCS)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().BoolVar(&tail, "tail", false, "apply tail corrections")
}

func addPairFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&sets, "set", nil, "override a pair parameter, key=value (repeatable)")
	cmd.Flags().BoolVar(&shift, "shift", true, "shift the energy to zero at the cutoff")
	cmd.Flags().Float64SliceVar(&charge, "charge", []float64{1, -1}, "charges of the two particles")
	cmd.Flags().Float64SliceVar(&diam, "diameter", []float64{1, 1}, "diameters of the two particles")
}

// signalContext is cancelled on interrupt so that long evaluations stop
// between chunks.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// loadConfig resolves --config, --preset and the family argument, then
// applies flag overrides.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	var (
		cfg   *config.Config
		label string
	)
	family := config.DefaultFamily
	if len(args) > 0 {
		family = args[0]
	}

	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg, label = c, configFile
	case preset != "":
		cfg = config.GetPreset(family, preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(family))
		}
		label = preset
	default:
		names := config.ListPresets(family)
		if len(names) == 0 {
			if _, err := registry.Get(family); err != nil {
				return nil, "", err
			}
			return nil, "", fmt.Errorf("family %s has no preset, use --config", family)
		}
		cfg, label = config.GetPreset(family, names[0]), names[0]
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Compute.Backend = backend
	}
	if flags.Changed("nlist") {
		cfg.Compute.NeighborList = nlistMode
	}
	if flags.Changed("particles") {
		cfg.System.N = particles
	}
	if flags.Changed("box") {
		cfg.System.Box = box
	}
	if flags.Changed("workers") {
		cfg.Compute.Workers = workers
	}
	if flags.Changed("seed") {
		cfg.System.Seed = seed
	}
	if flags.Changed("tail") {
		cfg.TailCorrection = tail
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, label, nil
}

func runCompute(cmd *cobra.Command, args []string) error {
	cfg, label, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	res, err := experiment.New(cfg, registry, logger.Default).Run(ctx)
	if err != nil {
		return err
	}
	printResult(label, res)

	if noStore {
		return nil
	}
	runID, err := storage.New(dataDir).Save(label, res)
	if err != nil {
		return fmt.Errorf("store run: %w", err)
	}
	fmt.Printf("\n%s %s\n", labelStyle.Render("stored"), runID)
	return nil
}

func replayRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	cfg, err := st.LoadConfig(args[0])
	if err != nil {
		return err
	}
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	res, err := experiment.New(cfg, registry, logger.Default).Run(ctx)
	if err != nil {
		return err
	}
	printResult(meta.Label, res)

	diff := math.Abs(res.Summary.TotalEnergy - meta.Summary.TotalEnergy)
	scale := math.Max(math.Abs(meta.Summary.TotalEnergy), 1)
	fmt.Printf("\n%s %.3e (stored %.10g)\n", labelStyle.Render("energy drift"), diff/scale, meta.Summary.TotalEnergy)
	return nil
}

func printResult(label string, res *experiment.Result) {
	s, st := res.Summary, res.Stats
	title := res.Config.Family
	if label != "" {
		title += " (" + label + ")"
	}
	fmt.Println(titleStyle.Render(title))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "backend\t%s\tworkers %d\tgroups %d x %d\n", st.Backend, st.Workers, st.Groups, st.Threads)
	fmt.Fprintf(w, "particles\t%d\tpairs %d\tevaluated %d\n", st.Particles, st.Pairs, st.Evaluated)
	fmt.Fprintf(w, "energy\t%.8g\tper particle %.6g\t\n", s.TotalEnergy, s.EnergyPerPart)
	fmt.Fprintf(w, "pressure\t%.6g\t\t\n", s.Pressure)
	if res.Config.TailCorrection {
		fmt.Fprintf(w, "tail\tE %.6g\tP %.6g\tcorrected %.8g\n", s.TailEnergy, s.TailPressure, s.CorrectedTotal)
	}
	fmt.Fprintf(w, "forces\tmax %.6g\tnet %.3e\t\n", s.MaxForce, s.NetForce)
	if st.Staged > 0 {
		fmt.Fprintf(w, "staging\t%d bytes\tloads %d\t\n", st.Staged, st.Loads)
	}
	fmt.Fprintf(w, "elapsed\t%v\t\t\n", st.Elapsed)
	w.Flush()
}

func pairFromFlags(family string) (*experiment.Family, pairInput, error) {
	fam, err := registry.Get(family)
	if err != nil {
		return nil, pairInput{}, err
	}
	in, err := defaultPair(family)
	if err != nil {
		return nil, pairInput{}, err
	}
	if in.rec, err = applySets(in.rec, sets); err != nil {
		return nil, pairInput{}, err
	}
	if _, err := fam.Normalize(in.rec); err != nil {
		return nil, pairInput{}, err
	}
	if len(charge) != 2 || len(diam) != 2 {
		return nil, pairInput{}, errors.New("--charge and --diameter take two values")
	}
	in.attrs.Charge = [2]float64{charge[0], charge[1]}
	in.attrs.Diameter = [2]float64{diam[0], diam[1]}
	return fam, in, nil
}

func evalPair(cmd *cobra.Command, args []string) error {
	fam, in, err := pairFromFlags(args[0])
	if err != nil {
		return err
	}
	s, err := sampleOne(fam, in, radius, shift)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "family\t%s\n", fam.Name)
	fmt.Fprintf(w, "r\t%g\n", radius)
	fmt.Fprintf(w, "r_cut\t%g\n", in.rcut)
	if !s.OK {
		fmt.Fprintf(w, "result\t%s\n", labelStyle.Render("no interaction"))
		return w.Flush()
	}
	fmt.Fprintf(w, "energy\t%.10g\n", s.Energy)
	fmt.Fprintf(w, "force\t%.10g\n", s.Force)
	fmt.Fprintf(w, "force/r\t%.10g\n", s.Force/radius)
	return w.Flush()
}

func plotCurve(cmd *cobra.Command, args []string) error {
	fam, in, err := pairFromFlags(args[0])
	if err != nil {
		return err
	}
	if rTo > 0 {
		in.rcut = rTo
	}
	from := rFrom
	if from <= 0 {
		from = 0.3 * in.rcut
	}
	samples, err := fam.Curve(in.rec, from, in.rcut, points, shift, in.attrs)
	if err != nil {
		return err
	}
	if len(samples) < 2 {
		return fmt.Errorf("empty range [%g, %g)", from, in.rcut)
	}

	well := 0.0
	for _, s := range samples {
		if s.OK {
			well = math.Min(well, s.Energy)
		}
	}
	lim := 3 * math.Abs(well)
	if lim == 0 {
		lim = 2 * math.Abs(samples[len(samples)/2].Energy)
	}
	if lim == 0 {
		lim = 1
	}
	clip := func(v float64) float64 { return math.Max(-lim, math.Min(lim, v)) }

	energy := make([]float64, len(samples))
	forces := make([]float64, len(samples))
	for i, s := range samples {
		if s.OK {
			energy[i] = clip(s.Energy)
			forces[i] = clip(s.Force)
		}
	}

	caption := fmt.Sprintf("%s U(r), r in [%.3g, %.3g)", fam.Name, from, in.rcut)
	if force {
		fmt.Println(asciigraph.PlotMany([][]float64{energy, forces},
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Green, asciigraph.Yellow),
			asciigraph.Caption(caption+", green U, yellow F")))
	} else {
		fmt.Println(asciigraph.Plot(energy,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption(caption)))
	}

	if svgOut != "" {
		svg := export.CurveToSVG(samples, export.CurveOptions{YLimit: lim, Force: force})
		if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("\n%s %s\n", labelStyle.Render("wrote"), svgOut)
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFAMILY\tLABEL\tTIME\tN\tBACKEND\tENERGY")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\t%.6g\n",
			run.ID,
			run.Family,
			run.Label,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Stats.Particles,
			run.Stats.Backend,
			run.Summary.TotalEnergy,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	rows, err := st.LoadParticles(args[0])
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(meta.ID))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "family\t%s\n", meta.Family)
	fmt.Fprintf(w, "label\t%s\n", meta.Label)
	fmt.Fprintf(w, "time\t%s\n", meta.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(w, "types\t%s\n", strings.Join(meta.Types, " "))
	fmt.Fprintf(w, "backend\t%s\n", meta.Stats.Backend)
	fmt.Fprintf(w, "energy\t%.8g\n", meta.Summary.TotalEnergy)
	fmt.Fprintf(w, "pressure\t%.6g\n", meta.Summary.Pressure)
	for _, key := range sortedKeys(meta.Records) {
		fmt.Fprintf(w, "%s\t%v\n", key, meta.Records[key])
	}
	w.Flush()

	if len(rows) < 2 {
		return nil
	}
	energy := make([]float64, len(rows))
	for i, r := range rows {
		energy[i] = r.Energy
	}
	h := analysis.NewHistogram(energy, 40)
	fmt.Println()
	fmt.Println(asciigraph.Plot(h.Floats(),
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("per-particle energy histogram, [%.4g, %.4g]", h.Min, h.Max))))
	return nil
}

func rdfRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	cfg, err := st.LoadConfig(args[0])
	if err != nil {
		return err
	}
	rows, err := st.LoadParticles(args[0])
	if err != nil {
		return err
	}

	sys := &sim.System{
		Positions: make([]dynamo.Vec3, len(rows)),
		Types:     make([]uint32, len(rows)),
		Box:       dynamo.NewCubicBox(cfg.System.Box),
	}
	for i, r := range rows {
		sys.Positions[i] = dynamo.Vec3{X: r.X, Y: r.Y, Z: r.Z}
	}
	rmax := rdfMax
	if rmax <= 0 {
		rmax = math.Min(0.5*cfg.System.Box, 3)
	}
	rdf, err := analysis.RadialDistribution(sys, rmax, rdfBins)
	if err != nil {
		return err
	}

	peakR, peakG := rdf.Peak()
	fmt.Println(asciigraph.Plot(rdf.G,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("g(r), r in [0, %.3g), peak %.3g at r=%.3g", rmax, peakG, peakR))))
	fmt.Printf("\n%s %.3f within r=%.3g\n", labelStyle.Render("coordination"), rdf.Coordination(peakR+rdf.Width), peakR+rdf.Width/2)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	data, err := storage.New(dataDir).Export(args[0])
	if err != nil {
		return err
	}
	if outFile == "" {
		return storage.WriteJSON(os.Stdout, data)
	}
	return storage.ExportJSON(outFile, data)
}

func listFamilies(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FAMILY\tKEYS\tNEEDS\tPRESETS")
	for _, name := range registry.List() {
		fam, err := registry.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			name,
			strings.Join(fam.Keys, " "),
			capabilityString(fam.Capabilities),
			strings.Join(config.ListPresets(name), " "))
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	families := config.ListFamilies()
	if len(args) > 0 {
		families = args
	}
	for _, family := range families {
		presets := config.ListPresets(family)
		if len(presets) == 0 {
			fmt.Printf("no presets for family: %s\n", family)
			continue
		}
		fmt.Printf("presets for %s:\n", family)
		for _, p := range presets {
			cfg := config.GetPreset(family, p)
			fmt.Printf("  %-12s %s\n", p, labelStyle.Render(fmt.Sprintf("n=%d box=%g types=%s", cfg.System.N, cfg.System.Box, strings.Join(cfg.Types, ","))))
		}
	}
	return nil
}

func initConfig(cmd *cobra.Command, args []string) error {
	family := args[0]
	name := preset
	if name == "" {
		names := config.ListPresets(family)
		if len(names) == 0 {
			return fmt.Errorf("no presets for family: %s", family)
		}
		name = names[0]
	}
	cfg := config.GetPreset(family, name)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets(family))
	}
	if err := config.Save(outFile, cfg); err != nil {
		return err
	}
	fmt.Printf("%s %s (%s/%s)\n", labelStyle.Render("wrote"), outFile, family, name)
	return nil
}

func benchBackends(cmd *cobra.Command, args []string) error {
	cfg, label, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	backends, err := parseBackends(backendList)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	var srv *http.Server
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Default.Error("metrics server", "error", err)
			}
		}()
		logger.Default.Info("serving metrics", slog.String("addr", metricsAddr))
	}

	results, err := experiment.New(cfg, registry, logger.Default).Bench(ctx, backends, repeats)
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %s (%s), %d particles\n\n", cfg.Family, label, cfg.System.N)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BACKEND\tREPEATS\tMEAN\tBEST\tPAIRS/SEC\tMAX REL DIFF")
	for _, r := range results {
		rate := 0.0
		if r.Best > 0 {
			rate = float64(r.Evaluated) / r.Best.Seconds()
		}
		fmt.Fprintf(w, "%s\t%d\t%v\t%v\t%.3g\t%.2e\n", r.Backend, r.Repeats, r.Mean, r.Best, rate, r.MaxDiff)
	}
	w.Flush()

	if srv != nil {
		fmt.Printf("\n%s http://%s/metrics (ctrl+c to stop)\n", labelStyle.Render("metrics at"), metricsAddr)
		<-ctx.Done()
		shutdown, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		return srv.Shutdown(shutdown)
	}
	return nil
}

func scanParams(cmd *cobra.Command, args []string) error {
	cfg, label, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(axes) == 0 {
		return errors.New("at least one --axis is required")
	}
	grid := make([]optim.Axis, 0, len(axes))
	for _, a := range axes {
		ax, err := optim.ParseAxis(a)
		if err != nil {
			return err
		}
		grid = append(grid, ax)
	}
	metric, err := optim.MetricByName(metricName)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	run := func(ctx context.Context, c *config.Config) (*experiment.Result, error) {
		return experiment.New(c, registry, logger.Default).Run(ctx)
	}
	best, all, err := optim.NewGridSearch(grid, metric).Search(ctx, cfg, run)
	if err != nil {
		return err
	}

	fmt.Printf("scanning %s (%s), %d points\n\n", cfg.Family, label, len(all))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := make([]string, 0, len(grid)+1)
	for _, ax := range grid {
		header = append(header, strings.ToUpper(ax.Name()))
	}
	fmt.Fprintln(w, strings.Join(append(header, strings.ToUpper(metricName)), "\t"))
	for _, p := range all {
		row := make([]string, 0, len(grid)+1)
		for _, ax := range grid {
			row = append(row, fmt.Sprintf("%.6g", p.Values[ax.Name()]))
		}
		fmt.Fprintln(w, strings.Join(append(row, fmt.Sprintf("%.8g", p.Metric)), "\t"))
	}
	w.Flush()

	parts := make([]string, 0, len(grid))
	for _, ax := range grid {
		parts = append(parts, fmt.Sprintf("%s=%.6g", ax.Name(), best.Values[ax.Name()]))
	}
	fmt.Printf("\n%s %s (%s %.8g)\n", titleStyle.Render("best"), strings.Join(parts, " "), metricName, best.Metric)
	return nil
}
