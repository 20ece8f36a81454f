package main

import (
	"bytes"
	"fmt"
	"log"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/komandara/k10fabric/agent"
	"github.com/komandara/k10fabric/datarecording"
	"github.com/komandara/k10fabric/fabric/arbitration"
	"github.com/komandara/k10fabric/fabric/bus"
	"github.com/komandara/k10fabric/monitoring"
	"github.com/komandara/k10fabric/sim"
	"github.com/komandara/k10fabric/simulation"
	"github.com/komandara/k10fabric/soc"
	"github.com/komandara/k10fabric/tracing"
)

// The traffic the initiators generate.
const (
	modeSelfTest = "selftest"
	modeRandom   = "random"
)

type runOptions struct {
	specPath    string
	image       string
	maxCycles   uint64
	policy      string
	mode        string
	seed        int64
	accesses    uint64
	traceDB     string
	driver      string
	monitor     bool
	monitorPort int
	browser     bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the fabric until the software reports or a bound is reached.",
	Long: "`run` builds the K10 SoC and runs it. In selftest mode the data " +
		"initiator runs the bus self-test and reports through SIM_CTRL. " +
		"In random mode both initiators issue random accesses to memory " +
		"and check the data they read back.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := runOpts.applyEnv(cmd.Flags()); err != nil {
			return err
		}

		return runSimulation(cmd, runOpts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd.Flags(), &runOpts)
}

func addRunFlags(f *pflag.FlagSet, o *runOptions) {
	f.StringVar(&o.specPath, "spec", "",
		"YAML system description, defaults are used if not set")
	f.StringVar(&o.image, "image", "",
		"hex image to load into memory")
	f.Uint64Var(&o.maxCycles, "cycles", 0,
		"cycle bound of the run, overrides "+envMaxCycles)
	f.StringVar(&o.policy, "policy", "",
		"arbitration policy, round-robin or fixed-priority, overrides "+
			envArbitration)
	f.StringVar(&o.mode, "mode", modeSelfTest,
		"traffic to run, selftest or random")
	f.Int64Var(&o.seed, "seed", 1, "seed of the random traffic")
	f.Uint64Var(&o.accesses, "accesses", 1000,
		"accesses per initiator in random mode")
	f.StringVar(&o.traceDB, "trace-db", "",
		"record the bus transactions into this SQLite file, overrides "+
			envTraceDB)
	f.StringVar(&o.driver, "driver", datarecording.DriverCGo,
		"SQLite driver of the trace database, sqlite3 or sqlite")
	f.BoolVar(&o.monitor, "monitor", false,
		"serve the monitoring API while running")
	f.IntVar(&o.monitorPort, "monitor-port", 0,
		"port of the monitoring API, enables monitoring, overrides "+
			envMonitorPort)
	f.BoolVar(&o.browser, "browser", false,
		"open the monitoring API in a browser")
}

// applyEnv fills the options whose flags are not set from the environment.
func (o *runOptions) applyEnv(flags *pflag.FlagSet) error {
	if !flags.Changed("cycles") {
		n, err := envUint(envMaxCycles, o.maxCycles)
		if err != nil {
			return err
		}

		o.maxCycles = n
	}

	if !flags.Changed("policy") {
		o.policy = envString(envArbitration, o.policy)
	}

	if !flags.Changed("trace-db") {
		o.traceDB = envString(envTraceDB, o.traceDB)
	}

	if !flags.Changed("monitor-port") {
		port, err := envInt(envMonitorPort, o.monitorPort)
		if err != nil {
			return err
		}

		o.monitorPort = port
	}

	if o.monitorPort != 0 || o.browser {
		o.monitor = true
	}

	return nil
}

// resolveSpec loads the system description and applies the overrides.
func (o runOptions) resolveSpec() (soc.Spec, error) {
	spec := soc.Defaults()

	if o.specPath != "" {
		var err error

		spec, err = soc.LoadSpec(o.specPath)
		if err != nil {
			return spec, err
		}
	}

	if o.maxCycles != 0 {
		spec.MaxCycles = o.maxCycles
	}

	if o.policy != "" {
		p, err := arbitration.ParsePolicy(o.policy)
		if err != nil {
			return spec, err
		}

		spec.Arbitration = p
	}

	if o.image != "" {
		spec.Memory.Image = o.image
	}

	return spec, spec.Validate()
}

// buildAgents creates the agents of the IFetch and Data initiators.
func (o runOptions) buildAgents(spec soc.Spec) (ifetch, data agent.Agent, err error) {
	mem := spec.MemoryRange()
	words := uint32(spec.MemorySize() / bus.NumByteLanes)

	switch o.mode {
	case modeSelfTest:
		ifetch = agent.NewSequentialAgent("IFetch", mem.Base, words, 0)
		data = agent.NewScriptedAgent("SelfTest", agent.SelfTest(spec.SelfTestMap()))
	case modeRandom:
		half := uint32(spec.MemorySize() / 2)
		lower := bus.AddrRange{Base: mem.Base, Mask: mem.Mask | half}
		upper := bus.AddrRange{Base: mem.Base | half, Mask: mem.Mask | half}

		ifetch = agent.MakeRandomBuilder().
			WithSeed(o.seed).
			WithWindow(lower).
			WithNumAccesses(o.accesses).
			Build("IFetch")
		data = agent.MakeRandomBuilder().
			WithSeed(o.seed + 1).
			WithWindow(upper).
			WithNumAccesses(o.accesses).
			Build("Data")
	default:
		err = errors.Errorf("unknown mode %q", o.mode)
	}

	return ifetch, data, err
}

func (o runOptions) buildSimulation(engine sim.Engine) (*simulation.Simulation, error) {
	b := simulation.MakeBuilder().WithEngine(engine)

	if o.traceDB == "" {
		b = b.WithoutRecording()
	} else {
		b = b.WithOutputFileName(o.traceDB).WithDriver(o.driver)
	}

	if o.monitor {
		b = b.WithMonitorPort(o.monitorPort).WithBrowser(o.browser)
	} else {
		b = b.WithoutMonitoring()
	}

	return b.Build()
}

// portStats collects the latency and busy time of the transactions of an
// initiator.
type portStats struct {
	port    *agent.Port
	latency *tracing.AverageTimeTracer
	busy    *tracing.BusyTimeTracer
}

func attachStats(engine sim.TimeTeller, k10 *soc.SoC) []portStats {
	filter := tracing.KindFilter("read", "write")

	stats := make([]portStats, 0, 2)
	for _, i := range []int{soc.IFetch, soc.Data} {
		p := k10.Port(i)
		s := portStats{
			port:    p,
			latency: tracing.NewAverageTimeTracer(engine, filter),
			busy:    tracing.NewBusyTimeTracer(engine, filter),
		}

		tracing.CollectTrace(p.Adapter(), s.latency)
		tracing.CollectTrace(p.Adapter(), s.busy)

		stats = append(stats, s)
	}

	return stats
}

func registerWithMonitor(s *simulation.Simulation, k10 *soc.SoC) {
	s.RegisterComponent(k10)
	s.RegisterComponent(k10.Crossbar())

	for _, ep := range k10.Endpoints() {
		s.RegisterComponent(ep)
	}

	for _, b := range k10.Crossbar().Buffers() {
		s.RegisterBuffer(b)
	}

	s.RegisterCycler(k10)
}

// A progressHook moves a progress bar along with the cycle count.
type progressHook struct {
	bar    *monitoring.ProgressBar
	cycler monitoring.Cycler
}

func (h *progressHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != sim.HookPosAfterEvent {
		return
	}

	h.bar.SetFinished(h.cycler.Cycle())
}

func runSimulation(cmd *cobra.Command, o runOptions) error {
	spec, err := o.resolveSpec()
	if err != nil {
		return err
	}

	ifetch, data, err := o.buildAgents(spec)
	if err != nil {
		return err
	}

	engine := sim.NewSerialEngine()

	s, err := o.buildSimulation(engine)
	if err != nil {
		return err
	}
	defer s.Terminate()

	uartOut := &bytes.Buffer{}

	k10, err := soc.MakeBuilder().
		WithEngine(engine).
		WithSpec(spec).
		WithConsole(cmd.OutOrStdout()).
		WithUARTOutput(uartOut).
		WithIFetchAgent(ifetch).
		WithDataAgent(data).
		Build("K10")
	if err != nil {
		return err
	}

	stats := attachStats(engine, k10)
	s.Trace(k10.Hookables()...)
	registerWithMonitor(s, k10)

	if monitor := s.GetMonitor(); monitor != nil {
		if _, err := s.StartMonitor(); err != nil {
			return err
		}

		bar := monitor.CreateProgressBar("Cycles", spec.MaxCycles)
		defer monitor.CompleteProgressBar(bar)

		engine.AcceptHook(&progressHook{bar: bar, cycler: k10})
	}

	k10.TickNow()

	if err := engine.Run(); err != nil {
		return errors.Wrap(err, "running simulation")
	}

	return report(k10, stats, uartOut, s.OutputPath())
}

func report(
	k10 *soc.SoC,
	stats []portStats,
	uartOut *bytes.Buffer,
	traceFile string,
) error {
	outcome := k10.Outcome()

	log.Printf("%s: %s after %d cycles (%s arbitration)",
		k10.Name(), outcome, k10.Cycle(), k10.Spec().Arbitration)

	for _, st := range stats {
		log.Printf("%s: %d issued, %d completed, "+
			"latency avg %.2f ns, min %.2f ns, max %.2f ns, busy %.2f ns",
			st.port.Agent().Name(),
			st.port.Issued(), st.port.Completed(),
			float64(st.latency.AverageTime())*1e9,
			float64(st.latency.MinTime())*1e9,
			float64(st.latency.MaxTime())*1e9,
			float64(st.busy.BusyTime())*1e9)
	}

	if uartOut.Len() > 0 {
		log.Printf("UART: %q", uartOut.String())
	}

	if traceFile != "" {
		log.Printf("Trace recorded in %s", traceFile)
	}

	if err := k10.Err(); err != nil {
		log.Printf("%s", err)
	}

	if outcome != soc.OutcomePass {
		return fmt.Errorf("simulation ended with %s", outcome)
	}

	return nil
}
