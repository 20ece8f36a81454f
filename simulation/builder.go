package simulation

import (
	"github.com/pkg/errors"
	"github.com/rs/xid"

	"github.com/komandara/k10fabric/datarecording"
	"github.com/komandara/k10fabric/monitoring"
	"github.com/komandara/k10fabric/sim"
	"github.com/komandara/k10fabric/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	engine         sim.Engine
	recordOn       bool
	driver         string
	outputFileName string
	monitorOn      bool
	monitorPort    int
	openBrowser    bool
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		recordOn:  true,
		driver:    datarecording.DriverCGo,
		monitorOn: true,
	}
}

// WithEngine sets the engine to use. A serial engine is created if not set.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

// WithoutRecording sets the simulation to not record traces.
func (b Builder) WithoutRecording() Builder {
	b.recordOn = false
	return b
}

// WithDriver selects the SQLite driver of the data recorder.
func (b Builder) WithDriver(driver string) Builder {
	b.driver = driver
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser opens the monitor in a browser once the server is up.
func (b Builder) WithBrowser(open bool) Builder {
	b.openBrowser = open
	return b
}

func (b Builder) parametersMustBeValid() error {
	if !b.monitorOn && b.monitorPort != 0 {
		return errors.New("monitor port cannot be set when monitoring is disabled")
	}

	if !b.recordOn && b.outputFileName != "" {
		return errors.New("output file cannot be set when recording is disabled")
	}

	return nil
}

// Build builds the simulation.
func (b Builder) Build() (*Simulation, error) {
	if err := b.parametersMustBeValid(); err != nil {
		return nil, err
	}

	s := &Simulation{
		id:            xid.New().String(),
		engine:        b.engine,
		compNameIndex: make(map[string]int),
	}

	if s.engine == nil {
		s.engine = sim.NewSerialEngine()
	}

	if b.recordOn {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "k10_sim_" + s.id
		}

		recorder, err := datarecording.NewWithDriver(b.driver, outputPath)
		if err != nil {
			return nil, errors.Wrap(err, "creating data recorder")
		}

		s.outputPath = outputPath + ".sqlite3"
		s.dataRecorder = recorder
		s.visTracer = tracing.NewDBTracer(s.engine, s.dataRecorder)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor().
			WithPortNumber(b.monitorPort).
			WithBrowser(b.openBrowser)
		s.monitor.RegisterEngine(s.engine)
	}

	return s, nil
}
