// Package simulation assembles the services a run needs around the model: the
// engine, the trace recorder and the monitor.
package simulation

import (
	"log"

	"github.com/komandara/k10fabric/datarecording"
	"github.com/komandara/k10fabric/monitoring"
	"github.com/komandara/k10fabric/sim"
	"github.com/komandara/k10fabric/tracing"
)

// A Simulation provides the service requires to define a simulation.
type Simulation struct {
	id         string
	engine     sim.Engine
	outputPath string

	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor
	visTracer    *tracing.DBTracer

	components    []sim.Named
	compNameIndex map[string]int
}

// ID returns the unique id of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// GetEngine returns the engine used in the simulation.
func (s *Simulation) GetEngine() sim.Engine {
	return s.engine
}

// GetDataRecorder returns the data recorder, or nil if recording is off.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// OutputPath returns the database file of the recorder.
func (s *Simulation) OutputPath() string {
	return s.outputPath
}

// GetMonitor returns the monitor, or nil if monitoring is off.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// GetVisTracer returns the tracer that writes into the recorder.
func (s *Simulation) GetVisTracer() *tracing.DBTracer {
	return s.visTracer
}

// RegisterComponent registers a component with the simulation. Registered
// components are listed by the monitor.
func (s *Simulation) RegisterComponent(c sim.Named) {
	compName := c.Name()
	if _, found := s.compNameIndex[compName]; found {
		panic("component " + compName + " already registered")
	}

	s.components = append(s.components, c)
	s.compNameIndex[compName] = len(s.components) - 1

	if s.monitor != nil {
		s.monitor.RegisterComponent(c)
	}
}

// RegisterBuffer lets the monitor report the fill level of a buffer.
func (s *Simulation) RegisterBuffer(b monitoring.Buffer) {
	if s.monitor != nil {
		s.monitor.RegisterBuffer(b)
	}
}

// RegisterCycler lets the monitor report the cycle count.
func (s *Simulation) RegisterCycler(c monitoring.Cycler) {
	if s.monitor != nil {
		s.monitor.RegisterCycler(c)
	}
}

// Trace records the tasks of the domains into the database.
func (s *Simulation) Trace(domains ...tracing.NamedHookable) {
	if s.visTracer == nil {
		return
	}

	for _, d := range domains {
		tracing.CollectTrace(d, s.visTracer)
	}
}

// Components returns all the registered components.
func (s *Simulation) Components() []sim.Named {
	return s.components
}

// GetComponentByName returns the component with the given name, or nil.
func (s *Simulation) GetComponentByName(name string) sim.Named {
	i, found := s.compNameIndex[name]
	if !found {
		return nil
	}

	return s.components[i]
}

// StartMonitor starts the monitoring server if monitoring is on and returns
// its URL.
func (s *Simulation) StartMonitor() (string, error) {
	if s.monitor == nil {
		return "", nil
	}

	return s.monitor.StartServer()
}

// Terminate flushes the traces and stops the services.
func (s *Simulation) Terminate() {
	if s.monitor != nil {
		s.monitor.StopServer()
	}

	if s.visTracer != nil {
		s.visTracer.Terminate()
	}

	if s.dataRecorder != nil {
		if err := s.dataRecorder.Close(); err != nil {
			log.Printf("closing recorder: %v", err)
		}
	}
}
