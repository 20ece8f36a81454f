package target

import (
	"log"

	"github.com/komandara/k10fabric/pipelining"
	"github.com/komandara/k10fabric/sim"
)

// A Builder can build endpoints.
type Builder struct {
	latency    int
	offsetMask uint32
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		latency:    0,
		offsetMask: 0xFFF,
	}
}

// WithLatency sets the number of extra cycles between performing an access
// and presenting its response.
func (b Builder) WithLatency(cycles int) Builder {
	b.latency = cycles
	return b
}

// WithOffsetMask sets the address bits that are passed to the handler.
func (b Builder) WithOffsetMask(mask uint32) Builder {
	b.offsetMask = mask
	return b
}

// Build creates an endpoint in front of the handler.
func (b Builder) Build(name string, handler Handler) *Endpoint {
	sim.NameMustBeValid(name)

	if handler == nil {
		log.Panicf("endpoint %s has no handler", name)
	}

	if b.latency < 0 {
		log.Panicf("endpoint %s has negative latency", name)
	}

	rspBuf := sim.NewBuffer[rspItem](sim.BuildName(name, "RspBuf"), 1)

	return &Endpoint{
		name:       name,
		handler:    handler,
		offsetMask: b.offsetMask,
		rspBuf:     rspBuf,
		pipeline: pipelining.MakeBuilder[rspItem]().
			WithPipelineWidth(1).
			WithNumStage(b.latency).
			WithCyclePerStage(1).
			WithPostPipelineBuffer(rspBuf).
			Build(sim.BuildName(name, "Pipeline")),
		aw: sim.NewRegister(latched{}),
	}
}
