package pipelining

import (
	"log"

	"github.com/komandara/k10fabric/sim"
)

// A Builder can build pipelines.
type Builder[T Item] struct {
	width         int
	numStages     int
	cyclePerStage int
	sink          Sink[T]
}

// MakeBuilder creates a builder of a single lane, five stage pipeline.
func MakeBuilder[T Item]() Builder[T] {
	return Builder[T]{
		width:         1,
		numStages:     5,
		cyclePerStage: 1,
	}
}

// WithPipelineWidth sets the number of lanes. With a width of 4, 4 items can
// be in the same stage at the same time.
func (b Builder[T]) WithPipelineWidth(n int) Builder[T] {
	b.width = n
	return b
}

// WithNumStage sets the number of stages.
func (b Builder[T]) WithNumStage(n int) Builder[T] {
	b.numStages = n
	return b
}

// WithCyclePerStage sets the number of cycles an item spends in each stage.
func (b Builder[T]) WithCyclePerStage(n int) Builder[T] {
	b.cyclePerStage = n
	return b
}

// WithPostPipelineBuffer sets where the items go after the last stage.
func (b Builder[T]) WithPostPipelineBuffer(sink Sink[T]) Builder[T] {
	b.sink = sink
	return b
}

// Build builds a pipeline.
func (b Builder[T]) Build(name string) *Pipeline[T] {
	sim.NameMustBeValid(name)

	if b.sink == nil {
		log.Panicf("pipeline %s has no post-pipeline buffer", name)
	}

	if b.width <= 0 || b.numStages < 0 || b.cyclePerStage <= 0 {
		log.Panicf("pipeline %s has invalid shape %dx%d, %d cycles/stage",
			name, b.width, b.numStages, b.cyclePerStage)
	}

	p := &Pipeline[T]{
		name:          name,
		width:         b.width,
		numStages:     b.numStages,
		cyclePerStage: b.cyclePerStage,
		sink:          b.sink,
	}
	p.Clear()

	return p
}
