// Package pipelining provides a fixed-latency pipeline that delays items by a
// number of cycles before handing them to a sink.
package pipelining

import (
	"log"
	"reflect"

	"github.com/komandara/k10fabric/sim"
	"github.com/komandara/k10fabric/tracing"
)

// An Item is something that can pass through a pipeline.
type Item interface {
	TaskID() string
}

// A Sink takes the items that leave the last stage.
type Sink[T any] interface {
	CanPush() bool
	Push(item T)
}

type slot[T Item] struct {
	item      T
	occupied  bool
	cycleLeft int
}

// A Pipeline moves items through its stages, one stage per cyclesPerStage
// cycles. Items leave the last stage in the order they entered a lane, and
// only when the sink has room. A pipeline without stages passes items
// straight to the sink.
type Pipeline[T Item] struct {
	sim.HookableBase

	name          string
	width         int
	numStages     int
	cyclePerStage int
	sink          Sink[T]
	lanes         [][]slot[T]
}

// Name returns the name of the pipeline.
func (p *Pipeline[T]) Name() string {
	return p.name
}

// Clear discards all the items in the pipeline.
func (p *Pipeline[T]) Clear() {
	p.lanes = make([][]slot[T], p.width)
	for i := range p.lanes {
		p.lanes[i] = make([]slot[T], p.numStages)
	}
}

// NumItems returns the number of items in the stages.
func (p *Pipeline[T]) NumItems() int {
	n := 0

	for _, lane := range p.lanes {
		for _, s := range lane {
			if s.occupied {
				n++
			}
		}
	}

	return n
}

// Tick moves the items forward by one cycle.
func (p *Pipeline[T]) Tick() (madeProgress bool) {
	for lane := range p.lanes {
		for i := p.numStages - 1; i >= 0; i-- {
			s := &p.lanes[lane][i]
			if !s.occupied {
				continue
			}

			if s.cycleLeft > 0 {
				s.cycleLeft--
				madeProgress = true

				continue
			}

			if i == p.numStages-1 {
				madeProgress = p.tryRetire(s) || madeProgress
			} else {
				madeProgress = p.tryAdvance(lane, i) || madeProgress
			}
		}
	}

	return madeProgress
}

func (p *Pipeline[T]) tryRetire(s *slot[T]) bool {
	if !p.sink.CanPush() {
		return false
	}

	tracing.EndTask(s.item.TaskID()+"_pipeline", p)

	p.sink.Push(s.item)
	*s = slot[T]{}

	return true
}

func (p *Pipeline[T]) tryAdvance(lane, stage int) bool {
	next := &p.lanes[lane][stage+1]
	if next.occupied {
		return false
	}

	*next = p.lanes[lane][stage]
	next.cycleLeft = p.cyclePerStage - 1
	p.lanes[lane][stage] = slot[T]{}

	return true
}

// CanAccept tells if an item can enter in this cycle.
func (p *Pipeline[T]) CanAccept() bool {
	if p.numStages == 0 {
		return p.sink.CanPush()
	}

	for _, lane := range p.lanes {
		if !lane[0].occupied {
			return true
		}
	}

	return false
}

// Accept puts an item into the first free lane. It panics if no lane is
// free.
func (p *Pipeline[T]) Accept(item T) {
	if p.numStages == 0 {
		p.sink.Push(item)
		return
	}

	for _, lane := range p.lanes {
		if lane[0].occupied {
			continue
		}

		lane[0] = slot[T]{
			item:      item,
			occupied:  true,
			cycleLeft: p.cyclePerStage - 1,
		}

		tracing.StartTask(
			item.TaskID()+"_pipeline",
			item.TaskID(),
			p,
			"pipeline",
			reflect.TypeOf(item).String(),
			nil,
		)

		return
	}

	log.Panicf("pipeline %s is full, check CanAccept before Accept", p.name)
}
