// Package bus defines the channels of the split-transaction fabric protocol
// and the interface every target port implements.
//
// A transaction travels over three channels. The address channel carries the
// address and the command, the write-data channel carries one word with its
// byte-lane mask, and the response channel carries the status and the read
// data. Every channel completes with a valid/ready handshake in one cycle.
package bus

import (
	"fmt"

	"github.com/komandara/k10fabric/sim"
)

// NumByteLanes is the number of byte lanes in a data word.
const NumByteLanes = 4

// FullMask enables all the byte lanes of a word.
const FullMask uint8 = 0xF

// AddrReq is the payload of the address channel.
type AddrReq struct {
	Addr  uint32
	Write bool
}

func (r AddrReq) String() string {
	if r.Write {
		return fmt.Sprintf("W@0x%08x", r.Addr)
	}

	return fmt.Sprintf("R@0x%08x", r.Addr)
}

// WData is the payload of the write-data channel. Bit i of Mask enables byte
// lane i, where lane 0 is the least significant byte of Data.
type WData struct {
	Data uint32
	Mask uint8
}

// Status tells if a transaction completed successfully.
type Status uint8

// The response statuses.
const (
	StatusOK Status = iota
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusError:
		return "Error"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Rsp is the payload of the response channel. Data is only meaningful for
// successful reads.
type Rsp struct {
	Status Status
	Data   uint32
}

// Forward holds the signals that flow from an initiator towards a target in
// one cycle.
type Forward struct {
	AddrValid bool
	Addr      AddrReq
	WValid    bool
	W         WData
	RspReady  bool
}

// Backward holds the signals that flow from a target back to an initiator in
// one cycle.
type Backward struct {
	AddrReady bool
	WReady    bool
	RspValid  bool
	Rsp       Rsp
}

// Target is the fabric-facing side of a memory-mapped endpoint.
//
// AddrReady, WriteReady and Response only depend on the state committed at the
// last cycle boundary. In each cycle the fabric reads them, calls Drive exactly
// once with the signals it presents, and finally calls Commit. A channel
// handshake happens in a cycle iff its valid signal is driven while the
// matching ready signal is asserted.
type Target interface {
	sim.Named
	sim.Clocked

	// AddrReady tells if the target accepts an address phase.
	AddrReady() bool

	// WriteReady tells if the target accepts a write-data phase.
	WriteReady() bool

	// Response returns the response the target presents, if any.
	Response() (rsp Rsp, valid bool)

	// Drive presents the signals of the current cycle. The target stages the
	// effect of the handshakes that happen and applies them on Commit.
	Drive(f Forward)
}

// ApplyMask merges data into old, taking only the enabled byte lanes.
func ApplyMask(old, data uint32, mask uint8) uint32 {
	result := old

	for lane := 0; lane < NumByteLanes; lane++ {
		if mask&(1<<lane) == 0 {
			continue
		}

		laneMask := uint32(0xFF) << (8 * lane)
		result = (result &^ laneMask) | (data & laneMask)
	}

	return result
}
