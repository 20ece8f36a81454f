// Package simctrl models the simulation controller that test programs use to
// print characters and to end the simulation.
package simctrl

import (
	"io"

	"github.com/pkg/errors"

	"github.com/komandara/k10fabric/fabric/bus"
)

// Register offsets.
const (
	RegCtrl    uint32 = 0x0
	RegCharOut uint32 = 0x4
	RegMSIP    uint32 = 0x8
	RegStatus  uint32 = 0xC
)

// Status is the outcome a program reports through the CTRL register.
type Status int

// The outcomes.
const (
	StatusRunning Status = iota
	StatusPass
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusFail:
		return "FAIL"
	default:
		return "RUNNING"
	}
}

// Controller holds the registers of the simulation controller. Writing 1 to
// CTRL finishes with PASS and writing 0 finishes with FAIL. Other values are
// ignored. The low byte written to CHAR_OUT goes to the console.
type Controller struct {
	console io.Writer
	status  Status
	msip    bool
	chars   uint64
}

// New creates a controller that prints to the console.
func New(console io.Writer) *Controller {
	if console == nil {
		console = io.Discard
	}

	return &Controller{console: console}
}

// Finished tells if the program has reported an outcome.
func (c *Controller) Finished() bool {
	return c.status != StatusRunning
}

// Status returns the outcome reported by the program.
func (c *Controller) Status() Status {
	return c.status
}

// SoftwareInterruptPending tells if MSIP is set.
func (c *Controller) SoftwareInterruptPending() bool {
	return c.msip
}

// CharsPrinted returns the number of characters sent to the console.
func (c *Controller) CharsPrinted() uint64 {
	return c.chars
}

// Read returns a register. STATUS reads 1 while running, 2 after PASS and 3
// after FAIL.
func (c *Controller) Read(offset uint32) (uint32, error) {
	switch offset &^ 0x3 {
	case RegCtrl, RegCharOut:
		return 0, nil
	case RegMSIP:
		if c.msip {
			return 1, nil
		}

		return 0, nil
	case RegStatus:
		return uint32(c.status) + 1, nil
	default:
		return 0, errors.Errorf("sim controller has no register at 0x%x", offset)
	}
}

// Write updates a register.
func (c *Controller) Write(offset uint32, data uint32, mask uint8) error {
	data = bus.ApplyMask(0, data, mask)

	switch offset &^ 0x3 {
	case RegCtrl:
		c.writeCtrl(data)
	case RegCharOut:
		if mask&0x1 == 0 {
			return nil
		}

		if _, err := c.console.Write([]byte{byte(data)}); err != nil {
			return errors.Wrap(err, "writing to console")
		}

		c.chars++
	case RegMSIP:
		c.msip = data&0x1 != 0
	case RegStatus:
	default:
		return errors.Errorf("sim controller has no register at 0x%x", offset)
	}

	return nil
}

func (c *Controller) writeCtrl(data uint32) {
	if c.Finished() {
		return
	}

	switch data {
	case 1:
		c.status = StatusPass
	case 0:
		c.status = StatusFail
	}
}

// Reset returns to the running state. Characters already printed stay
// printed.
func (c *Controller) Reset() {
	c.status = StatusRunning
	c.msip = false
}

// Commit does nothing. The controller only changes on writes.
func (c *Controller) Commit() {}
