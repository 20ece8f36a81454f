// Package uart models the register file of the UART. Transmitted bytes go to
// a writer right away. There is no bit-level serial model and the receiver
// never has data.
package uart

import (
	"io"

	"github.com/pkg/errors"

	"github.com/komandara/k10fabric/fabric/bus"
)

// Register offsets.
const (
	RegTxRx    uint32 = 0x00
	RegStatus  uint32 = 0x04
	RegCtrl    uint32 = 0x08
	RegBaudDiv uint32 = 0x0C
	RegIRQClr  uint32 = 0x10
)

// Status register bits.
const (
	StatusTxReady uint32 = 1 << 0
	StatusRxValid uint32 = 1 << 1
)

// Ctrl register bits.
const (
	CtrlTxIRQEnable uint32 = 1 << 0
	CtrlRxIRQEnable uint32 = 1 << 1
)

// DefaultBaudDiv is the reset value of the baud divider.
const DefaultBaudDiv uint32 = 868

// UART holds the registers of the UART.
type UART struct {
	tx      io.Writer
	ctrl    uint32
	baudDiv uint32
	txIRQ   bool
	sent    uint64
}

// New creates a UART that transmits into tx.
func New(tx io.Writer) *UART {
	if tx == nil {
		tx = io.Discard
	}

	u := &UART{tx: tx}
	u.Reset()

	return u
}

// BytesSent returns the number of bytes transmitted.
func (u *UART) BytesSent() uint64 {
	return u.sent
}

// InterruptPending tells if the transmit-done interrupt is raised and
// enabled.
func (u *UART) InterruptPending() bool {
	return u.txIRQ && u.ctrl&CtrlTxIRQEnable != 0
}

// Read returns a register.
func (u *UART) Read(offset uint32) (uint32, error) {
	switch offset &^ 0x3 {
	case RegTxRx:
		return 0, nil
	case RegStatus:
		return StatusTxReady, nil
	case RegCtrl:
		return u.ctrl, nil
	case RegBaudDiv:
		return u.baudDiv, nil
	case RegIRQClr:
		return 0, nil
	default:
		return 0, errors.Errorf("uart has no register at 0x%x", offset)
	}
}

// Write updates a register.
func (u *UART) Write(offset uint32, data uint32, mask uint8) error {
	switch offset &^ 0x3 {
	case RegTxRx:
		if mask&0x1 == 0 {
			return nil
		}

		if _, err := u.tx.Write([]byte{byte(data)}); err != nil {
			return errors.Wrap(err, "transmitting")
		}

		u.sent++
		u.txIRQ = true
	case RegStatus:
	case RegCtrl:
		u.ctrl = bus.ApplyMask(u.ctrl, data, mask)
	case RegBaudDiv:
		u.baudDiv = bus.ApplyMask(u.baudDiv, data, mask)
	case RegIRQClr:
		if bus.ApplyMask(0, data, mask)&0x1 != 0 {
			u.txIRQ = false
		}
	default:
		return errors.Errorf("uart has no register at 0x%x", offset)
	}

	return nil
}

// Reset restores the reset values of the registers.
func (u *UART) Reset() {
	u.ctrl = 0
	u.baudDiv = DefaultBaudDiv
	u.txIRQ = false
}

// Commit does nothing. The UART only changes on writes.
func (u *UART) Commit() {}
