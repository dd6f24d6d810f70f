/*
Copyright 2024 Tim St. Pierre
Controls HD44780U character LCD displays (16x2, 20x4 and similar) through
a PCF8574 I2C backpack
*/
package lcd44780

import (
	"fmt"

	"strings"

	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"time"

	"periph.io/x/conn/v3/i2c"
)

const (
	// Commands
	CMD_Clear_Display        = 0x01
	CMD_Return_Home          = 0x02
	CMD_Entry_Mode           = 0x04
	CMD_Display_Control      = 0x08
	CMD_Cursor_Display_Shift = 0x10
	CMD_Function_Set         = 0x20
	CMD_CGRAM_Set            = 0x40
	CMD_DDRAM_Set            = 0x80

	// Options
	OPT_Increment      = 0x02 // CMD_Entry_Mode
	OPT_Cursor_Shift   = 0x01 // CMD_Entry_Mode
	OPT_Enable_Display = 0x04 // CMD_Display_Control
	OPT_Enable_Cursor  = 0x02 // CMD_Display_Control
	OPT_Enable_Blink   = 0x01 // CMD_Display_Control
	OPT_8_Bit          = 0x10 // CMD_Function_Set 0 = 4 bit
	OPT_2_Lines        = 0x08 // CMD_Function_Set 0 = 1 line
	OPT_5x10_Dots      = 0x04 // CMD_Function_Set 0 = 5x7 dots

	// Backpack control lines. The PCF8574 hands the display only four data
	// lines, wired to the high nibble of every byte on the bus; the low
	// nibble carries these.
	PIN_RS        = 0x01
	PIN_RW        = 0x02
	PIN_ENABLE    = 0x04
	PIN_BACKLIGHT = 0x08
)

// ORIGIN is the row/column number of the top-left character cell. All
// public positioning in this package is 1-based.
const ORIGIN = 1

// Controller latencies. The HD44780U ignores anything sent while it is
// still busy with the previous instruction, so these waits are mandatory.
const (
	initDelay  = 100 * time.Millisecond
	clearDelay = 100 * time.Millisecond
	homeDelay  = 50 * time.Millisecond
)

// rowStart maps a 0-based row index to the DDRAM address of the first cell
// in that row. Fixed by the controller, not by the attached glass.
var rowStart = [4]byte{0x00, 0x40, 0x14, 0x54}

// Dev is a handle to a single display. It holds the geometry and the
// persistent backlight state; it does no locking, so concurrent callers
// must serialize access themselves.
type Dev struct {
	c         conn.Conn
	backlight bool
	opts      Opts
}

func (d *Dev) String() string {
	return fmt.Sprintf("lcd44780{%s}", d.c)
}

// NewI2C returns a device handle for a display behind a PCF8574 backpack
// on the given bus, initialized per the HD44780U power-up procedure and
// switched into 4-bit mode.
//
// Use default options if nil is used.
func NewI2C(b i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	addr, err := opts.i2cAddr()
	if err != nil {
		return nil, fmt.Errorf("lcd44780 %x: %v", opts.I2CAddr, err)
	}
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("lcd44780 %x: %v", addr, err)
	}
	return makeDev(&i2c.Dev{Bus: b, Addr: addr}, opts)
}

func makeDev(c conn.Conn, opts *Opts) (*Dev, error) {
	d := &Dev{
		c:         c,
		backlight: true,
		opts:      *opts,
	}

	// Let the controller finish its own power-up reset.
	time.Sleep(initDelay)

	// The controller could be in 8-bit mode, in 4-bit mode, or stuck
	// halfway through a nibble pair; we have no way to read its state.
	// Three function-set writes in 8-bit framing land it in a known 8-bit
	// state from any of those.
	log.Info("Resetting display controller")
	for i := 0; i < 3; i++ {
		_ = d.writeCmd8((CMD_Function_Set | OPT_8_Bit) >> 4)
		time.Sleep(initDelay)
	}

	// Switch to 4-bit framing. Everything from here on is nibble pairs.
	_ = d.writeCmd8(CMD_Function_Set >> 4)
	time.Sleep(initDelay)

	_ = d.writeCmd4(CMD_Function_Set | OPT_2_Lines)
	_ = d.writeCmd4(CMD_Display_Control)
	_ = d.writeCmd4(CMD_Entry_Mode | OPT_Increment)
	_ = d.Clear()
	// Transfer errors above are not retried; the sequence runs to
	// completion and the last status is what the caller gets.
	return d, d.writeCmd4(CMD_Display_Control | OPT_Enable_Display)
}

// Halt blanks the screen and turns the backlight off.
func (d *Dev) Halt() error {
	if err := d.Clear(); err != nil {
		return err
	}
	return d.SetBacklight(false)
}

// Rows returns the number of display lines.
func (d *Dev) Rows() int {
	return int(d.opts.Rows)
}

// Cols returns the number of character columns per line.
func (d *Dev) Cols() int {
	return int(d.opts.Cols)
}

// Clear clears the display and returns the cursor to the home position.
func (d *Dev) Clear() error {
	err := d.writeCmd4(CMD_Clear_Display)
	time.Sleep(clearDelay)
	return err
}

// Home moves the cursor to the home position.
func (d *Dev) Home() error {
	err := d.writeCmd4(CMD_Return_Home)
	time.Sleep(homeDelay)
	return err
}

// SetPosition moves the cursor to row, col (both 1-based, row 1 is the
// top line).
func (d *Dev) SetPosition(row, col int) error {
	if err := d.checkPosition(row, col); err != nil {
		return err
	}
	return d.setPos(row-ORIGIN, col-ORIGIN)
}

// setPos takes 0-based coordinates, already bound-checked.
func (d *Dev) setPos(row, col int) error {
	return d.writeCmd4(CMD_DDRAM_Set | (rowStart[row] + byte(col)))
}

// WriteString writes text starting at row, col (both 1-based). Text that
// would run past the end of the row is silently dropped; the display never
// wraps onto the next line.
func (d *Dev) WriteString(text string, row, col int) error {
	if err := d.checkPosition(row, col); err != nil {
		return err
	}
	if max := int(d.opts.Cols) - col + ORIGIN; len(text) > max {
		text = text[:max]
	}
	if err := d.setPos(row-ORIGIN, col-ORIGIN); err != nil {
		return err
	}
	var err error
	for i := 0; i < len(text); i++ {
		if err = d.writeData4(text[i]); err != nil {
			return err
		}
		time.Sleep(d.opts.CharDelay)
	}
	return err
}

// WriteChar writes a single character at row, col (both 1-based).
func (d *Dev) WriteChar(char byte, row, col int) error {
	if err := d.checkPosition(row, col); err != nil {
		return err
	}
	if err := d.setPos(row-ORIGIN, col-ORIGIN); err != nil {
		return err
	}
	return d.writeData4(char)
}

// ClearLine blanks row from col (both 1-based) to the end of the line.
func (d *Dev) ClearLine(row, col int) error {
	if err := d.checkPosition(row, col); err != nil {
		return err
	}
	return d.WriteString(strings.Repeat(" ", int(d.opts.Cols)-col+ORIGIN), row, col)
}

// SetBacklight turns the backlight on or off. The setting sticks: the
// backlight line is part of every subsequent byte put on the bus. The
// byte written here goes only to the backpack, not to the controller, so
// it carries no nibble framing.
func (d *Dev) SetBacklight(on bool) error {
	d.backlight = on
	return d.write(d.backlightBit())
}

// SetDisplay sets display visibility, cursor blink and cursor visibility,
// each independently.
func (d *Dev) SetDisplay(on, blink, cursor bool) error {
	cmd := byte(CMD_Display_Control)
	if on {
		cmd |= OPT_Enable_Display
	}
	if blink {
		cmd |= OPT_Enable_Blink
	}
	if cursor {
		cmd |= OPT_Enable_Cursor
	}
	log.Infof("Writing display control %#02x", cmd)
	return d.writeCmd4(cmd)
}

func (d *Dev) checkPosition(row, col int) error {
	switch {
	case row < ORIGIN:
		return ErrRowTooLow
	case row > ORIGIN+int(d.opts.Rows)-1:
		return ErrRowTooHigh
	case col < ORIGIN:
		return ErrColTooLow
	case col > ORIGIN+int(d.opts.Cols)-1:
		return ErrColTooHigh
	}
	return nil
}

// writeCmd8 clocks a single instruction nibble in 8-bit framing. Only
// useful during the reset sequence, before the controller has been
// switched into 4-bit mode: the low data lines are not wired through the
// backpack, so the controller only ever sees the high nibble anyway.
func (d *Dev) writeCmd8(value byte) error {
	return d.strobe((value << 4) & 0xF0)
}

// writeCmd4 clocks an 8-bit instruction as two nibbles, high then low.
// Four bus writes per call.
func (d *Dev) writeCmd4(value byte) error {
	if err := d.strobe(value & 0xF0); err != nil {
		return err
	}
	return d.strobe((value << 4) & 0xF0)
}

// writeData4 is writeCmd4 aimed at the data register: the register-select
// line is raised on every byte put on the bus.
func (d *Dev) writeData4(value byte) error {
	if err := d.strobe((value & 0xF0) | PIN_RS); err != nil {
		return err
	}
	return d.strobe(((value << 4) & 0xF0) | PIN_RS)
}

// strobe puts data on the bus with the enable line high, then again with
// it low and all other bits unchanged. The controller latches the nibble
// on the falling edge, so nothing else may hit the bus in between.
func (d *Dev) strobe(data byte) error {
	data |= d.backlightBit()
	if err := d.write(data | PIN_ENABLE); err != nil {
		return err
	}
	return d.write(data &^ PIN_ENABLE)
}

func (d *Dev) backlightBit() byte {
	if d.backlight {
		return PIN_BACKLIGHT
	}
	return 0x00
}

// write forwards one raw byte to the backpack. Bus errors come back
// unwrapped; nothing in this package retries them.
func (d *Dev) write(data byte) error {
	log.Debugf("Writing %b %x", data, data)
	return d.c.Tx([]byte{data}, nil)
}

var _ conn.Resource = &Dev{}
