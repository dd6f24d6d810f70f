/*
Copyright 2024 Tim St. Pierre
Options for HD44780U character displays on the PCF8574 backpack
*/
package lcd44780

import (
	"errors"
	"time"
)

type Opts struct {
	// The I²C slave address of the PCF8574 backpack
	I2CAddr uint16
	// How many lines does the display have
	Rows uint8
	Cols uint8
	// Pause after each character written to the data register
	CharDelay time.Duration
}

var DefaultOpts = Opts{
	I2CAddr:   0x27,
	Rows:      2,
	Cols:      16,
	CharDelay: 1 * time.Millisecond,
}

func (o *Opts) i2cAddr() (uint16, error) {
	switch o.I2CAddr {
	case 0:
		// Default address.
		return 0x27, nil
	case 0x20, 0x21, 0x22, 0x23, 0x24, 0x25, 0x26, 0x27:
		return o.I2CAddr, nil
	default:
		return 0, errors.New("given address not supported by device")
	}
}

// The row address table covers 1, 2 and 4 line displays only, so the
// geometry has to be pinned down before the first positioning call.
func (o *Opts) validate() error {
	switch o.Rows {
	case 1, 2, 4:
	default:
		return errors.New("display must have 1, 2 or 4 rows")
	}
	if o.Cols < 1 || o.Cols > 40 {
		return errors.New("display must have between 1 and 40 columns")
	}
	return nil
}
