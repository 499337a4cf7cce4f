//go:build rp2040 || rp2350

package main

import (
	"machine"

	"tinygo.org/x/drivers/hd44780"

	"frekvensgen/config"
)

// LCD adapts an HD44780 in 4-bit mode to core.Display
type LCD struct {
	dev hd44780.Device
	buf [10]byte
}

// NewLCD configures the display on the configured pins
func NewLCD(cfg *config.Config) (*LCD, error) {
	p := cfg.Pins
	data := []machine.Pin{
		machine.Pin(p.LCDData[0]),
		machine.Pin(p.LCDData[1]),
		machine.Pin(p.LCDData[2]),
		machine.Pin(p.LCDData[3]),
	}

	dev, err := hd44780.NewGPIO4Bit(data, machine.Pin(p.LCDE), machine.Pin(p.LCDRS), machine.Pin(p.LCDRW))
	if err != nil {
		return nil, err
	}

	err = dev.Configure(hd44780.Config{
		Width:  int16(cfg.Cols),
		Height: int16(cfg.Rows),
	})
	if err != nil {
		return nil, err
	}

	return &LCD{dev: dev}, nil
}

func (l *LCD) MoveCursor(row, col uint8) {
	l.dev.SetCursor(col, row)
}

func (l *LCD) WriteText(s string) {
	l.dev.Write([]byte(s))
	l.dev.Display()
}

func (l *LCD) WriteInteger(v uint32) {
	pos := len(l.buf)
	for {
		pos--
		l.buf[pos] = byte('0' + v%10)
		v /= 10
		if v == 0 {
			break
		}
	}
	l.dev.Write(l.buf[pos:])
	l.dev.Display()
}

func (l *LCD) WriteChar(c byte) {
	l.buf[0] = c
	l.dev.Write(l.buf[:1])
	l.dev.Display()
}
