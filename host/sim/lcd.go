// Package sim runs the generator core against virtual hardware: a
// character LCD, a 16-bit overflow timer, the encoder and buttons, and the
// output pin.
package sim

import (
	"strconv"
	"strings"
	"sync"
)

// LCD is a character display held in memory. Writes past the end of a row
// are dropped, as on an HD44780 row that is not wired to the next one.
type LCD struct {
	mu       sync.Mutex
	cells    [][]byte
	row, col uint8
	writes   int
}

// NewLCD creates a blank display of the given geometry
func NewLCD(cols, rows uint8) *LCD {
	l := &LCD{cells: make([][]byte, rows)}
	for r := range l.cells {
		l.cells[r] = []byte(strings.Repeat(" ", int(cols)))
	}
	return l
}

func (l *LCD) MoveCursor(row, col uint8) {
	l.mu.Lock()
	l.row, l.col = row, col
	l.mu.Unlock()
}

func (l *LCD) WriteText(s string) {
	l.mu.Lock()
	for i := 0; i < len(s); i++ {
		l.put(s[i])
	}
	l.mu.Unlock()
}

func (l *LCD) WriteInteger(v uint32) {
	l.WriteText(strconv.FormatUint(uint64(v), 10))
}

func (l *LCD) WriteChar(c byte) {
	l.mu.Lock()
	l.put(c)
	l.mu.Unlock()
}

func (l *LCD) put(c byte) {
	if int(l.row) < len(l.cells) && int(l.col) < len(l.cells[l.row]) {
		l.cells[l.row][l.col] = c
	}
	l.col++
	l.writes++
}

// Lines returns a copy of every row
func (l *LCD) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	lines := make([]string, len(l.cells))
	for i, row := range l.cells {
		lines[i] = string(row)
	}
	return lines
}

// Line returns one row
func (l *LCD) Line(row int) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if row < 0 || row >= len(l.cells) {
		return ""
	}
	return string(l.cells[row])
}

// Cursor returns the cursor position
func (l *LCD) Cursor() (row, col uint8) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.row, l.col
}

// Writes returns the number of characters written so far
func (l *LCD) Writes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writes
}

// String draws the display with a frame around it
func (l *LCD) String() string {
	lines := l.Lines()
	width := 0
	if len(lines) > 0 {
		width = len(lines[0])
	}

	var b strings.Builder
	border := "+" + strings.Repeat("-", width) + "+\n"
	b.WriteString(border)
	for _, line := range lines {
		b.WriteString("|" + line + "|\n")
	}
	b.WriteString(border)
	return b.String()
}
