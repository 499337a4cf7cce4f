//go:build linux || darwin

package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"

	"frekvensgen/config"
	"frekvensgen/core"
	"frekvensgen/host/sim"
)

var (
	configPath = flag.String("config", "", "Configuration file (JSON or YAML); defaults are compiled in")
	listen     = flag.String("listen", "", "Serve the panel link on this TCP address (e.g. :7600)")
	tick       = flag.Duration("tick", 10*time.Millisecond, "Simulation step")
	redraw     = flag.Duration("redraw", 200*time.Millisecond, "Screen redraw interval")
	debug      = flag.Bool("debug", false, "Print core debug output")
)

// Key codes read in cbreak mode
const (
	keyEsc       = 27
	keyInterrupt = 3
	escCursor    = '['
	cursorUp     = 'A'
	cursorDown   = 'B'
)

func main() {
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	board, err := sim.NewBoard(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	messages := make(chan string, 64)
	core.SetDebugWriter(func(s string) {
		select {
		case messages <- s:
		default:
		}
	})
	core.SetDebugEnabled(*debug)
	core.InitAsyncDebug()

	if *listen != "" {
		if err := servePanel(board, *listen); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	restore, err := cbreak(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: terminal setup failed: %v\n", err)
		os.Exit(1)
	}
	defer restore()

	keys := make(chan byte, 16)
	go readKeys(keys)

	board.Start()

	stepTicker := time.NewTicker(*tick)
	defer stepTicker.Stop()
	drawTicker := time.NewTicker(*redraw)
	defer drawTicker.Stop()

	var log []string
	lastEdges := board.Emitter.Edges()
	lastDraw := time.Now()
	measured := 0.0
	truncated := false

	for {
		select {
		case <-stepTicker.C:
			if _, cut := board.Step(*tick); cut {
				truncated = true
			}

		case <-drawTicker.C:
			now := time.Now()
			edges := board.Emitter.Edges()
			measured = float64(edges-lastEdges) / 2 / now.Sub(lastDraw).Seconds()
			lastEdges, lastDraw = edges, now
			draw(board, measured, truncated, log)
			truncated = false

		case msg := <-messages:
			log = append(log, msg)
			if len(log) > 8 {
				log = log[len(log)-8:]
			}

		case k, ok := <-keys:
			if !ok || !handleKey(board, k, keys) {
				fmt.Print("\r\n")
				return
			}
		}
	}
}

// cbreak switches the terminal to unbuffered, unechoed input and returns
// the function restoring the original mode
func cbreak(f *os.File) (func(), error) {
	var canonical unix.Termios
	if err := termios.Tcgetattr(f.Fd(), &canonical); err != nil {
		return nil, err
	}

	attr := canonical
	termios.Cfmakecbreak(&attr)
	if err := termios.Tcsetattr(f.Fd(), termios.TCIFLUSH, &attr); err != nil {
		return nil, err
	}

	return func() {
		termios.Tcsetattr(f.Fd(), termios.TCIFLUSH, &canonical)
	}, nil
}

func readKeys(keys chan<- byte) {
	defer close(keys)

	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		if n == 1 {
			keys <- buf[0]
		}
	}
}

// handleKey maps a key to a front-panel action. It returns false to quit.
func handleKey(board *sim.Board, k byte, keys <-chan byte) bool {
	switch k {
	case 'q', keyInterrupt:
		return false

	case '+', '=':
		board.TurnEncoder(true)
	case '-', '_':
		board.TurnEncoder(false)
	case 'm':
		board.PressMode()
	case 'u':
		board.PressFine(core.LineFineUp)
	case 'r':
		board.PressFine(core.LineFineReset)
	case 'd':
		board.PressFine(core.LineFineDown)
	case 'e':
		core.DumpEventRing()

	case keyEsc:
		// Arrow keys arrive as ESC [ A / ESC [ B
		if next(keys) != escCursor {
			return true
		}
		switch next(keys) {
		case cursorUp:
			board.TurnEncoder(true)
		case cursorDown:
			board.TurnEncoder(false)
		}
	}
	return true
}

func next(keys <-chan byte) byte {
	select {
	case k := <-keys:
		return k
	case <-time.After(50 * time.Millisecond):
		return 0
	}
}

func draw(board *sim.Board, measured float64, truncated bool, log []string) {
	fmt.Print("\033[H\033[2J")
	fmt.Println("frekvensgen simulator")
	fmt.Print(board.LCD.String())

	approx := ""
	if truncated {
		approx = ">="
	}
	fmt.Printf("output: %s%.2f Hz  edges: %d  timer: /%d  missed: %d\n",
		approx, measured, board.Pin.Edges(), board.Timer.Divider(), board.Inputs.Missed())
	fmt.Println()
	fmt.Println("+/- or arrows: coarse step   m: step size   u/r/d: prescaler up/reset/down")
	fmt.Println("e: dump events   q: quit")

	if len(log) > 0 {
		fmt.Println()
		for _, line := range log {
			fmt.Println(line)
		}
	}
}

func servePanel(board *sim.Board, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				board.Serve(conn)
			}()
		}
	}()
	return nil
}
