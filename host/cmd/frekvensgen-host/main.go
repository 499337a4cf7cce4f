package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"frekvensgen/host/panel"
	"frekvensgen/host/serial"
	"frekvensgen/protocol"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	connect = flag.String("connect", "", "Connect to a simulator panel link at host:port instead of a serial device")
	timeout = flag.Duration("timeout", panel.DefaultTimeout, "Command timeout")
	verbose = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	fmt.Println("frekvensgen host - remote front panel")
	fmt.Println("=====================================")
	fmt.Println()

	client, err := open()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()
	client.SetTimeout(*timeout)

	fmt.Println("Connected successfully!")
	if report, err := client.State(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	} else {
		printReport(report)
	}

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		cmd := parts[0]
		count := 1
		if len(parts) > 1 {
			n, err := strconv.Atoi(parts[1])
			if err != nil || n < 1 {
				fmt.Printf("Invalid repeat count: %s\n", parts[1])
				continue
			}
			count = n
		}

		var action func() (protocol.StateReport, error)
		switch cmd {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return

		case "help", "?":
			printHelp()
			continue

		case "state", "s":
			action = client.State
		case "up", "+":
			action = func() (protocol.StateReport, error) { return client.CoarseStep(true) }
		case "down", "-":
			action = func() (protocol.StateReport, error) { return client.CoarseStep(false) }
		case "mode", "m":
			action = client.CycleStepMode
		case "inc":
			action = func() (protocol.StateReport, error) { return client.FineStep(protocol.DeltaIncrement) }
		case "reset":
			action = func() (protocol.StateReport, error) { return client.FineStep(protocol.DeltaReset) }
		case "dec":
			action = func() (protocol.StateReport, error) { return client.FineStep(protocol.DeltaDecrement) }
		case "events":
			action = client.DumpEvents

		default:
			fmt.Printf("Unknown command: %s (type 'help' for available commands)\n", cmd)
			continue
		}

		if err := run(action, count); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func open() (*panel.Client, error) {
	if *connect != "" {
		fmt.Printf("Connecting to simulator at %s...\n", *connect)
		conn, err := net.DialTimeout("tcp", *connect, 5*time.Second)
		if err != nil {
			return nil, err
		}
		return panel.NewClient(conn), nil
	}

	fmt.Printf("Connecting to generator on %s...\n", *device)
	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	return panel.ConnectWithConfig(cfg)
}

func run(action func() (protocol.StateReport, error), count int) error {
	var report protocol.StateReport
	for i := 0; i < count; i++ {
		var err error
		report, err = action()
		if err != nil {
			return err
		}
		if *verbose {
			printReport(report)
		}
	}
	if !*verbose {
		printReport(report)
	}
	return nil
}

func printReport(r protocol.StateReport) {
	fmt.Println(panel.Format(r))
}

func printHelp() {
	fmt.Println("\nAvailable commands (append a number to repeat):")
	fmt.Println("  help           - Show this help message")
	fmt.Println("  state/s        - Show the generator state")
	fmt.Println("  up/+           - Coarse step up (higher frequency)")
	fmt.Println("  down/-         - Coarse step down (lower frequency)")
	fmt.Println("  mode/m         - Select the next coarse step size")
	fmt.Println("  inc            - Next prescaler (lower frequency)")
	fmt.Println("  reset          - Reset the prescaler")
	fmt.Println("  dec            - Previous prescaler (higher frequency)")
	fmt.Println("  events         - Dump the event ring on the debug output")
	fmt.Println("  quit/exit/q    - Exit the program")
	fmt.Println()
}
