// Command blehci is an interactive console for BLE controllers on a
// serial port: DTM test control, advertising and connection bring-up,
// and raw command access for everything else.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	"github.com/radio-control/blehci/config"
	"github.com/radio-control/blehci/hci"
	"github.com/radio-control/blehci/packet"
	"github.com/radio-control/blehci/transport"
)

func main() {
	portFlag := flag.String("port", "", "serial port (overrides BLEHCI_PORT)")
	baudFlag := flag.Int("baud", 0, "baud rate (overrides BLEHCI_BAUD)")
	listFlag := flag.Bool("list", false, "list serial ports and exit")
	flag.Parse()

	if *listFlag {
		listPorts(os.Stdout)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *portFlag != "" {
		cfg.PortID = *portFlag
	}
	if *baudFlag != 0 {
		cfg.Baud = *baudFlag
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: unknown log level %q\n", cfg.LogLevel)
		os.Exit(1)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	if cfg.PortID == "" {
		fmt.Fprintln(os.Stderr, "no port given: use -port, BLEHCI_PORT or blehci.yaml")
		listPorts(os.Stderr)
		os.Exit(1)
	}

	h, err := hci.Open(cfg, hci.WithLogger(log))
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.PortID).Msg("cannot open controller")
	}
	defer h.Close()

	if err := repl(h, cfg); err != nil {
		log.Fatal().Err(err).Msg("console failed")
	}
}

func listPorts(out io.Writer) {
	ports, err := transport.ListPorts()
	if err != nil {
		fmt.Fprintf(os.Stderr, "list ports: %v\n", err)
		return
	}
	if len(ports) == 0 {
		fmt.Fprintln(out, "no serial ports found")
		return
	}
	for _, p := range ports {
		fmt.Fprintln(out, p)
	}
}

func repl(h *hci.Hci, cfg *config.Config) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cfg.PortID + "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("create readline: %w", err)
	}
	defer rl.Close()

	printHelp(rl)

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil // EOF
		}

		args := strings.Fields(strings.TrimSpace(line))
		if len(args) == 0 {
			continue
		}

		switch args[0] {
		case "exit", "quit":
			return nil
		case "help":
			printHelp(rl)
		case "ports":
			listPorts(os.Stdout)
		default:
			if err := dispatch(rl, h, args); err != nil {
				fmt.Fprintf(rl.Stderr(), "error: %v\n", err)
			}
		}
	}
}

func printHelp(rl *readline.Instance) {
	fmt.Fprint(rl.Stdout(), `commands:
  reset                          reset the controller
  addr [xx:xx:xx:xx:xx:xx]       read or set the device address
  version                        read controller version info
  adv [on|off]                   start or stop advertising
  scan [on|off]                  start or stop scanning
  connect <xx:xx:xx:xx:xx:xx>    initiate a connection
  disconnect <handle>            close a connection
  rssi <handle>                  read RSSI on a connection
  phy <handle> <tx> <rx>         change connection PHY
  txtest <ch> [len] [pattern] [phy]   start a transmitter test
  rxtest <ch> [phy]              start a receiver test
  endtest                        end test, print packets received
  txpower <dbm>                  set advertising TX power
  cmd <ogf> <ocf> [byte...]      send a raw command
  ports                          list serial ports
  exit
`)
}

func dispatch(rl *readline.Instance, h *hci.Hci, args []string) error {
	out := rl.Stdout()

	// show prints the status of a command that returns nothing else.
	show := func(status packet.StatusCode, err error) error {
		if err != nil {
			return err
		}
		fmt.Fprintln(out, status)
		return nil
	}

	switch args[0] {
	case "reset":
		return show(h.Reset())

	case "addr":
		if len(args) > 1 {
			addr, err := hci.ParseAddr(args[1])
			if err != nil {
				return err
			}
			return show(h.SetAddress(addr))
		}
		addr, status, err := h.ReadBDAddr()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (%s)\n", addr, status)
		return nil

	case "version":
		ver, status, err := h.ReadLocalVersion()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "hci %d.%d lmp %d.%d manufacturer 0x%04X (%s)\n",
			ver.HCIVersion, ver.HCIRevision, ver.LMPVersion, ver.LMPSubversion,
			ver.ManufacturerID, status)
		return nil

	case "adv":
		if len(args) > 1 && args[1] == "off" {
			return show(h.EnableAdv(false))
		}
		return show(h.StartAdvertising(hci.DefaultAdvParams()))

	case "scan":
		if len(args) > 1 && args[1] == "off" {
			return show(h.EnableScanning(false, false))
		}
		return show(h.StartScanning(hci.DefaultScanParams(), true))

	case "connect":
		if len(args) < 2 {
			return fmt.Errorf("usage: connect <xx:xx:xx:xx:xx:xx>")
		}
		peer, err := hci.ParseAddr(args[1])
		if err != nil {
			return err
		}
		return show(h.InitConnection(hci.DefaultConnParams(peer)))

	case "disconnect":
		handle, err := parseUint(args, 1, "handle", 16)
		if err != nil {
			return err
		}
		return show(h.Disconnect(uint16(handle), packet.StatusRemoteUserTermConn))

	case "rssi":
		handle, err := parseUint(args, 1, "handle", 16)
		if err != nil {
			return err
		}
		rssi, status, err := h.ReadRSSI(uint16(handle))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d dBm (%s)\n", rssi, status)
		return nil

	case "phy":
		if len(args) < 4 {
			return fmt.Errorf("usage: phy <handle> <tx> <rx>")
		}
		handle, err := parseUint(args, 1, "handle", 16)
		if err != nil {
			return err
		}
		tx, err := parseUint(args, 2, "tx phy", 8)
		if err != nil {
			return err
		}
		rx, err := parseUint(args, 3, "rx phy", 8)
		if err != nil {
			return err
		}
		return show(h.SetPhy(uint16(handle), uint8(tx), uint8(rx), 0))

	case "txtest":
		channel, err := parseUint(args, 1, "channel", 8)
		if err != nil {
			return err
		}
		payloadLen, pattern, phy := uint64(255), uint64(0), uint64(1)
		if len(args) > 2 {
			if payloadLen, err = parseUint(args, 2, "payload length", 8); err != nil {
				return err
			}
		}
		if len(args) > 3 {
			if pattern, err = parseUint(args, 3, "pattern", 8); err != nil {
				return err
			}
		}
		if len(args) > 4 {
			if phy, err = parseUint(args, 4, "phy", 8); err != nil {
				return err
			}
		}
		return show(h.TxTest(uint8(channel), uint8(payloadLen),
			hci.PayloadOption(pattern), hci.PhyOption(phy)))

	case "rxtest":
		channel, err := parseUint(args, 1, "channel", 8)
		if err != nil {
			return err
		}
		phy := uint64(1)
		if len(args) > 2 {
			if phy, err = parseUint(args, 2, "phy", 8); err != nil {
				return err
			}
		}
		return show(h.RxTest(uint8(channel), hci.PhyOption(phy), 0))

	case "endtest":
		received, status, err := h.EndTest()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d packet(s) received (%s)\n", received, status)
		return nil

	case "txpower":
		if len(args) < 2 {
			return fmt.Errorf("usage: txpower <dbm>")
		}
		dbm, err := strconv.ParseInt(args[1], 10, 8)
		if err != nil {
			return fmt.Errorf("tx power %q: %w", args[1], err)
		}
		return show(h.SetAdvTxPower(int8(dbm)))

	case "cmd":
		if len(args) < 3 {
			return fmt.Errorf("usage: cmd <ogf> <ocf> [byte...]")
		}
		ogf, err := parseUint(args, 1, "ogf", 8)
		if err != nil {
			return err
		}
		ocf, err := parseUint(args, 2, "ocf", 16)
		if err != nil {
			return err
		}
		params := make([]int, 0, len(args)-3)
		for i := 3; i < len(args); i++ {
			b, err := parseUint(args, i, "param", 8)
			if err != nil {
				return err
			}
			params = append(params, int(b))
		}
		evt, err := h.Transport().SendCommand(
			packet.NewCommand(packet.OGF(ogf), packet.OCF(ocf), params...))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s status=%s params=%X\n", evt.Code, evt.Status, evt.Params)
		return nil

	default:
		return fmt.Errorf("unknown command %q, try help", args[0])
	}
}

// parseUint reads args[i] as a decimal or 0x-prefixed integer of the
// given bit width.
func parseUint(args []string, i int, what string, bits int) (uint64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing %s", what)
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(args[i], "0x"), base(args[i]), bits)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", what, args[i], err)
	}
	return v, nil
}

func base(s string) int {
	if strings.HasPrefix(s, "0x") {
		return 16
	}
	return 10
}
