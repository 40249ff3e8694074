// Command tcserver is the AOG Task Controller bridge's platform entry
// point: flag parsing, CAN adapter resolution, logging setup, and wiring
// of the event loop's collaborators (spec.md §6 CLI surface). Everything
// below the constructors it calls is the actual core; this file is glue.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/agopengps/tc-bridge/pkg/adapters"
	"github.com/agopengps/tc-bridge/pkg/aog"
	"github.com/agopengps/tc-bridge/pkg/can"
	_ "github.com/agopengps/tc-bridge/pkg/can/socketcan"
	"github.com/agopengps/tc-bridge/pkg/canbridge"
	"github.com/agopengps/tc-bridge/pkg/eventloop"
	"github.com/agopengps/tc-bridge/pkg/subnet"
	"github.com/agopengps/tc-bridge/pkg/tcserver"
)

// version is the CLI's own release marker (spec.md §6: --version), unrelated
// to the ISO 11783 protocol version the server advertises on the bus.
const version = "0.1.0"

var validLogLevels = []string{"debug", "info", "warning", "error", "critical"}

// logrusLevel maps the CLI's ISOBUS-style level names onto logrus's own,
// since logrus has no "critical" level of its own.
func logrusLevel(name string) (log.Level, error) {
	switch name {
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	case "critical":
		return log.FatalLevel, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (want one of %s)", name, strings.Join(validLogLevels, ", "))
	}
}

type config struct {
	showHelp    bool
	showVersion bool
	log2File    bool
	canAdapter  string
	canChannel  int
	logLevel    string
}

func newFlagSet() (*flag.FlagSet, *config) {
	fs := flag.NewFlagSet("tcserver", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	cfg := &config{}
	fs.BoolVar(&cfg.showHelp, "help", false, "show this help message")
	fs.BoolVar(&cfg.showVersion, "version", false, "print the version and exit")
	fs.BoolVar(&cfg.log2File, "log2file", false, "write logs to a file instead of stderr")
	fs.StringVar(&cfg.canAdapter, "can_adapter", "", "CAN adapter: "+strings.Join(adapters.Names(), "|"))
	fs.IntVar(&cfg.canChannel, "can_channel", 0, "CAN channel index")
	fs.StringVar(&cfg.logLevel, "log_level", "info", "log level: "+strings.Join(validLogLevels, "|"))
	return fs, cfg
}

func parseFlags(fs *flag.FlagSet, cfg *config, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		err := fmt.Errorf("unrecognized arguments: %s", strings.Join(fs.Args(), " "))
		fmt.Fprintln(fs.Output(), err)
		fs.Usage()
		return err
	}
	return nil
}

func main() {
	fs, cfg := newFlagSet()
	if err := parseFlags(fs, cfg, os.Args[1:]); err != nil {
		// fs already printed usage; unknown-option is a configuration
		// error (spec.md §6: "unknown options are errors").
		os.Exit(2)
	}
	if cfg.showHelp {
		fs.Usage()
		return
	}
	if cfg.showVersion {
		fmt.Println("tcserver " + version)
		return
	}

	if err := run(*cfg); err != nil {
		log.WithError(err).Error("fatal")
		os.Exit(1)
	}
}

func run(cfg config) error {
	level, err := logrusLevel(cfg.logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	if cfg.log2File {
		f, err := os.OpenFile("tcserver.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	if cfg.canAdapter == "" {
		return fmt.Errorf("--can_adapter is required (one of %s)", strings.Join(adapters.Names(), ", "))
	}
	resolved, err := adapters.Resolve(cfg.canAdapter, cfg.canChannel)
	if err != nil {
		// spec.md §7: "no adapter" / unknown adapter exits nonzero before
		// the event loop starts.
		return err
	}
	log.WithFields(log.Fields{
		"adapter": cfg.canAdapter,
		"channel": cfg.canChannel,
		"device":  resolved.Device,
		"bitrate": resolved.Bitrate,
	}).Info("resolved CAN adapter")

	bus, err := can.NewBus("socketcan", resolved.Device)
	if err != nil {
		return fmt.Errorf("opening CAN bus: %w", err)
	}
	if err := bus.Connect(); err != nil {
		return fmt.Errorf("connecting CAN bus: %w", err)
	}
	defer bus.Disconnect()

	bridge := canbridge.NewBridge(bus)
	if err := bus.Subscribe(bridge); err != nil {
		return fmt.Errorf("subscribing to CAN bus: %w", err)
	}
	tc := tcserver.NewServer(bridge)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfgSubnet := subnet.Load()

	// Handlers call straight into tc/bridge rather than through the loop:
	// both effects (speed cache update, section-state diff) are exactly
	// what eventloop.Loop.HandleSteerData/HandleSectionControl do, but
	// wiring them directly here avoids a codec<->loop construction cycle.
	codec, err := aog.New(ctx, cfgSubnet, aog.Handlers{
		OnSteerData: func(sd aog.SteerData) {
			bridge.SetSpeed(aog.SpeedMMPerSecond(sd.SpeedKmhTenths))
			desired := make([]bool, len(sd.DesiredOn))
			copy(desired, sd.DesiredOn[:])
			tc.UpdateSectionStates(desired)
		},
		OnSectionControl: func(enabled bool) {
			tc.UpdateSectionControlEnabled(enabled)
		},
		OnSubnetAnnounce: func(c subnet.Config) {
			log.WithField("subnet", c).Info("subnet rebound by AOG discovery")
		},
	}, false)
	if err != nil {
		return fmt.Errorf("starting AOG codec: %w", err)
	}
	defer codec.Close()

	l := eventloop.New(codec, tc, canbridge.NoopTransportPump{}, bridge)

	log.Info("tcserver starting event loop")
	runErr := l.Run(ctx)
	tc.Terminate()
	return runErr
}
