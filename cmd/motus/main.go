// Command motus receives accelerometer streams over OSC, runs each sensor
// through its smoothing and derivative chain, and sends the results back out
// as OSC.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	goserial "go.bug.st/serial"

	"github.com/banshee-data/motus/internal/config"
	"github.com/banshee-data/motus/internal/mocap"
	"github.com/banshee-data/motus/internal/monitor"
	"github.com/banshee-data/motus/internal/monitoring"
	"github.com/banshee-data/motus/internal/network"
	"github.com/banshee-data/motus/internal/osc"
	"github.com/banshee-data/motus/internal/serialsource"
	"github.com/banshee-data/motus/internal/timeutil"
	"github.com/banshee-data/motus/internal/version"
)

var (
	configPath   = flag.String("config", "", "Path to a JSON config file (defaults apply when empty)")
	listen       = flag.String("listen", "", "UDP address to receive OSC on (overrides config)")
	forward      = flag.String("forward", "", "UDP address to send OSC to (overrides config)")
	monitorAddr  = flag.String("monitor", "", "HTTP address for the debug monitor; empty disables it (overrides config)")
	tickInterval = flag.Duration("tick", 0, "Processing tick interval (overrides config)")
	serialPort   = flag.String("serial", "", "Serial bridge device, e.g. /dev/ttyUSB0 (overrides config)")
	pcapFile     = flag.String("pcap", "", "Replay OSC traffic from a pcap file instead of listening")
	pcapRealtime = flag.Bool("pcap-realtime", false, "Replay the pcap at its captured pace")
	verbose      = flag.Bool("verbose", false, "Log per-packet diagnostics")
	showVersion  = flag.Bool("version", false, "Print the version and exit")
)

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cfg *config.MotusConfig, set map[string]bool) {
	if set["listen"] {
		cfg.ListenAddress = listen
	}
	if set["forward"] {
		cfg.ForwardAddress = forward
	}
	if set["monitor"] {
		cfg.MonitorAddress = monitorAddr
	}
	if set["tick"] {
		s := tickInterval.String()
		cfg.TickInterval = &s
	}
	if set["serial"] {
		cfg.SerialPort = serialPort
	}
}

func setFlags() map[string]bool {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func loadConfig(path string) (*config.MotusConfig, error) {
	if path == "" {
		return &config.MotusConfig{}, nil
	}
	return config.LoadConfig(path)
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	applyFlags(cfg, setFlags())
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	monitoring.SetVerbose(*verbose)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, stop, cfg); err != nil {
		log.Printf("motus exited with error: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, stop context.CancelFunc, cfg *config.MotusConfig) error {
	runID := uuid.NewString()
	monitoring.Logf("%s starting, run %s", version.String(), runID)

	packetStats := network.NewPacketStats()

	forwarder, err := network.NewMessageForwarder(cfg.GetForwardAddress(), cfg.GetForwardBuffer(), packetStats, cfg.GetStatsInterval())
	if err != nil {
		return err
	}
	defer forwarder.Close()
	forwarder.Start(ctx)

	pipeline := cfg.PipelineConfig()
	queue := mocap.NewQueue(pipeline.QueueCapacity)
	engine := mocap.NewEngine(pipeline, queue, forwarder)

	listener := network.NewUDPListener(network.UDPListenerConfig{
		Address:     cfg.GetListenAddress(),
		RcvBuf:      cfg.GetRcvBuf(),
		LogInterval: cfg.GetStatsInterval(),
		Stats:       packetStats,
		Decoder:     osc.NewDecoder(cfg.DecoderConfig()),
		Sink:        queue,
	})

	var serial *serialsource.Source[goserial.Port]
	if path := cfg.GetSerialPort(); path != "" {
		serial, err = serialsource.Open(path, cfg.GetSerialOptions(), queue)
		if err != nil {
			return fmt.Errorf("failed to open serial bridge %s: %w", path, err)
		}
		defer serial.Close()
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := engine.Run(ctx, timeutil.RealClock{}, cfg.GetTickInterval()); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("tick loop error: %v", err)
		}
		monitoring.Logf("tick loop stopped")
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		logEngineStats(ctx, engine, cfg.GetStatsInterval())
	}()

	if *pcapFile != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			replay(ctx, stop, listener, cfg.GetTickInterval())
		}()
	} else {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := listener.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("OSC listener error: %v", err)
				stop()
			}
		}()
	}

	if serial != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := serial.Monitor(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("serial bridge error: %v", err)
			}
			monitoring.Logf("serial bridge stopped")
		}()
	}

	if addr := cfg.GetMonitorAddress(); addr != "" {
		ws := monitor.NewWebServer(monitor.WebServerConfig{
			Address:        addr,
			Source:         engine,
			ListenAddress:  cfg.GetListenAddress(),
			ForwardAddress: cfg.GetForwardAddress(),
			TickInterval:   cfg.GetTickInterval(),
			RunID:          runID,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ws.Start(ctx); err != nil {
				log.Printf("monitor server error: %v", err)
			}
		}()
	}

	wg.Wait()
	engine.LogStats()
	monitoring.Logf("Graceful shutdown complete")
	return nil
}

// replay feeds the pcap through the listener's packet path, then lets the
// tick loop drain the queue before stopping the process.
func replay(ctx context.Context, stop context.CancelFunc, listener *network.UDPListener, tick time.Duration) {
	defer stop()

	res, err := network.ReplayPCAPFile(ctx, *pcapFile, listener, network.ReplayOptions{
		Port:     network.DefaultListenPort,
		Realtime: *pcapRealtime,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("PCAP replay error: %v", err)
		return
	}
	monitoring.Logf("PCAP replay delivered %d of %d packets (%d undecodable)", res.Handled, res.Packets, res.Failures)

	select {
	case <-ctx.Done():
	case <-time.After(2 * tick):
	}
}

func logEngineStats(ctx context.Context, engine *mocap.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			engine.LogStats()
		}
	}
}
