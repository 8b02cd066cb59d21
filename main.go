package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/peterje/mirrorctl/internal/adb"
	"github.com/peterje/mirrorctl/internal/broadcast"
	"github.com/peterje/mirrorctl/internal/client"
	"github.com/peterje/mirrorctl/internal/config"
	"github.com/peterje/mirrorctl/internal/h264"
	"github.com/peterje/mirrorctl/internal/journal"
	"github.com/peterje/mirrorctl/internal/tunnel"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	serial := flag.String("serial", "", "device serial (default: first online device)")
	maxSize := flag.Int("max-size", 0, "max frame dimension, 0 = native")
	bitRate := flag.Int("bit-rate", 0, "video bitrate in bits/s")
	maxFPS := flag.Int("max-fps", 0, "frame rate cap, 0 = unlimited")
	block := flag.Bool("block-frame", false, "deliver only real frames (no idle ticks)")
	stayAwake := flag.Bool("stay-awake", false, "keep the device awake")
	listen := flag.String("listen", "", "serve viewer websocket on this address")
	tunnelAddr := flag.String("tunnel", "", "serve remote-control tunnel on this address")
	journalPath := flag.String("journal", "", "sqlite session journal path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	// Flags override file values.
	overrideString(&cfg.Device.Serial, *serial)
	overrideInt(&cfg.Video.MaxSize, *maxSize)
	overrideInt(&cfg.Video.BitRate, *bitRate)
	overrideInt(&cfg.Video.MaxFPS, *maxFPS)
	overrideString(&cfg.Broadcast.Addr, *listen)
	overrideString(&cfg.Tunnel.Addr, *tunnelAddr)
	overrideString(&cfg.Journal.Path, *journalPath)
	if *block {
		cfg.Video.BlockFrame = true
	}
	if *stayAwake {
		cfg.Device.StayAwake = true
	}

	ctx := context.Background()
	if err := adb.Check(ctx); err != nil {
		log.Fatalf("%v", err)
	}

	dev := &adb.Device{Serial: cfg.Device.Serial}
	if dev.Serial == "" {
		first, err := adb.FirstDevice(ctx)
		if err != nil {
			log.Fatalf("%v", err)
		}
		dev = first
	}
	log.Printf("Using device %s", dev.Serial)

	orientation, err := client.OrientationFromWire(cfg.Device.LockOrientation)
	if err != nil {
		log.Fatalf("Bad config: %v", err)
	}

	sess, err := client.New(dev, h264.NopDecoder{}, client.Options{
		MaxSize:         cfg.Video.MaxSize,
		BitRate:         cfg.Video.BitRate,
		MaxFPS:          cfg.Video.MaxFPS,
		BlockFrame:      cfg.Video.BlockFrame,
		StayAwake:       cfg.Device.StayAwake,
		LockOrientation: orientation,
		ServerJar:       cfg.Video.ServerJar,
	})
	if err != nil {
		log.Fatalf("Failed to build session: %v", err)
	}

	var jnl *journal.Journal
	if cfg.Journal.Path != "" {
		jnl, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			log.Fatalf("Failed to open journal: %v", err)
		}
		defer jnl.Close()
	}

	sess.OnInit(func(s *client.Session) {
		w, h := s.Resolution()
		log.Printf("Connected to %q at %dx%d", s.DeviceName(), w, h)
		if jnl != nil {
			if err := jnl.Begin(s.ID, dev.Serial, s.DeviceName(), w, h); err != nil {
				log.Printf("journal: %v", err)
			}
		}
	})

	// Subsystems consuming the elementary stream.
	if cfg.Broadcast.Addr != "" {
		hub := broadcast.NewHub()
		packets, unsub := sess.SubscribePackets()
		defer unsub()
		go func() {
			for pkt := range packets {
				hub.Publish(pkt)
			}
		}()
		go serveHTTP(cfg.Broadcast.Addr, "/stream", hub)
		log.Printf("Viewer websocket at ws://%s/stream", cfg.Broadcast.Addr)
	}
	if cfg.Tunnel.Addr != "" {
		go serveHTTP(cfg.Tunnel.Addr, "/tunnel", tunnel.NewServer(sess))
		log.Printf("Remote-control tunnel at ws://%s/tunnel", cfg.Tunnel.Addr)
	}

	// Periodic throughput report driven by the packet tap.
	var packets atomic.Uint64
	counter, unsubCounter := sess.SubscribePackets()
	defer unsubCounter()
	go func() {
		for range counter {
			packets.Add(1)
		}
	}()
	go func() {
		tick := time.NewTicker(5 * time.Second)
		defer tick.Stop()
		var last uint64
		for range tick.C {
			now := packets.Load()
			log.Printf("stream: %d access units in the last 5s", now-last)
			last = now
		}
	}()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		fmt.Printf("\nReceived %s, stopping...\n", sig)
		if jnl != nil {
			if err := jnl.End(sess.ID); err != nil {
				log.Printf("journal: %v", err)
			}
		}
		sess.Stop()
	}()

	if err := sess.Start(false); err != nil {
		log.Fatalf("Session failed: %v", err)
	}
	log.Printf("Session stopped.")
}

func serveHTTP(addr, path string, handler http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("http %s: %v", addr, err)
	}
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
