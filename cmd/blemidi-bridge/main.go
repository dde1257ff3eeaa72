/*
Copyright (c) The go-blemidi Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// blemidi-bridge bridges a serial MIDI device to a BLE-MIDI peer,
// running the packetizer/parser pair over that serial link, exposing
// Prometheus metrics, and notifying systemd once the bridge is up.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"

	"github.com/go-blemidi/blemidi/blemidi"
	"github.com/go-blemidi/blemidi/blemidi/config"
)

// sdNotifyReady notifies systemd this process finished starting up.
func sdNotifyReady() {
	supported, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if !supported && err != nil {
		log.Warningf("sd_notify failed: %v", err)
	} else if !supported {
		log.Debug("sd_notify not supported, skipping")
	} else {
		log.Info("sd_notify: ready")
	}
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warning":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.Fatalf("unrecognized log level: %v", level)
	}
}

// serialTransport wraps go.bug.st/serial's Port as the bridge's
// read/write/close transport.
type serialTransport struct {
	port serial.Port
}

func (t *serialTransport) Read(p []byte) (int, error)  { return t.port.Read(p) }
func (t *serialTransport) Write(p []byte) (int, error) { return t.port.Write(p) }
func (t *serialTransport) Close() error                { return t.port.Close() }

// realClock implements blemidi.Clock against the wall clock.
type realClock struct{ start time.Time }

func (c realClock) NowMS() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

func runBridge(ctx context.Context, sc config.StaticConfig, dc *config.DynamicConfig) error {
	mode := &serial.Mode{BaudRate: 115200}
	port, err := serial.Open(sc.Device, mode)
	if err != nil {
		return fmt.Errorf("opening serial device %s: %w", sc.Device, err)
	}
	transport := &serialTransport{port: port}
	defer transport.Close()

	entry := log.WithField("component", "blemidi-bridge")
	clock := realClock{start: time.Now()}

	link := blemidi.NewLink(clock, func(packet []byte) {
		if _, err := transport.Write(packet); err != nil {
			entry.Warningf("writing to serial transport: %v", err)
		}
	}, blemidi.SinkFuncs{
		ChannelMessage: func(m blemidi.ChannelMessage) {
			entry.Debugf("recv %s", m)
		},
		RealTimeMessage: func(m blemidi.RealTimeMessage) {
			entry.Debugf("recv %s", m)
		},
		SysExMessage: func(data []byte) {
			entry.Debugf("recv sysex, %d bytes", len(data))
		},
	}, blemidi.Options{
		MTU:            dc.MTU,
		TimeoutMS:      int(dc.FlushTimeout / time.Millisecond),
		DedupeCapacity: dc.DedupeWindow,
		Log:            entry,
	})
	link.Start()
	defer link.Close()

	exporter := blemidi.NewPrometheusExporter(link.Stats)
	prometheus.MustRegister(exporter)

	if sc.MetricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			entry.Infof("metrics listening on %s", sc.MetricsAddr)
			if err := http.ListenAndServe(sc.MetricsAddr, nil); err != nil {
				entry.Warningf("metrics server stopped: %v", err)
			}
		}()
	}

	go logHealthStats(ctx, entry, 30*time.Second)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		buf := make([]byte, 256)
		for {
			select {
			case <-egCtx.Done():
				return egCtx.Err()
			default:
			}
			n, err := transport.Read(buf)
			if err != nil {
				return fmt.Errorf("reading from serial transport: %w", err)
			}
			if n > 0 {
				link.Decoder.Parse(buf[:n])
				link.Decoder.Update()
			}
		}
	})

	sdNotifyReady()

	<-egCtx.Done()
	return eg.Wait()
}

func main() {
	var sc config.StaticConfig
	flag.StringVar(&sc.Device, "device", "/dev/ttyACM0", "Serial device to bridge")
	flag.StringVar(&sc.LogLevel, "loglevel", "info", "Set a log level. Can be: debug, info, warning, error")
	flag.StringVar(&sc.MetricsAddr, "metricsaddr", "", "host:port to serve Prometheus metrics on, empty disables it")
	flag.StringVar(&sc.DynamicConfigPath, "config", "", "Path to a YAML file with dynamic settings")
	flag.Parse()

	setLogLevel(sc.LogLevel)

	dc := &config.DynamicConfig{MTU: blemidi.DefaultMTU, FlushTimeout: blemidi.DefaultTimeout, DedupeWindow: 0}
	if sc.DynamicConfigPath != "" {
		loaded, err := config.ReadDynamicConfig(sc.DynamicConfigPath)
		if err != nil {
			log.Fatalf("reading dynamic config: %v", err)
		}
		dc = loaded
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warning("received shutdown signal")
		cancel()
	}()

	if err := runBridge(ctx, sc, dc); err != nil && err != context.Canceled {
		log.Fatalf("bridge stopped: %v", err)
	}
}
