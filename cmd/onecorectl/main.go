// Command onecorectl is a demo harness for pkg/driver: it wires a mock
// engine adapter and wave player through driver.New, starts the
// diagnostics server from pkg/monitor, and drives one scripted speech
// sequence end to end, grounded on the pack's examples/voice/tts/main.go
// step-by-step CLI demo structure.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"

	"github.com/pd360/onecoretts/o11y"
	"github.com/pd360/onecoretts/pkg/driver"
	"github.com/pd360/onecoretts/pkg/engine"
	"github.com/pd360/onecoretts/pkg/monitor"
	"github.com/pd360/onecoretts/pkg/playback"
	"github.com/pd360/onecoretts/pkg/speech"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML driver config (optional)")
	monitorAddr := flag.String("monitor-addr", ":8090", "address for the read-only diagnostics server")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := o11y.NewLogger(o11y.WithLogLevel("info"))

	shutdownTracer, err := o11y.InitTracer("onecorectl", o11y.WithSpanExporter(mustStdoutExporter()))
	if err != nil {
		log.Fatalf("init tracer: %v", err)
	}
	defer shutdownTracer()

	shutdownMeter, err := o11y.InitPrometheusMeter("onecorectl")
	if err != nil {
		log.Fatalf("init meter: %v", err)
	}
	defer shutdownMeter(context.Background())

	cfg, v, err := driver.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	driver.WatchConfig(v, func(c *driver.Config) {
		logger.Info(ctx, "config reloaded", "default_rate", c.DefaultRate)
	}, func(err error) {
		logger.Warn(ctx, "config reload rejected", "error", err)
	})

	adapter := engine.NewAdvancedMockAdapter(
		engine.WithVoices("0:Demo Voice One|1:Demo Voice Two"),
		engine.WithCurrentVoice("0", cfg.DefaultLanguage),
	)
	player := playback.NewAdvancedMockWavePlayer()

	d, err := driver.New(ctx, cfg, adapter, player, alwaysValidReader{}, logger)
	if err != nil {
		log.Fatalf("construct driver: %v", err)
	}

	srv := monitor.NewServer(d, logger)
	go func() {
		if err := srv.ListenAndServe(*monitorAddr); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "monitor server stopped", "error", err)
		}
	}()
	logger.Info(ctx, "diagnostics server listening", "addr", *monitorAddr)

	seq := speech.Sequence{
		speech.TextItem("Hello, this is "),
		speech.CommandItem(speech.Index{I: 1}),
		speech.TextItem("a scripted demo utterance."),
		speech.CommandItem(speech.Break{Ms: 200}),
		speech.TextItem("Second sentence follows."),
	}

	if err := d.Speak(ctx, seq); err != nil {
		logger.Error(ctx, "speak failed", "error", err)
	} else {
		logger.Info(ctx, "speak submitted")
	}

	if idx, ok := d.LastIndex(); ok {
		logger.Info(ctx, "last marker reached", "index", idx)
	}

	// Keep serving diagnostics until SIGINT/SIGTERM, then shut down in
	// reverse order of startup: the diagnostics server first (it only reads
	// the driver), then the driver itself.
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "monitor shutdown failed", "error", err)
	}
	if err := d.Terminate(); err != nil {
		logger.Error(ctx, "driver terminate failed", "error", err)
	}
}

type alwaysValidReader struct{}

func (alwaysValidReader) Valid(ctx context.Context, id string) (bool, error) { return true, nil }

func mustStdoutExporter() *stdouttrace.Exporter {
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		log.Fatalf("build stdout trace exporter: %v", err)
	}
	return exp
}
