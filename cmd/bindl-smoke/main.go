// Command bindl-smoke wires the bindl packages together for a quick manual
// check: it starts the metrics exporter, exercises the cache, optionally
// publishes a message, and serves scrapes until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/renatoramossilva/bindl-lib/cache"
	"github.com/renatoramossilva/bindl-lib/config"
	"github.com/renatoramossilva/bindl-lib/logging"
	"github.com/renatoramossilva/bindl-lib/metrics"
	"github.com/renatoramossilva/bindl-lib/queue"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	listenAddr := flag.String("listen", "", "Override metrics listen address (e.g., :9090)")
	topic := flag.String("topic", "bindl-smoke", "Topic for the optional publish check")
	flag.Parse()

	if err := run(*configPath, *listenAddr, *topic); err != nil {
		fmt.Fprintf(os.Stderr, "bindl-smoke: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, listenAddr, topic string) error {
	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Exporter.ListenAddr = listenAddr
	}

	logger := logging.Configure(cfg.Observability.LogLevel, cfg.Observability.LogFormat)

	exp, err := metrics.NewExporter(metrics.Config{ListenAddr: cfg.Exporter.ListenAddr}, logger)
	if err != nil {
		return err
	}
	defer exp.Close()

	if err := exp.RegisterCounter("smoke_checks_total", "Smoke checks performed.", []string{"check"}); err != nil {
		return err
	}

	if err := checkCache(cfg, exp, logger); err != nil {
		return err
	}
	if len(cfg.Queue.Brokers) > 0 {
		if err := checkQueue(cfg, topic, exp, logger); err != nil {
			return err
		}
	} else {
		logger.Info("no queue brokers configured, skipping publish check")
	}

	logger.Infof("serving scrapes", map[string]any{"addr": exp.Addr()})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")
	return nil
}

func checkCache(cfg *config.Config, exp *metrics.Exporter, logger *logging.Logger) error {
	c, err := cache.Open(cache.Config{
		Dir:        cfg.Cache.Dir,
		InMemory:   cfg.Cache.InMemory,
		SyncWrites: cfg.Cache.SyncWrites,
	}, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	ic, err := cache.Instrument(c, exp)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := ic.Set(ctx, "foo", []byte("bar"), time.Minute); err != nil {
		return err
	}
	got, err := ic.Get(ctx, "foo")
	if err != nil {
		return err
	}
	logger.Infof("cache round trip", map[string]any{"value": string(got)})
	return exp.IncCounter("smoke_checks_total", map[string]string{"check": "cache"}, 1)
}

func checkQueue(cfg *config.Config, topic string, exp *metrics.Exporter, logger *logging.Logger) error {
	pub, err := queue.NewPublisher(queue.Config{
		Brokers:  cfg.Queue.Brokers,
		ClientID: cfg.Queue.ClientID,
	}, topic, exp, logger)
	if err != nil {
		return err
	}
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	body := map[string]any{"check": "queue", "at": time.Now().UTC().Format(time.RFC3339)}
	if err := pub.Publish(ctx, nil, body); err != nil {
		return err
	}
	logger.Infof("message published", map[string]any{"topic": topic})
	return exp.IncCounter("smoke_checks_total", map[string]string{"check": "queue"}, 1)
}
