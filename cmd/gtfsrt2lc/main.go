package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/linkedtransit/gtfsrt2lc/config"
	"github.com/linkedtransit/gtfsrt2lc/gtfs"
	"github.com/linkedtransit/gtfsrt2lc/gtfsrt"
	"github.com/linkedtransit/gtfsrt2lc/internal"
	"github.com/linkedtransit/gtfsrt2lc/lc"
	"github.com/linkedtransit/gtfsrt2lc/metrics"
	"github.com/linkedtransit/gtfsrt2lc/publisher"
	"github.com/linkedtransit/gtfsrt2lc/serializer"
	"github.com/linkedtransit/gtfsrt2lc/uritemplate"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the configuration file")
	realtime := flag.String("realtime", "", "GTFS-RT feed URL or path (overrides config)")
	static := flag.String("static", "", "static GTFS zip URL or path (overrides config)")
	format := flag.String("format", "", "output format: json|jsonld|csv|ntriples|turtle (overrides config)")
	deduce := flag.Bool("deduce", false, "identify trips without a trip_id from route, start time and date")
	grep := flag.Bool("grep", false, "index only the trips present in the realtime feed")
	flag.Parse()

	internal.InitLogging()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *realtime != "" {
		cfg.Realtime.Source = *realtime
	}
	if *static != "" {
		cfg.Static.Source = *static
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *deduce {
		cfg.Static.Deduce = true
	}
	if *grep {
		cfg.Static.Grep = true
	}

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.AppConfig) error {
	loc := time.Local
	if cfg.TimeZone != "" {
		var err error
		if loc, err = time.LoadLocation(cfg.TimeZone); err != nil {
			return err
		}
	}

	templates, err := uritemplate.NewSet(cfg.Templates)
	if err != nil {
		return err
	}

	store, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	var coll *metrics.Collector
	if cfg.Monitoring.Addr != "" {
		coll = metrics.NewCollector()
	}

	client := gtfsrt.NewClient(cfg.Realtime.Headers)
	if cfg.Realtime.TimeoutMS > 0 {
		client.SetTimeout(time.Duration(cfg.Realtime.TimeoutMS) * time.Millisecond)
	}

	// The first snapshot is fetched before the static load so grep mode
	// knows which trips to keep.
	raw, err := client.Fetch(cfg.Realtime.Source)
	if err != nil {
		return err
	}
	feed, err := gtfsrt.Decode(raw)
	if err != nil {
		return err
	}

	opts := gtfs.LoadOptions{Store: store, Deduce: cfg.Static.Deduce}
	if cfg.Static.Grep {
		for i := range feed.Updates {
			if id := feed.Updates[i].TripID; id != "" {
				opts.Trips = append(opts.Trips, id)
			}
		}
	}
	log.Printf("loading static GTFS from %s", cfg.Static.Source)
	idx, err := loadIndex(cfg.Static, opts)
	if err != nil {
		return err
	}

	engineOpts := lc.Options{
		Templates: templates,
		Deduce:    cfg.Static.Deduce,
		Location:  loc,
	}
	if coll != nil {
		engineOpts.Metrics = coll
	}
	if cfg.History.Enabled {
		hstore := gtfs.Store(store)
		if cfg.History.Path != "" {
			if hstore, err = gtfs.NewSQLiteStore(cfg.History.Path); err != nil {
				return err
			}
			defer hstore.Close()
		}
		engineOpts.History = lc.NewHistory(hstore)
	}
	engine, err := lc.NewEngine(idx, engineOpts)
	if err != nil {
		return err
	}

	out, err := serializer.New(cfg.Output.Format, os.Stdout)
	if err != nil {
		return err
	}

	var pub *publisher.NATSPublisher
	if cfg.NATS.URL != "" {
		var pm publisher.Metrics
		if coll != nil {
			pm = coll
		}
		if pub, err = publisher.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject, pm); err != nil {
			return err
		}
		defer pub.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Monitoring.Addr != "" {
		srv := monitoringServer(cfg.Monitoring.Addr, coll)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	emit := func(feed *gtfsrt.Feed) error {
		for c := range engine.Process(ctx, feed) {
			if err := out.Write(&c); err != nil {
				return err
			}
			if pub != nil {
				if err := pub.Publish(&c); err != nil {
					log.Printf("warn: nats publish: %v", err)
				}
			}
		}
		return out.Close()
	}

	if err := emit(feed); err != nil {
		return err
	}
	if cfg.Realtime.PollIntervalMS <= 0 {
		return nil
	}

	ticker := time.NewTicker(time.Duration(cfg.Realtime.PollIntervalMS) * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("shutting down")
			return nil
		case <-ticker.C:
			raw, err := client.Fetch(cfg.Realtime.Source)
			if err != nil {
				log.Printf("warn: fetch realtime feed: %v", err)
				if coll != nil {
					coll.FeedFetchErrs.Inc()
				}
				continue
			}
			feed, err := gtfsrt.Decode(raw)
			if err != nil {
				log.Printf("warn: decode realtime feed: %v", err)
				if coll != nil {
					coll.FeedFetchErrs.Inc()
				}
				continue
			}
			if err := emit(feed); err != nil {
				return err
			}
		}
	}
}

func openStore(cfg config.StoreConfig) (gtfs.Store, error) {
	if cfg.Kind == "sqlite" {
		return gtfs.NewSQLiteStore(cfg.Path)
	}
	return gtfs.NewMemStore(), nil
}

func loadIndex(cfg config.StaticConfig, opts gtfs.LoadOptions) (*gtfs.Index, error) {
	if strings.HasPrefix(cfg.Source, "http://") || strings.HasPrefix(cfg.Source, "https://") {
		return gtfs.NewIndexFromURL(cfg.Source, cfg.Headers, opts)
	}
	return gtfs.NewIndexFromFile(cfg.Source, opts)
}

func monitoringServer(addr string, coll *metrics.Collector) *http.Server {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", coll.Handler())
	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("monitoring server error: %v", err)
		}
	}()
	log.Printf("monitoring listening on %s", addr)
	return srv
}
