// Command server hosts the authoritative game simulation: one world
// goroutine per region, the tcp and websocket listeners, the character
// store, tick/audit logs, snapshots and the loopback admin surface.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"islebound.gg/internal/persistence/charstore"
	persistlog "islebound.gg/internal/persistence/log"
	"islebound.gg/internal/persistence/snapshot"
	"islebound.gg/internal/sim/catalogs"
	"islebound.gg/internal/sim/regions"
	"islebound.gg/internal/sim/tuning"
	"islebound.gg/internal/sim/world"
	"islebound.gg/internal/transport/tcp"
	"islebound.gg/internal/transport/ws"
)

func main() {
	var (
		addr          = flag.String("addr", ":8080", "http listen address (ws, health, metrics, admin)")
		tcpAddr       = flag.String("tcp", ":3000", "tcp listen address (empty to disable)")
		configDir     = flag.String("configs", "./configs", "content pack directory")
		dataDir       = flag.String("data", "./data", "runtime data directory")
		tuningPath    = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dlcPath       = flag.String("dlc", "", "path to dlc key table (default: <configs>/dlc.json)")
		seed          = flag.Int64("seed", 1337, "world seed (fresh worlds only)")
		defaultRegion = flag.String("default_region", "isle", "region new characters start in")
		loadLatest    = flag.Bool("load_latest_snapshot", true, "resume each region from its newest snapshot")
		dev           = flag.Bool("dev", false, "human-readable console logging")
	)
	flag.Parse()

	logger := buildLogger(*dev)
	defer func() { _ = logger.Sync() }()

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatal("load tuning", zap.String("path", tp), zap.Error(err))
		}
		logger.Info("tuning not found, using defaults", zap.String("path", tp))
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatal("load catalogs", zap.Error(err))
	}

	dlcKeys, err := loadDLCKeys(*dlcPath, *configDir)
	if err != nil {
		logger.Fatal("load dlc keys", zap.Error(err))
	}

	store, err := charstore.Open(filepath.Join(*dataDir, "characters.db"))
	if err != nil {
		logger.Fatal("open character store", zap.Error(err))
	}
	defer store.Close()

	regionNames := make([]string, 0, len(cats.Regions.Defs))
	for name := range cats.Regions.Defs {
		regionNames = append(regionNames, name)
	}
	sort.Strings(regionNames)

	worlds := make(map[string]*world.World, len(regionNames))
	regionDirs := make(map[string]string, len(regionNames))
	for _, region := range regionNames {
		regionDir := filepath.Join(*dataDir, "regions", region)
		regionDirs[region] = regionDir

		w := world.New(region, *seed, cats, tune, logger)
		if *loadLatest {
			if path, err := snapshot.Latest(regionDir); err != nil {
				logger.Fatal("scan snapshots", zap.String("region", region), zap.Error(err))
			} else if path != "" {
				snap, err := snapshot.Read(path)
				if err != nil {
					logger.Fatal("read snapshot", zap.String("path", path), zap.Error(err))
				}
				if err := w.Import(snap); err != nil {
					logger.Fatal("import snapshot", zap.String("path", path), zap.Error(err))
				}
				logger.Info("resumed from snapshot",
					zap.String("region", region), zap.String("file", filepath.Base(path)), zap.Uint64("tick", snap.Tick))
			}
		}

		tickLog := persistlog.NewTickLogger(regionDir)
		auditLog := persistlog.NewAuditLogger(regionDir)
		defer tickLog.Close()
		defer auditLog.Close()
		w.SetTickSink(tickLog)
		w.SetAuditSink(auditLog)
		w.SetSaveFunc(store.Save)
		w.SetDLCKeys(dlcKeys)
		worlds[region] = w
	}

	mgr, err := regions.NewManager(worlds, *defaultRegion, store, logger)
	if err != nil {
		logger.Fatal("regions", zap.Error(err))
	}

	ctx, cancel := signalContext()
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return mgr.Run(ctx) })

	if *tcpAddr != "" {
		ln, err := net.Listen("tcp", *tcpAddr)
		if err != nil {
			logger.Fatal("tcp listen", zap.String("addr", *tcpAddr), zap.Error(err))
		}
		logger.Info("tcp listening", zap.String("addr", *tcpAddr))
		g.Go(func() error { return tcp.NewServer(mgr, logger).Serve(ctx, ln) })
	}

	g.Go(func() error { return autosaveLoop(ctx, mgr, store, regionDirs, tune.AutosaveSec, logger) })

	mux := buildMux(mgr, store, regionDirs, logger)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		return srv.Shutdown(ctx2)
	})
	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", *addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server stopped", zap.Error(err))
	}
	store.Flush()
	logger.Info("shutdown complete")
}

func buildLogger(dev bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if dev {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return logger
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// loadDLCKeys reads the redeemable key table. No file means no keys.
func loadDLCKeys(path, configDir string) (map[string]catalogs.ItemCount, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		p = filepath.Join(configDir, "dlc.json")
	}
	raw, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) && path == "" {
			return nil, nil
		}
		return nil, err
	}
	keys := make(map[string]catalogs.ItemCount)
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
	}
	return keys, nil
}

// autosaveLoop persists connected characters and writes a snapshot per
// region at the tuning cadence. Shutdown saves ride the worlds' own exit
// path, not this loop.
func autosaveLoop(ctx context.Context, mgr *regions.Manager, store *charstore.Store, regionDirs map[string]string, everySec int, logger *zap.Logger) error {
	if everySec <= 0 {
		everySec = 60
	}
	ticker := time.NewTicker(time.Duration(everySec) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := mgr.SaveAll(); err != nil {
				logger.Warn("autosave", zap.Error(err))
				continue
			}
			store.Flush()
			for _, region := range mgr.Regions() {
				snap, err := mgr.Export(region)
				if err != nil {
					logger.Warn("snapshot export", zap.String("region", region), zap.Error(err))
					continue
				}
				path := snapshot.PathFor(regionDirs[region], snap.Tick)
				if err := snapshot.Write(path, snap); err != nil {
					logger.Warn("snapshot write", zap.String("path", path), zap.Error(err))
					continue
				}
				logger.Info("snapshot written",
					zap.String("region", region), zap.Uint64("tick", snap.Tick))
			}
		}
	}
}

func buildMux(mgr *regions.Manager, store *charstore.Store, regionDirs map[string]string, logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})

	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		fmt.Fprintf(rw, "# HELP islebound_region_tick Current tick per region.\n")
		fmt.Fprintf(rw, "# TYPE islebound_region_tick gauge\n")
		for _, region := range mgr.Regions() {
			fmt.Fprintf(rw, "islebound_region_tick{region=%q} %d\n", region, mgr.World(region).Stats().Tick)
		}

		fmt.Fprintf(rw, "# HELP islebound_region_players Connected players per region.\n")
		fmt.Fprintf(rw, "# TYPE islebound_region_players gauge\n")
		for _, region := range mgr.Regions() {
			fmt.Fprintf(rw, "islebound_region_players{region=%q} %d\n", region, mgr.World(region).Stats().Players)
		}

		fmt.Fprintf(rw, "# HELP islebound_region_actors Live actors per region.\n")
		fmt.Fprintf(rw, "# TYPE islebound_region_actors gauge\n")
		for _, region := range mgr.Regions() {
			fmt.Fprintf(rw, "islebound_region_actors{region=%q} %d\n", region, mgr.World(region).Stats().Actors)
		}

		fmt.Fprintf(rw, "# HELP islebound_region_step_ms Last tick step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE islebound_region_step_ms gauge\n")
		for _, region := range mgr.Regions() {
			fmt.Fprintf(rw, "islebound_region_step_ms{region=%q} %.3f\n", region, mgr.World(region).Stats().StepMS)
		}
	})

	mux.HandleFunc("/v1/ws", ws.NewServer(mgr, logger).Handler())

	if envBool("ISLEBOUND_ENABLE_ADMIN_HTTP", true) {
		registerAdmin(mux, mgr, store, regionDirs)
	} else {
		logger.Info("admin endpoints disabled (ISLEBOUND_ENABLE_ADMIN_HTTP=false)")
	}
	if envBool("ISLEBOUND_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}

func envBool(name string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
