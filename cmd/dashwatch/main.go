// Command dashwatch subscribes to one dashboard resource and logs every
// state change until interrupted.
//
//	dashwatch -config dashsync.yaml -resource scan-tasks -params '{"page":1}'
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/dailyyoga/dashsync/cache"
	"github.com/dailyyoga/dashsync/config"
	"github.com/dailyyoga/dashsync/dashboard"
	"github.com/dailyyoga/dashsync/logger"
	"github.com/dailyyoga/dashsync/registry"
	"github.com/dailyyoga/dashsync/rest"
	"github.com/dailyyoga/dashsync/routine"
	"github.com/dailyyoga/dashsync/session"
	"github.com/dailyyoga/dashsync/syncer"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

func main() {
	var (
		configPath string
		resource   string
		rawParams  string
		token      string
	)
	flag.StringVar(&configPath, "config", getenvDefault("DASHSYNC_CONFIG", ""), "path to the YAML config, defaults when empty")
	flag.StringVar(&resource, "resource", dashboard.ScanTasks, "resource to watch")
	flag.StringVar(&rawParams, "params", "", "JSON object of key parameters")
	flag.StringVar(&token, "token", "", "bearer token, overrides config")
	flag.Parse()

	if err := run(configPath, resource, rawParams, token); err != nil {
		fmt.Fprintf(os.Stderr, "dashwatch: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, resource, rawParams, token string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	var params cache.Params
	if rawParams != "" {
		if err := sonic.UnmarshalString(rawParams, &params); err != nil {
			return fmt.Errorf("parse -params: %w", err)
		}
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return err
	}
	defer log.Sync()

	if token == "" {
		token = cfg.Token()
	}
	sess := session.New(logger.Named(log, "session"), token)
	sess.OnInvalidate(func(reason string) {
		log.Error("session invalidated, sign in again", zap.String("reason", reason))
	})

	api, err := rest.New(logger.Named(log, "rest"), cfg.REST, sess)
	if err != nil {
		return err
	}
	defer api.Close()

	s, err := syncer.New(log, cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := dashboard.Register(s, api); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.Start(ctx); err != nil {
		return err
	}
	if prom := s.Metrics(); prom != nil && cfg.Metrics.Addr != "" {
		srv := &fasthttp.Server{Handler: fasthttpadaptor.NewFastHTTPHandler(prom.Handler())}
		routine.GoNamed(log, "metrics-server", func() {
			log.Info("serving metrics", zap.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(cfg.Metrics.Addr); err != nil {
				log.Error("metrics server stopped", zap.Error(err))
			}
		})
		defer srv.Shutdown()
	}

	h, err := s.Subscribe(resource, params, registry.WithOnChange(func(st registry.State) {
		fields := []zap.Field{
			zap.String("key", st.Key.String()),
			zap.String("status", st.Status.String()),
		}
		if st.Err != nil {
			fields = append(fields, zap.Error(st.Err))
		}
		if st.Data != nil {
			fields = append(fields, zap.Any("data", st.Data))
		}
		log.Info("state changed", fields...)
	}))
	if err != nil {
		return err
	}
	defer h.Close()

	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

func getenvDefault(name, def string) string {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	return v
}
