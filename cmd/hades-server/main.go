// hades-server 启动 RESP 服务
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/chengsir22/hades/backend"
	"github.com/chengsir22/hades/lib/logger"
	"github.com/chengsir22/hades/lib/metrics"
	"github.com/chengsir22/hades/redis/server"
	"github.com/chengsir22/hades/settings"
)

var Version = "dev"

func main() {
	app := &cli.App{
		Name:    "hades-server",
		Usage:   "in-memory key-value server speaking RESP",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path of the yaml config file",
				EnvVars: []string{"HADES_CONFIG"},
				Value:   "hades.yaml",
			},
			&cli.StringFlag{
				Name:  "bind",
				Usage: "override the listen address in the config file",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "override the listen port in the config file",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if err := settings.Init(c.String("config")); err != nil {
		return err
	}
	conf := settings.Conf
	if c.IsSet("bind") {
		conf.Bind = c.String("bind")
	}
	if c.IsSet("port") {
		conf.Port = c.Int("port")
	}

	logger.Setup(conf.LogConfig)
	defer logger.Sync()
	settings.OnChange(func(next *settings.AppConfig) {
		if next.LogConfig == nil {
			return
		}
		if err := logger.SetLevel(next.LogConfig.Level); err != nil {
			logger.Warnf("config reload: %v", err)
			return
		}
		logger.Infof("config reloaded, log level %s", logger.Level())
	})

	db := backend.New(backend.OptionsFrom(conf.BackendConfig))
	defer db.Close()

	var m *metrics.Metrics
	if conf.MetricsConfig != nil && conf.MetricsConfig.Enable {
		m = metrics.New()
		stop := serveMetrics(conf.MetricsConfig.Addr, m)
		defer stop()
	}

	ctx, cancel := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Infof("%s %s starting, listening on %s", conf.Name, conf.Version, conf.Addr())
	return server.MakeHandler(conf, db, m).Handle(ctx)
}

// serveMetrics 启动 /metrics，返回的函数用于关闭
func serveMetrics(addr string, m *metrics.Metrics) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Infof("metrics listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("metrics server: %v", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
