// Command broker runs the polite URL dispatch broker: a gRPC service
// (PublishUrls, Subscribe, standard health) backed by a Redis cooldown
// store, plus a read-only admin HTTP surface (/healthz, /stats).
// Configuration is read from the environment, or an optional .env override
// file, as described in internal/config.
package main

import (
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	"crawlbroker.dev/internal/broker"
	"crawlbroker.dev/internal/chk"
	"crawlbroker.dev/internal/config"
	"crawlbroker.dev/internal/context"
	"crawlbroker.dev/internal/cooldown"
	"crawlbroker.dev/internal/log"
	"crawlbroker.dev/internal/lol"
	"crawlbroker.dev/internal/rpc"
)

func main() {
	var err error
	var cfg *config.C
	if cfg, err = config.New(); chk.E(err) {
		os.Exit(1)
	}
	lol.SetLogLevel(cfg.LogLevel)
	log.I.F("starting %s", cfg.AppName)

	var store *cooldown.Client
	if store, err = cooldown.New(cfg.RedisURI, cfg.CooldownTTL); chk.E(err) {
		os.Exit(1)
	}
	defer store.Close()

	b := broker.New(store, cfg.CooldownTTL)

	ctx, cancel := context.Cancel(context.Bg())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		log.I.Ln("shutting down")
		cancel()
	}()

	group, gctx := errgroup.WithContext(ctx)

	grpcServer := grpc.NewServer(rpc.ServerOption())
	rpc.RegisterBrokerServer(grpcServer, b)
	grpc_health_v1.RegisterHealthServer(grpcServer, broker.NewHealthServer(b))

	group.Go(
		func() error {
			lis, err := net.Listen("tcp", cfg.GRPCListen)
			if chk.E(err) {
				return err
			}
			b.MarkReady()
			log.I.F("gRPC listening on %s", cfg.GRPCListen)
			return grpcServer.Serve(lis)
		},
	)
	group.Go(
		func() error {
			<-gctx.Done()
			grpcServer.GracefulStop()
			return nil
		},
	)

	admin := broker.NewAdmin(b)
	adminServer := &http.Server{Addr: cfg.AdminListen, Handler: admin.Handler()}
	group.Go(
		func() error {
			log.I.F("admin HTTP listening on %s", cfg.AdminListen)
			err := adminServer.ListenAndServe()
			if err == http.ErrServerClosed {
				return nil
			}
			return err
		},
	)
	group.Go(
		func() error {
			<-gctx.Done()
			return adminServer.Close()
		},
	)

	if err = group.Wait(); chk.E(err) {
		os.Exit(1)
	}
}
