package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"activation_fulfiller/internal/config"
	"activation_fulfiller/internal/fulfillment"
	"activation_fulfiller/internal/httpapi"
	"activation_fulfiller/internal/logbus"
	"activation_fulfiller/internal/logger"
	"activation_fulfiller/internal/notify"
	"activation_fulfiller/internal/provider/shopify"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logger.New(logger.Options{Format: "console"})
		boot.Fatal().Err(err).Msg("load config")
	}

	log := logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "activation-fulfiller",
	})
	bus := logbus.New(cfg.Log.BusCapacity, log)
	defer bus.Close()

	sender := cfg.Mail.MailSender()
	creds := cfg.Shopify.Credentials()
	bus.Log("info", "server starting", map[string]any{
		"addr":              cfg.Server.Addr,
		"mailConfigured":    sender.Complete(),
		"shopifyConfigured": creds != nil,
	})

	transport := notify.NewSMTPTransport(cfg.Mail.Timeout())
	orders := fulfillment.New(fulfillment.Options{
		Transport:   transport,
		Sender:      sender,
		Fulfiller:   shopify.New(cfg.Shopify, bus),
		Credentials: creds,
		Bus:         bus,
	})

	api := httpapi.New(httpapi.Options{
		Cfg:       cfg,
		Bus:       bus,
		Orders:    orders,
		Transport: transport,
		Sender:    sender,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		bus.Log("info", "shutdown signal received", map[string]any{"signal": sig.String()})
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			bus.Log("error", "http server error", map[string]any{"error": err.Error()})
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	_ = server.Shutdown(shutdownCtx)
	bus.Log("info", "server stopped", nil)
}
