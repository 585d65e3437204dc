// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main is the entry point for the ghostbin paste server.
//
// The server stores client-side-encrypted pastes in Redis and never sees
// plaintext or keys. Startup wires the components in dependency order
// (store, PoW authority, lifecycle service, HTTP surface) and draws the
// process-local HMAC key; a restart therefore invalidates all outstanding
// proof-of-work challenges, which is intended — clients retry on 401 by
// fetching a new challenge.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ghostbin/internal/ghostbin/api"
	"ghostbin/internal/ghostbin/config"
	"ghostbin/internal/ghostbin/core"
	"ghostbin/internal/ghostbin/logging"
	"ghostbin/internal/ghostbin/pow"
	"ghostbin/internal/ghostbin/store"
)

func main() {
	configPath := flag.String("config", "", "Optional YAML config file; environment variables override it")
	listenAddr := flag.String("listen", "", "HTTP listen address; overrides config and LISTEN_ADDR")
	flag.Parse()

	log := logging.Setup("ghostbin-server")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("load config", "err", err)
		os.Exit(1)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}

	// 1. Connect the store. The dial is bounded so a missing Redis fails
	// fast instead of hanging the boot.
	dialCtx, dialCancel := context.WithTimeout(context.Background(), 5*time.Second)
	st, err := store.Open(dialCtx, cfg.RedisURL)
	dialCancel()
	if err != nil {
		log.Error("connect redis", "url", cfg.RedisURL, "err", err)
		os.Exit(1)
	}

	// 2. Mint the proof-of-work authority. The HMAC key lives only in
	// this process and is never persisted.
	authority, err := pow.NewAuthority(st)
	if err != nil {
		log.Error("init pow authority", "err", err)
		os.Exit(1)
	}

	// 3. Lifecycle service and HTTP surface.
	service := core.NewService(st)
	server := api.NewServer(api.Config{
		Service:                 service,
		PoW:                     authority,
		Logger:                  log,
		FrontendURL:             cfg.FrontendURL,
		MaxConcurrentReads:      cfg.MaxConcurrentReads,
		MaxConcurrentChallenges: cfg.MaxConcurrentChallenges,
	})

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("listening", "addr", cfg.ListenAddr, "frontend", cfg.FrontendURL)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "err", err)
	}
	if err := st.Close(); err != nil {
		log.Error("close store", "err", err)
	}

	log.Info("stopped")
}
