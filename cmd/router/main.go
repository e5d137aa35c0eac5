// Copyright (c) 2025 Allen Institute
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// The router daemon binds the bus hub on a ZeroMQ ROUTER socket and serves
// prometheus metrics over HTTP.
package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AllenNeuralDynamics/mpetk/pkg/config"
	"github.com/AllenNeuralDynamics/mpetk/pkg/logging"
	"github.com/AllenNeuralDynamics/mpetk/pkg/router"
	"github.com/AllenNeuralDynamics/mpetk/pkg/transport/zmq"
)

func main() {
	configPath := flag.String("config", "router.yml", "path to the router YAML configuration")
	metricsAddr := flag.String("metrics", "", "prometheus listen address, e.g. :9100; empty disables the endpoint")
	flag.Parse()

	hook := logging.NewSessionHook()
	log.Logger = log.Logger.Hook(hook)

	cfg, err := config.LoadRouter(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("configuration rejected")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	port := cfg.Port
	if port == 0 {
		port = config.DefaultPort()
	}

	hub, err := zmq.NewHub(cfg.Host, port)
	if err != nil {
		log.Fatal().Err(err).Str("host", cfg.Host).Int("port", port).Msg("bind failed")
	}
	defer hub.Close()

	metrics := router.NewMetrics()
	metrics.MustRegister(prometheus.DefaultRegisterer)
	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				log.Error().Err(err).Str("addr", *metricsAddr).Msg("metrics endpoint failed")
			}
		}()
	}

	r := router.New(router.ConfigFrom(cfg), hub, metrics)
	if err := r.Start(); err != nil {
		log.Fatal().Err(err).Msg("router start failed")
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", port).
		Str(logging.APP_SESSION, hook.AppSession()).
		Msg("serving")

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	sig := <-signals
	log.Info().Str("signal", sig.String()).Msg("shutting down")
	r.Stop()
}
