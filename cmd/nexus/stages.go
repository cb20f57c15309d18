package main

import (
	"github.com/sirupsen/logrus"

	"github.com/vulnverified/nexus/internal/config"
	"github.com/vulnverified/nexus/internal/engine"
	"github.com/vulnverified/nexus/internal/recon"
	"github.com/vulnverified/nexus/internal/risk"
)

// buildStages wires the production stage implementations from cfg.
func buildStages(cfg *config.Config, log logrus.FieldLogger) engine.Stages {
	t := cfg.Timeouts
	resolver := &recon.Resolver{}
	prober := &recon.TCPProber{Timeout: t.ProbeTimeout()}

	return engine.Stages{
		Discoverer: &recon.Discoverer{Sources: discoverySources(cfg), Log: log},
		Scanner: &recon.Scanner{
			Prober:   prober,
			Resolver: resolver,
			Log:      log,
		},
		Prober:        prober,
		Resolver:      resolver,
		Fetcher:       recon.NewFetcher(cfg.UserAgent, t.FetchTimeout()),
		Fingerprinter: &recon.Fingerprinter{},
		Assessor:      risk.Scorer{},
	}
}

// discoverySources returns crt.sh and HackerTarget followed by the configured
// extra sources in order.
func discoverySources(cfg *config.Config) []recon.SubdomainSource {
	t := cfg.Timeouts
	sources := []recon.SubdomainSource{
		&recon.CrtshSource{UserAgent: cfg.UserAgent, Timeout: t.CrtshTimeout()},
		&recon.HackertargetSource{UserAgent: cfg.UserAgent, Timeout: t.HackertargetTimeout()},
	}
	for _, name := range cfg.Discovery.ExtraSources {
		switch name {
		case config.SourceOTX:
			sources = append(sources, &recon.OTXSource{UserAgent: cfg.UserAgent, Timeout: t.OTXTimeout()})
		case config.SourceAXFR:
			sources = append(sources, &recon.AXFRSource{})
		}
	}
	return sources
}
