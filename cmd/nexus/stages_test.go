package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulnverified/nexus/internal/config"
	"github.com/vulnverified/nexus/internal/logging"
	"github.com/vulnverified/nexus/internal/recon"
)

func sourceNames(sources []recon.SubdomainSource) []string {
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name())
	}
	return names
}

func TestDiscoverySources_DefaultOrder(t *testing.T) {
	assert.Equal(t, []string{"crt.sh", "hackertarget"}, sourceNames(discoverySources(config.Default())))
}

func TestDiscoverySources_ExtrasAppendedInOrder(t *testing.T) {
	cfg := config.Default()
	cfg.Discovery.ExtraSources = []string{"axfr", "otx"}
	assert.Equal(t, []string{"crt.sh", "hackertarget", "axfr", "otx"}, sourceNames(discoverySources(cfg)))
}

func TestBuildStages_AllSet(t *testing.T) {
	stages := buildStages(config.Default(), logging.Discard())
	require.NotNil(t, stages.Discoverer)
	require.NotNil(t, stages.Scanner)
	require.NotNil(t, stages.Prober)
	require.NotNil(t, stages.Resolver)
	require.NotNil(t, stages.Fetcher)
	require.NotNil(t, stages.Fingerprinter)
	assert.Equal(t, []uint16{21, 22, 3389}, stages.Assessor.CriticalPorts())
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"discover", "ports", "tech", "risk", "report", "serve", "init"} {
		assert.Contains(t, names, want)
	}
	for _, flag := range []string{"config", "log-level", "no-color", "json"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}
