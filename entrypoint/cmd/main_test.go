package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/adapters/osmosis"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/config"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/router"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/swap"
)

func addr(t *testing.T, prefix string, seed byte) string {
	t.Helper()
	raw := make([]byte, 20)
	for i := range raw {
		raw[i] = seed
	}
	conv, err := bech32.ConvertBits(raw, 8, 5, true)
	assert.NoError(t, err)
	out, err := bech32.Encode(prefix, conv)
	assert.NoError(t, err)
	return out
}

func testDeployment(t *testing.T) *config.Deployment {
	return &config.Deployment{
		ChainID:                   "neutron-1",
		Bech32Prefix:              "neutron",
		EntryPointAddress:         addr(t, "neutron", 1),
		IbcTransferAdapterAddress: addr(t, "neutron", 2),
		EnforceMinCoin:            true,
		SwapVenues: []config.VenueConfig{
			{
				Name:           "neutron-astroport",
				Kind:           config.VenueKindAstroport,
				AdapterAddress: addr(t, "neutron", 3),
				RouterAddress:  addr(t, "neutron", 4),
				LcdURL:         "http://127.0.0.1:1317",
			},
			{
				Name:           "osmosis-poolmanager",
				Kind:           config.VenueKindOsmosis,
				AdapterAddress: addr(t, "neutron", 5),
				SqsURLs:        []string{"http://127.0.0.1:9092"},
			},
			{
				Name:             "neutron-lido-satellite",
				Kind:             config.VenueKindLido,
				AdapterAddress:   addr(t, "neutron", 6),
				SatelliteAddress: addr(t, "neutron", 7),
			},
		},
	}
}

func TestBuildChain(t *testing.T) {
	ctx := context.Background()
	d := testDeployment(t)

	c, err := buildChain(ctx, d, osmosis.DefaultFailoverConfig())
	assert.NoError(t, err)
	defer c.Close()

	assert.NoError(t, c.ready(ctx))
	assert.Equal(t, len(c.sqsClients), 1)

	var venues []swap.SwapVenue
	assert.NoError(t, c.host.Query(ctx, c.entryPoint, router.QueryMsg{SwapVenues: &struct{}{}}, &venues))
	assert.Equal(t, len(venues), 3)
	assert.Equal(t, venues[0].Name, "neutron-astroport")
	assert.Equal(t, venues[1].Name, "neutron-lido-satellite")
	assert.Equal(t, venues[2].Name, "osmosis-poolmanager")

	var adapter string
	assert.NoError(t, c.host.Query(ctx, c.entryPoint, router.QueryMsg{
		SwapVenueAdapterContract: &router.SwapVenueAdapterContract{Name: "osmosis-poolmanager"},
	}, &adapter))
	assert.Equal(t, adapter, d.SwapVenues[1].AdapterAddress)
}

func TestBuildChainRejectsUnknownKind(t *testing.T) {
	d := testDeployment(t)
	d.SwapVenues[2].Kind = "curve"

	_, err := buildChain(context.Background(), d, osmosis.FailoverConfig{Timeout: time.Second})
	assert.Error(t, err)
}

func TestBuildChainRejectsSecondOsmosisVenue(t *testing.T) {
	d := testDeployment(t)
	d.SwapVenues = append(d.SwapVenues, config.VenueConfig{
		Name:           "osmosis-backup",
		Kind:           config.VenueKindOsmosis,
		AdapterAddress: addr(t, "neutron", 8),
		SqsURLs:        []string{"http://127.0.0.1:9093"},
	})

	_, err := buildChain(context.Background(), d, osmosis.FailoverConfig{Timeout: time.Second})
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "only one osmosis venue"))
}

func TestBuildServerConfig(t *testing.T) {
	cfg := &config.RPCConfig{
		Port:            8080,
		Host:            "0.0.0.0",
		AllowedOrigins:  []string{"*"},
		RatePerMinute:   60,
		UsePrometheus:   true,
		EnableTracing:   true,
		DevelopmentMode: true,
	}

	sc := buildServerConfig(cfg)
	assert.Equal(t, sc.Address, "0.0.0.0:8080")
	assert.True(t, sc.EnableMetrics)
	assert.NotNil(t, sc.RatePerMinute)
	assert.Equal(t, *sc.RatePerMinute, 60)
	assert.True(t, sc.MaxConcurrentRequests == nil)
	assert.NotNil(t, sc.OTelConfig)
	assert.Equal(t, sc.OTelConfig.ServiceName, "spectra-entry-point")
	assert.True(t, sc.OTelConfig.EnableTracing)

	cfg.EnableTracing = false
	assert.True(t, buildServerConfig(cfg).OTelConfig == nil)
}
