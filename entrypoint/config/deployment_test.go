package config_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcutil/bech32"
	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/config"
)

func addr(t *testing.T, prefix string, seed byte) string {
	t.Helper()
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = seed
	}
	conv, err := bech32.ConvertBits(raw, 8, 5, true)
	assert.NoError(t, err)
	out, err := bech32.Encode(prefix, conv)
	assert.NoError(t, err)
	return out
}

func deploymentTOML(t *testing.T) string {
	return fmt.Sprintf(`
chain_id = "neutron-1"
bech32_prefix = "neutron"
entry_point_address = %q
ibc_transfer_adapter_address = %q
enforce_min_coin = true

[[swap_venues]]
name = "neutron-astroport"
kind = "astroport"
adapter_address = %q
router_address = %q
lcd_url = "https://rest.neutron.example"

[[swap_venues]]
name = "neutron-lido-satellite"
kind = "lido"
adapter_address = %q
satellite_address = %q

[[swap_venues]]
name = "osmosis-poolmanager"
kind = "osmosis"
adapter_address = %q
sqs_urls = ["https://sqs.osmosis.zone", "https://sqs.backup.example"]
`,
		addr(t, "neutron", 1), addr(t, "neutron", 2),
		addr(t, "neutron", 3), addr(t, "neutron", 4),
		addr(t, "neutron", 5), addr(t, "neutron", 6),
		addr(t, "neutron", 7),
	)
}

func TestParseDeployment(t *testing.T) {
	d, err := config.ParseDeployment([]byte(deploymentTOML(t)), "neutron.toml")
	assert.NoError(t, err)
	assert.Equal(t, d.ChainID, "neutron-1")
	assert.True(t, d.EnforceMinCoin)
	assert.Equal(t, len(d.SwapVenues), 3)
	assert.Equal(t, d.SwapVenues[0].Kind, config.VenueKindAstroport)
	assert.Equal(t, d.SwapVenues[0].RouterAddress, addr(t, "neutron", 4))
	assert.Equal(t, d.SwapVenues[2].SqsURLs[1], "https://sqs.backup.example")
}

func TestParseDeployment_Rejects(t *testing.T) {
	valid := func() *config.Deployment {
		d, err := config.ParseDeployment([]byte(deploymentTOML(t)), "neutron.toml")
		assert.NoError(t, err)
		return d
	}

	tests := []struct {
		name   string
		mutate func(d *config.Deployment)
	}{
		{"no prefix", func(d *config.Deployment) { d.Bech32Prefix = "" }},
		{"entry point wrong prefix", func(d *config.Deployment) { d.EntryPointAddress = addr(t, "osmo", 1) }},
		{"ibc adapter not bech32", func(d *config.Deployment) { d.IbcTransferAdapterAddress = "neutron1nope" }},
		{"no venues", func(d *config.Deployment) { d.SwapVenues = nil }},
		{"duplicate venue", func(d *config.Deployment) { d.SwapVenues[1].Name = d.SwapVenues[0].Name }},
		{"unknown kind", func(d *config.Deployment) { d.SwapVenues[0].Kind = "curve" }},
		{"astroport without lcd", func(d *config.Deployment) { d.SwapVenues[0].LcdURL = "" }},
		{"lido without satellite", func(d *config.Deployment) { d.SwapVenues[1].SatelliteAddress = "" }},
		{"osmosis without sqs", func(d *config.Deployment) { d.SwapVenues[2].SqsURLs = nil }},
		{"osmosis bad sqs scheme", func(d *config.Deployment) { d.SwapVenues[2].SqsURLs = []string{"ftp://sqs"} }},
		{"second osmosis venue", func(d *config.Deployment) {
			second := d.SwapVenues[2]
			second.Name = "osmosis-backup"
			d.SwapVenues = append(d.SwapVenues, second)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid()
			tt.mutate(d)
			assert.Error(t, config.ValidateDeployment(d, "neutron.toml"))
		})
	}
}

func TestParseDeployment_UnknownField(t *testing.T) {
	_, err := config.ParseDeployment([]byte(deploymentTOML(t)+"\nsurprise = 1\n"), "neutron.toml")
	assert.Error(t, err)
}

func TestLoadDeployment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deployment.toml")
	assert.NoError(t, os.WriteFile(path, []byte(deploymentTOML(t)), 0o600))

	d, err := config.LoadDeployment(path)
	assert.NoError(t, err)
	assert.Equal(t, d.Bech32Prefix, "neutron")

	_, err = config.LoadDeployment(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestFetchDeployment_HTTP(t *testing.T) {
	body := deploymentTOML(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/deployments/neutron.toml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	dst := filepath.Join(t.TempDir(), "fetched", "deployment.toml")
	assert.NoError(t, config.FetchDeployment(context.Background(), server.URL+"/deployments/neutron.toml", dst))

	d, err := config.LoadDeployment(dst)
	assert.NoError(t, err)
	assert.Equal(t, len(d.SwapVenues), 3)
}

func TestFetchDeployment_LocalFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "source.toml")
	assert.NoError(t, os.WriteFile(src, []byte(deploymentTOML(t)), 0o600))

	dst := filepath.Join(t.TempDir(), "deployment.toml")
	assert.NoError(t, config.FetchDeployment(context.Background(), src, dst))

	data, err := os.ReadFile(dst)
	assert.NoError(t, err)
	assert.Equal(t, string(data), deploymentTOML(t))
}

func TestFetchDeployment_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	dst := filepath.Join(t.TempDir(), "deployment.toml")
	assert.Error(t, config.FetchDeployment(context.Background(), server.URL+"/missing.toml", dst))
}
