package main

import (
	"context"
	"fmt"

	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/adapters/astroport"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/adapters/ibctransfer"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/adapters/lido"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/adapters/osmosis"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/config"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/host"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/ibc"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/router"
	"github.com/Cogwheel-Validator/spectra-entry-point/entrypoint/swap"
)

// chain is the in-process entry point chain plus the clients it holds open
type chain struct {
	host       *host.Host
	entryPoint string
	sqsClients []*osmosis.SQSClient
}

func (c *chain) Close() {
	for _, client := range c.sqsClients {
		client.Close()
	}
}

// ready checks the entry point answers queries
func (c *chain) ready(ctx context.Context) error {
	var adapter string
	return c.host.Query(ctx, c.entryPoint, router.QueryMsg{IbcTransferAdapterContract: &struct{}{}}, &adapter)
}

// buildChain instantiates every contract of the deployment. Adapters go first
// since the entry point validates the venues it is given.
func buildChain(ctx context.Context, d *config.Deployment, failover osmosis.FailoverConfig) (*chain, error) {
	if err := config.ValidateDeployment(d, "deployment"); err != nil {
		return nil, err
	}

	h := host.New(host.Config{ChainID: d.ChainID, Bech32Prefix: d.Bech32Prefix})
	c := &chain{host: h, entryPoint: d.EntryPointAddress}
	creator := d.EntryPointAddress

	if _, err := h.Instantiate(ctx, creator, d.IbcTransferAdapterAddress, ibctransfer.NewAdapter(), ibc.InstantiateMsg{
		EntryPointContractAddress: d.EntryPointAddress,
	}); err != nil {
		return nil, fmt.Errorf("failed to instantiate ibc transfer adapter: %w", err)
	}

	venues := make([]swap.SwapVenue, 0, len(d.SwapVenues))
	for _, v := range d.SwapVenues {
		if err := instantiateVenue(ctx, c, creator, d.EntryPointAddress, v, failover); err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to set up swap venue %s: %w", v.Name, err)
		}
		venues = append(venues, swap.SwapVenue{Name: v.Name, AdapterContractAddress: v.AdapterAddress})
		log.Info().Str("venue", v.Name).Str("kind", v.Kind).Str("adapter", v.AdapterAddress).Msg("Swap venue ready")
	}

	if _, err := h.Instantiate(ctx, creator, d.EntryPointAddress, router.New(router.Config{
		EnforceMinCoin: d.EnforceMinCoin,
	}), router.InstantiateMsg{
		SwapVenues:                 venues,
		IbcTransferContractAddress: d.IbcTransferAdapterAddress,
	}); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to instantiate entry point: %w", err)
	}

	return c, nil
}

func instantiateVenue(
	ctx context.Context,
	c *chain,
	creator, entryPoint string,
	v config.VenueConfig,
	failover osmosis.FailoverConfig,
) error {
	h := c.host
	switch v.Kind {
	case config.VenueKindOsmosis:
		sqs, err := osmosis.NewSQSClient(v.SqsURLs[0], v.SqsURLs[1:], failover)
		if err != nil {
			return err
		}
		c.sqsClients = append(c.sqsClients, sqs)
		h.RegisterModule(osmosis.ModuleName, osmosis.NewPoolManagerModule(sqs))
		_, err = h.Instantiate(ctx, creator, v.AdapterAddress, osmosis.NewAdapter(sqs), osmosis.InstantiateMsg{
			EntryPointContractAddress: entryPoint,
		})
		return err

	case config.VenueKindAstroport:
		lcd := astroport.NewLCDClient(v.LcdURL)
		if err := h.Register(v.RouterAddress, astroport.NewRemoteRouter(lcd, v.RouterAddress)); err != nil {
			return err
		}
		_, err := h.Instantiate(ctx, creator, v.AdapterAddress, astroport.NewAdapter(), astroport.InstantiateMsg{
			EntryPointContractAddress: entryPoint,
			RouterContractAddress:     v.RouterAddress,
		})
		return err

	case config.VenueKindLido:
		_, err := h.Instantiate(ctx, creator, v.AdapterAddress, lido.NewAdapter(), lido.InstantiateMsg{
			EntryPointContractAddress:    entryPoint,
			LidoSatelliteContractAddress: v.SatelliteAddress,
		})
		return err
	}
	return fmt.Errorf("unsupported venue kind %q", v.Kind)
}
