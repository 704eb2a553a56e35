package config

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/btcsuite/btcutil/bech32"
	getter "github.com/hashicorp/go-getter"
	"github.com/pelletier/go-toml/v2"
)

const fetchTimeout = 60 * time.Second

// LoadDeployment reads and validates a deployment.toml
func LoadDeployment(path string) (*Deployment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deployment file: %w", err)
	}
	return ParseDeployment(data, filepath.Base(path))
}

// ParseDeployment decodes a deployment from toml. fileName is only used in errors.
func ParseDeployment(data []byte, fileName string) (*Deployment, error) {
	var deployment Deployment
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&deployment); err != nil {
		return nil, fmt.Errorf("failed to parse deployment %s: %w", fileName, err)
	}
	if err := ValidateDeployment(&deployment, fileName); err != nil {
		return nil, err
	}
	return &deployment, nil
}

// deploymentValidator checks one aspect of the deployment
type deploymentValidator func(d *Deployment, fileName string) error

func ValidateDeployment(d *Deployment, fileName string) error {
	validators := []deploymentValidator{
		validatePrefix,
		validateContracts,
		validateVenues,
	}
	for _, validate := range validators {
		if err := validate(d, fileName); err != nil {
			return err
		}
	}
	return nil
}

func validatePrefix(d *Deployment, fileName string) error {
	if d.Bech32Prefix == "" {
		return fmt.Errorf("bech32_prefix is required in %s", fileName)
	}
	return nil
}

func validateContracts(d *Deployment, fileName string) error {
	if err := ValidateAddress(d.EntryPointAddress, d.Bech32Prefix); err != nil {
		return fmt.Errorf("entry_point_address in %s: %w", fileName, err)
	}
	if err := ValidateAddress(d.IbcTransferAdapterAddress, d.Bech32Prefix); err != nil {
		return fmt.Errorf("ibc_transfer_adapter_address in %s: %w", fileName, err)
	}
	return nil
}

func validateVenues(d *Deployment, fileName string) error {
	if len(d.SwapVenues) == 0 {
		return fmt.Errorf("at least one swap venue is required in %s", fileName)
	}

	seen := make(map[string]struct{}, len(d.SwapVenues))
	osmosisVenue := ""
	for _, venue := range d.SwapVenues {
		if venue.Name == "" {
			return fmt.Errorf("swap venue name is required in %s", fileName)
		}
		if _, ok := seen[venue.Name]; ok {
			return fmt.Errorf("duplicate swap venue %s in %s", venue.Name, fileName)
		}
		seen[venue.Name] = struct{}{}

		if !slices.Contains(VenueKinds, venue.Kind) {
			return fmt.Errorf("swap venue %s has unsupported kind %q in %s", venue.Name, venue.Kind, fileName)
		}
		if err := ValidateAddress(venue.AdapterAddress, d.Bech32Prefix); err != nil {
			return fmt.Errorf("swap venue %s adapter_address in %s: %w", venue.Name, fileName, err)
		}

		switch venue.Kind {
		case VenueKindOsmosis:
			// the poolmanager module is chain wide, a second venue would quote from the first one's sqs
			if osmosisVenue != "" {
				return fmt.Errorf("swap venue %s: only one osmosis venue is supported, %s already is one in %s", venue.Name, osmosisVenue, fileName)
			}
			osmosisVenue = venue.Name
			if len(venue.SqsURLs) == 0 {
				return fmt.Errorf("swap venue %s requires sqs_urls in %s", venue.Name, fileName)
			}
			for _, u := range venue.SqsURLs {
				if err := validateURL(u); err != nil {
					return fmt.Errorf("swap venue %s sqs url in %s: %w", venue.Name, fileName, err)
				}
			}
		case VenueKindAstroport:
			if err := ValidateAddress(venue.RouterAddress, d.Bech32Prefix); err != nil {
				return fmt.Errorf("swap venue %s router_address in %s: %w", venue.Name, fileName, err)
			}
			if err := validateURL(venue.LcdURL); err != nil {
				return fmt.Errorf("swap venue %s lcd_url in %s: %w", venue.Name, fileName, err)
			}
		case VenueKindLido:
			if err := ValidateAddress(venue.SatelliteAddress, d.Bech32Prefix); err != nil {
				return fmt.Errorf("swap venue %s satellite_address in %s: %w", venue.Name, fileName, err)
			}
		}
	}
	return nil
}

// ValidateAddress checks address is bech32 with the expected human readable part
func ValidateAddress(address, prefix string) error {
	if address == "" {
		return fmt.Errorf("address is required")
	}
	hrp, _, err := bech32.Decode(address)
	if err != nil {
		return fmt.Errorf("failed to decode address %s: %w", address, err)
	}
	if hrp != prefix {
		return fmt.Errorf("address %s has prefix %s, expected %s", address, hrp, prefix)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

// FetchDeployment downloads the deployment file from src into dst. src can be
// a github path (github.com/org/repo//deployments/neutron.toml), an http(s) url
// or a local file.
func FetchDeployment(ctx context.Context, src, dst string) error {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	pwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create deployment directory: %w", err)
	}

	httpGetter := &getter.HttpGetter{}
	client := getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Pwd:  pwd,
		Mode: getter.ClientModeFile,
		Detectors: []getter.Detector{
			&getter.GitHubDetector{},
			&getter.FileDetector{},
		},
		Getters: map[string]getter.Getter{
			"git":   &getter.GitGetter{},
			"http":  httpGetter,
			"https": httpGetter,
			"file":  &getter.FileGetter{Copy: true},
		},
	}
	if err := client.Get(); err != nil {
		return fmt.Errorf("failed to fetch deployment from %s: %w", src, err)
	}
	return nil
}
