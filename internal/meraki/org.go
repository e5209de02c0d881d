package meraki

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/asipanicisco/meraki-migration/internal/catalog"
)

// Organization is the subset of org attributes the tool needs.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Network is the subset of network attributes the tool needs. ProductTypes
// gates product-specific restores (e.g. switch MTU).
type Network struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	ProductTypes []string `json:"productTypes"`
	TimeZone     string   `json:"timeZone,omitempty"`
}

// HasProductType reports whether the network carries the given product type.
func (n *Network) HasProductType(pt string) bool {
	for _, p := range n.ProductTypes {
		if p == pt {
			return true
		}
	}
	return false
}

// GetOrganization fetches one organization by ID.
func (c *Client) GetOrganization(ctx context.Context, orgID string) (*Organization, error) {
	res, err := c.Read(ctx, "/organizations/"+orgID)
	if err != nil {
		return nil, err
	}
	if res.Absent {
		return nil, fmt.Errorf("organization %s not found", orgID)
	}
	var org Organization
	if err := json.Unmarshal(res.Value, &org); err != nil {
		return nil, fmt.Errorf("decoding organization %s: %w", orgID, err)
	}
	return &org, nil
}

// GetNetwork fetches one network by ID.
func (c *Client) GetNetwork(ctx context.Context, networkID string) (*Network, error) {
	res, err := c.Read(ctx, catalog.NetworkPath(networkID))
	if err != nil {
		return nil, err
	}
	if res.Absent {
		return nil, fmt.Errorf("network %s not found", networkID)
	}
	var nw Network
	if err := json.Unmarshal(res.Value, &nw); err != nil {
		return nil, fmt.Errorf("decoding network %s: %w", networkID, err)
	}
	return &nw, nil
}

// VerifyOrganization checks that the org exists and its name matches what
// the operator declared. A mismatch means the config points at the wrong
// tenant and the run must not proceed.
func (c *Client) VerifyOrganization(ctx context.Context, orgID, expectedName string) error {
	org, err := c.GetOrganization(ctx, orgID)
	if err != nil {
		return err
	}
	if org.Name != expectedName {
		return fmt.Errorf("organization %s is named %q, expected %q", orgID, org.Name, expectedName)
	}
	return nil
}

// VerifyNetwork checks that the network exists and its name matches.
func (c *Client) VerifyNetwork(ctx context.Context, networkID, expectedName string) error {
	nw, err := c.GetNetwork(ctx, networkID)
	if err != nil {
		return err
	}
	if nw.Name != expectedName {
		return fmt.Errorf("network %s is named %q, expected %q", networkID, nw.Name, expectedName)
	}
	return nil
}

// CreateNetwork creates a network in the given organization and returns the
// created network with its server-assigned ID.
func (c *Client) CreateNetwork(ctx context.Context, orgID string, body any) (*Network, error) {
	created, err := c.Create(ctx, fmt.Sprintf("/organizations/%s/networks", orgID), body)
	if err != nil {
		return nil, err
	}
	var nw Network
	if err := json.Unmarshal(created, &nw); err != nil {
		return nil, fmt.Errorf("decoding created network: %w", err)
	}
	return &nw, nil
}

// ClaimDevices claims already-inventoried devices into a network.
func (c *Client) ClaimDevices(ctx context.Context, networkID string, serials []string) error {
	_, err := c.Create(ctx, catalog.NetworkPath(networkID)+"/devices/claim", map[string]any{"serials": serials})
	return err
}
