package fetch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gaurav-prasanna/jirapipe/core"
)

// ServerInfo describes the instance. It needs no special permission.
func (c *Client) ServerInfo(ctx context.Context) (*core.ServerInfo, error) {
	var wire wireServerInfo
	if err := c.do(ctx, http.MethodGet, c.api("serverInfo"), nil, &wire); err != nil {
		return nil, fmt.Errorf("fetching server info: %w", err)
	}
	return &core.ServerInfo{
		BaseURL:        wire.BaseURL,
		Version:        wire.Version,
		DeploymentType: wire.DeploymentType,
		ServerTitle:    wire.ServerTitle,
	}, nil
}

// Myself returns the authenticated user.
func (c *Client) Myself(ctx context.Context) (*core.User, error) {
	u, resp, err := c.jira.User.GetSelfWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching current user: %w", serviceError(resp, err))
	}
	return (&wireUser{
		AccountID:    u.AccountID,
		Key:          u.Key,
		Name:         u.Name,
		DisplayName:  u.DisplayName,
		EmailAddress: u.EmailAddress,
		Active:       u.Active,
	}).toCore(), nil
}
