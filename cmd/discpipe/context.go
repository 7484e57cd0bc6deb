package main

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"discpipe/internal/config"
	"discpipe/internal/controlclient"
)

// clientType aliases controlclient.Client so command files that only ever
// reference it as a callback parameter type don't need their own import.
type clientType = controlclient.Client

type commandContext struct {
	serverFlag *string
	configFlag *string
	jsonOutput *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(serverFlag, configFlag *string, jsonOutput *bool) *commandContext {
	return &commandContext{serverFlag: serverFlag, configFlag: configFlag, jsonOutput: jsonOutput}
}

// JSONMode returns true when the user passed --json.
func (c *commandContext) JSONMode() bool {
	return c != nil && c.jsonOutput != nil && *c.jsonOutput
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// serverURL resolves the control surface base URL: the explicit --server
// flag wins, otherwise the configured api_bind is used.
func (c *commandContext) serverURL() (string, error) {
	if c.serverFlag != nil {
		if explicit := strings.TrimSpace(*c.serverFlag); explicit != "" {
			return normalizeServerURL(explicit), nil
		}
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return normalizeServerURL(cfg.APIBind), nil
}

func normalizeServerURL(value string) string {
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return value
	}
	return "http://" + value
}

func (c *commandContext) client() (*controlclient.Client, error) {
	url, err := c.serverURL()
	if err != nil {
		return nil, err
	}
	return controlclient.New(url), nil
}

func (c *commandContext) withClient(fn func(*controlclient.Client) error) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	return fn(client)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for current := cmd; current != nil; current = current.Parent() {
		if current.Annotations != nil && current.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
