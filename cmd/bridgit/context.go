package main

import (
	"fmt"
	"strings"

	"bridgit/internal/config"
)

type commandContext struct {
	configFlag *string
	serverFlag *string

	cfg     *config.Config
	cfgPath string
}

func newCommandContext(configFlag, serverFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, serverFlag: serverFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := ""
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, resolvedPath, _, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg
	c.cfgPath = resolvedPath
	return cfg, nil
}

// serverURL resolves the relay address: the --server flag wins, then the
// configured base URL, then the API bind address.
func (c *commandContext) serverURL() string {
	if c.serverFlag != nil {
		if flag := strings.TrimSpace(*c.serverFlag); flag != "" {
			return strings.TrimRight(flag, "/")
		}
	}
	if c.cfg != nil {
		if base := strings.TrimSpace(c.cfg.Paths.BaseURL); base != "" {
			return strings.TrimRight(base, "/")
		}
		return "http://" + strings.TrimSpace(c.cfg.Paths.APIBind)
	}
	return "http://127.0.0.1:7910"
}

func (c *commandContext) apiToken() string {
	if c.cfg == nil {
		return ""
	}
	return strings.TrimSpace(c.cfg.Paths.APIToken)
}
