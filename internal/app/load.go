package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"opnet/internal/config"
	"opnet/internal/hclcfg"
	"opnet/internal/yamlcfg"
)

// load picks the loader for the definition's file extension.
func (a *App) load(ctx context.Context) (*config.Model, error) {
	loader, err := loaderFor(a.cfg.Path)
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx, a.cfg.Path)
}

func loaderFor(path string) (config.Loader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return yamlcfg.New(), nil
	case ".hcl":
		return hclcfg.New(), nil
	default:
		return nil, fmt.Errorf("unsupported definition format %q (want .yaml, .yml, .json, or .hcl)", filepath.Ext(path))
	}
}
