// Package hclcfg is the HCL implementation of the config.Loader interface.
// It decodes optional top-level `cache`, `build` and labeled `toolchain`
// blocks over the built-in defaults.
package hclcfg

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/buildgridgo/internal/config"
	"github.com/vk/buildgridgo/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot decodes all supported top-level blocks from one file.
type fileRoot struct {
	Cache      *cacheBlock       `hcl:"cache,block"`
	Build      *buildBlock       `hcl:"build,block"`
	Toolchains []*toolchainBlock `hcl:"toolchain,block"`
	Remain     hcl.Body          `hcl:",remain"`
}

type cacheBlock struct {
	Enabled *bool   `hcl:"enabled,optional"`
	Dir     *string `hcl:"dir,optional"`
}

type buildBlock struct {
	Workers        *int    `hcl:"workers,optional"`
	Sequential     *bool   `hcl:"sequential,optional"`
	CommandTimeout *string `hcl:"command_timeout,optional"`
	JoinTimeout    *string `hcl:"join_timeout,optional"`
}

type toolchainBlock struct {
	Tag            string   `hcl:"tag,label"`
	Compiler       *string  `hcl:"compiler,optional"`
	Flags          []string `hcl:"flags,optional"`
	ExtensionFlags []string `hcl:"extension_flags,optional"`
	Optimization   *string  `hcl:"optimization,optional"`
	Interpreter    *string  `hcl:"interpreter,optional"`
	Venv           *string  `hcl:"venv,optional"`
}

// Load reads the file at path and merges it over config.Default(). A missing
// path is not an error; the defaults are returned unchanged.
func (l *Loader) Load(ctx context.Context, path string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	model := config.Default()

	if path == "" {
		return model, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Debug("No configuration file present, using defaults.", "path", path)
		return model, nil
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(hclFile.Body, envEvalContext(), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	applyCache(model, root.Cache)
	if err := applyBuild(model, root.Build); err != nil {
		return nil, fmt.Errorf("invalid build block in %s: %w", path, err)
	}
	applyToolchains(model, root.Toolchains)

	logger.Debug("HCL loading complete.", "path", path, "toolchains", len(model.Toolchains))
	return model, nil
}

// envEvalContext exposes the process environment to HCL expressions as the
// `env` object, so values like `venv = env.VIRTUAL_ENV` resolve.
func envEvalContext() *hcl.EvalContext {
	envMap := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			envMap[k] = cty.StringVal(v)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(envMap),
		},
	}
}

func applyCache(model *config.Model, block *cacheBlock) {
	if block == nil {
		return
	}
	if block.Enabled != nil {
		model.Cache.Enabled = *block.Enabled
	}
	if block.Dir != nil {
		model.Cache.Dir = *block.Dir
	}
}

func applyBuild(model *config.Model, block *buildBlock) error {
	if block == nil {
		return nil
	}
	if block.Workers != nil {
		model.Build.Workers = *block.Workers
	}
	if block.Sequential != nil {
		model.Build.Sequential = *block.Sequential
	}
	if block.CommandTimeout != nil {
		d, err := time.ParseDuration(*block.CommandTimeout)
		if err != nil {
			return fmt.Errorf("command_timeout: %w", err)
		}
		model.Build.CommandTimeout = d
	}
	if block.JoinTimeout != nil {
		d, err := time.ParseDuration(*block.JoinTimeout)
		if err != nil {
			return fmt.Errorf("join_timeout: %w", err)
		}
		model.Build.JoinTimeout = d
	}
	return nil
}

// applyToolchains merges labeled blocks into the model; a repeated label
// overwrites the earlier block wholesale.
func applyToolchains(model *config.Model, blocks []*toolchainBlock) {
	for _, block := range blocks {
		tc := &config.Toolchain{
			Flags:          block.Flags,
			ExtensionFlags: block.ExtensionFlags,
		}
		if block.Compiler != nil {
			tc.Compiler = *block.Compiler
		}
		if block.Optimization != nil {
			tc.Optimization = *block.Optimization
		}
		if block.Interpreter != nil {
			tc.Interpreter = *block.Interpreter
		}
		if block.Venv != nil {
			tc.Venv = *block.Venv
		}
		model.Toolchains[block.Tag] = tc
	}
}
