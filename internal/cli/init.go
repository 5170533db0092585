package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/contractkit/internal/emitter"
)

const defaultConfigFile = "contractkit.yaml"

// InitConfig captures the options for the init command.
type InitConfig struct {
	OutputPath string
	Force      bool
	Verbose    bool
}

var initRunner = runInit

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a sample contractkit configuration file",
		Long:  "Scaffold a commented contractkit configuration file that documents available options.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cmd.Flags().GetString("out")
			if err != nil {
				return err
			}
			force, err := cmd.Flags().GetBool("force")
			if err != nil {
				return err
			}
			verbose, err := cmd.Flags().GetBool("verbose")
			if err != nil {
				return err
			}
			return initRunner(cmd.Context(), &InitConfig{
				OutputPath: out,
				Force:      force,
				Verbose:    verbose,
			})
		},
	}

	cmd.Flags().String("out", defaultConfigFile, "Where to write the sample config file")
	cmd.Flags().Bool("force", false, "Overwrite the target file if it already exists")

	return cmd
}

func runInit(ctx context.Context, cfg *InitConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := strings.TrimSpace(cfg.OutputPath)
	if out == "" {
		out = defaultConfigFile
	}
	absPath, err := filepath.Abs(out)
	if err != nil {
		return fmt.Errorf("init: resolve output path: %w", err)
	}

	if st, err := os.Stat(absPath); err == nil && !cfg.Force {
		if st.Mode().IsRegular() {
			return usageErrorf("init: %q already exists (use --force to overwrite)", absPath)
		}
	}

	content := strings.TrimSpace(sampleConfigYAML) + "\n"
	if err := emitter.WriteFiles(map[string][]byte{absPath: []byte(content)}); err != nil {
		return usageErrorf("init: cannot write %s: %v\nHint: choose a different --out or check directory permissions.", absPath, err)
	}
	fmt.Fprintf(os.Stdout, "Wrote sample config to %s\n", absPath)
	return nil
}

// sampleConfigYAML documents every key accepted by --config.
const sampleConfigYAML = `# contractkit configuration (YAML)
# All fields are optional. Environment variables (CONTRACTKIT_INPUT,
# CONTRACTKIT_OUT, CONTRACTKIT_LANG, CONTRACTKIT_PACKAGE) override config
# values, and command-line flags override both.

# Path or URL to the Swagger/OpenAPI document (http/https or local file).
# input: ./openapi.yaml

# Contract language to emit (ts|go). Defaults to ts.
# lang: ts

# Output file for ts, package directory for go.
# Defaults to internal/contracts/api.contract.ts or internal/contracts/api.
# out: ./src/api.contract.ts

# Go package name; derived from the output directory when omitted.
# package: api

# Path prefix Go route modules are grouped below, e.g. /api. Defaults to the
# prefix every path shares; "/" groups by first segment.
# routeBase: /api

# Only include operations with these tags (comma-separated or list).
# includeTags: [public,read]

# Exclude operations with these tags (comma-separated or list).
# excludeTags: [internal]

# Only include operations using these HTTP methods.
# methods: [GET,POST]

# Only include paths matching one of these regular expressions.
# paths: ['^/users']

# Inline referenced schemas as anonymous types. Only true is supported.
# inlineDTOs: true

# Reference the shared path utility types from the generated header.
# utilityTypes: true

# Emit a runtime schema placeholder object.
# schemas: false

# Skip OpenAPI 3.0 document validation.
# skipValidation: false

# Parse the generated TypeScript before writing it.
# verify: false

# Preview planned outputs without writing files.
# dryRun: false

# Enable verbose logging.
# verbose: false
`
