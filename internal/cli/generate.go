package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mark3labs/contractkit/internal/contract"
	"github.com/mark3labs/contractkit/internal/emitter"
	"github.com/mark3labs/contractkit/internal/emitter/goemitter"
	"github.com/mark3labs/contractkit/internal/emitter/tsemitter"
	"github.com/mark3labs/contractkit/internal/generator"
	"github.com/mark3labs/contractkit/internal/spec"
)

const (
	langTS = "ts"
	langGo = "go"
)

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, environment and CLI overrides.
type GenerateConfig struct {
	Input          string
	Lang           string
	Out            string
	PackageName    string
	RouteBase      string
	IncludeTags    []string
	ExcludeTags    []string
	Methods        []string
	Paths          []string
	InlineDTOs     bool
	UtilityTypes   bool
	Schemas        bool
	SkipValidation bool
	Verify         bool
	ConfigPath     string
	EnvFile        string
	DryRun         bool
	Verbose        bool
}

func defaultGenerateConfig() GenerateConfig {
	defaults := generator.DefaultOptions()
	return GenerateConfig{
		Lang:         langTS,
		InlineDTOs:   defaults.InlineDTOs,
		UtilityTypes: defaults.GenerateUtilityTypes,
		Schemas:      defaults.GenerateSchemas,
	}
}

var generateRunner = runGenerate

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an API contract from an OpenAPI/Swagger document",
		Long: "Generate an API contract from an OpenAPI/Swagger document. " +
			"Options can be provided via flags, environment, config files, or defaults.",
		Example: strings.TrimSpace(`  contractkit generate --input openapi.yaml --out src/api.contract.ts
  contractkit generate --input openapi.yaml --lang go --out internal/contracts/api --package api
  contractkit --config contractkit.yaml generate --dry-run`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd, os.LookupEnv)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the Swagger/OpenAPI document")
	flags.String("lang", "", "Contract language to emit (ts|go); defaults to ts")
	flags.String("out", "", "Output file (ts) or package directory (go)")
	flags.String("package", "", "Go package name for --lang go")
	flags.String("route-base", "", "Path prefix Go route modules are grouped below; defaults to the shared prefix")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.StringSlice("methods", nil, "Only include operations using these HTTP methods")
	flags.StringSlice("paths", nil, "Only include paths matching these regular expressions")
	flags.Bool("inline-dtos", true, "Inline referenced schemas as anonymous types")
	flags.Bool("utility-types", true, "Reference the shared path utility types")
	flags.Bool("schemas", false, "Emit a runtime schema placeholder")
	flags.Bool("skip-validation", false, "Skip OpenAPI 3.0 document validation")
	flags.Bool("verify", false, "Parse the generated TypeScript before writing it")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command, lookup lookupFunc) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return nil, err
	}
	cfg.EnvFile = strings.TrimSpace(envFile)
	if err := applyGenerateEnv(&cfg, cfg.EnvFile, cmd.Flags().Changed("env-file"), lookup); err != nil {
		return nil, err
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	strs := []struct {
		name string
		dst  *string
	}{
		{"input", &cfg.Input},
		{"lang", &cfg.Lang},
		{"out", &cfg.Out},
		{"package", &cfg.PackageName},
		{"route-base", &cfg.RouteBase},
	}
	for _, f := range strs {
		if !flags.Changed(f.name) {
			continue
		}
		value, err := flags.GetString(f.name)
		if err != nil {
			return err
		}
		*f.dst = strings.TrimSpace(value)
	}

	lists := []struct {
		name string
		dst  *[]string
	}{
		{"include-tags", &cfg.IncludeTags},
		{"exclude-tags", &cfg.ExcludeTags},
		{"methods", &cfg.Methods},
		{"paths", &cfg.Paths},
	}
	for _, f := range lists {
		if !flags.Changed(f.name) {
			continue
		}
		value, err := flags.GetStringSlice(f.name)
		if err != nil {
			return err
		}
		*f.dst = sanitizeList(value)
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{"inline-dtos", &cfg.InlineDTOs},
		{"utility-types", &cfg.UtilityTypes},
		{"schemas", &cfg.Schemas},
		{"skip-validation", &cfg.SkipValidation},
		{"verify", &cfg.Verify},
		{"dry-run", &cfg.DryRun},
		{"verbose", &cfg.Verbose},
	}
	for _, f := range bools {
		if !flags.Changed(f.name) {
			continue
		}
		value, err := flags.GetBool(f.name)
		if err != nil {
			return err
		}
		*f.dst = value
	}
	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.Lang = strings.ToLower(strings.TrimSpace(c.Lang))
	c.Out = strings.TrimSpace(c.Out)
	c.PackageName = strings.TrimSpace(c.PackageName)
	c.RouteBase = strings.TrimSpace(c.RouteBase)
	c.IncludeTags = sanitizeList(c.IncludeTags)
	c.ExcludeTags = sanitizeList(c.ExcludeTags)
	c.Paths = sanitizeList(c.Paths)
	methods := sanitizeList(c.Methods)
	for i, m := range methods {
		methods[i] = strings.ToUpper(m)
	}
	c.Methods = sanitizeList(methods)
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: --input is required (set via flag, environment or config file)")
	}

	switch c.Lang {
	case "":
		c.Lang = langTS
	case langTS, langGo:
	case "typescript":
		c.Lang = langTS
	default:
		return usageErrorf("generate: unsupported --lang %q (allowed: ts, go)", c.Lang)
	}

	if c.Out == "" {
		if c.Lang == langGo {
			c.Out = generator.DefaultGoOutputPath
		} else {
			c.Out = generator.DefaultTSOutputPath
		}
	}

	if !c.InlineDTOs {
		return newUsageError("generate: --inline-dtos=false is not supported; referenced schemas are always inlined")
	}

	if overlap := intersect(c.IncludeTags, c.ExcludeTags); len(overlap) > 0 {
		return usageErrorf("generate: include/exclude tags overlap: %s", strings.Join(overlap, ", "))
	}

	for _, m := range c.Methods {
		if _, err := contract.ParseMethod(m); err != nil {
			return usageErrorf("generate: --methods: %v", err)
		}
	}
	for _, p := range c.Paths {
		if _, err := regexp.Compile(p); err != nil {
			return usageErrorf("generate: --paths %q: %v", p, err)
		}
	}
	return nil
}

func (c *GenerateConfig) methods() []contract.Method {
	out := make([]contract.Method, 0, len(c.Methods))
	for _, m := range c.Methods {
		if method, err := contract.ParseMethod(m); err == nil {
			out = append(out, method)
		}
	}
	return out
}

func (c *GenerateConfig) generation() generator.Options {
	return generator.Options{
		InlineDTOs:           c.InlineDTOs,
		GenerateUtilityTypes: c.UtilityTypes,
		GenerateSchemas:      c.Schemas,
		OutputPath:           c.Out,
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runGenerate(ctx context.Context, cfg *GenerateConfig) error {
	logger := newLogger(os.Stderr, cfg.Verbose)

	logger.Debug("loading document", "input", cfg.Input, "validate", !cfg.SkipValidation)
	doc, err := spec.Load(ctx, cfg.Input, spec.WithValidation(!cfg.SkipValidation))
	if err != nil {
		return friendlyError(err)
	}
	logger.Debug("document loaded", "title", doc.Title, "openapi", doc.OpenAPI, "sourceVersion", doc.SourceVersion)

	m, err := generator.Build(doc,
		spec.WithIncludeTags(cfg.IncludeTags),
		spec.WithExcludeTags(cfg.ExcludeTags),
		spec.WithMethods(cfg.methods()),
		spec.WithPathPatterns(cfg.Paths),
	)
	if err != nil {
		return friendlyError(err)
	}
	logger.Debug("contract built", "paths", len(m.Paths()), "entries", len(m.Entries()))

	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}

	var planned []emitter.PlannedFile
	switch cfg.Lang {
	case langTS:
		res, err := tsemitter.Emit(ctx, m, tsemitter.Options{
			Generation: cfg.generation(),
			Title:      doc.Title,
			Verify:     cfg.Verify,
			DryRun:     cfg.DryRun,
		})
		if err != nil {
			return wrapOutputError(err, absOut)
		}
		planned = res.Planned
	case langGo:
		res, err := goemitter.Emit(ctx, m, goemitter.Options{
			Generation:  cfg.generation(),
			PackageName: cfg.PackageName,
			RouteBase:   cfg.RouteBase,
			Title:       doc.Title,
			DryRun:      cfg.DryRun,
		})
		if err != nil {
			return wrapOutputError(err, absOut)
		}
		logger.Debug("go package", "name", res.PackageName)
		planned = res.Planned
	default:
		return usageErrorf("generate: unsupported --lang %q (allowed: ts, go)", cfg.Lang)
	}

	paths := make([]string, 0, len(planned))
	for _, p := range planned {
		paths = append(paths, p.Path)
	}
	if cfg.DryRun {
		printPlan(os.Stdout, absOut, paths)
		return nil
	}
	green := color.New(color.FgGreen).SprintFunc()
	for _, p := range paths {
		fmt.Fprintf(os.Stdout, "%s %s\n", green("Wrote"), p)
	}
	return nil
}

func printPlan(w io.Writer, out string, paths []string) {
	fmt.Fprintf(w, "Planned writes to %s (%d files):\n", out, len(paths))
	for _, p := range paths {
		fmt.Fprintf(w, "- %s\n", p)
	}
}

func wrapOutputError(err error, out string) error {
	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "does not parse") {
		return usageErrorf("generate: %v", err)
	}
	if strings.Contains(lower, "permission") || strings.Contains(lower, "read-only") || strings.Contains(lower, "mkdir") || strings.Contains(lower, "rename") || strings.Contains(lower, "not a directory") {
		return usageErrorf("output error for %s: %v\nHint: choose a different --out or check directory permissions.", out, err)
	}
	return err
}
