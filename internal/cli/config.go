package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultEnvFile = ".env"

// Environment variables read by generate. Values in the process
// environment win over the dotenv file.
const (
	envInput   = "CONTRACTKIT_INPUT"
	envOut     = "CONTRACTKIT_OUT"
	envLang    = "CONTRACTKIT_LANG"
	envPackage = "CONTRACTKIT_PACKAGE"
)

type lookupFunc func(key string) (string, bool)

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return usageErrorf("read config file %q: %v", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return usageErrorf("parse config file %q: %v", path, err)
	}

	for key, value := range raw {
		if err := applyConfigField(cfg, key, value); err != nil {
			if errors.Is(err, errUnknownField) {
				return usageErrorf("config file %q: unknown field %q", path, key)
			}
			return usageErrorf("config field %q: %v", key, err)
		}
	}
	return nil
}

var errUnknownField = errors.New("unknown field")

func applyConfigField(cfg *GenerateConfig, key string, value any) error {
	var err error
	switch normalizeKey(key) {
	case "input":
		cfg.Input, err = valueAsString(value)
	case "lang":
		cfg.Lang, err = valueAsString(value)
	case "out", "outputpath":
		cfg.Out, err = valueAsString(value)
	case "package", "packagename":
		cfg.PackageName, err = valueAsString(value)
	case "routebase":
		cfg.RouteBase, err = valueAsString(value)
	case "includetags":
		var list []string
		list, err = valueAsStringSlice(value)
		cfg.IncludeTags = sanitizeList(list)
	case "excludetags":
		var list []string
		list, err = valueAsStringSlice(value)
		cfg.ExcludeTags = sanitizeList(list)
	case "methods":
		var list []string
		list, err = valueAsStringSlice(value)
		cfg.Methods = sanitizeList(list)
	case "paths":
		var list []string
		list, err = valueAsStringSlice(value)
		cfg.Paths = sanitizeList(list)
	case "inlinedtos":
		cfg.InlineDTOs, err = valueAsBool(value)
	case "utilitytypes", "generateutilitytypes":
		cfg.UtilityTypes, err = valueAsBool(value)
	case "schemas", "generateschemas":
		cfg.Schemas, err = valueAsBool(value)
	case "skipvalidation":
		cfg.SkipValidation, err = valueAsBool(value)
	case "verify":
		cfg.Verify, err = valueAsBool(value)
	case "dryrun":
		cfg.DryRun, err = valueAsBool(value)
	case "verbose":
		cfg.Verbose, err = valueAsBool(value)
	default:
		return errUnknownField
	}
	return err
}

// applyGenerateEnv layers the dotenv file and then the process environment
// over cfg. A missing dotenv file is only an error when it was named
// explicitly.
func applyGenerateEnv(cfg *GenerateConfig, envFile string, explicit bool, lookup lookupFunc) error {
	fileVals := map[string]string{}
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVals = vals
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return usageErrorf("read env file %q: %v", envFile, err)
		}
	}
	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := fileVals[key]
		return v, ok
	}
	if v, ok := get(envInput); ok {
		cfg.Input = strings.TrimSpace(v)
	}
	if v, ok := get(envOut); ok {
		cfg.Out = strings.TrimSpace(v)
	}
	if v, ok := get(envLang); ok {
		cfg.Lang = strings.TrimSpace(v)
	}
	if v, ok := get(envPackage); ok {
		cfg.PackageName = strings.TrimSpace(v)
	}
	return nil
}

func normalizeKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	lowered = strings.ReplaceAll(lowered, "-", "")
	lowered = strings.ReplaceAll(lowered, "_", "")
	return lowered
}

func valueAsString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func valueAsStringSlice(v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		return splitAndTrim(val), nil
	case []any:
		items := make([]string, 0, len(val))
		for idx, elem := range val {
			str, err := valueAsString(elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", idx, err)
			}
			if str != "" {
				items = append(items, str)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expected string or list, got %T", v)
	}
}

func valueAsBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "t", "1", "yes", "y":
			return true, nil
		case "false", "f", "0", "no", "n", "":
			return false, nil
		default:
			return false, fmt.Errorf("invalid boolean value %q", val)
		}
	case nil:
		return false, nil
	default:
		return false, fmt.Errorf("expected boolean, got %T", v)
	}
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}

// sanitizeList trims entries and drops blanks and duplicates, keeping order.
func sanitizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}
