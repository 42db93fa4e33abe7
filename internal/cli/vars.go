package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// ParseVarFlags converts repeated --var key=value flags into a variable
// map. Values are typed by shape: integers, floats, booleans, and null are
// recognized; everything else stays a string.
func ParseVarFlags(flags []string) (map[string]any, error) {
	if len(flags) == 0 {
		return nil, nil
	}

	vars := make(map[string]any, len(flags))
	for _, flag := range flags {
		key, raw, ok := strings.Cut(flag, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q: want key=value", flag)
		}
		vars[key] = typeValue(raw)
	}
	return vars, nil
}

func typeValue(raw string) any {
	switch raw {
	case "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// LoadVarsFile reads a variable map from a YAML or CUE file, chosen by
// extension.
func LoadVarsFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read variables file: %w", err)
	}

	switch filepath.Ext(path) {
	case ".cue":
		return decodeCUEVars(data)
	case ".yaml", ".yml":
		return decodeYAMLVars(data)
	default:
		return nil, fmt.Errorf("unsupported variables file %q: want .yaml, .yml, or .cue", path)
	}
}

func decodeYAMLVars(data []byte) (map[string]any, error) {
	var vars map[string]any
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("failed to parse YAML variables: %w", err)
	}
	return vars, nil
}

func decodeCUEVars(data []byte) (map[string]any, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CUE variables: %w", err)
	}

	var vars map[string]any
	if err := value.Decode(&vars); err != nil {
		return nil, fmt.Errorf("failed to decode CUE variables: %w", err)
	}
	return vars, nil
}

// MergeVars overlays later maps onto earlier ones. Flag-supplied variables
// win over file-supplied ones.
func MergeVars(maps ...map[string]any) map[string]any {
	out := map[string]any{}
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
