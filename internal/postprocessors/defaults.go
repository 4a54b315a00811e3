package postprocessors

import (
	"github.com/aoba-labs/lawdex/internal/core/ports/driven"
	"github.com/aoba-labs/lawdex/internal/postprocessors/chunker"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("semantic_chunker", buildChunker)
}

// buildChunker creates a semantic chunker processor from generic config.
// Supported config keys:
//   - max_tokens (int): Token budget per chunk (default: 500)
//   - overlap_tokens (int): Token overlap carried between chunks (default: 50)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if v := getIntFromConfig(cfg, "max_tokens"); v > 0 {
			opts = append(opts, chunker.WithMaxTokens(v))
		}
		if _, ok := cfg["overlap_tokens"]; ok {
			opts = append(opts, chunker.WithOverlapTokens(getIntFromConfig(cfg, "overlap_tokens")))
		}
	}

	return chunker.NewProcessor(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
