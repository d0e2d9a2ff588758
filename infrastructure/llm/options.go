package llm

// DefaultMaxTokens is the response cap applied when a request does not
// set "max_tokens".
const DefaultMaxTokens = 1024

// requestOptions are the settings shared by every provider, parsed once
// from the opts map.
type requestOptions struct {
	model       string
	maxTokens   int
	temperature *float64
	system      string
}

// parseRequestOptions reads the common request settings, substituting
// the provider's model when none is given. Unknown keys and values of
// the wrong type are ignored.
func parseRequestOptions(opts map[string]any, defaultModel string) requestOptions {
	out := requestOptions{
		model:     optString(opts, "model", defaultModel),
		maxTokens: optInt(opts, "max_tokens", DefaultMaxTokens),
		system:    optString(opts, "system", ""),
	}
	if v, ok := opts["temperature"]; ok {
		if t, ok := toFloat(v); ok && t >= 0 && t <= 2 {
			out.temperature = &t
		}
	}
	return out
}

func optString(opts map[string]any, key, fallback string) string {
	if v, ok := opts[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func optInt(opts map[string]any, key string, fallback int) int {
	if v, ok := opts[key]; ok {
		switch n := v.(type) {
		case int:
			if n > 0 {
				return n
			}
		case float64:
			if n > 0 {
				return int(n)
			}
		}
	}
	return fallback
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
