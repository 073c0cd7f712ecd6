package decode

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Options controls decode behavior.
type Options struct {
	// WeaklyTypedInput enables lenient decoding (default true):
	// e.g. "123" -> int, 1.0 -> int64.
	WeaklyTypedInput bool
}

func DefaultOptions() Options {
	return Options{WeaklyTypedInput: true}
}

// DecodeMap decodes a loosely-typed payload map (the decoded JSON
// envelope body) into the typed payload struct T. Field names follow
// the `json` tag. Unknown keys are ignored; type mismatches on known
// keys fail the decode.
func DecodeMap[T any](m map[string]any, opts ...Options) (*T, error) {
	if m == nil {
		return nil, fmt.Errorf("payload is nil")
	}
	cfg := DefaultOptions()
	if len(opts) > 0 {
		cfg = opts[0]
	}

	var out T
	decCfg := &mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: cfg.WeaklyTypedInput,
	}
	dec, err := mapstructure.NewDecoder(decCfg)
	if err != nil {
		return nil, fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &out, nil
}
