package verifier

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Context carries caller-supplied values into a verification run.
type Context map[string]any

// Get returns the value under key.
func (c Context) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// Bool reports whether key holds true. Missing keys and non-bool values
// are false.
func (c Context) Bool(key string) bool {
	b, _ := c[key].(bool)
	return b
}

// Decode copies the context into out, a pointer to a struct or map.
// Fields are matched by their `mapstructure` tag, and string/number/bool
// values are converted where needed ("1" decodes into an int field).
func (c Context) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("context decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(c)); err != nil {
		return fmt.Errorf("decode context: %w", err)
	}
	return nil
}
