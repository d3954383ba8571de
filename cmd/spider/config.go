package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// yamlLoader reads flag defaults from a YAML mapping keyed by flag name.
// Keys may use underscores in place of dashes.
//
//	max-pages: 500
//	rate_window: 30s
//	exclude: ["\\.pdf$"]
func yamlLoader(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	var resolver kong.ResolverFunc = func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		raw, ok := values[flag.Name]
		if !ok {
			raw, ok = values[strings.ReplaceAll(flag.Name, "-", "_")]
		}
		if !ok || raw == nil {
			return nil, nil
		}
		return configValue(raw), nil
	}
	return resolver, nil
}

// configValue converts a decoded YAML value to the string form kong parses.
func configValue(raw any) any {
	list, ok := raw.([]any)
	if !ok {
		return fmt.Sprint(raw)
	}
	out := make([]any, len(list))
	for i, v := range list {
		out[i] = fmt.Sprint(v)
	}
	return out
}
