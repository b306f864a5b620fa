package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/eugenenazirov/envconform/internal/schemadef"
	"github.com/eugenenazirov/envconform/pkg/conform"
)

const (
	formatJSON = "json"
	formatEnv  = "env"
)

type renderOptions struct {
	SchemaPath string
	Overrides  map[string]string
	Format     string
	Lookup     func(string) (string, bool)
	Indent     bool
}

// render conforms the environment against the schema file and writes the
// result. Values from Overrides shadow the ones returned by Lookup.
func render(out io.Writer, opts renderOptions) error {
	def, err := schemadef.LoadFile(opts.SchemaPath)
	if err != nil {
		return err
	}
	schema, err := def.Build()
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}

	env := conform.LookupFunc(func(key string) (string, bool) {
		if v, ok := opts.Overrides[key]; ok {
			return v, true
		}
		if opts.Lookup == nil {
			return "", false
		}
		return opts.Lookup(key)
	})

	result, err := conform.Conform(env, schema)
	if err != nil {
		return err
	}

	switch opts.Format {
	case formatEnv:
		return writeEnv(out, result)
	case formatJSON, "":
		return writeJSON(out, result, opts.Indent)
	default:
		return fmt.Errorf("unknown format %q", opts.Format)
	}
}

func writeJSON(out io.Writer, result *conform.Result, indent bool) error {
	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(result, "", "  ")
	} else {
		data, err = json.Marshal(result)
	}
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = fmt.Fprintf(out, "%s\n", data)
	return err
}

// writeEnv prints KEY=VALUE lines in the raw form the converters read. An
// empty array or object prints as an empty value, which converts back to the
// field's default rather than to an empty collection.
func writeEnv(out io.Writer, result *conform.Result) error {
	for _, key := range result.Keys() {
		v, _ := result.Get(key)
		if _, err := fmt.Fprintf(out, "%s=%s\n", key, formatRaw(v)); err != nil {
			return err
		}
	}
	return nil
}

func formatRaw(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case []string:
		return strings.Join(t, ",")
	case map[string]string:
		pairs := make([]string, 0, len(t))
		for _, k := range slices.Sorted(maps.Keys(t)) {
			pairs = append(pairs, k+":"+t[k])
		}
		return strings.Join(pairs, ",")
	default:
		return fmt.Sprint(v)
	}
}
