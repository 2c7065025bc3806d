// Package dialect holds the closed set of supported DDL dialects and the
// Generate entry point that turns schema text into TypeScript
// declarations.
//
// Every dialect is a small configuration over one shared engine: how to
// locate statements, how to map types and how to lay out declarations.
// The registry is built at init and never written afterwards, so Generate
// is safe for concurrent use.
package dialect

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/koba/ddl2ts/internal/extract"
	"github.com/koba/ddl2ts/internal/generator"
	"github.com/koba/ddl2ts/internal/schema"
	"github.com/koba/ddl2ts/internal/typemap"
)

// Dialect is one supported input language.
type Dialect struct {
	Name    string
	Aliases []string
	// Extract locates tables; nil means the input is Cypher.
	Extract *extract.Config
	Mapper  *typemap.Mapper
	Style   generator.Style
}

var registry = map[string]*Dialect{}

func register(d *Dialect) {
	for _, key := range append([]string{d.Name}, d.Aliases...) {
		if _, dup := registry[key]; dup {
			panic("dialect: duplicate registration of " + key)
		}
		registry[key] = d
	}
}

// Lookup returns the dialect registered under a tag or alias, compared
// case-insensitively.
func Lookup(name string) (*Dialect, error) {
	d, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, &UnknownDialectError{Name: name}
	}
	return d, nil
}

// Names returns the primary tag of every dialect, sorted.
func Names() []string {
	var names []string
	for key, d := range registry {
		if key == d.Name {
			names = append(names, key)
		}
	}
	slices.Sort(names)
	return names
}

// Generate translates src written in the named dialect into TypeScript
// declarations. It returns an empty string when no table is found.
func Generate(name, src string, opts ...Option) (string, error) {
	d, err := Lookup(name)
	if err != nil {
		return "", err
	}
	return d.Generate(src, opts...)
}

// Generate translates src into TypeScript declarations.
func (d *Dialect) Generate(src string, opts ...Option) (string, error) {
	o, err := newOptions(opts)
	if err != nil {
		return "", err
	}
	tables := d.Tables(src, o.Logger)
	o.Logger.Debug("extracted tables", "dialect", d.Name, "count", len(tables))
	return d.Render(tables, o), nil
}

// Tables extracts the table descriptors from src.
func (d *Dialect) Tables(src string, log *slog.Logger) []*schema.Table {
	if d.Extract == nil {
		return extract.Cypher(src, log)
	}
	return extract.Extract(src, d.Extract, log)
}

// Render emits declarations for already extracted tables.
func (d *Dialect) Render(tables []*schema.Table, o *Options) string {
	if o == nil {
		o = &Options{}
	}
	g := generator.NewTSGenerator(d.Style, d.Mapper, generator.TSOptions{
		Namespace: o.Namespace,
		Singular:  o.Singular,
		Overrides: o.TypeOverrides,
	})
	return g.Generate(tables)
}

// TypeOf maps a single column to its TypeScript type.
func (d *Dialect) TypeOf(c *schema.Column, overrides map[string]string) string {
	return d.Mapper.Map(c.Type, c.EnumValues, overrides)
}
