// Package config loads rowmap configuration files.
//
// A configuration names a SQLite database and any number of mapper
// definitions:
//
//	database: app.db
//	mappers:
//	  users:
//	    table: users
//	    alias: u
//	    primary_key: [id]
//	    casts: {active: boolean}
//	    joins:
//	      - {alias: p, table: profiles, on: "p.user_id = u.id", left: true}
//
// Files ending in .yaml or .yml are decoded strictly with yaml.v3; files
// ending in .cue are evaluated with CUE and must be concrete.
package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"

	"cuelang.org/go/cue/token"

	"github.com/roach88/rowmap/internal/mapper"
	"github.com/roach88/rowmap/internal/record"
)

// File is a decoded configuration file.
type File struct {
	Database string               `yaml:"database" json:"database"`
	Mappers  map[string]MapperDef `yaml:"mappers" json:"mappers"`

	// Path is the file the configuration was read from.
	Path string `yaml:"-" json:"-"`
}

// MapperDef describes one mapper.
type MapperDef struct {
	Table        string            `yaml:"table" json:"table"`
	Alias        string            `yaml:"alias,omitempty" json:"alias,omitempty"`
	PrimaryKey   []string          `yaml:"primary_key,omitempty" json:"primary_key,omitempty"`
	Transactions *bool             `yaml:"transactions,omitempty" json:"transactions,omitempty"`
	Casts        map[string]string `yaml:"casts,omitempty" json:"casts,omitempty"`
	Joins        []JoinDef         `yaml:"joins,omitempty" json:"joins,omitempty"`
}

// JoinDef is a join applied to every read made through the mapper.
type JoinDef struct {
	Alias string `yaml:"alias,omitempty" json:"alias,omitempty"`
	Table string `yaml:"table" json:"table"`
	On    string `yaml:"on" json:"on"`
	Left  bool   `yaml:"left,omitempty" json:"left,omitempty"`
}

// Error codes carried by LoadError.
const (
	ErrCodeNotFound   = "C001" // file missing or unreadable
	ErrCodeFormat     = "C002" // unsupported file extension
	ErrCodeParse      = "C003" // YAML or CUE syntax/evaluation error
	ErrCodeNoMappers  = "C004" // no mapper definitions
	ErrCodeTable      = "C005" // mapper without a table
	ErrCodeCast       = "C006" // unknown cast name
	ErrCodeJoin       = "C007" // join without table or condition
	ErrCodeUnknown    = "C008" // mapper name not defined
	ErrCodePrimaryKey = "C009" // empty primary key column
	ErrCodeNoDatabase = "C010" // no database path
)

// LoadError is a configuration error. Pos is set for CUE sources when the
// error can be traced to a position.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads and validates a configuration file. A relative database path
// is resolved against the file's directory.
func Load(path string) (*File, error) {
	var (
		f   *File
		err error
	)
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		f, err = loadYAML(path)
	case ".cue":
		f, err = loadCUE(path)
	default:
		return nil, &LoadError{Code: ErrCodeFormat, Message: fmt.Sprintf("unsupported config format %q", filepath.Ext(path))}
	}
	if err != nil {
		return nil, err
	}

	f.Path = path
	if f.Database != "" && !filepath.IsAbs(f.Database) {
		f.Database = filepath.Join(filepath.Dir(path), f.Database)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks every mapper definition. The first problem found is
// returned, visiting mappers in name order.
func (f *File) Validate() error {
	if len(f.Mappers) == 0 {
		return &LoadError{Code: ErrCodeNoMappers, Message: "no mappers defined"}
	}
	for _, name := range f.Names() {
		if err := f.Mappers[name].validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (d MapperDef) validate(name string) error {
	if d.Table == "" {
		return &LoadError{Code: ErrCodeTable, Message: fmt.Sprintf("mapper %q: table is required", name)}
	}
	if slices.Contains(d.PrimaryKey, "") {
		return &LoadError{Code: ErrCodePrimaryKey, Message: fmt.Sprintf("mapper %q: empty primary key column", name)}
	}
	if _, err := d.casts(); err != nil {
		return &LoadError{Code: ErrCodeCast, Message: fmt.Sprintf("mapper %q: %v", name, err)}
	}
	for i, j := range d.Joins {
		if j.Table == "" || j.On == "" {
			return &LoadError{Code: ErrCodeJoin, Message: fmt.Sprintf("mapper %q: join %d needs table and on", name, i)}
		}
	}
	return nil
}

// Names returns the defined mapper names, sorted.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Mappers))
	for n := range f.Mappers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named mapper definition.
func (f *File) Lookup(name string) (MapperDef, error) {
	d, ok := f.Mappers[name]
	if !ok {
		return MapperDef{}, &LoadError{Code: ErrCodeUnknown, Message: fmt.Sprintf("unknown mapper %q", name)}
	}
	return d, nil
}

func (d MapperDef) casts() (map[string]record.Cast, error) {
	if len(d.Casts) == 0 {
		return nil, nil
	}
	out := make(map[string]record.Cast, len(d.Casts))
	for field, name := range d.Casts {
		c, err := record.ParseCast(name)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}
		out[field] = c
	}
	return out, nil
}

// Options translates the definition into mapper options.
func (d MapperDef) Options() ([]mapper.Option, error) {
	var opts []mapper.Option
	if d.Alias != "" {
		opts = append(opts, mapper.WithAlias(d.Alias))
	}
	if len(d.PrimaryKey) > 0 {
		opts = append(opts, mapper.WithPrimaryKey(d.PrimaryKey...))
	}
	if d.Transactions != nil {
		opts = append(opts, mapper.WithTransactions(*d.Transactions))
	}
	casts, err := d.casts()
	if err != nil {
		return nil, err
	}
	if casts != nil {
		opts = append(opts, mapper.WithCasts(casts))
	}
	return opts, nil
}

// Build constructs a mapper for the definition over conn.
func (d MapperDef) Build(conn mapper.Connection, extra ...mapper.Option) (*mapper.Mapper, error) {
	opts, err := d.Options()
	if err != nil {
		return nil, err
	}
	return mapper.New(conn, d.Table, append(opts, extra...)...)
}

// ApplyJoins registers the definition's joins on m for its next read.
func (d MapperDef) ApplyJoins(m *mapper.Mapper) *mapper.Mapper {
	for _, j := range d.Joins {
		if j.Left {
			m.LeftJoin(j.Alias, j.Table, j.On)
		} else {
			m.Join(j.Alias, j.Table, j.On)
		}
	}
	return m
}
