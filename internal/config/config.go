// Package config resolves run configuration across its three sources:
// CLI overrides take precedence over in-program directives, which
// take precedence over the optional HCL defaults file, which takes
// precedence over the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/bridgedealer/internal/deck"
	"github.com/lox/bridgedealer/internal/script"
)

// Configuration errors, surfaced with exit code 3.
var (
	ErrBadSeat          = errors.New("bad seat")
	ErrBadVulnerability = errors.New("bad vulnerability")
	ErrBadFormat        = errors.New("bad format")
)

// Built-in defaults.
const (
	DefaultProduce  = 40
	DefaultGenerate = 10_000_000
)

// File is the decoded bridgedealer.hcl defaults file.
type File struct {
	Defaults *Defaults `hcl:"defaults,block"`
}

// Defaults is the defaults block of the config file. Zero values mean
// unset.
type Defaults struct {
	Threads   int    `hcl:"threads,optional"`
	BatchSize int    `hcl:"batch_size,optional"`
	Format    string `hcl:"format,optional"`
	Produce   int    `hcl:"produce,optional"`
	Generate  int    `hcl:"generate,optional"`
}

// LoadFile reads an HCL defaults file. A missing file yields empty
// defaults rather than an error.
func LoadFile(path string) (*File, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &File{}, nil
	}

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %s", path, diags.Error())
	}

	var file File
	diags = gohcl.DecodeBody(hclFile.Body, nil, &file)
	if diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %s", path, diags.Error())
	}

	if file.Defaults != nil && file.Defaults.Format != "" {
		if _, ok := script.ParseFormat(file.Defaults.Format); !ok {
			return nil, fmt.Errorf("%w: %q in %s", ErrBadFormat, file.Defaults.Format, path)
		}
	}
	return &file, nil
}

// Overrides are the supervisor-level (CLI) settings; nil means unset.
type Overrides struct {
	Produce    *int
	Generate   *int
	Dealer     *deck.Seat
	Vulnerable *script.Vulnerability
	Format     *script.Format
	Workers    *int
	BatchSize  *int
}

// Resolved is the final configuration a run uses.
type Resolved struct {
	Produce    int
	Generate   int
	Dealer     deck.Seat
	Vulnerable script.Vulnerability
	Format     script.Format
	Workers    int
	BatchSize  int
}

// Resolve applies the precedence chain.
func Resolve(over Overrides, prog *script.Program, file *File) Resolved {
	r := Resolved{
		Produce:    DefaultProduce,
		Generate:   DefaultGenerate,
		Dealer:     deck.North,
		Vulnerable: script.VulNone,
		Format:     script.FormatOneLine,
	}

	if file != nil && file.Defaults != nil {
		d := file.Defaults
		if d.Produce > 0 {
			r.Produce = d.Produce
		}
		if d.Generate > 0 {
			r.Generate = d.Generate
		}
		if d.Format != "" {
			if f, ok := script.ParseFormat(d.Format); ok {
				r.Format = f
			}
		}
		if d.Threads > 0 {
			r.Workers = d.Threads
		}
		if d.BatchSize > 0 {
			r.BatchSize = d.BatchSize
		}
	}

	if prog != nil {
		if prog.Produce != nil {
			r.Produce = *prog.Produce
		}
		if prog.Generate != nil {
			r.Generate = *prog.Generate
		}
		if prog.Dealer != nil {
			r.Dealer = *prog.Dealer
		}
		if prog.Vulnerable != nil {
			r.Vulnerable = *prog.Vulnerable
		}
		if prog.Format != nil {
			r.Format = *prog.Format
		}
	}

	if over.Produce != nil {
		r.Produce = *over.Produce
	}
	if over.Generate != nil {
		r.Generate = *over.Generate
	}
	if over.Dealer != nil {
		r.Dealer = *over.Dealer
	}
	if over.Vulnerable != nil {
		r.Vulnerable = *over.Vulnerable
	}
	if over.Format != nil {
		r.Format = *over.Format
	}
	if over.Workers != nil {
		r.Workers = *over.Workers
	}
	if over.BatchSize != nil {
		r.BatchSize = *over.BatchSize
	}

	return r
}
