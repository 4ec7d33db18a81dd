package cil

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ListingExtension is the file suffix of assembly listings.
const ListingExtension = ".cil.yaml"

// Listing is the YAML form of an assembly.
type Listing struct {
	Assembly string        `yaml:"assembly"`
	Types    []TypeListing `yaml:"types"`
}

type TypeListing struct {
	Name       string          `yaml:"name"`
	Attributes []string        `yaml:"attributes,omitempty"`
	Fields     []FieldListing  `yaml:"fields,omitempty"`
	Methods    []MethodListing `yaml:"methods,omitempty"`
}

type FieldListing struct {
	Name   string `yaml:"name"`
	Static bool   `yaml:"static,omitempty"`
}

type ParamListing struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type,omitempty"`
	ByRef bool   `yaml:"byref,omitempty"`
}

type HandlerListing struct {
	Kind         string `yaml:"kind"`
	TryStart     string `yaml:"try_start"`
	TryEnd       string `yaml:"try_end,omitempty"`
	HandlerStart string `yaml:"handler_start"`
	HandlerEnd   string `yaml:"handler_end,omitempty"`
	FilterStart  string `yaml:"filter_start,omitempty"`
	CatchType    string `yaml:"catch_type,omitempty"`
}

type MethodListing struct {
	Name       string           `yaml:"name"`
	Static     bool             `yaml:"static,omitempty"`
	Returns    string           `yaml:"returns,omitempty"`
	Params     []ParamListing   `yaml:"params,omitempty"`
	Locals     int              `yaml:"locals,omitempty"`
	Attributes []string         `yaml:"attributes,omitempty"`
	Lines      map[int]int      `yaml:"lines,omitempty"`
	Body       string           `yaml:"body,omitempty"`
	Handlers   []HandlerListing `yaml:"handlers,omitempty"`
}

// LoadFile reads and decodes a listing file.
func LoadFile(path string) (*Assembly, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	asm, err := Load(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return asm, nil
}

// Load decodes a listing and assembles every method body.
func Load(data []byte) (*Assembly, error) {
	var listing Listing
	if err := yaml.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}
	return listing.Build()
}

// Build turns the listing into an Assembly. Types and method signatures are
// declared first so bodies can reference any method of the listing.
func (l *Listing) Build() (*Assembly, error) {
	asm := NewAssembly(l.Assembly)

	type pending struct {
		def     *MethodDef
		listing MethodListing
	}
	var methods []pending

	for _, tl := range l.Types {
		if tl.Name == "" {
			return nil, fmt.Errorf("type without a name")
		}
		t := asm.DefineType(tl.Name)
		t.SetAttributes(tl.Attributes...)
		for _, fl := range tl.Fields {
			t.AddField(fl.Name, fl.Static)
		}
		for _, ml := range tl.Methods {
			opts := []MethodOption{WithAttributes(ml.Attributes...)}
			if !ml.Static {
				opts = append(opts, WithThis())
			}
			if ml.Returns != "" && ml.Returns != "void" {
				opts = append(opts, Returning())
			}
			for _, pl := range ml.Params {
				p := &Parameter{Name: pl.Name, ByRef: pl.ByRef}
				if pl.Type != "" {
					p.Type = asm.TypeByName(strings.TrimSuffix(pl.Type, "&"))
					p.ByRef = p.ByRef || strings.HasSuffix(pl.Type, "&")
				}
				opts = append(opts, WithParams(p))
			}
			m := t.AddMethod(NewMethod(t, ml.Name, opts...))
			methods = append(methods, pending{def: m, listing: ml})
		}
	}

	for _, p := range methods {
		if strings.TrimSpace(p.listing.Body) == "" {
			continue
		}
		body, err := asm.Assemble(p.def, p.listing.Body, p.listing.Locals)
		if err != nil {
			return nil, err
		}
		body.Lines = p.listing.Lines
		for _, hl := range p.listing.Handlers {
			h, err := hl.build(asm, body)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p.def.FullName(), err)
			}
			body.Handlers = append(body.Handlers, h)
		}
	}
	return asm, nil
}

func (hl HandlerListing) build(asm *Assembly, body *Body) (*ExceptionHandler, error) {
	kind, err := ParseHandlerKind(hl.Kind)
	if err != nil {
		return nil, err
	}
	h := &ExceptionHandler{Kind: kind}
	required := []struct {
		label string
		dst   **Instruction
	}{
		{hl.TryStart, &h.TryStart},
		{hl.HandlerStart, &h.HandlerStart},
	}
	optional := []struct {
		label string
		dst   **Instruction
	}{
		{hl.TryEnd, &h.TryEnd},
		{hl.HandlerEnd, &h.HandlerEnd},
		{hl.FilterStart, &h.FilterStart},
	}
	for _, r := range required {
		if r.label == "" {
			return nil, fmt.Errorf("%s handler is missing a region label", kind)
		}
		ins, err := branchTarget(body, r.label)
		if err != nil {
			return nil, err
		}
		*r.dst = ins
	}
	for _, o := range optional {
		if o.label == "" {
			continue
		}
		ins, err := branchTarget(body, o.label)
		if err != nil {
			return nil, err
		}
		*o.dst = ins
	}
	if kind == HandlerFilter && h.FilterStart == nil {
		return nil, fmt.Errorf("filter handler without filter_start")
	}
	if hl.CatchType != "" {
		h.CatchType = asm.TypeByName(hl.CatchType)
	}
	return h, nil
}
