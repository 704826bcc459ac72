package parser

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/ccollicutt/sensorlog/pkg/source"
	"github.com/ccollicutt/sensorlog/pkg/store"
)

// Parser reads a sensor log document in a single forward pass.
type Parser struct {
	root   string
	logger zerolog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithRootElement sets the name of the document's root element.
func WithRootElement(name string) Option {
	return func(p *Parser) {
		if name != "" {
			p.root = name
		}
	}
}

// WithLogger sets the logger for lifecycle and warning messages.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Parser) {
		p.logger = l
	}
}

// New creates a parser.
func New(opts ...Option) *Parser {
	p := &Parser{
		root:   DefaultRootElement,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads the document from r.
//
// If the XML is malformed, Parse returns the events completed so far in a
// Result with Complete set to false, together with a *DocumentError. Other
// errors (I/O, context cancellation) return a nil Result.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*Result, error) {
	s := store.New(store.WithLogger(p.logger))
	b := NewBuilder(s, p.root, p.logger)

	dec := xml.NewDecoder(r)
	dec.Strict = true
	dec.CharsetReader = charsetReader

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			var syntaxErr *xml.SyntaxError
			if !errors.As(err, &syntaxErr) && !errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("reading document: %w", err)
			}

			line, _ := dec.InputPos()
			docErr := &DocumentError{Line: line, Records: b.Records(), Err: err}
			p.logger.Warn().Err(err).Int("line", line).Int("records", b.Records()).
				Msg("document is malformed, keeping events parsed so far")

			return newResult(s, b, false), docErr
		}

		switch t := tok.(type) {
		case xml.StartElement:
			b.StartElement(t.Name.Local, attrMap(t.Attr))
		case xml.CharData:
			b.CharData(t)
		case xml.EndElement:
			b.EndElement(t.Name.Local)
		}
	}

	return newResult(s, b, true), nil
}

// ParseFile opens location (see source.Open) and parses it.
func (p *Parser) ParseFile(ctx context.Context, location string) (*Result, error) {
	rc, err := source.Open(ctx, location)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return p.Parse(ctx, rc)
}

func newResult(s *store.Store, b *Builder, complete bool) *Result {
	return &Result{
		Store:    s,
		Complete: complete,
		Records:  b.Records(),
		Dropped:  b.Dropped(),
	}
}

func attrMap(attrs []xml.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Name.Local] = a.Value
	}
	return m
}
