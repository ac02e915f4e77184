package processes

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/flume/pkg/config"
	"github.com/aretw0/flume/pkg/edge"
	"github.com/aretw0/flume/pkg/process"
)

// PrintNumber writes every number it receives to a file, one per line.
type PrintNumber struct {
	*process.Base
	path string
	out  io.Writer
	file *os.File
}

// NewPrintNumber builds a print_number process.
func NewPrintNumber(name string, cfg *config.Config) (process.Process, error) {
	return &PrintNumber{
		Base: process.New(name, TypePrintNumber, cfg).
			WithInput(process.PortInfo{Name: "number", Type: TypeInteger, Flags: process.Required, Description: "The numbers to print."}),
	}, nil
}

func (p *PrintNumber) Configure() error {
	var s struct {
		Output string `config:"output"`
	}
	if err := p.Config().Decode(&s); err != nil {
		return err
	}
	p.path = s.Output
	return nil
}

// Output returns the configured file path.
func (p *PrintNumber) Output() string { return p.path }

func (p *PrintNumber) Step(ctx context.Context, pio process.PortIO) error {
	if p.out == nil {
		if err := p.open(); err != nil {
			return err
		}
	}
	n, done, err := receiveInt(ctx, pio, "number")
	if err != nil {
		return err
	}
	if done {
		return process.ErrComplete
	}
	_, err = fmt.Fprintln(p.out, n)
	return err
}

func (p *PrintNumber) open() error {
	if p.path == "" {
		p.out = io.Discard
		return nil
	}
	f, err := os.Create(p.path)
	if err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}
	p.file, p.out = f, f
	return nil
}

// Close releases the output file.
func (p *PrintNumber) Close() error {
	if p.file == nil {
		return nil
	}
	err := p.file.Close()
	p.file, p.out = nil, nil
	return err
}

// Sink drops everything it receives.
type Sink struct {
	*process.Base
	received int
}

// NewSink builds a sink process.
func NewSink(name string, cfg *config.Config) (process.Process, error) {
	return &Sink{
		Base: process.New(name, TypeSink, cfg).
			WithInput(process.PortInfo{Name: "sink", Type: process.TypeAny, Flags: process.Required, Description: "The data to ignore."}),
	}, nil
}

// Received returns how many data items the sink has dropped.
func (s *Sink) Received() int { return s.received }

func (s *Sink) Step(ctx context.Context, io process.PortIO) error {
	d, err := io.Receive(ctx, "sink")
	if err != nil {
		return err
	}
	if d.Kind == edge.KindComplete {
		return process.ErrComplete
	}
	if d.Kind == edge.KindData {
		s.received++
	}
	return nil
}
