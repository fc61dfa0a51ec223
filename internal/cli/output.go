package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/itchyny/gojq"
	"github.com/prometheus/client_golang/prometheus"
)

type outputFlags struct {
	path        string
	jq          string
	metricsFile string
}

// printer writes JSON values, optionally through a compiled jq filter.
type printer struct {
	enc  *json.Encoder
	code *gojq.Code
}

func newPrinter(w io.Writer, expr string, pretty bool) (*printer, error) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}

	p := &printer{enc: enc}
	if expr == "" {
		return p, nil
	}

	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}
	p.code = code
	return p, nil
}

// emit writes v, or every value the jq filter produces for v.
func (p *printer) emit(v any) error {
	if p.code == nil {
		return p.enc.Encode(v)
	}

	// gojq only understands the generic JSON types.
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var input any
	if err := json.Unmarshal(data, &input); err != nil {
		return err
	}

	iter := p.code.Run(input)
	for {
		out, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := out.(error); isErr {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				return nil
			}
			return fmt.Errorf("jq: %w", err)
		}
		if err := p.enc.Encode(out); err != nil {
			return err
		}
	}
}

// withOutput opens the destination selected by of, runs fn with a printer
// on it and writes the metrics file once fn returns.
func (s *session) withOutput(of *outputFlags, pretty bool, fn func(p *printer) error) (err error) {
	w := s.stdout
	if of.path != "" {
		f, createErr := os.Create(of.path)
		if createErr != nil {
			return fmt.Errorf("creating output file: %w", createErr)
		}
		defer func() {
			if closeErr := f.Close(); err == nil {
				err = closeErr
			}
		}()
		w = f
	}

	p, err := newPrinter(w, of.jq, pretty)
	if err != nil {
		return err
	}

	defer func() {
		if of.metricsFile == "" {
			return
		}
		if metricsErr := writeMetrics(of.metricsFile, s.registry); err == nil {
			err = metricsErr
		}
	}()

	return fn(p)
}

func writeMetrics(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}
	return nil
}
