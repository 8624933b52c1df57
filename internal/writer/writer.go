// Package writer provides batched CSV output for normalization results.
package writer

import (
	"encoding/csv"
	"fmt"
	"io"
)

// RowSink accepts rows one at a time. Implementations may buffer; callers
// must Flush before relying on the output.
type RowSink interface {
	Write(row []string) error
	Flush() error
}

// DefaultBatchSize is how many rows a CSV sink buffers between flushes.
const DefaultBatchSize = 500

// CSV is a RowSink that writes the header once and flushes every batchSize
// rows, bounding memory on large inputs.
type CSV struct {
	w         *csv.Writer
	header    []string
	batchSize int
	pending   int
	wroteHead bool
}

// NewCSV creates a batched CSV sink. batchSize <= 0 falls back to the
// default.
func NewCSV(out io.Writer, header []string, batchSize int) *CSV {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &CSV{w: csv.NewWriter(out), header: header, batchSize: batchSize}
}

func (c *CSV) Write(row []string) error {
	if !c.wroteHead {
		if err := c.w.Write(c.header); err != nil {
			return fmt.Errorf("writer: write header: %w", err)
		}
		c.wroteHead = true
	}
	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("writer: write row: %w", err)
	}
	c.pending++
	if c.pending >= c.batchSize {
		return c.Flush()
	}
	return nil
}

// Flush drains buffered rows. An output with no rows still gets its header.
func (c *CSV) Flush() error {
	if !c.wroteHead {
		if err := c.w.Write(c.header); err != nil {
			return fmt.Errorf("writer: write header: %w", err)
		}
		c.wroteHead = true
	}
	c.pending = 0
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("writer: flush: %w", err)
	}
	return nil
}
