package main

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// openInput returns file reader or command's stdin for empty path
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening input file")
	}
	return file, nil
}

// createOutput returns file writer or command's stdout for empty path
func createOutput(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{cmd.OutOrStdout()}, nil
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "creating output file")
	}
	return file, nil
}

// writeOutput passes output to write and closes it.
// Close error is reported too since a failed flush means lost output.
func writeOutput(out io.WriteCloser, write func(w io.Writer) error) error {
	if err := write(out); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return errors.Wrap(err, "closing output")
	}
	return nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// summary prints colored "kept N of M" line to stderr
func summary(cmd *cobra.Command, kept, total int) {
	c := color.New(color.FgGreen)
	if kept < total {
		c = color.New(color.FgYellow)
	}
	c.Fprintf(cmd.ErrOrStderr(), "kept %d of %d detections\n", kept, total)
}
