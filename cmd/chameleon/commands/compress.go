package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/chameleon/internal/report"
	"github.com/Sumatoshi-tech/chameleon/pkg/alg/huffman"
	"github.com/Sumatoshi-tech/chameleon/pkg/persist"
)

// ErrRoundTrip is returned when decoding does not reproduce the input.
var ErrRoundTrip = errors.New("decoded output differs from input")

func (a *App) compressCommand() *cobra.Command {
	var (
		text  string
		codes bool
	)

	cmd := &cobra.Command{
		Use:   "compress [FILE|-]",
		Short: "Compare Huffman coding with LZ4 on a file, stdin or text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, data, err := readInput(cmd, args, text)
			if err != nil {
				return err
			}

			res, err := compare(name, data)
			if err != nil {
				return err
			}

			if codes {
				res.Codes = huffmanCodes(data)

				if a.output == report.FormatTable {
					if err := a.render(nil, report.CodesTable(res.Codes)); err != nil {
						return err
					}
				}
			}

			return a.render(res, report.CompressionTable(res))
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "compress this text instead of a file")
	cmd.Flags().BoolVar(&codes, "codes", false, "include the Huffman code table")

	return cmd
}

func compare(name string, data []byte) (report.Compression, error) {
	code, bits, st, err := huffman.Compress(data)
	if err != nil {
		return report.Compression{}, fmt.Errorf("huffman: %w", err)
	}

	decoded, err := code.Decode(bits)
	if err != nil {
		return report.Compression{}, fmt.Errorf("huffman: %w", err)
	}

	if !bytes.Equal(decoded, data) {
		return report.Compression{}, fmt.Errorf("huffman: %w", ErrRoundTrip)
	}

	lz4Size := len(data)

	block, err := persist.CompressBlock(data)

	switch {
	case errors.Is(err, persist.ErrIncompressible):
	case err != nil:
		return report.Compression{}, err
	default:
		restored, derr := persist.DecompressBlock(block, len(data))
		if derr != nil {
			return report.Compression{}, derr
		}

		if !bytes.Equal(restored, data) {
			return report.Compression{}, fmt.Errorf("lz4: %w", ErrRoundTrip)
		}

		lz4Size = len(block)
	}

	return report.Compression{
		Input:         name,
		OriginalBytes: len(data),
		Huffman:       st,
		LZ4Bytes:      lz4Size,
	}, nil
}

func huffmanCodes(data []byte) []huffman.Entry {
	code, err := huffman.Build(data)
	if err != nil {
		return nil
	}

	return code.Codes()
}

// readInput returns text when set, else the named file, else stdin for "-".
func readInput(cmd *cobra.Command, args []string, text string) (string, []byte, error) {
	switch {
	case text != "":
		return "text", []byte(text), nil
	case len(args) == 0:
		return "", nil, ErrNoInput
	case args[0] == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", nil, fmt.Errorf("read stdin: %w", err)
		}

		return "stdin", data, nil
	default:
		data, err := os.ReadFile(args[0])
		if err != nil {
			return "", nil, fmt.Errorf("read input: %w", err)
		}

		return args[0], data, nil
	}
}
