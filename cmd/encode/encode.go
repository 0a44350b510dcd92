package encode

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/voicedetect/internal/errors"
)

// Command creates the encode command that prints a file as base64, ready to
// paste into a /api/voice-detection request.
func Command() *cobra.Command {
	var dataURI bool

	cmd := &cobra.Command{
		Use:   "encode [input]",
		Short: "Print an audio file as base64",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := Encode(args[0], dataURI)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), s)
			return err
		},
	}

	cmd.Flags().BoolVar(&dataURI, "data-uri", false, "Prefix the output with a data:audio/<ext>;base64, header")

	return cmd
}

// Encode reads path and returns its base64 encoding
func Encode(path string, dataURI bool) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is given by the user
	if err != nil {
		return "", errors.New(err).
			Component("cli").
			Category(errors.CategoryFileIO).
			FileContext(path, 0).
			Build()
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	if !dataURI {
		return encoded, nil
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		ext = "mpeg"
	}
	return "data:audio/" + ext + ";base64," + encoded, nil
}
