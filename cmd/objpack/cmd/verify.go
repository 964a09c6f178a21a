package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/lk2023060901/objpack-go/internal/serializer"
	"github.com/lk2023060901/objpack-go/pkg/objpack"
)

type verifyOpts struct {
	input string
	from  string
}

func newVerifyCmd(cc *cliContext) *cobra.Command {
	opts := &verifyOpts{}
	verifyCmd := &cobra.Command{
		Use:     "verify",
		Short:   "Check that a document survives an encode/decode round trip",
		Args:    cobra.NoArgs,
		Example: `objpack verify -i package-lock.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, opts.input)
			if err != nil {
				return err
			}
			v, err := parseDocument(data, opts.from)
			if err != nil {
				return err
			}

			logger := cc.logger("verify")
			stream, err := objpack.NewEncoder(objpack.WithEncoderLogger(logger)).Encode(cmd.Context(), v)
			if err != nil {
				return err
			}
			decoded, err := objpack.NewDecoder(objpack.WithDecoderLogger(logger)).Decode(cmd.Context(), stream)
			if err != nil {
				return err
			}
			if !objpack.Equal(v, decoded) {
				return errors.Newf("round trip of %d byte document changed the value", len(data))
			}
			records, err := objpack.Records(stream)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok: %d bytes -> %d bytes, %d records\n", len(data), len(stream), len(records))
			return err
		},
	}
	verifyCmd.Flags().StringVarP(&opts.input, "input", "i", "", "input document, '-' or empty reads stdin")
	verifyCmd.Flags().StringVar(&opts.from, "from", serializer.FormatJSON, "input document format, `json` or `proto`")
	return verifyCmd
}
