package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lk2023060901/objpack-go/internal/serializer"
	"github.com/lk2023060901/objpack-go/pkg/log"
	"github.com/lk2023060901/objpack-go/pkg/objpack"
)

type encodeOpts struct {
	input  string
	output string
	from   string
}

func newEncodeCmd(cc *cliContext) *cobra.Command {
	opts := &encodeOpts{}
	encodeCmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a JSON or protobuf document into an objpack stream",
		Args:  cobra.NoArgs,
		Example: `objpack encode -i package-lock.json -o package-lock.opk
cat doc.json | objpack encode > doc.opk`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, opts.input)
			if err != nil {
				return err
			}
			v, err := parseDocument(data, opts.from)
			if err != nil {
				return err
			}

			logger := cc.logger("encode")
			w, closeOutput, err := createOutput(cmd, opts.output)
			if err != nil {
				return err
			}
			enc := objpack.NewEncoder(objpack.WithEncoderLogger(logger))
			n, err := enc.EncodeTo(cmd.Context(), w, v)
			if cerr := closeOutput(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			logger.Info("document encoded",
				zap.String("input", opts.input),
				zap.String("output", opts.output),
				log.FieldSize(len(data)),
				zap.Int64("encoded", n))
			return nil
		},
	}
	encodeCmd.Flags().StringVarP(&opts.input, "input", "i", "", "input document, '-' or empty reads stdin")
	encodeCmd.Flags().StringVarP(&opts.output, "output", "o", "", "output stream, '-' or empty writes stdout")
	encodeCmd.Flags().StringVar(&opts.from, "from", serializer.FormatJSON, "input document format, `json` or `proto`")
	return encodeCmd
}
