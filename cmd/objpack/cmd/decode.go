package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lk2023060901/objpack-go/internal/serializer"
	"github.com/lk2023060901/objpack-go/pkg/jsonvalue"
	"github.com/lk2023060901/objpack-go/pkg/log"
	"github.com/lk2023060901/objpack-go/pkg/objpack"
)

type decodeOpts struct {
	input  string
	output string
	to     string
	indent bool
}

func newDecodeCmd(cc *cliContext) *cobra.Command {
	opts := &decodeOpts{}
	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode an objpack stream into a JSON or protobuf document",
		Args:  cobra.NoArgs,
		Example: `objpack decode -i package-lock.opk --indent
objpack decode -i doc.opk --to proto -o doc.pb`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ser, err := documentSerializer(opts.to)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, opts.input)
			if err != nil {
				return err
			}

			logger := cc.logger("decode")
			dec := objpack.NewDecoder(
				objpack.WithRecover(cc.app.Config().Decode.Recover),
				objpack.WithDecoderLogger(logger),
			)
			v, err := dec.Decode(cmd.Context(), data)
			if err != nil {
				return err
			}

			var out []byte
			if opts.indent && opts.to == serializer.FormatJSON {
				out, err = jsonvalue.MarshalIndent(v)
			} else {
				out, err = ser.Marshal(v)
			}
			if err != nil {
				return err
			}
			if opts.to == serializer.FormatJSON {
				out = append(out, '\n')
			}
			logger.Debug("stream decoded", log.FieldSize(len(data)))
			return writeOutput(cmd, opts.output, out)
		},
	}
	decodeCmd.Flags().StringVarP(&opts.input, "input", "i", "", "input stream, '-' or empty reads stdin")
	decodeCmd.Flags().StringVarP(&opts.output, "output", "o", "", "output document, '-' or empty writes stdout")
	decodeCmd.Flags().StringVar(&opts.to, "to", serializer.FormatJSON, "output document format, `json` or `proto`")
	decodeCmd.Flags().BoolVar(&opts.indent, "indent", false, "indent JSON output")
	return decodeCmd
}
