package cmd

import (
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/lk2023060901/objpack-go/internal/json"
	"github.com/lk2023060901/objpack-go/pkg/objpack"
)

type inspectOpts struct {
	input string
	text  bool
}

// recordView 为 inspect 输出的单条记录。
type recordView struct {
	Offset int    `json:"offset"`
	Tag    string `json:"tag"`
	Size   int    `json:"size"`
}

type inspectReport struct {
	Bytes   int          `json:"bytes"`
	Records []recordView `json:"records"`
}

func newInspectCmd(cc *cliContext) *cobra.Command {
	opts := &inspectOpts{}
	inspectCmd := &cobra.Command{
		Use:   "inspect",
		Short: "List the top-level records of an objpack stream",
		Args:  cobra.NoArgs,
		Example: `objpack inspect -i doc.opk
objpack inspect -i doc.opk --text`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, opts.input)
			if err != nil {
				return err
			}
			if opts.text {
				dump, err := objpack.Dump(data)
				if err != nil {
					return err
				}
				return writeOutput(cmd, "", []byte(dump))
			}

			records, err := objpack.Records(data)
			if err != nil {
				return err
			}
			report := inspectReport{
				Bytes: len(data),
				Records: lo.Map(records, func(r objpack.Record, _ int) recordView {
					return recordView{Offset: r.Offset, Tag: r.Tag.String(), Size: r.Size}
				}),
			}
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			cc.logger("inspect").Debug("stream inspected")
			return writeOutput(cmd, "", append(out, '\n'))
		},
	}
	inspectCmd.Flags().StringVarP(&opts.input, "input", "i", "", "input stream, '-' or empty reads stdin")
	inspectCmd.Flags().BoolVar(&opts.text, "text", false, "print one line per record instead of JSON")
	return inspectCmd
}
