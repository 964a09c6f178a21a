package cmd

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lk2023060901/objpack-go/application"
	"github.com/lk2023060901/objpack-go/pkg/log"
	"github.com/lk2023060901/objpack-go/pkg/metrics"
	"github.com/lk2023060901/objpack-go/pkg/util/merr"
)

type rootOpts struct {
	cfgFile     string
	metricsFile string
}

// cliContext 为各子命令共享的运行时依赖。
type cliContext struct {
	app      *application.Application
	registry *prometheus.Registry
}

func (cc *cliContext) logger(name string) *log.MLogger {
	return cc.app.Logger(name)
}

var longRootCmdDescription = `objpack converts object graphs to and from a compact binary stream.

Shared references, cycles and views over a shared buffer survive a round trip.
JSON and protobuf documents can be used as the source or the target of a conversion.
`

// NewRootCmd 创建 objpack 根命令。
func NewRootCmd() *cobra.Command {
	opts := &rootOpts{}
	cc := &cliContext{
		app:      application.New(),
		registry: prometheus.NewRegistry(),
	}
	metrics.Register(cc.registry)

	rootCmd := &cobra.Command{
		Use:           "objpack",
		Short:         "Encode, decode and inspect objpack streams",
		Long:          longRootCmdDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cc.app.Run(opts.cfgFile)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.metricsFile == "" {
				return nil
			}
			return merr.WrapErrIoFailed(opts.metricsFile, prometheus.WriteToTextfile(opts.metricsFile, cc.registry))
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ./objpack.yaml, or $"+application.ConfigPathEnv+")")
	rootCmd.PersistentFlags().StringVar(&opts.metricsFile, "metrics-file", "", "write collected metrics in Prometheus text format to this file on exit")
	rootCmd.DisableAutoGenTag = true

	rootCmd.AddCommand(
		newEncodeCmd(cc),
		newDecodeCmd(cc),
		newInspectCmd(cc),
		newVerifyCmd(cc),
		newBatchCmd(cc),
	)
	return rootCmd
}

// Execute 运行根命令，出错时以非零状态码退出。
func Execute() {
	defer log.Sync()
	if err := NewRootCmd().Execute(); err != nil {
		log.Error("objpack failed", log.FieldComponent("cli"), zap.Error(err))
		fmt.Fprintf(os.Stderr, "objpack: %v\n", err)
		os.Exit(1)
	}
}
