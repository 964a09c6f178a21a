package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lk2023060901/objpack-go/internal/serializer"
	"github.com/lk2023060901/objpack-go/pkg/log"
	"github.com/lk2023060901/objpack-go/pkg/metrics"
	"github.com/lk2023060901/objpack-go/pkg/objpack"
	"github.com/lk2023060901/objpack-go/pkg/util/conc"
	"github.com/lk2023060901/objpack-go/pkg/util/merr"
)

type batchOpts struct {
	from    string
	outDir  string
	workers int
}

func newBatchCmd(cc *cliContext) *cobra.Command {
	opts := &batchOpts{}
	batchCmd := &cobra.Command{
		Use:   "batch FILE...",
		Short: "Encode many documents concurrently",
		Long: `Encode every given document into a stream file next to it (or under --out-dir).
The output name replaces the document extension with batch.suffix from the config.
The first failure stops files that have not started yet.`,
		Args:    cobra.MinimumNArgs(1),
		Example: `objpack batch --out-dir ./out testdata/*.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf := cc.app.Config().Batch
			workers := opts.workers
			if workers <= 0 {
				workers = conf.Workers
			}
			if _, err := documentSerializer(opts.from); err != nil {
				return err
			}

			r := &batchRunner{
				from:   opts.from,
				outDir: opts.outDir,
				suffix: conf.Suffix,
				enc:    objpack.NewEncoder(objpack.WithEncoderLogger(cc.logger("batch"))),
				logger: cc.logger("batch"),
			}
			results, err := r.run(cmd.Context(), workers, args)
			for _, res := range results {
				fmt.Fprintln(cmd.OutOrStdout(), res)
			}
			return err
		},
	}
	batchCmd.Flags().StringVar(&opts.from, "from", serializer.FormatJSON, "input document format, `json` or `proto`")
	batchCmd.Flags().StringVar(&opts.outDir, "out-dir", "", "directory for the encoded streams (default is next to each input)")
	batchCmd.Flags().IntVar(&opts.workers, "workers", 0, "number of concurrent encoders (default is batch.workers from the config)")
	return batchCmd
}

type batchRunner struct {
	from   string
	outDir string
	suffix string
	enc    *objpack.Encoder
	logger *log.MLogger
}

// run 在协程池上编码 files，返回已完成文件的结果行（按输入顺序）与第一个错误。
func (r *batchRunner) run(ctx context.Context, workers int, files []string) ([]string, error) {
	pool := conc.NewPool[string](workers, conc.WithName("batch"))
	defer pool.Release()

	metrics.BatchPendingFiles.Add(float64(len(files)))
	results := make([]string, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, file := range files {
		i, file := i, file
		future := pool.Submit(func() (string, error) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			return r.encodeFile(ctx, file)
		})
		g.Go(func() error {
			res, err := future.Await()
			metrics.BatchPendingFiles.Dec()
			metrics.BatchProcessedFiles.WithLabelValues(metrics.Status(err)).Inc()
			if err != nil {
				r.logger.Warn("batch encode failed", zap.String("file", file), zap.Error(err))
				return err
			}
			results[i] = res
			return nil
		})
	}
	err := g.Wait()
	completed := results[:0]
	for _, res := range results {
		if res != "" {
			completed = append(completed, res)
		}
	}
	return completed, err
}

func (r *batchRunner) encodeFile(ctx context.Context, file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", merr.WrapErrIoFailed(file, err)
	}
	v, err := parseDocument(data, r.from)
	if err != nil {
		return "", err
	}
	stream, err := r.enc.Encode(ctx, v)
	if err != nil {
		return "", err
	}
	target := r.target(file)
	if err := os.WriteFile(target, stream, 0o644); err != nil {
		return "", merr.WrapErrIoFailed(target, err)
	}
	return fmt.Sprintf("%s -> %s (%d bytes)", file, target, len(stream)), nil
}

func (r *batchRunner) target(file string) string {
	dir := r.outDir
	if dir == "" {
		dir = filepath.Dir(file)
	}
	base := filepath.Base(file)
	return filepath.Join(dir, strings.TrimSuffix(base, filepath.Ext(base))+r.suffix)
}
