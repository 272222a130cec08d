// Command rowgraph runs a declarative row-processing pipeline over a
// JSON dataset descriptor from the command line — a small end-to-end
// exercise of the library, in the shape of the teacher's
// examples/basic/main.go (a minimal program wiring the library's public
// surface against one concrete input).
package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rowgraph"
	"rowgraph/expr"
	"rowgraph/rgmetrics"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rowgraph",
		Short: "Run a declarative filter/aggregate pipeline over a dataset descriptor",
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		filterExpr string
		meanCol    string
		countOnly  bool
		parallel   bool
		slots      int
		metrics    bool
	)

	cmd := &cobra.Command{
		Use:   "run <dataset.json>",
		Short: "Load a dataset descriptor, apply an optional filter, and report a result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("building logger: %w", err)
			}
			defer logger.Sync()

			src, err := loadDataset(args[0])
			if err != nil {
				return fmt.Errorf("loading dataset: %w", err)
			}

			opts := rowgraph.DefaultOptions()
			opts.Parallel = parallel
			opts.Slots = slots
			engine := rowgraph.New(src, opts)

			if metrics {
				rec, err := rgmetrics.NewRecorder(prometheus.DefaultRegisterer)
				if err != nil {
					return fmt.Errorf("registering metrics: %w", err)
				}
				engine.SetTrace(rec.Trace())
			}

			b := engine.Source()
			if filterExpr != "" {
				b, err = b.FilterExpr(expr.NewCELCompiler(), filterExpr, "cli-filter")
				if err != nil {
					return fmt.Errorf("compiling filter: %w", err)
				}
			}

			switch {
			case countOnly:
				n, err := b.Count()
				if err != nil {
					return fmt.Errorf("booking count: %w", err)
				}
				v, err := n.Value()
				if err != nil {
					return fmt.Errorf("running: %w", err)
				}
				logger.Info("count", zap.Int64("rows", v))
				fmt.Println(v)
			case meanCol != "":
				m, err := b.Mean(meanCol)
				if err != nil {
					return fmt.Errorf("booking mean: %w", err)
				}
				v, err := m.Value()
				if err != nil {
					return fmt.Errorf("running: %w", err)
				}
				logger.Info("mean", zap.String("column", meanCol), zap.Float64("value", v))
				fmt.Println(v)
			default:
				n, err := b.Count()
				if err != nil {
					return fmt.Errorf("booking count: %w", err)
				}
				v, err := n.Value()
				if err != nil {
					return fmt.Errorf("running: %w", err)
				}
				fmt.Println(v)
			}

			if rep, err := b.Report(); err == nil {
				for _, r := range rep {
					logger.Info("filter report", zap.String("name", r.Name), zap.Int64("pass", r.Pass), zap.Int64("total", r.Total))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filterExpr, "filter", "", "CEL boolean expression over dataset columns")
	cmd.Flags().StringVar(&meanCol, "mean", "", "report the mean of this column instead of a row count")
	cmd.Flags().BoolVar(&countOnly, "count", false, "explicitly report a row count (default when no other action is given)")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "enable multi-slot execution")
	cmd.Flags().IntVar(&slots, "slots", 0, "slot count when --parallel is set (0 = runtime.NumCPU())")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "record run/task metrics to the default Prometheus registry")
	return cmd
}
