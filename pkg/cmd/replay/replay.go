package replay

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stleox/seecov/pkg/bgtask"
	"github.com/stleox/seecov/pkg/callers"
	"github.com/stleox/seecov/pkg/cmd/common"
	"github.com/stleox/seecov/pkg/collector"
	"github.com/stleox/seecov/pkg/covdata"
	"github.com/stleox/seecov/pkg/policy"
)

var (
	replayOpts struct {
		outFile     string
		arcs        bool
		withCallers bool
	}

	replayFlags = pflag.NewFlagSet("replay", pflag.ContinueOnError)
)

func init() {
	replayFlags.StringVarP(&replayOpts.outFile, "out", "o", "", "Data file to write (default .seecov)")
	replayFlags.BoolVar(&replayOpts.arcs, "arcs", false, "Record arcs instead of lines")
	replayFlags.BoolVar(&replayOpts.withCallers, "callers", false, "Attribute observations to test callers")
}

func New(vp *viper.Viper) *cobra.Command {
	replay := &cobra.Command{
		Use:   "replay <events.bin>",
		Short: "Replay a captured event log and write a coverage data file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// init main context
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			events, err := common.ReadEventLog(args[0])
			if err != nil {
				return err
			}
			logrus.Debugf("SeeCov read %d events from %s", len(events), args[0])

			pol := policy.New(
				vp.GetStringSlice("SEECOV_INCLUDE"),
				vp.GetStringSlice("SEECOV_EXCLUDE"))

			coll := collector.New(vp, pol.ShouldTrace)
			if cmd.Flags().Changed("arcs") {
				coll.SetArcs(replayOpts.arcs)
			}
			if replayOpts.withCallers {
				coll.SetCallerTracker(callers.New())
			}
			coll.SetWarn(func(msg string) {
				logrus.Warnf("SeeCov warning: %s", msg)
			})

			// init exporter
			shutdown, err := initExporter(coll, vp)
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdown(ctx); err != nil {
					logrus.Error(err)
				}
			}()

			fn := coll.Start()
			rp := common.NewReplayer()
			for _, rec := range events {
				frame := rp.FrameFor(rec)
				if err := fn(frame, rec.Event, nil, rec.Line); err != nil {
					// 遇错即停，事件状态不可恢复
					coll.Stop()
					return err
				}
			}
			coll.Stop()

			outFile := replayOpts.outFile
			if outFile == "" {
				outFile = vp.GetString("SEECOV_DATA_FILE")
			}
			data := covdata.New(outFile)
			data.AddCollected(coll)
			if err := data.Write(); err != nil {
				return err
			}
			logrus.Infof("SeeCov wrote data for %d files to %s", len(data.Files()), data.Filename())

			if err := coll.ExportSpans(ctx); err != nil {
				logrus.WithError(err).Warn("SeeCov couldn't export spans")
			}

			if olap := coll.Olap(); olap != nil {
				bgTaskManager := bgtask.NewBgTaskManager(coll)
				bgTaskManager.StartAll()

				flusher := bgTaskManager.Flusher()
				for _, obs := range coll.Observations() {
					flusher.Add(obs)
				}
				flusher.Flush()
				flusher.Wait()
				olap.SummaryExObs()
			}

			if stats := coll.GetStats(); stats != nil {
				logrus.Debugf("SeeCov session stats: %+v", *stats)
			}
			return nil
		},
	}

	replay.Flags().AddFlagSet(replayFlags)
	return replay
}

// initExporter picks the span exporter from SEECOV_EXPORTER; the dummy
// provider keeps span plumbing alive without an endpoint.
func initExporter(coll *collector.Collector, vp *viper.Viper) (func(context.Context) error, error) {
	switch vp.GetString("SEECOV_EXPORTER") {
	case "grpc":
		return coll.InitGRPCExporter(context.Background())
	case "stdout":
		return coll.InitStdoutExporter()
	default:
		return coll.InitDummyExporter()
	}
}
