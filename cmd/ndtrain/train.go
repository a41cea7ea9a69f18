package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/born-ml/ndtrain/dataset"
	"github.com/born-ml/ndtrain/internal/logging"
	"github.com/born-ml/ndtrain/nn"
	"github.com/born-ml/ndtrain/optim"
	"github.com/born-ml/ndtrain/tensor"
	"github.com/born-ml/ndtrain/training"
)

type trainOptions struct {
	csv        string
	labelCol   int
	header     bool
	maxRows    int
	scale      float64
	validation float64
	hidden     int
	batch      int
	epochs     int
	prefetch   int
	shuffle    bool
	dropLast   bool
	seed       uint64
	lr         float64
	momentum   float64
	adam       bool
	save       string
	verbose    bool
}

func runTrain(args []string) error {
	var o trainOptions
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.StringVar(&o.csv, "csv", "", "Path to a numeric CSV file (required)")
	fs.IntVar(&o.labelCol, "label", 0, "Label column")
	fs.BoolVar(&o.header, "header", false, "Skip the first row")
	fs.IntVar(&o.maxRows, "rows", 0, "Maximum rows to load (0 = all)")
	fs.Float64Var(&o.scale, "scale", 1, "Feature multiplier")
	fs.Float64Var(&o.validation, "val", 0.2, "Validation fraction")
	fs.IntVar(&o.hidden, "hidden", 16, "Hidden units (0 = linear model)")
	fs.IntVar(&o.batch, "batch", 32, "Batch size")
	fs.IntVar(&o.epochs, "epochs", 10, "Training epochs")
	fs.IntVar(&o.prefetch, "prefetch", dataset.DefaultPrefetchNumber, "Batches built ahead of the trainer")
	fs.BoolVar(&o.shuffle, "shuffle", true, "Shuffle every epoch")
	fs.BoolVar(&o.dropLast, "droplast", false, "Drop the final short batch")
	fs.Uint64Var(&o.seed, "seed", 1, "Seed for initialization and shuffling")
	fs.Float64Var(&o.lr, "lr", 0.01, "Learning rate")
	fs.Float64Var(&o.momentum, "momentum", 0.9, "SGD momentum")
	fs.BoolVar(&o.adam, "adam", false, "Use Adam instead of SGD")
	fs.StringVar(&o.save, "save", "", "Write trained parameters to this file")
	fs.BoolVar(&o.verbose, "verbose", false, "Debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if o.csv == "" {
		fs.Usage()
		return errors.New("-csv is required")
	}

	flush, err := setupLogger(o.verbose)
	if err != nil {
		return err
	}
	defer flush()

	tensor.TrackLeaks(true)
	defer func() {
		for _, w := range tensor.CheckLeaks() {
			logging.Logger().Warn("leaked manager", zap.Stringer("warning", w))
		}
		tensor.TrackLeaks(false)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return train(ctx, o)
}

func train(ctx context.Context, o trainOptions) (err error) {
	log := logging.Named("train")

	all, err := dataset.LoadCSV(o.csv, dataset.CSVOptions{
		LabelColumn: o.labelCol,
		HasHeader:   o.header,
		MaxRows:     o.maxRows,
		Scale:       float32(o.scale),
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", o.csv, err)
	}
	trainSet, valSet, err := all.Split(float32(o.validation))
	if err != nil {
		return err
	}
	log.Info("dataset loaded",
		zap.String("file", o.csv),
		zap.Int("train", trainSet.Size()),
		zap.Int("validation", valSet.Size()),
		zap.Int("features", all.Width()))

	block := buildBlock(all.Width(), o.hidden)
	model := training.NewModel("regression", block, tensor.CPUDevice())
	defer func() { err = errors.Join(err, model.Close()) }()

	var opt optim.Optimizer = optim.NewSGD(optim.SGDConfig{LR: float32(o.lr), Momentum: float32(o.momentum)})
	if o.adam {
		opt = optim.NewAdam(optim.AdamConfig{LR: float32(o.lr)})
	}
	ctrl, err := optim.NewController(block.Parameters(), opt, nil)
	if err != nil {
		return err
	}

	m := training.NewMetrics()
	trainer, err := training.NewTrainer[[]float32, float32](model, nil, training.Config{
		Controller: ctrl,
		Metrics:    training.Tee(m, training.NewLogSink(logging.Named("metrics"))),
		Seed:       o.seed,
	})
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, trainer.Close()) }()

	loss := nn.NewMSELoss()
	for epoch := range o.epochs {
		start := time.Now()
		s, err := dataset.Sampling(o.batch, o.shuffle, o.dropLast, o.seed+uint64(epoch))
		if err != nil {
			return err
		}
		p, err := dataset.NewPipeline(ctx, trainer.Manager(), dataset.Dataset[[]float32, float32](trainSet), dataset.StackFloat32, dataset.Config{
			Sampler:        s,
			PrefetchNumber: o.prefetch,
		})
		if err != nil {
			return err
		}
		trainLoss, err := trainer.Fit(ctx, p, loss)
		if err != nil {
			return fmt.Errorf("epoch %d: %w", epoch+1, err)
		}
		stats := p.Stats()

		valLoss, err := evaluate(ctx, trainer, valSet, o.batch, loss)
		if err != nil {
			return fmt.Errorf("epoch %d validation: %w", epoch+1, err)
		}

		fmt.Printf("%s %s %s %s\n",
			dimStyle.Render(fmt.Sprintf("epoch %3d", epoch+1)),
			field("loss", fmt.Sprintf("%.5f", trainLoss)),
			field("val", fmt.Sprintf("%.5f", valLoss)),
			dimStyle.Render(time.Since(start).Round(time.Millisecond).String()))
		log.Debug("epoch done",
			zap.Int("epoch", epoch+1),
			zap.Int("batches", stats.Delivered),
			zap.Int("peakInFlight", stats.PeakInFlight))
	}

	if m.Has(training.MetricTrainBatch) {
		log.Info("batch timing",
			zap.Duration("mean", time.Duration(m.Mean(training.MetricTrainBatch))),
			zap.Duration("p90", time.Duration(m.Percentile(training.MetricTrainBatch, 90))))
	}

	if o.save != "" {
		if err := saveParameters(o.save, block); err != nil {
			return err
		}
		log.Info("parameters saved", zap.String("file", o.save))
	}
	return nil
}

func buildBlock(width, hidden int) *nn.Sequential {
	if hidden <= 0 {
		return nn.NewSequential(nn.NewLinear(width, 1))
	}
	return nn.NewSequential(
		nn.NewLinear(width, hidden),
		nn.NewPrelu(),
		nn.NewLinear(hidden, 1),
	)
}

// evaluate returns the mean loss over ds without updating parameters.
func evaluate(ctx context.Context, trainer *training.Trainer[[]float32, float32], ds *dataset.ArrayDataset, batchSize int, loss nn.Loss) (float32, error) {
	if ds.Size() == 0 {
		return 0, nil
	}
	s, err := dataset.Sampling(batchSize, false, false, 0)
	if err != nil {
		return 0, err
	}
	p, err := dataset.NewPipeline(ctx, trainer.Manager(), dataset.Dataset[[]float32, float32](ds), dataset.StackFloat32, dataset.Config{Sampler: s})
	if err != nil {
		return 0, err
	}
	defer p.Close()

	var (
		total   float64
		batches int
	)
	for batch, err := range p.All(ctx) {
		if err != nil {
			return 0, err
		}
		value, err := evalBatch(trainer, batch, loss)
		if err != nil {
			return 0, err
		}
		total += float64(value)
		batches++
	}
	if batches == 0 {
		return 0, nil
	}
	return float32(total / float64(batches)), nil
}

func evalBatch(trainer *training.Trainer[[]float32, float32], batch *dataset.Batch, loss nn.Loss) (float32, error) {
	defer batch.Close()
	out, err := trainer.Forward(batch.Data)
	if err != nil {
		return 0, err
	}
	value, _, err := loss.Evaluate(batch.Labels, out)
	return value, err
}

func saveParameters(path string, block *nn.Sequential) (err error) {
	f, err := os.Create(path) //nolint:gosec // G304: output path is a CLI argument
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, f.Close()) }()
	return block.SaveParameters(f)
}

