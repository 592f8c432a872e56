package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/couchcryptid/kerala-crop-advisor/internal/adapter/objectstore"
	"github.com/couchcryptid/kerala-crop-advisor/internal/domain"
	"github.com/couchcryptid/kerala-crop-advisor/internal/model"
	"github.com/couchcryptid/kerala-crop-advisor/internal/observability"
	"github.com/couchcryptid/kerala-crop-advisor/internal/recommend"
	"github.com/couchcryptid/kerala-crop-advisor/internal/reference"
	"github.com/urfave/cli/v3"
)

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:   "cropctl",
		Usage:  "Kerala crop advisor tooling",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error)",
				Value: "warn",
			},
			&cli.StringFlag{
				Name:    "s3-endpoint",
				Usage:   "S3-compatible endpoint for s3:// locations",
				Sources: cli.EnvVars("S3_ENDPOINT"),
			},
			&cli.StringFlag{
				Name:    "s3-access-key",
				Usage:   "S3 access key",
				Sources: cli.EnvVars("S3_ACCESS_KEY"),
			},
			&cli.StringFlag{
				Name:    "s3-secret-key",
				Usage:   "S3 secret key",
				Sources: cli.EnvVars("S3_SECRET_KEY"),
			},
			&cli.BoolFlag{
				Name:    "s3-secure",
				Usage:   "use TLS for the S3 endpoint",
				Sources: cli.EnvVars("S3_SECURE"),
			},
		},
		Commands: []*cli.Command{
			scoresCmd(),
			predictCmd(),
		},
	}
}

func scoresCmd() *cli.Command {
	return &cli.Command{
		Name:  "scores",
		Usage: "Print per-district average scores computed from a historical dataset",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dataset",
				Usage: "path or s3:// URL of the dataset CSV",
				Value: "data/dftrain.csv",
			},
			&cli.StringFlag{
				Name:  "scale",
				Usage: "unit of the score column (fraction or percent)",
				Value: string(reference.ScaleFraction),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			scale, err := reference.ParseScale(cmd.String("scale"))
			if err != nil {
				return err
			}
			opener, err := newOpener(cmd)
			if err != nil {
				return err
			}

			location := cmd.String("dataset")
			rc, err := opener.Open(ctx, location)
			if err != nil {
				return err
			}
			defer rc.Close()

			store, err := reference.LoadDataset(rc, scale)
			if err != nil {
				return fmt.Errorf("load dataset %s: %w", location, err)
			}

			return writeJSON(cmd.Root().Writer, scoresOutput{
				Dataset: location,
				Scale:   scale,
				Scores:  store.Scores(),
			})
		},
	}
}

func predictCmd() *cli.Command {
	return &cli.Command{
		Name:  "predict",
		Usage: "Run one recommendation in-process and print the result",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "district",
				Usage: "Kerala district name",
				Value: string(domain.DefaultDistrict),
			},
			&cli.FloatFlag{
				Name:  "rainfall",
				Usage: "annual rainfall in mm",
				Value: domain.DefaultRainfall,
			},
			&cli.FloatFlag{
				Name:  "temperature",
				Usage: "average temperature in °C",
				Value: domain.DefaultTemperature,
			},
			&cli.FloatFlag{
				Name:  "year",
				Usage: "crop year",
				Value: domain.DefaultYear,
			},
			&cli.StringFlag{
				Name:  "model",
				Usage: "path or s3:// URL of a forest model artifact; empty runs without a model",
			},
			&cli.Uint64Flag{
				Name:  "seed",
				Usage: "seed for deterministic confidence jitter",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger := observability.NewStderrLogger(cmd.Root().String("log-level"), "text")
			store := reference.NewStatic()

			var classifier domain.Classifier
			if path := cmd.String("model"); path != "" {
				opener, err := newOpener(cmd)
				if err != nil {
					return err
				}
				m, err := model.LoadForest(ctx, opener, path, store.FeatureColumns())
				if err != nil {
					return err
				}
				classifier = m
			}

			var opts []recommend.Option
			if cmd.IsSet("seed") {
				opts = append(opts, recommend.WithNoise(recommend.NewSeededNoise(cmd.Uint64("seed"))))
			}
			r := recommend.New(store, classifier, logger, observability.NewMetricsForTesting(), opts...)

			req := domain.PredictionRequest{
				District:    cmd.String("district"),
				Rainfall:    cmd.Float("rainfall"),
				Temperature: cmd.Float("temperature"),
				Year:        cmd.Float("year"),
			}
			rec, err := r.Predict(ctx, req)
			if err != nil {
				return err
			}
			return writeJSON(cmd.Root().Writer, rec)
		},
	}
}

type scoresOutput struct {
	Dataset string             `json:"dataset"`
	Scale   reference.Scale    `json:"scale"`
	Scores  map[string]float64 `json:"scores"`
}

func newOpener(cmd *cli.Command) (*objectstore.Opener, error) {
	root := cmd.Root()
	return objectstore.New(objectstore.Config{
		Endpoint:  root.String("s3-endpoint"),
		AccessKey: root.String("s3-access-key"),
		SecretKey: root.String("s3-secret-key"),
		Secure:    root.Bool("s3-secure"),
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
