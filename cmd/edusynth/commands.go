package main

import (
	"context"
	"math"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/YuminosukeSato/edusynth/config"
	"github.com/YuminosukeSato/edusynth/core/model"
	"github.com/YuminosukeSato/edusynth/dataset"
	"github.com/YuminosukeSato/edusynth/generator"
	"github.com/YuminosukeSato/edusynth/pkg/errors"
	"github.com/YuminosukeSato/edusynth/pkg/log"
	"github.com/YuminosukeSato/edusynth/predictor"
	"github.com/YuminosukeSato/edusynth/report"
	"github.com/YuminosukeSato/edusynth/scenario"
	"github.com/YuminosukeSato/edusynth/server"
)

const defaultConfigPath = "configs/edusynth.yaml"

func newApp() *cli.App {
	return &cli.App{
		Name:  "edusynth",
		Usage: "scenario-based synthetic student data and exam-score prediction",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to the YAML configuration",
				Value:   defaultConfigPath,
				EnvVars: []string{"EDUSYNTH_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			generateCommand(),
			trainCommand(),
			predictCommand(),
			reportCommand(),
			serveCommand(),
		},
	}
}

// loadConfig reads the configuration and installs the logger it describes.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	lc := cfg.LogConfig()
	lc.Output = c.App.ErrWriter
	log.Setup(lc)
	log.GetLogger().Debug("configuration loaded", log.ConfigPathKey, path)
	return cfg, nil
}

// datasetPath is --data or the configured output file.
func datasetPath(c *cli.Context, cfg *config.Config) string {
	if p := c.String("data"); p != "" {
		return p
	}
	return filepath.Join(cfg.Output.Dir, cfg.Output.File)
}

var dataFlag = &cli.StringFlag{
	Name:  "data",
	Usage: "dataset CSV (defaults to output.dir/output.file)",
}

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "generate the synthetic dataset and its manifest",
		Flags: []cli.Flag{
			&cli.Uint64Flag{Name: "seed", Usage: "override the configured seed"},
			&cli.StringFlag{Name: "output-dir", Usage: "override output.dir"},
			&cli.BoolFlag{Name: "practice", Usage: "also write the email spam and sales forecast datasets"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("seed") {
				cfg.Seed = c.Uint64("seed")
			}
			if c.IsSet("output-dir") {
				cfg.Output.Dir = c.String("output-dir")
			}

			gc, err := cfg.GeneratorConfig()
			if err != nil {
				return err
			}
			ds, err := generator.Generate(gc)
			if err != nil {
				return err
			}
			path, err := dataset.Save(ds, cfg.Output.Dir, cfg.Output.File)
			if err != nil {
				return err
			}
			if c.Bool("practice") || cfg.Practice.Enabled {
				if _, err := generator.WritePractice(cfg.PracticeConfig(), cfg.Output.Dir); err != nil {
					return err
				}
			}

			// 保存したマニフェストをそのまま出力する
			var manifest dataset.Manifest
			if err := model.LoadJSON(dataset.ManifestPath(path), &manifest); err != nil {
				return err
			}
			return model.SaveJSONToWriter(c.App.Writer, manifest)
		},
	}
}

func trainCommand() *cli.Command {
	return &cli.Command{
		Name:  "train",
		Usage: "fit the feature pipeline and ridge model, then save the artifact",
		Flags: []cli.Flag{
			dataFlag,
			&cli.StringFlag{Name: "model", Usage: "artifact path (defaults to training.artifact_path)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			ds, err := dataset.Load(datasetPath(c, cfg))
			if err != nil {
				return err
			}

			tc := predictor.TrainConfig{
				TestRatio: cfg.Training.TestRatio,
				Alpha:     cfg.Training.Alpha,
				Scaler:    cfg.Features.Scaler,
				Seed:      cfg.Seed,
				ScoreMin:  cfg.ScoreRange.Min,
				ScoreMax:  cfg.ScoreRange.Max,
			}
			p, err := predictor.Train(ds, tc)
			if err != nil {
				return err
			}

			path := cfg.Training.ArtifactPath
			if c.IsSet("model") {
				path = c.String("model")
			}
			if err := p.Save(path); err != nil {
				return err
			}
			a := p.Artifact()
			return model.SaveJSONToWriter(c.App.Writer, map[string]any{
				"artifact":      path,
				"dataset_id":    a.DatasetID,
				"train_metrics": a.TrainMetrics,
				"test_metrics":  a.TestMetrics,
			})
		},
	}
}

// recordFlags name the raw record fields accepted by predict.
var recordFlags = []string{
	dataset.ColStudyHours,
	dataset.ColAttendance,
	dataset.ColPreviousGrade,
	dataset.ColSleepHours,
	dataset.ColFamilySupport,
	dataset.ColExtraActivities,
}

func predictCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{Name: "model", Usage: "artifact path (defaults to server.artifact_path)"},
		&cli.StringFlag{Name: "scenario", Usage: "scenario key or display name", Required: true},
	}
	for _, name := range recordFlags {
		flags = append(flags, &cli.Float64Flag{Name: name, Usage: "value of " + name + " (omit if missing)"})
	}

	return &cli.Command{
		Name:  "predict",
		Usage: "predict the exam score of one student",
		Flags: flags,
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			path := cfg.Server.ArtifactPath
			if c.IsSet("model") {
				path = c.String("model")
			}
			p, err := predictor.Load(path)
			if err != nil {
				return err
			}

			s, err := scenario.Parse(c.String("scenario"))
			if err != nil {
				return errors.NewSchemaError(0, dataset.ColScenario, "unknown scenario "+c.String("scenario"))
			}
			value := func(name string) float64 {
				if !c.IsSet(name) {
					return math.NaN()
				}
				return c.Float64(name)
			}
			record := dataset.StudentRecord{
				Scenario:        s,
				StudyHours:      value(dataset.ColStudyHours),
				Attendance:      value(dataset.ColAttendance),
				PreviousGrade:   value(dataset.ColPreviousGrade),
				SleepHours:      value(dataset.ColSleepHours),
				FamilySupport:   value(dataset.ColFamilySupport),
				ExtraActivities: value(dataset.ColExtraActivities),
				ExamScore:       math.NaN(),
			}

			pred, err := p.Predict(record)
			if err != nil {
				return err
			}
			return model.SaveJSONToWriter(c.App.Writer, pred)
		},
	}
}

func reportCommand() *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "write per-scenario statistics and charts",
		Flags: []cli.Flag{
			dataFlag,
			&cli.StringFlag{Name: "out", Usage: "report directory (defaults to report.dir)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			ds, err := dataset.Load(datasetPath(c, cfg))
			if err != nil {
				return err
			}
			dir := cfg.Report.Dir
			if c.IsSet("out") {
				dir = c.String("out")
			}
			files, err := report.Write(ds, dir)
			if err != nil {
				return err
			}
			return model.SaveJSONToWriter(c.App.Writer, files)
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve predictions over HTTP",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			p, err := predictor.Load(cfg.Server.ArtifactPath)
			if err != nil {
				return err
			}
			log.GetLogger().Info("starting server",
				"http.port", cfg.Server.Port,
				log.PathKey, cfg.Server.ArtifactPath,
				log.DatasetIDKey, p.Artifact().DatasetID,
			)
			srv := server.New(server.Config{
				Port:            cfg.Server.Port,
				Mode:            cfg.Server.Mode,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
			}, p)

			ctx := c.Context
			if ctx == nil {
				ctx = context.Background()
			}
			return srv.Run(ctx)
		},
	}
}
