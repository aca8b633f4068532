package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"plags/internal/config"
	"plags/internal/generate"
	"plags/internal/judge"
	"plags/internal/source"
)

// configFile is the optional workspace defaults file.
const configFile = "plags.yaml"

var (
	buildSources      []string
	buildDeadline     string
	buildJudgeParams  string
	buildRenewVersion string
	buildFilledForm   string
)

// renewHashSentinel marks --renew-version given without a value: the new
// version is the content hash of each exercise, not a literal string.
const renewHashSentinel = "\x00hash"

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build forms, answer keys and the autograder configuration from masters",
	Long: `Loads every master from the given sources, re-publishes the masters
(cleanup pass), and writes the derived artifacts.

Sources are files or directories. A directory is a bundle: every
<dirname>-*.ipynb or <dirname>_*.ipynb master inside it is combined into
one course-unit answer key and form, prepended with intro.ipynb when
present. File sources produce per-exercise ans_<key>.ipynb and
form_<key>.ipynb next to the master.

With --configuration, the autograder configuration tree is built and
archived; with --filled-form, an all-filled instructor form is written.`,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringSliceVarP(&buildSources, "source", "s", nil, "source ipynb files and/or bundle directories (required)")
	buildCmd.Flags().StringVarP(&buildDeadline, "deadline", "d", "", "JSON file of deadline settings applied to every exercise")
	buildCmd.Flags().StringVarP(&buildJudgeParams, "configuration", "c", "", "judge parameter JSON file; triggers configuration generation")
	buildCmd.Flags().StringVarP(&buildRenewVersion, "renew-version", "n", "", "renew every exercise version (default: content hash)")
	buildCmd.Flags().Lookup("renew-version").NoOptDefVal = renewHashSentinel
	buildCmd.Flags().StringVar(&buildFilledForm, "filled-form", "", "write an all-filled form to the given path")
	buildCmd.Flags().Lookup("filled-form").NoOptDefVal = config.DefaultFilledForm
	_ = buildCmd.MarkFlagRequired("source")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if buildDeadline == "" {
		buildDeadline = cfg.DeadlineFile
	}
	if buildJudgeParams == "" {
		buildJudgeParams = cfg.JudgeParameterFile
	}
	if buildFilledForm == config.DefaultFilledForm {
		buildFilledForm = cfg.FilledForm
	}

	loaded, err := source.Load(buildSources, logger)
	if err != nil {
		return err
	}
	exercises := loaded.All()

	var deadlines map[string]any
	if buildDeadline != "" {
		if deadlines, err = config.LoadDeadlines(buildDeadline); err != nil {
			return err
		}
	}
	renewal := generate.VersionRenewal{}
	if buildRenewVersion != "" {
		renewal.Renew = true
		if buildRenewVersion != renewHashSentinel {
			renewal.Literal = buildRenewVersion
		}
	}

	logger.Info("cleaning up exercise masters", zap.Int("count", len(exercises)))
	if err := generate.CleanupMasters(exercises, deadlines, renewal, logger); err != nil {
		return err
	}

	logger.Info("creating bundled forms")
	if err := generate.WriteBundledForms(loaded.Bundles, logger); err != nil {
		return err
	}
	logger.Info("creating separate forms")
	if err := generate.WriteSingleForms(loaded.Separates, logger); err != nil {
		return err
	}

	if buildJudgeParams != "" {
		params, err := judge.LoadParameters(buildJudgeParams)
		if err != nil {
			return err
		}
		logger.Info("creating configuration", zap.String("parameters", buildJudgeParams))
		if err := generate.WriteConfiguration(exercises, params, generate.ConfDir, logger); err != nil {
			return err
		}
	}

	if buildFilledForm != "" {
		logger.Info("creating filled form", zap.String("path", buildFilledForm))
		if err := generate.WriteFilledForm(exercises, buildFilledForm); err != nil {
			return err
		}
	}
	return nil
}
