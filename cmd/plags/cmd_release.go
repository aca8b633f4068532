package main

import (
	"github.com/spf13/cobra"

	"plags/internal/config"
	"plags/internal/generate"
)

var (
	releaseSources      []string
	releaseDeadline     string
	releaseRenewVersion string
	releaseCompress     bool
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Release master notebooks as-is, without autograding fields",
	Long: `Re-publishes the given master notebooks without field segmentation:
refreshes master metadata (title from the first markdown heading, version,
deadlines) and writes a paired form_<key>.ipynb submission form per master.
With --compress-masters the released masters are archived into
` + generate.MastersArchive + `.zip.`,
	RunE: runRelease,
}

func init() {
	releaseCmd.Flags().StringSliceVarP(&releaseSources, "source", "s", nil, "source ipynb files (required)")
	releaseCmd.Flags().StringVarP(&releaseDeadline, "deadline", "d", "", "JSON file of deadline settings")
	releaseCmd.Flags().StringVarP(&releaseRenewVersion, "renew-version", "n", "", "renew every exercise version (default: content hash)")
	releaseCmd.Flags().Lookup("renew-version").NoOptDefVal = renewHashSentinel
	releaseCmd.Flags().BoolVarP(&releaseCompress, "compress-masters", "z", false, "create a zip archive of released masters")
	_ = releaseCmd.MarkFlagRequired("source")
}

func runRelease(cmd *cobra.Command, args []string) error {
	var deadlines map[string]any
	var err error
	if releaseDeadline != "" {
		if deadlines, err = config.LoadDeadlines(releaseDeadline); err != nil {
			return err
		}
	}
	renewal := generate.VersionRenewal{}
	if releaseRenewVersion != "" {
		renewal.Renew = true
		if releaseRenewVersion != renewHashSentinel {
			renewal.Literal = releaseRenewVersion
		}
	}
	return generate.ReleaseAsIs(releaseSources, deadlines, renewal, releaseCompress, logger)
}
