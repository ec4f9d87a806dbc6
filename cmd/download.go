package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wearlab/sensorsync/pkg/blob"
)

var (
	downloadOutput  string
	downloadSubject string
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download the parsed tree to a local directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("sync"); err != nil {
			return err
		}
		bs, err := initBlob(ctx)
		if err != nil {
			return err
		}
		defer bs.Close()

		count, err := downloadParsed(ctx, bs, cfg.Sync.ParsedPrefix, downloadSubject, downloadOutput)
		if err != nil {
			return err
		}
		if count == 0 {
			fmt.Fprintln(os.Stderr, "No files found.")
			return nil
		}

		zap.L().Info("download complete",
			zap.Int("files", count),
			zap.String("output", downloadOutput))
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "./downloads", "local directory to download into")
	downloadCmd.Flags().StringVar(&downloadSubject, "subject", "", "only download files of this subject")
	rootCmd.AddCommand(downloadCmd)
}

// downloadParsed copies every object under the parsed prefix (narrowed to one
// subject when given) into outDir, keeping the full object name as the local
// relative path. Returns the number of files written.
func downloadParsed(ctx context.Context, bs blob.Store, prefix, subject, outDir string) (int, error) {
	if subject != "" {
		prefix = prefix + subject + "/"
	}

	names, err := bs.List(ctx, prefix)
	if err != nil {
		return 0, eris.Wrap(err, "list parsed artifacts")
	}
	names = blob.FilterNames(names)

	count := 0
	for _, name := range names {
		content, err := bs.Download(ctx, name)
		if err != nil {
			return count, eris.Wrapf(err, "download %s", name)
		}

		local := filepath.Join(outDir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
			return count, eris.Wrapf(err, "create directory for %s", name)
		}
		if err := os.WriteFile(local, content, 0o644); err != nil {
			return count, eris.Wrapf(err, "write %s", local)
		}

		zap.L().Debug("downloaded", zap.String("name", name))
		count++
	}
	return count, nil
}
