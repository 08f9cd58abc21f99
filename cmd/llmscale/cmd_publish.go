package main

import (
	"fmt"

	"github.com/spboyer/llmscale/internal/publish"
	"github.com/spf13/cobra"
)

// newUploader is replaced in tests.
var newUploader = func(accountURL, container string) (publish.Uploader, error) {
	return publish.NewBlobUploader(accountURL, container, nil)
}

func newPublishCommand() *cobra.Command {
	var (
		accountURL string
		container  string
		prefix     string
		compress   bool
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload processed results to Azure Blob Storage",
		Long: `Uploads every YAML, markdown, HTML and JSON file under the processed
directory to a blob container, keeping relative paths under the configured
prefix. Authentication uses the default Azure credential chain.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("account-url") {
				accountURL = cfg.Publish.AccountURL
			}
			if !cmd.Flags().Changed("container") {
				container = cfg.Publish.Container
			}
			if !cmd.Flags().Changed("prefix") {
				prefix = cfg.Publish.Prefix
			}
			if !cmd.Flags().Changed("compress") && cfg.Publish.Compress != nil {
				compress = *cfg.Publish.Compress
			}

			files, err := publish.CollectOutputs(cfg.Paths.Processed)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("nothing to publish in %s", cfg.Paths.Processed)
			}

			uploader, err := newUploader(accountURL, container)
			if err != nil {
				return err
			}
			p := publish.New(uploader, publish.Options{Prefix: prefix, Compress: compress})
			names, err := p.Publish(cmd.Context(), cfg.Paths.Processed, files)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, n := range names {
				fmt.Fprintf(out, "  ↑ %s\n", n) //nolint:errcheck
			}
			fmt.Fprintf(out, "Published %d file(s) to %s\n", len(names), container) //nolint:errcheck
			return nil
		},
	}

	cmd.Flags().StringVar(&accountURL, "account-url", "", "Storage account URL, e.g. https://<account>.blob.core.windows.net")
	cmd.Flags().StringVar(&container, "container", "", "Blob container name")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Blob name prefix")
	cmd.Flags().BoolVar(&compress, "compress", false, "zstd-compress each file")

	return cmd
}
