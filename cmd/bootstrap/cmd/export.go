package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoCodeAlone/bootstrap/enumerate"
	"github.com/GoCodeAlone/bootstrap/registry"
)

var errExportTarget = errors.New("exactly one of --out or --zip is required")

func newExportCommand(catalog *registry.Catalog) *cobra.Command {
	var (
		outDir    string
		zipFile   string
		resources map[string]string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write unit descriptors for every registered unit",
		Long: `Write a unit descriptor for every registered unit, either as a directory
tree (--out) or as a single zip archive (--zip). The result can be used as
the search path of a later run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (outDir == "") == (zipFile == "") {
				return errExportTarget
			}
			units := catalog.Units()
			if outDir != "" {
				n, err := enumerate.ExportDir(outDir, units)
				if err != nil {
					return fmt.Errorf("export failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d unit descriptors to %s\n", n, outDir)
				return nil
			}
			if err := enumerate.ExportArchive(zipFile, units, resources); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d unit descriptors to %s\n", len(units), zipFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "", "directory to write descriptors into")
	cmd.Flags().StringVar(&zipFile, "zip", "", "zip archive to create")
	cmd.Flags().StringToStringVar(&resources, "resource", nil, "extra archive entries as entry=localfile, e.g. resources/application.properties=app.properties")
	return cmd
}
