package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/corpdesk/employee-portal/internal/bootstrap"
	"github.com/corpdesk/employee-portal/internal/export"
	"github.com/corpdesk/employee-portal/internal/sftpclient"
)

var (
	exportOutput   string
	exportCompress bool
	exportUpload   bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the employee roster as CSV",
	Long: `Lists every employee record and writes it as CSV to a file or stdout.
With --compress the output is brotli-compressed; with --upload it is sent to the
configured SFTP server instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withContainer(cmd.Context(), func(c *bootstrap.Container) error {
			employees, err := c.Identity.ListAllEmployees(cmd.Context())
			if err != nil {
				return err
			}

			opts := export.Options{Compress: exportCompress}
			var buf bytes.Buffer
			if err := export.WriteRoster(&buf, employees, opts); err != nil {
				return fmt.Errorf("encode roster: %w", err)
			}

			if exportUpload {
				name := export.FileName(time.Now(), opts)
				remotePath, err := sftpclient.Upload(cmd.Context(), sftpclient.FromExportConfig(cfg.Export), &buf, name)
				if err != nil {
					return err
				}
				logger.Info("roster uploaded", zap.String("path", remotePath), zap.Int("employees", len(employees)))
				return nil
			}

			var out io.Writer = cmd.OutOrStdout()
			if exportOutput != "" && exportOutput != "-" {
				f, err := os.Create(exportOutput)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			if _, err := buf.WriteTo(out); err != nil {
				return err
			}
			logger.Info("roster exported", zap.Int("employees", len(employees)))
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "-", "output file, - for stdout")
	exportCmd.Flags().BoolVar(&exportCompress, "compress", false, "brotli-compress the CSV")
	exportCmd.Flags().BoolVar(&exportUpload, "upload", false, "upload to the configured SFTP server")
	rootCmd.AddCommand(exportCmd)
}
