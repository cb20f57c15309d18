package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vulnverified/nexus/internal/config"
	"github.com/vulnverified/nexus/internal/engine"
	"github.com/vulnverified/nexus/internal/output"
	"github.com/vulnverified/nexus/internal/render"
	"github.com/vulnverified/nexus/internal/server"
)

func newDiscoverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "discover <domain>",
		Short: "Discover subdomains from crt.sh, then HackerTarget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := engine.ParseTarget(args[0])
			if err != nil {
				return err
			}
			disc := buildStages(a.cfg, a.log).Discoverer.Discover(cmd.Context(), t.Host)

			if a.jsonOutput {
				return output.WriteJSON(os.Stdout, disc)
			}
			for _, attempt := range disc.Attempts {
				if attempt.Failed() {
					fmt.Fprintf(os.Stderr, "! %s: %s\n", attempt.Source, attempt.Err)
				}
			}
			output.WriteList(os.Stdout, fmt.Sprintf("Subdomains of %s", t.Host), disc.Hosts, "No subdomains found or all sources failed.", a.noColor)
			return nil
		},
	}
}

func newPortsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ports <host>",
		Short: "Probe the common-port catalog in priority order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := engine.ParseTarget(args[0])
			if err != nil {
				return err
			}
			results := buildStages(a.cfg, a.log).Scanner.Scan(cmd.Context(), t.Host)

			if a.jsonOutput {
				return output.WriteJSON(os.Stdout, map[string]any{"target": t.Host, "scan_results": results})
			}
			output.WritePorts(os.Stdout, results, a.noColor)
			return nil
		},
	}
}

func newTechCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tech <target>",
		Short: "Fingerprint the web technologies of a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, labels, err := engine.DetectTech(cmd.Context(), args[0], buildStages(a.cfg, a.log))
			if err != nil {
				return err
			}

			if a.jsonOutput {
				return output.WriteJSON(os.Stdout, map[string]any{"target": t.Host, "technologies": labels})
			}
			output.WriteList(os.Stdout, fmt.Sprintf("Technologies on %s", t.URL), labels, engine.UnknownStack, a.noColor)
			return nil
		},
	}
}

func newRiskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "risk <target>",
		Short: "Score missing security headers and exposed critical ports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, assessment, err := engine.AssessTarget(cmd.Context(), args[0], buildStages(a.cfg, a.log))
			var fetchErr *engine.FetchError
			if err != nil && !errors.As(err, &fetchErr) {
				return err
			}

			if a.jsonOutput {
				body := map[string]any{"target": t.Host, "risk": assessment}
				if fetchErr != nil {
					body["fetch_error"] = fetchErr.Error()
				}
				return output.WriteJSON(os.Stdout, body)
			}
			if fetchErr != nil {
				fmt.Fprintf(os.Stderr, "! %s\n", fetchErr)
			}
			fmt.Fprintf(os.Stdout, "Target: %s\n", t.Host)
			output.WriteRisk(os.Stdout, assessment, a.noColor)
			return nil
		},
	}
}

func newReportCmd(a *app) *cobra.Command {
	var pdfPath string

	cmd := &cobra.Command{
		Use:   "report <target>",
		Short: "Run every stage and print the combined report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			showProgress := !a.jsonOutput
			progress := output.NewProgress(os.Stderr, a.verbose, !showProgress, a.noColor)
			if showProgress {
				output.WriteHeader(os.Stderr, a.noColor)
			}

			report, err := engine.Build(cmd.Context(), args[0], buildStages(a.cfg, a.log), progress)
			if err != nil {
				return err
			}
			progress.Complete()

			if pdfPath != "" {
				if err := writePDF(pdfPath, report); err != nil {
					return err
				}
				a.log.WithField("path", pdfPath).Info("PDF report written")
			}

			if a.jsonOutput {
				return output.WriteJSON(os.Stdout, report)
			}
			output.WriteReport(os.Stdout, report, a.noColor)
			return nil
		},
	}

	cmd.Flags().StringVar(&pdfPath, "pdf", "", "Also write the report as a PDF to this file")
	return cmd
}

func writePDF(path string, report *engine.ScanReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := render.PDF(f, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newServeCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the recon operations over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := a.cfg.Server.Listen
			if listen != "" {
				addr = listen
			}
			srv := server.New(buildStages(a.cfg, a.log), a.log, server.WithVersion(version))
			return srv.Run(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default: server.listen from config)")
	return cmd
}

func newInitCmd() *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default nexus.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "nexus.yaml", "Destination file")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
