package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/star/eopgo/internal/eop"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "eopctl",
		Short:         "Inspect and download IERS Earth orientation data products",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newDownloadCmd())
	root.AddCommand(newQueryCmd())
	root.AddCommand(newStatusCmd())

	return root
}

func newDownloadCmd() *cobra.Command {
	var (
		out         string
		c04URL      string
		standardURL string
	)

	cmd := &cobra.Command{
		Use:   "download {c04|standard}",
		Short: "Download the latest EOP product from the IERS data center",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
			fetcher := eop.NewFetcher(c04URL, standardURL, logger)

			switch args[0] {
			case "c04":
				return fetcher.DownloadC04(cmd.Context(), out)
			case "standard":
				return fetcher.DownloadStandard(cmd.Context(), out)
			}
			return fmt.Errorf("unknown product %q (want c04 or standard)", args[0])
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file path")
	cmd.Flags().StringVar(&c04URL, "c04-url", "", "override the C04 product URL")
	cmd.Flags().StringVar(&standardURL, "standard-url", "", "override the finals2000A product URL")
	cmd.MarkFlagRequired("out")

	return cmd
}

func newQueryCmd() *cobra.Command {
	var (
		mjd         float64
		file        string
		source      string
		extrapolate string
		interpolate bool
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query Earth orientation parameters at an epoch",
		Long: `Query Earth orientation parameters at a Modified Julian Date.

Reads the product given by --file, or the data packaged with the library
when --file is omitted. Prints the full parameter set as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := loadProvider(file, source, extrapolate, interpolate)
			if err != nil {
				return err
			}

			params, err := provider.EOP(mjd)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				MJD float64 `json:"mjd"`
				eop.Parameters
			}{MJD: mjd, Parameters: params})
		},
	}

	cmd.Flags().Float64Var(&mjd, "mjd", 0, "epoch as a Modified Julian Date")
	cmd.Flags().StringVarP(&file, "file", "f", "", "EOP product file (default: packaged data)")
	cmd.Flags().StringVar(&source, "source", "standard-a", "product format: c04, standard-a or standard-b")
	cmd.Flags().StringVar(&extrapolate, "extrapolate", "hold", "out-of-range policy: zero, hold or error")
	cmd.Flags().BoolVar(&interpolate, "interpolate", true, "interpolate between tabulated epochs")
	cmd.MarkFlagRequired("mjd")

	return cmd
}

func newStatusCmd() *cobra.Command {
	var (
		file   string
		source string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the coverage of an EOP product file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, err := loadProvider(file, source, "hold", true)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Source:        %s\n", provider.Source())
			fmt.Fprintf(w, "Records:       %d\n", provider.Len())
			fmt.Fprintf(w, "MJD range:     %.2f - %.2f\n", provider.MJDMin(), provider.MJDMax())
			fmt.Fprintf(w, "Last LOD MJD:  %s\n", formatHorizon(provider.LastLODMJD()))
			fmt.Fprintf(w, "Last dX/dY MJD: %s\n", formatHorizon(provider.LastCelestialMJD()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "EOP product file (default: packaged data)")
	cmd.Flags().StringVar(&source, "source", "standard-a", "product format: c04, standard-a or standard-b")

	return cmd
}

func formatHorizon(mjd float64) string {
	if mjd == 0 {
		return "none"
	}
	return fmt.Sprintf("%.2f", mjd)
}

func loadProvider(file, source, extrapolate string, interpolate bool) (*eop.Provider, error) {
	policy, err := eop.ParseExtrapolation(extrapolate)
	if err != nil {
		return nil, err
	}
	opts := eop.LoadOptions{Extrapolate: policy, Interpolate: interpolate}

	provider := eop.NewProvider(nil)

	var r io.ReadCloser
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	switch source {
	case "c04":
		if r == nil {
			err = provider.LoadDefaultC04(opts)
		} else {
			err = provider.LoadC04(r, opts)
		}
	case "standard-a", "standard-b":
		bulletin := eop.SourceStandardBulletinA
		if source == "standard-b" {
			bulletin = eop.SourceStandardBulletinB
		}
		if r == nil {
			err = provider.LoadDefaultStandard(bulletin, opts)
		} else {
			err = provider.LoadStandard(r, bulletin, opts)
		}
	default:
		return nil, fmt.Errorf("unknown source %q (want c04, standard-a or standard-b)", source)
	}
	if err != nil {
		return nil, err
	}

	return provider, nil
}
