package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"crmcal/internal/capture"
	appLog "crmcal/internal/log"
	"crmcal/internal/web"
)

var (
	snapshotURL   string
	snapshotMonth string
	snapshotOut   string
	snapshotWidth int
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture the month page to PNG with headless Chromium",
	Long: `Captures /calendar as a PNG. Without --url an in-process server is
started on a loopback port and captured instead.`,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotURL, "url", "", "Base URL of a running crmcal server")
	snapshotCmd.Flags().StringVarP(&snapshotMonth, "month", "m", "", "Month as YYYY-MM (default: current month)")
	snapshotCmd.Flags().StringVarP(&snapshotOut, "out", "o", "calendar.png", "Output PNG path")
	snapshotCmd.Flags().IntVar(&snapshotWidth, "width", capture.DefaultWidth, "Viewport width in pixels")
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	opts := capture.Options{
		BaseURL:    snapshotURL,
		OutputPath: snapshotOut,
		Width:      snapshotWidth,
	}
	if snapshotMonth != "" {
		t, err := time.Parse("2006-01", snapshotMonth)
		if err != nil {
			return fmt.Errorf("snapshot: --month must be YYYY-MM: %w", err)
		}
		opts.Month = t
	}

	if opts.BaseURL == "" {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("snapshot: listen: %w", err)
		}
		srv := &http.Server{
			Handler:           web.NewServer(conf, newEngine(cmd.Context(), conf, time.Now())).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLog.Error("snapshot: in-process server failed", err)
			}
		}()
		defer srv.Close()
		opts.BaseURL = "http://" + ln.Addr().String()
	}

	if err := capture.MonthPNG(cmd.Context(), opts); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), opts.OutputPath)
	return nil
}
