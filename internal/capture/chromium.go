// Package capture renders the HTML month view to a PNG with headless Chromium.
package capture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	appLog "crmcal/internal/log"
)

// Viewport fits a seven-column month grid with a few events per day.
const (
	DefaultWidth   = 1280
	DefaultHeight  = 960
	DefaultTimeout = 30 * time.Second
	ReadySelector  = `[data-ready="true"]`
)

// Options describes a single month snapshot.
type Options struct {
	// BaseURL is the server root, e.g. "http://127.0.0.1:8080".
	BaseURL string

	// Month, when set, is passed as ?month=YYYY-MM.
	Month time.Time

	OutputPath string
	Width      int
	Height     int
	Timeout    time.Duration
}

// PageURL returns the /calendar URL the snapshot navigates to.
func (o Options) PageURL() (string, error) {
	if o.BaseURL == "" {
		return "", errors.New("capture: base URL is required")
	}
	u, err := url.Parse(o.BaseURL)
	if err != nil {
		return "", fmt.Errorf("capture: parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("capture: unsupported scheme %q", u.Scheme)
	}
	u = u.JoinPath("calendar")
	if !o.Month.IsZero() {
		q := u.Query()
		q.Set("month", o.Month.Format("2006-01"))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

// MonthPNG navigates to the month page, waits for the ready marker and
// writes a full-page screenshot to opts.OutputPath.
func MonthPNG(parent context.Context, opts Options) error {
	if opts.OutputPath == "" {
		return errors.New("capture: output path is required")
	}
	target, err := opts.PageURL()
	if err != nil {
		return err
	}
	opts = opts.withDefaults()

	ctx, cancel := chromedp.NewContext(parent)
	defer cancel()
	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	start := time.Now()
	err = chromedp.Run(ctx,
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(target),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
		chromedp.FullScreenshot(&png, 100),
	)
	if err != nil {
		return fmt.Errorf("capture: chromedp run: %w", err)
	}

	if dir := filepath.Dir(opts.OutputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("capture: create output dir: %w", err)
		}
	}
	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: write PNG: %w", err)
	}

	appLog.Info("capture: month snapshot written",
		"url", target, "path", opts.OutputPath, "bytes", len(png), "elapsed", time.Since(start).String())
	return nil
}
