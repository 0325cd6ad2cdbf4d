package export

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DocumentConverter turns rendered HTML into a PDF document.
type DocumentConverter interface {
	Convert(ctx context.Context, html []byte) ([]byte, error)
}

// A4 paper size in inches for page.PrintToPDF.
const (
	a4WidthInches  = 8.27
	a4HeightInches = 11.69
)

// ChromeConverter prints HTML to PDF through headless Chrome.
type ChromeConverter struct {
	timeout time.Duration
}

// NewChromeConverter creates a converter with the given per-conversion
// timeout. A non-positive timeout defaults to 30 seconds.
func NewChromeConverter(timeout time.Duration) *ChromeConverter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromeConverter{timeout: timeout}
}

// Convert renders the HTML in a headless tab and prints it to an A4 PDF
// with backgrounds enabled.
func (c *ChromeConverter) Convert(ctx context.Context, html []byte) ([]byte, error) {
	tmp, err := os.CreateTemp("", "wssi-brief-*.html")
	if err != nil {
		return nil, fmt.Errorf("stage brief html: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(html); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("stage brief html: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("stage brief html: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	runCtx, runCancel := context.WithTimeout(tabCtx, c.timeout)
	defer runCancel()

	var pdf []byte
	err = chromedp.Run(runCtx,
		chromedp.Navigate("file://"+tmp.Name()),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4WidthInches).
				WithPaperHeight(a4HeightInches).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	return pdf, nil
}
