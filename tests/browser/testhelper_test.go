package browser_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	web "babis/internal/adapters/http"
	"babis/internal/app"
	"babis/internal/config"
	"babis/internal/domain/instructor"
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL string
	App     *app.App
	PW      *playwright.Playwright
	Browser playwright.Browser
}

// newTestApp opens a temp database, serves it on a free port and starts Playwright.
func newTestApp(t *testing.T) *testApp {
	t.Helper()

	web.RateLimitPerSecond = 1000

	cfg := config.Default()
	cfg.DBPath = filepath.Join(t.TempDir(), "test.db")
	cfg.LogLevel = "warn"
	a, err := app.Open(cfg)
	if err != nil {
		t.Fatalf("failed to open app: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	baseURL := fmt.Sprintf("http://%s", ln.Addr().String())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := a.ServeListener(ctx, ln); err != nil {
			t.Logf("test server error: %v", err)
		}
	}()

	// Wait for server to be ready
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/healthz")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		cancel()
		<-done
		a.Close()
	})

	return &testApp{BaseURL: baseURL, App: a, PW: pw, Browser: browser}
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// seedInstructor saves an instructor directly through the store.
func (a *testApp) seedInstructor(t *testing.T, id, name, phone string, active bool) {
	t.Helper()
	in := instructor.Instructor{
		ID:        id,
		Name:      name,
		Phone:     phone,
		Active:    active,
		CreatedAt: time.Now(),
	}
	if err := a.App.Stores.InstructorStore.Save(context.Background(), in); err != nil {
		t.Fatalf("failed to seed instructor: %v", err)
	}
}

// columnTexts returns the trimmed text of one body column, in row order.
func columnTexts(t *testing.T, page playwright.Page, col int) []string {
	t.Helper()
	texts, err := page.Locator(fmt.Sprintf(".roster-table tbody tr td:nth-child(%d)", col+2)).AllInnerTexts()
	if err != nil {
		t.Fatalf("failed to read column %d: %v", col, err)
	}
	return texts
}
