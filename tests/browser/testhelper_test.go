package browser_test

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"

	"outreach/internal/adapters/email"
	web "outreach/internal/adapters/http"
	"outreach/internal/adapters/storage"
	attendeeStore "outreach/internal/adapters/storage/attendee"
	eventStore "outreach/internal/adapters/storage/event"
	leadStore "outreach/internal/adapters/storage/lead"
	permissionStore "outreach/internal/adapters/storage/permission"
	profileStore "outreach/internal/adapters/storage/profile"
	"outreach/internal/application/orchestrators"
	"outreach/internal/domain/permission"
)

const (
	adminEmail    = "admin@test.com"
	adminPassword = "TestPass123!long"
)

// testApp holds the running test server and Playwright handles.
type testApp struct {
	BaseURL string
	Server  *http.Server
	PW      *playwright.Playwright
	Browser playwright.Browser
	Stores  *web.Stores
	Mail    *email.Recorder
	AdminID string
}

// newTestApp creates a fully wired app with a temp SQLite DB and starts an HTTP server.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	raw, dialect, err := storage.Open(ctx, "sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open test DB: %v", err)
	}
	db := storage.New(raw, dialect)
	if err := storage.MigrateDB(ctx, db); err != nil {
		t.Fatalf("failed to migrate test DB: %v", err)
	}

	stores := &web.Stores{
		ProfileStore:    profileStore.NewSQLStore(db),
		PermissionStore: permissionStore.NewSQLStore(db),
		EventStore:      eventStore.NewSQLStore(db),
		AttendeeStore:   attendeeStore.NewSQLStore(db),
		LeadStore:       leadStore.NewSQLStore(db),
	}

	admin, err := orchestrators.ExecuteCreateProfile(ctx, orchestrators.CreateProfileInput{
		Email:    adminEmail,
		FullName: "Test Admin",
		Password: adminPassword,
		Level:    permission.SuperAdmin,
	}, orchestrators.CreateProfileDeps{Profiles: stores.ProfileStore, Permissions: stores.PermissionStore})
	if err != nil {
		t.Fatalf("failed to create admin: %v", err)
	}

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()

	mail := &email.Recorder{}
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)
	mux := web.NewMux(ctx, stores, web.Options{
		BaseURL:        baseURL,
		Location:       time.UTC,
		CSRFKey:        []byte("0123456789abcdef0123456789abcdef"),
		TrustedOrigins: []string{fmt.Sprintf("127.0.0.1:%d", port), fmt.Sprintf("localhost:%d", port)},
		Mailer:         mail,
	})
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("test server error: %v", err)
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

	// Start Playwright
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

	app := &testApp{
		BaseURL: baseURL,
		Server:  srv,
		PW:      pw,
		Browser: browser,
		Stores:  stores,
		Mail:    mail,
		AdminID: admin.ID,
	}

	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
		srv.Close()
		raw.Close()
	})

	return app
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

// login navigates to the login page and logs in as admin.
func (a *testApp) login(t *testing.T, page playwright.Page) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	if err := page.Locator("input[name=email]").Fill(adminEmail); err != nil {
		t.Fatalf("failed to fill email: %v", err)
	}
	if err := page.Locator("input[name=password]").Fill(adminPassword); err != nil {
		t.Fatalf("failed to fill password: %v", err)
	}
	if err := page.Locator("main button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to click login: %v", err)
	}
	if err := page.WaitForURL(a.BaseURL+"/admin", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("login did not redirect to dashboard: %v", err)
	}
}
