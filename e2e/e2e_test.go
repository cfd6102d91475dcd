package e2e

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"

	"vcdemo/e2e/steps/common"
	"vcdemo/e2e/steps/credential"
	"vcdemo/internal/app"
	"vcdemo/internal/platform/config"
)

var opts = godog.Options{
	Output: colors.Colored(os.Stdout),
	Format: "pretty",
	Paths:  []string{"features"},
}

func init() {
	godog.BindCommandLineFlags("godog.", &opts)
}

// TestFeatures runs the features against BASE_URL when set, otherwise
// against an in-process server on the memory backend.
func TestFeatures(t *testing.T) {
	flag.Parse()
	opts.TestingT = t

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = startInProcessServer(t)
	}

	suite := godog.TestSuite{
		ScenarioInitializer: func(sc *godog.ScenarioContext) {
			InitializeScenario(sc, baseURL)
		},
		Options: &opts,
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func startInProcessServer(t *testing.T) string {
	t.Helper()
	cfg := config.Server{
		Environment:    "test",
		StoreBackend:   config.BackendMemory,
		RequestTimeout: 10 * time.Second,
	}
	a, err := app.New(context.Background(), cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("start app: %v", err)
	}
	srv := httptest.NewServer(a.Router(nil))
	t.Cleanup(func() {
		srv.Close()
		_ = a.Close()
	})
	return srv.URL
}

func InitializeScenario(sc *godog.ScenarioContext, baseURL string) {
	tc := NewTestContext(baseURL)

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		*tc = *NewTestContext(baseURL)
		return ctx, nil
	})

	sc.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if err != nil {
			fmt.Printf("Scenario failed: %s\nLast Response: %s\n", sc.Name, string(tc.LastResponseBody))
		}
		return ctx, nil
	})

	common.RegisterSteps(sc, tc)
	credential.RegisterSteps(sc, tc)
}
