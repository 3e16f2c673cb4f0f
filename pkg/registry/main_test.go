package registry

import (
	"context"
	"flag"
	"os"
	"testing"

	"github.com/carbonscan/carbonscan/pkg/clickhouse"
	clickhousetesting "github.com/carbonscan/carbonscan/pkg/clickhouse/testing"
	"github.com/carbonscan/carbonscan/pkg/testutil"
)

var sharedDB *clickhousetesting.DB

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}
	log := testutil.NewLogger()
	var err error
	sharedDB, err = clickhousetesting.NewDB(context.Background(), log, nil)
	if err != nil {
		log.Error("failed to create shared DB", "error", err)
		os.Exit(1)
	}
	code := m.Run()
	sharedDB.Close()
	os.Exit(code)
}

func testClient(t *testing.T) clickhouse.Client {
	if testing.Short() {
		t.Skip("skipping ClickHouse-backed test in short mode")
	}
	return testutil.NewClient(t, sharedDB)
}
