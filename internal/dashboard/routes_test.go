package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/proxydepot/internal/db"
	"github.com/zulandar/proxydepot/internal/pool"
	"github.com/zulandar/proxydepot/internal/rotation"
	"github.com/zulandar/proxydepot/internal/ticket"
	"github.com/zulandar/proxydepot/internal/users"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return gdb
}

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gdb := openTestDB(t)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	registerRoutes(router, gdb)
	return router, gdb
}

func get(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestStatsEndpoint(t *testing.T) {
	router, gdb := newTestRouter(t)
	if err := pool.Register(gdb, "dc", "DC", ""); err != nil {
		t.Fatal(err)
	}
	if err := users.Ensure(gdb, "U1", "alice", "discord"); err != nil {
		t.Fatal(err)
	}

	w := get(t, router, "/api/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var s struct {
		Pools int64
		Users int64
	}
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if s.Pools != 1 || s.Users != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestPoolsEndpoint(t *testing.T) {
	router, gdb := newTestRouter(t)
	if err := pool.Register(gdb, "dc", "Datacenter", "fast"); err != nil {
		t.Fatal(err)
	}

	w := get(t, router, "/api/pools")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Datacenter") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestOpenTicketsEndpoint(t *testing.T) {
	router, gdb := newTestRouter(t)
	tk, err := ticket.Create(gdb, ticket.CreateOpts{UserID: "U1", Message: "open one"}, 5)
	if err != nil {
		t.Fatal(err)
	}
	closed, err := ticket.Create(gdb, ticket.CreateOpts{UserID: "U1", Message: "closed one"}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if err := ticket.Reply(gdb, closed.ID, "A1", "done", ""); err != nil {
		t.Fatal(err)
	}

	w := get(t, router, "/api/tickets/open")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "open one") {
		t.Errorf("body = %s", body)
	}
	if strings.Contains(body, "closed one") {
		t.Errorf("closed ticket leaked: %s", body)
	}
	_ = tk
}

func TestIssuancesEndpoint(t *testing.T) {
	router, gdb := newTestRouter(t)
	if err := rotation.SaveIssuance(gdb, "U1", "p1:80", "DC"); err != nil {
		t.Fatal(err)
	}
	if err := rotation.SaveIssuance(gdb, "U2", "p2:80", "DC"); err != nil {
		t.Fatal(err)
	}

	w := get(t, router, "/api/issuances/U1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "p1:80") {
		t.Errorf("body = %s", body)
	}
	if strings.Contains(body, "p2:80") {
		t.Errorf("other user's issuance leaked: %s", body)
	}
}

func TestIssuancesEndpoint_LimitParam(t *testing.T) {
	router, gdb := newTestRouter(t)
	for i := 0; i < 5; i++ {
		if err := rotation.SaveIssuance(gdb, "U1", "entry", "DC"); err != nil {
			t.Fatal(err)
		}
	}

	w := get(t, router, "/api/issuances/U1?limit=2")
	var rows []json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &rows); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("rows = %d, want 2", len(rows))
	}
}

func TestDownloadsEndpoint(t *testing.T) {
	router, gdb := newTestRouter(t)
	if err := users.Ensure(gdb, "U1", "alice", "discord"); err != nil {
		t.Fatal(err)
	}
	if err := pool.LogDownload(gdb, "U1", "dc"); err != nil {
		t.Fatal(err)
	}

	w := get(t, router, "/api/downloads")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "alice") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestStart_RequiresDB(t *testing.T) {
	if err := Start(context.Background(), StartOpts{}); err == nil {
		t.Error("expected error for nil db")
	}
}
