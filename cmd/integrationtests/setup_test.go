package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	auction "mazadi/internal/auctionService"
	"mazadi/internal/directory"
	model "mazadi/internal/models"
	"mazadi/internal/repository"
	"mazadi/internal/server"
	"mazadi/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TestEnv holds the wired application pieces so tests can seed the
// store and directory directly.
type TestEnv struct {
	Router *gin.Engine
	Repo   *repository.MemoryRepo
	Dir    *directory.MemoryDirectory
	Hub    *ws.Hub
}

// SetupTestEnv wires an in-memory repository, directory, hub and service
// behind a real router, mirroring the production wiring in main.
func SetupTestEnv() *TestEnv {
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	dir := directory.NewMemoryDirectory()
	hub := ws.NewHub(repo, dir)
	service := auction.NewAuctionService(repo, dir, hub)
	router := server.SetupRouter(service, ws.NewHandler(hub), nil)

	return &TestEnv{Router: router, Repo: repo, Dir: dir, Hub: hub}
}

// SeedCatalog registers the standard fixture products and users.
func (e *TestEnv) SeedCatalog() {
	e.Dir.AddProduct(model.Product{ProductID: "product1", Name: "Vintage Camera"})
	e.Dir.AddProduct(model.Product{ProductID: "product2", Name: "Antique Clock"})
	e.Dir.AddUser(model.User{UserID: "user1", Name: "Amira"})
	e.Dir.AddUser(model.User{UserID: "user2", Name: "Karim"})
}

// SeedActiveAuction stores an already-running auction directly in the repo.
func (e *TestEnv) SeedActiveAuction(t *testing.T, auctionID string, price int64) model.Auction {
	t.Helper()
	now := time.Now().UTC()
	a := model.Auction{
		AuctionID:     auctionID,
		ProductID:     "product1",
		StartingPrice: decimal.NewFromInt(price),
		CurrentPrice:  decimal.NewFromInt(price),
		StartTime:     now.Add(-time.Hour),
		EndTime:       now.Add(time.Hour),
		Status:        model.StatusActive,
		Bids:          []model.Bid{},
	}
	if err := e.Repo.CreateAuction(a); err != nil {
		t.Fatalf("failed to seed auction: %v", err)
	}
	return a
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}

	return resp, w
}
