package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"shelterstore/internal/repository"
)

// stubStore satisfies repository.Store with empty results, enough for
// exercising the HTTP boundary against a connected repository.
type stubStore struct{}

func (stubStore) InsertOne(context.Context, bson.M) (bool, error)           { return true, nil }
func (stubStore) FindMany(context.Context, bson.M, int64) ([]bson.M, error) { return nil, nil }
func (stubStore) UpdateOne(context.Context, bson.M, bson.M) (int64, error)  { return 0, nil }
func (stubStore) DeleteOne(context.Context, bson.M) (int64, error)          { return 0, nil }
func (stubStore) Aggregate(context.Context, mongo.Pipeline) ([]bson.M, error) {
	return nil, nil
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

func testRepo(store repository.Store) *repository.AnimalRepository {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return repository.New(store, log)
}

// newTestApp wires the routes over the given repository and pinger. Handler
// tests only cover the HTTP boundary; repository semantics are tested in
// the repository package against a fake store.
func newTestApp(repo *repository.AnimalRepository, pinger Pinger) *fiber.App {
	app := fiber.New()
	animalHandler := NewAnimalHandler(repo)
	healthHandler := NewHealthHandler(repo, pinger)

	app.Get("/health", healthHandler.Handle)
	api := app.Group("/api")
	api.Get("/animals", animalHandler.List)
	api.Post("/animals", animalHandler.Create)
	api.Put("/animals", animalHandler.Update)
	api.Delete("/animals", animalHandler.Delete)
	api.Get("/animals/breeds/top", animalHandler.TopBreeds)
	api.Get("/animals/near", animalHandler.Near)
	api.Post("/cache/clear", animalHandler.ClearCache)
	return app
}

func getHealth(t *testing.T, app *fiber.App) map[string]interface{} {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func TestHealth_DegradedWithoutDatabase(t *testing.T) {
	app := newTestApp(testRepo(nil), nil)

	body := getHealth(t, app)
	if body["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", body["status"])
	}
	if body["database"] != false {
		t.Errorf("database = %v, want false", body["database"])
	}
}

func TestHealth_PingsDatabase(t *testing.T) {
	t.Run("ping ok", func(t *testing.T) {
		app := newTestApp(testRepo(stubStore{}), stubPinger{})
		body := getHealth(t, app)
		if body["status"] != "healthy" || body["database"] != true {
			t.Errorf("health = %v, want healthy/true", body)
		}
	})

	t.Run("ping fails", func(t *testing.T) {
		app := newTestApp(testRepo(stubStore{}), stubPinger{err: errors.New("connection reset")})
		body := getHealth(t, app)
		if body["status"] != "degraded" || body["database"] != false {
			t.Errorf("health = %v, want degraded/false", body)
		}
	})
}

func TestList_DegradesToEmpty(t *testing.T) {
	app := newTestApp(testRepo(nil), nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/animals?species=dog", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body struct {
		Count   int           `json:"count"`
		Animals []interface{} `json:"animals"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 0 || len(body.Animals) != 0 {
		t.Errorf("expected empty listing, got %+v", body)
	}
}

func TestCreate_BadJSON(t *testing.T) {
	app := newTestApp(testRepo(nil), nil)

	req := httptest.NewRequest("POST", "/api/animals", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestNear_RequiresCoordinates(t *testing.T) {
	app := newTestApp(testRepo(nil), nil)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/animals/near?lon=abc", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		t.Errorf("status = %d, want 400 (body %s)", resp.StatusCode, body)
	}
}

func TestUpdate_DegradesToFalse(t *testing.T) {
	app := newTestApp(testRepo(nil), nil)

	body := `{"filter":{"name":"Rex"},"update":{"$set":{"age":2}}}`
	req := httptest.NewRequest("PUT", "/api/animals", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["updated"] {
		t.Error("updated = true on disconnected repository")
	}
}

func TestCacheClearRoute(t *testing.T) {
	app := newTestApp(testRepo(stubStore{}), nil)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/cache/clear", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out map[string]bool
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out["cleared"] {
		t.Error("cleared = false")
	}
}
