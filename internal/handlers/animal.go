package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"

	"shelterstore/internal/repository"
)

// AnimalHandler exposes the animal repository to the dashboard over HTTP.
// It is a thin boundary: all validation and safety guarding lives in the
// repository, so every handler maps straight onto one repository call.
type AnimalHandler struct {
	repo *repository.AnimalRepository
}

// NewAnimalHandler creates a new animal handler.
func NewAnimalHandler(repo *repository.AnimalRepository) *AnimalHandler {
	return &AnimalHandler{repo: repo}
}

// List handles GET /api/animals. Every query parameter becomes an equality
// criterion; no parameters means "all animals".
func (h *AnimalHandler) List(c *fiber.Ctx) error {
	filter := bson.M{}
	for key, value := range c.Queries() {
		filter[key] = coerceParam(key, value)
	}

	animals := h.repo.Read(c.Context(), filter)
	return c.JSON(fiber.Map{
		"count":   len(animals),
		"animals": animals,
	})
}

// Create handles POST /api/animals with the document as the JSON body.
func (h *AnimalHandler) Create(c *fiber.Ctx) error {
	var data bson.M
	if err := c.BodyParser(&data); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}

	created, err := h.repo.Create(c.Context(), data)
	if errors.Is(err, repository.ErrEmptyInput) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{"created": created})
}

// mutationRequest is the body shape for update and delete calls.
type mutationRequest struct {
	Filter bson.M `json:"filter"`
	Update bson.M `json:"update,omitempty"`
}

// Update handles PUT /api/animals with {"filter": ..., "update": ...}.
func (h *AnimalHandler) Update(c *fiber.Ctx) error {
	var req mutationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}

	updated := h.repo.Update(c.Context(), req.Filter, req.Update)
	return c.JSON(fiber.Map{"updated": updated})
}

// Delete handles DELETE /api/animals with {"filter": ...}.
func (h *AnimalHandler) Delete(c *fiber.Ctx) error {
	var req mutationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON body"})
	}

	deleted := h.repo.Delete(c.Context(), req.Filter)
	return c.JSON(fiber.Map{"deleted": deleted})
}

// TopBreeds handles GET /api/animals/breeds/top?k=N. Remaining query
// parameters narrow the aggregation the same way List filters do.
func (h *AnimalHandler) TopBreeds(c *fiber.Ctx) error {
	k := c.QueryInt("k", repository.DefaultTopBreeds)

	baseFilter := bson.M{}
	for key, value := range c.Queries() {
		if key == "k" {
			continue
		}
		baseFilter[key] = coerceParam(key, value)
	}

	breeds := h.repo.TopBreeds(c.Context(), baseFilter, k)
	return c.JSON(fiber.Map{"breeds": breeds})
}

// Near handles GET /api/animals/near?lon=&lat=&meters=&limit=.
func (h *AnimalHandler) Near(c *fiber.Ctx) error {
	lon, errLon := strconv.ParseFloat(c.Query("lon"), 64)
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	if errLon != nil || errLat != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "lon and lat are required numeric parameters"})
	}

	meters := c.QueryInt("meters", 5000)
	limit := c.QueryInt("limit", repository.DefaultNearLimit)

	animals := h.repo.Near(c.Context(), lon, lat, meters, limit)
	return c.JSON(fiber.Map{
		"count":   len(animals),
		"animals": animals,
	})
}

// ClearCache handles POST /api/cache/clear: flushes the read cache so the
// next listing is guaranteed fresh.
func (h *AnimalHandler) ClearCache(c *fiber.Ctx) error {
	h.repo.ClearCache()
	return c.JSON(fiber.Map{"cleared": true})
}

// coerceParam maps a query-parameter string onto the type the stored field
// uses, so ?adopted=true and ?age=3 match boolean and numeric documents.
func coerceParam(key, value string) interface{} {
	switch key {
	case "adopted":
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	case "age":
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return value
}
