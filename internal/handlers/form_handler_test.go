package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pasar/internal/clients"
	"pasar/internal/handlers"
	"pasar/internal/models"
	"pasar/internal/repositories"
	"pasar/internal/services"
)

// newTestApp wires the wizard routes with an in-memory draft store and the
// given backend mock, with a stub auth middleware identifying user-1.
func newTestApp(client clients.ProductAPI) (*fiber.App, *repositories.MockDraftRepository) {
	repo := repositories.NewMockDraftRepository()
	forms := services.NewFormService(repo, services.FormConfig{
		DraftTTL:      24 * time.Hour,
		DraftDebounce: 5 * time.Millisecond,
	})
	submits := services.NewSubmitService(forms, client, nil)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		return c.Next()
	})

	handler := handlers.NewFormHandler(forms, submits, client)
	handler.RegisterRoutes(app.Group("/api/v1"))

	return app, repo
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestWizardFlow_CreateListing(t *testing.T) {
	client := new(clients.MockProductAPI)
	app, _ := newTestApp(client)

	// Open a create session.
	var state services.FormState
	code := doJSON(t, app, http.MethodPost, "/api/v1/forms/", map[string]string{"mode": "create"}, &state)
	require.Equal(t, http.StatusCreated, code)
	require.NotEmpty(t, state.SessionID)
	assert.Equal(t, 0, state.CurrentStep)
	assert.Len(t, state.Steps, 5)

	base := "/api/v1/forms/" + state.SessionID

	// A short title blocks next().
	code = doJSON(t, app, http.MethodPatch, base+"/data", map[string]interface{}{
		"title":       "ab",
		"description": "Hardly used, great condition",
	}, &state)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Title must be at least 3 characters", state.Errors["title"])

	code = doJSON(t, app, http.MethodPost, base+"/next", nil, &state)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, state.CurrentStep)

	// Fix the title and walk the wizard.
	doJSON(t, app, http.MethodPatch, base+"/data", map[string]interface{}{"title": "Mountain bike"}, &state)
	doJSON(t, app, http.MethodPost, base+"/next", nil, &state)
	require.Equal(t, 1, state.CurrentStep)

	doJSON(t, app, http.MethodPatch, base+"/data", map[string]interface{}{"categoryIds": []string{"SPORTS"}}, &state)
	doJSON(t, app, http.MethodPost, base+"/next", nil, &state)
	require.Equal(t, 2, state.CurrentStep)

	doJSON(t, app, http.MethodPatch, base+"/data", map[string]interface{}{
		"availableForSale": true,
		"purchasePrice":    "250",
	}, &state)
	doJSON(t, app, http.MethodPost, base+"/next", nil, &state)
	require.Equal(t, 3, state.CurrentStep)

	doJSON(t, app, http.MethodPost, base+"/next", nil, &state)
	require.Equal(t, 4, state.CurrentStep)

	// Submitting without accepted terms fails validation, no network call.
	var errResp struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	code = doJSON(t, app, http.MethodPost, base+"/submit", nil, &errResp)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Validation failed", errResp.Message)
	assert.Contains(t, errResp.Errors, "terms")
	client.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything, mock.Anything)

	// Accept terms and submit for real.
	doJSON(t, app, http.MethodPatch, base+"/data", map[string]interface{}{"termsAccepted": true}, &state)

	price := "250"
	client.On("CreateProduct", mock.Anything, mock.Anything, "user-1").
		Return(&models.WireProduct{
			ID:            json.Number("42"),
			Title:         "Mountain bike",
			PurchasePrice: &price,
		}, nil).Once()

	var product models.Product
	code = doJSON(t, app, http.MethodPost, base+"/submit", nil, &product)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "42", product.ID)
	assert.True(t, product.AvailableForSale)
	assert.Equal(t, "GOOD", product.Condition)

	client.AssertExpectations(t)
}

func TestWizardFlow_EditSeedsFromBackend(t *testing.T) {
	client := new(clients.MockProductAPI)
	app, _ := newTestApp(client)

	price := "250"
	client.On("GetProduct", mock.Anything, "42").
		Return(&models.WireProduct{
			ID:            json.Number("42"),
			Title:         "Mountain bike",
			Description:   "Hardly used, great condition",
			Categories:    []string{"SPORTS"},
			ProductImage:  "https://cdn.example.com/bike.jpg",
			PurchasePrice: &price,
		}, nil).Once()

	var state services.FormState
	code := doJSON(t, app, http.MethodPost, "/api/v1/forms/", map[string]string{
		"mode":      "edit",
		"productId": "42",
	}, &state)
	require.Equal(t, http.StatusCreated, code)

	assert.Equal(t, models.FormModeEdit, state.Mode)
	assert.Equal(t, "42", state.ProductID)
	assert.Equal(t, "Mountain bike", state.Data.Title)
	assert.True(t, state.Data.AvailableForSale)

	client.AssertExpectations(t)
}

func TestStartEdit_RequiresProductID(t *testing.T) {
	client := new(clients.MockProductAPI)
	app, _ := newTestApp(client)

	var errResp map[string]string
	code := doJSON(t, app, http.MethodPost, "/api/v1/forms/", map[string]string{"mode": "edit"}, &errResp)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "productId is required for edit mode", errResp["message"])
}

func TestGoToAndReset(t *testing.T) {
	client := new(clients.MockProductAPI)
	app, _ := newTestApp(client)

	var state services.FormState
	doJSON(t, app, http.MethodPost, "/api/v1/forms/", map[string]string{"mode": "create"}, &state)
	base := "/api/v1/forms/" + state.SessionID

	// Forward skip is refused while step 0 is incomplete.
	doJSON(t, app, http.MethodPost, base+"/goto/2", nil, &state)
	assert.Equal(t, 0, state.CurrentStep)

	doJSON(t, app, http.MethodPatch, base+"/data", map[string]interface{}{
		"title":       "Mountain bike",
		"description": "Hardly used, great condition",
	}, &state)
	doJSON(t, app, http.MethodPost, base+"/next", nil, &state)
	require.Equal(t, 1, state.CurrentStep)

	code := doJSON(t, app, http.MethodPost, base+"/reset", nil, &state)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, state.CurrentStep)
	assert.Empty(t, state.Data.Title)
}

func TestValidateRoute_SurfacesCurrentStepErrors(t *testing.T) {
	client := new(clients.MockProductAPI)
	app, _ := newTestApp(client)

	var state services.FormState
	doJSON(t, app, http.MethodPost, "/api/v1/forms/", map[string]string{"mode": "create"}, &state)
	base := "/api/v1/forms/" + state.SessionID

	code := doJSON(t, app, http.MethodPost, base+"/validate", nil, &state)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Title is required", state.Errors["title"])
	assert.False(t, state.Steps[0].IsValid)
}

func TestSubmitErrorPassthrough(t *testing.T) {
	client := new(clients.MockProductAPI)
	app, _ := newTestApp(client)

	var state services.FormState
	doJSON(t, app, http.MethodPost, "/api/v1/forms/", map[string]string{"mode": "create"}, &state)
	base := "/api/v1/forms/" + state.SessionID

	doJSON(t, app, http.MethodPatch, base+"/data", map[string]interface{}{
		"title":            "Mountain bike",
		"description":      "Hardly used, great condition",
		"categoryIds":      []string{"SPORTS"},
		"availableForSale": true,
		"purchasePrice":    "250",
		"termsAccepted":    true,
	}, &state)
	for i := 0; i < 4; i++ {
		doJSON(t, app, http.MethodPost, base+"/next", nil, &state)
	}
	require.Equal(t, 4, state.CurrentStep)

	client.On("CreateProduct", mock.Anything, mock.Anything, "user-1").
		Return(nil, &clients.APIError{StatusCode: 400, Message: "Seller account is suspended"}).Once()

	var errResp map[string]string
	code := doJSON(t, app, http.MethodPost, base+"/submit", nil, &errResp)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "Seller account is suspended", errResp["message"])
}

func TestCategoriesProxy(t *testing.T) {
	client := new(clients.MockProductAPI)
	app, _ := newTestApp(client)

	client.On("GetCategories", mock.Anything).
		Return([]models.Category{
			{ID: "ELECTRONICS", Name: "electronics", DisplayName: "Electronics"},
			{ID: "TOYS", Name: "toys", DisplayName: "Toys"},
		}, nil).Once()

	var categories []models.Category
	code := doJSON(t, app, http.MethodGet, "/api/v1/categories", nil, &categories)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, categories, 2)

	client.On("GetCategories", mock.Anything).
		Return(nil, fmt.Errorf("backend unreachable")).Once()
	code = doJSON(t, app, http.MethodGet, "/api/v1/categories", nil, nil)
	assert.Equal(t, http.StatusBadGateway, code)
}

func TestUnknownSessionIs404(t *testing.T) {
	client := new(clients.MockProductAPI)
	app, _ := newTestApp(client)

	code := doJSON(t, app, http.MethodGet, "/api/v1/forms/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)

	var errResp map[string]string
	code = doJSON(t, app, http.MethodPost, "/api/v1/forms/nope/submit", nil, &errResp)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Form session not found", errResp["message"])
}
