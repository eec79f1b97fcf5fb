package handlers

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"pasar/internal/clients"
	"pasar/internal/models"
	"pasar/internal/services"
	"pasar/internal/transform"
)

// FormHandler exposes the listing wizard over HTTP: session lifecycle, the
// navigation actions, data patches, and submission.
type FormHandler struct {
	forms   *services.FormService
	submits *services.SubmitService
	client  clients.ProductAPI
}

// NewFormHandler creates a new FormHandler.
func NewFormHandler(forms *services.FormService, submits *services.SubmitService, client clients.ProductAPI) *FormHandler {
	return &FormHandler{
		forms:   forms,
		submits: submits,
		client:  client,
	}
}

// RegisterRoutes registers the wizard routes with the Fiber app.
func (h *FormHandler) RegisterRoutes(router fiber.Router) {
	formRoutes := router.Group("/forms")
	formRoutes.Post("/", h.HandleStartForm)
	formRoutes.Get("/:id", h.HandleGetForm)
	formRoutes.Patch("/:id/data", h.HandleUpdateData)
	formRoutes.Post("/:id/next", h.HandleNext)
	formRoutes.Post("/:id/previous", h.HandlePrevious)
	formRoutes.Post("/:id/goto/:step", h.HandleGoTo)
	formRoutes.Post("/:id/validate", h.HandleValidate)
	formRoutes.Post("/:id/reset", h.HandleReset)
	formRoutes.Post("/:id/submit", h.HandleSubmit)
	formRoutes.Delete("/:id", h.HandleRemoveForm)

	router.Get("/categories", h.HandleGetCategories)
	router.Get("/products/:id", h.HandleGetProduct)
}

// StartFormRequest is the request body for opening a wizard session.
type StartFormRequest struct {
	Mode      models.FormMode `json:"mode"`
	ProductID string          `json:"productId"`
}

// userID returns the authenticated user's id stored by the JWT middleware.
func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// HandleStartForm opens a new wizard session. Create mode resumes a saved
// draft when one is fresh enough; edit mode fetches the product being edited
// and seeds the form from it.
func (h *FormHandler) HandleStartForm(c *fiber.Ctx) error {
	var req StartFormRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing start form request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if req.Mode == models.FormModeEdit {
		if req.ProductID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "productId is required for edit mode",
			})
		}

		wire, err := h.client.GetProduct(c.UserContext(), req.ProductID)
		if err != nil {
			log.Printf("Error fetching product %s for edit: %v", req.ProductID, err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"message": "Could not load product for editing",
				"error":   err.Error(),
			})
		}

		product := transform.ToProduct(*wire)
		state := h.forms.StartEditSession(userID(c), &product)
		return c.Status(fiber.StatusCreated).JSON(state)
	}

	state := h.forms.StartCreateSession(userID(c))
	return c.Status(fiber.StatusCreated).JSON(state)
}

// HandleGetForm returns the current state of a session.
func (h *FormHandler) HandleGetForm(c *fiber.Ctx) error {
	state, err := h.forms.GetState(c.Params("id"))
	if err != nil {
		return sessionNotFound(c, err)
	}
	return c.JSON(state)
}

// HandleUpdateData merges a partial form-data patch and revalidates the
// current step.
func (h *FormHandler) HandleUpdateData(c *fiber.Ctx) error {
	var patch models.FormPatch
	if err := c.BodyParser(&patch); err != nil {
		log.Printf("Error parsing form data patch: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	state, err := h.forms.UpdateFormData(c.Params("id"), patch)
	if err != nil {
		return sessionNotFound(c, err)
	}
	return c.JSON(state)
}

// HandleNext validates the current step and advances when it passes. The
// response always carries the resulting state; a failed validation simply
// leaves currentStep in place with the field errors populated.
func (h *FormHandler) HandleNext(c *fiber.Ctx) error {
	state, err := h.forms.Next(c.Params("id"))
	if err != nil {
		return sessionNotFound(c, err)
	}
	return c.JSON(state)
}

// HandlePrevious steps back one step.
func (h *FormHandler) HandlePrevious(c *fiber.Ctx) error {
	state, err := h.forms.Previous(c.Params("id"))
	if err != nil {
		return sessionNotFound(c, err)
	}
	return c.JSON(state)
}

// HandleGoTo jumps to a step when the navigation guard allows it; a refused
// jump returns the unchanged state.
func (h *FormHandler) HandleGoTo(c *fiber.Ctx) error {
	step, err := strconv.Atoi(c.Params("step"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Step must be a number",
			"error":   err.Error(),
		})
	}

	state, err := h.forms.GoTo(c.Params("id"), step)
	if err != nil {
		return sessionNotFound(c, err)
	}
	return c.JSON(state)
}

// HandleValidate revalidates the current step without navigating, so the
// client can surface field errors on demand.
func (h *FormHandler) HandleValidate(c *fiber.Ctx) error {
	_, state, err := h.forms.ValidateCurrentStep(c.Params("id"))
	if err != nil {
		return sessionNotFound(c, err)
	}
	return c.JSON(state)
}

// HandleReset restores the session to defaults and clears its saved draft.
func (h *FormHandler) HandleReset(c *fiber.Ctx) error {
	state, err := h.forms.Reset(c.Params("id"))
	if err != nil {
		return sessionNotFound(c, err)
	}
	return c.JSON(state)
}

// HandleSubmit runs the submission orchestrator and returns the created or
// updated product. The form stays intact on failure so the user can retry.
func (h *FormHandler) HandleSubmit(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	product, err := h.submits.Submit(c.UserContext(), sessionID)
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Validation failed",
				"errors":  validationErr.Errors,
			})
		}
		if errors.Is(err, services.ErrSessionNotFound) {
			return sessionNotFound(c, err)
		}
		if errors.Is(err, services.ErrSubmitInProgress) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": err.Error(),
			})
		}
		log.Printf("Error submitting form %s: %v", sessionID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleRemoveForm drops a finished session.
func (h *FormHandler) HandleRemoveForm(c *fiber.Ctx) error {
	h.forms.RemoveSession(c.Params("id"))
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleGetCategories proxies the backend's category reference list.
func (h *FormHandler) HandleGetCategories(c *fiber.Ctx) error {
	categories, err := h.client.GetCategories(c.UserContext())
	if err != nil {
		log.Printf("Error fetching categories: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "Could not retrieve categories",
			"error":   err.Error(),
		})
	}
	return c.JSON(categories)
}

// HandleGetProduct fetches a product and returns it in the frontend shape.
func (h *FormHandler) HandleGetProduct(c *fiber.Ctx) error {
	wire, err := h.client.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		log.Printf("Error fetching product %s: %v", c.Params("id"), err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"message": "Could not retrieve product",
			"error":   err.Error(),
		})
	}

	product := transform.ToProduct(*wire)
	return c.JSON(product)
}

func sessionNotFound(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"message": "Form session not found",
		"error":   err.Error(),
	})
}
