// Package clients wraps the remote marketplace backend. Every endpoint
// answers with a {success, data, message} envelope; the wrappers here decode
// the envelope and hand the raw wire shapes to the transform layer.
package clients

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"pasar/internal/models"
)

// ProductAPI defines the backend operations the form core consumes.
type ProductAPI interface {
	CreateProduct(ctx context.Context, payload models.ProductPayload, sellerID string) (*models.WireProduct, error)
	UpdateProduct(ctx context.Context, id string, payload models.ProductPayload) (*models.WireProduct, error)
	GetProduct(ctx context.Context, id string) (*models.WireProduct, error)
	GetCategories(ctx context.Context) ([]models.Category, error)
}

// APIError is a rejection from the backend carrying its human-readable
// message; callers surface Message verbatim when present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// envelope is the uniform backend response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// HTTPProductClient is the Fiber-Agent implementation of ProductAPI.
type HTTPProductClient struct {
	baseURL string
}

// NewHTTPProductClient creates a new HTTPProductClient against the given
// backend base URL (no trailing slash).
func NewHTTPProductClient(baseURL string) *HTTPProductClient {
	return &HTTPProductClient{baseURL: baseURL}
}

type agentResult struct {
	code int
	body []byte
	err  error
}

// do runs a prepared agent and waits for either the response or context
// cancellation. A response arriving after cancellation is discarded, so a
// submit abandoned by the user never mutates anything downstream.
func do(ctx context.Context, agent *fiber.Agent) (int, []byte, error) {
	results := make(chan agentResult, 1)
	go func() {
		code, body, errs := agent.Bytes()
		if len(errs) > 0 {
			results <- agentResult{err: errs[0]}
			return
		}
		results <- agentResult{code: code, body: body}
	}()

	select {
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	case res := <-results:
		return res.code, res.body, res.err
	}
}

// decode unwraps the response envelope into out, mapping transport failures
// and unsuccessful envelopes onto errors.
func decode(code int, body []byte, err error, out interface{}) error {
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}

	var env envelope
	if jsonErr := json.Unmarshal(body, &env); jsonErr != nil {
		return fmt.Errorf("failed to decode backend response: %w", jsonErr)
	}

	if code >= 400 || !env.Success {
		return &APIError{StatusCode: code, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if jsonErr := json.Unmarshal(env.Data, out); jsonErr != nil {
			return fmt.Errorf("failed to decode backend payload: %w", jsonErr)
		}
	}
	return nil
}

// CreateProduct posts a new listing on behalf of the given seller.
func (c *HTTPProductClient) CreateProduct(ctx context.Context, payload models.ProductPayload, sellerID string) (*models.WireProduct, error) {
	payload.Seller = sellerID

	agent := fiber.Post(c.baseURL + "/products")
	agent.JSON(payload)

	code, body, err := do(ctx, agent)
	var wire models.WireProduct
	if err := decode(code, body, err, &wire); err != nil {
		return nil, err
	}
	return &wire, nil
}

// UpdateProduct updates an existing listing.
func (c *HTTPProductClient) UpdateProduct(ctx context.Context, id string, payload models.ProductPayload) (*models.WireProduct, error) {
	agent := fiber.Put(c.baseURL + "/products/" + id)
	agent.JSON(payload)

	code, body, err := do(ctx, agent)
	var wire models.WireProduct
	if err := decode(code, body, err, &wire); err != nil {
		return nil, err
	}
	return &wire, nil
}

// GetProduct fetches a single listing by id.
func (c *HTTPProductClient) GetProduct(ctx context.Context, id string) (*models.WireProduct, error) {
	agent := fiber.Get(c.baseURL + "/products/" + id)

	code, body, err := do(ctx, agent)
	var wire models.WireProduct
	if err := decode(code, body, err, &wire); err != nil {
		return nil, err
	}
	return &wire, nil
}

// GetCategories fetches the category reference list. The form treats this as
// read-only data, re-fetched independently of form state.
func (c *HTTPProductClient) GetCategories(ctx context.Context) ([]models.Category, error) {
	agent := fiber.Get(c.baseURL + "/categories")

	code, body, err := do(ctx, agent)
	var categories []models.Category
	if err := decode(code, body, err, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}
