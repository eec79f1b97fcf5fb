package clients

import (
	"context"

	"github.com/stretchr/testify/mock"

	"pasar/internal/models"
)

// MockProductAPI is a testify mock implementation of ProductAPI.
type MockProductAPI struct {
	mock.Mock
}

func (m *MockProductAPI) CreateProduct(ctx context.Context, payload models.ProductPayload, sellerID string) (*models.WireProduct, error) {
	args := m.Called(ctx, payload, sellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WireProduct), args.Error(1)
}

func (m *MockProductAPI) UpdateProduct(ctx context.Context, id string, payload models.ProductPayload) (*models.WireProduct, error) {
	args := m.Called(ctx, id, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WireProduct), args.Error(1)
}

func (m *MockProductAPI) GetProduct(ctx context.Context, id string) (*models.WireProduct, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WireProduct), args.Error(1)
}

func (m *MockProductAPI) GetCategories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}
