package clients

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pasar/internal/models"
)

func TestDecode_SuccessfulEnvelope(t *testing.T) {
	body := []byte(`{"success":true,"data":{"id":42,"title":"Mountain bike","purchase_price":"250.00"},"message":""}`)

	var wire models.WireProduct
	require.NoError(t, decode(200, body, nil, &wire))

	assert.Equal(t, "42", wire.ID.String())
	assert.Equal(t, "Mountain bike", wire.Title)
	assert.Equal(t, "250.00", *wire.PurchasePrice)
}

func TestDecode_BackendRejection(t *testing.T) {
	body := []byte(`{"success":false,"message":"Seller account is suspended"}`)

	err := decode(400, body, nil, &models.WireProduct{})
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, 400, apiErr.StatusCode)
	assert.Equal(t, "Seller account is suspended", apiErr.Error())
}

func TestDecode_UnsuccessfulEnvelopeWithOKStatus(t *testing.T) {
	// Some endpoints answer 200 with success=false; that is still a
	// rejection.
	body := []byte(`{"success":false,"message":"Validation failed upstream"}`)

	err := decode(200, body, nil, nil)
	require.Error(t, err)
	assert.Equal(t, "Validation failed upstream", err.Error())
}

func TestDecode_TransportError(t *testing.T) {
	err := decode(0, nil, fmt.Errorf("connection refused"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend request failed")
}

func TestDecode_MalformedBody(t *testing.T) {
	err := decode(200, []byte("<html>"), nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode backend response")
}

func TestAPIError_FallbackMessage(t *testing.T) {
	err := &APIError{StatusCode: 502}
	assert.Equal(t, "backend returned status 502", err.Error())
}
