package cryptomus

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	body := []byte(`{"amount":"0.00100000","currency":"BTC"}`)
	apiKey := "test-api-key"

	encoded := base64.StdEncoding.EncodeToString(body)
	sum := md5.Sum([]byte(encoded + apiKey))
	expected := hex.EncodeToString(sum[:])

	assert.Equal(t, expected, Sign(body, apiKey))
}

func TestVerifySign(t *testing.T) {
	body := []byte(`{"order_id":"abc"}`)
	apiKey := "secret"

	assert.True(t, VerifySign(body, apiKey, Sign(body, apiKey)))
	assert.False(t, VerifySign(body, apiKey, "deadbeef"))
	assert.False(t, VerifySign(body, "other-key", Sign(body, apiKey)))
}

func TestClient_VerifyWebhook(t *testing.T) {
	client := NewClient("merchant-1", "secret", "https://api.cryptomus.com")

	// Подпись считается по сырым байтам тела, порядок ключей в JSON
	// принадлежит шлюзу и не перестраивается при проверке.
	rawBody := []byte(`{"order_id":"order-1","status":"paid","amount":"50.00"}`)
	sign := Sign(rawBody, "secret")

	assert.True(t, client.VerifyWebhook(rawBody, sign))

	tampered := []byte(`{"order_id":"order-1","status":"paid","amount":"500.00"}`)
	assert.False(t, client.VerifyWebhook(tampered, sign))

	reordered := []byte(`{"amount":"50.00","order_id":"order-1","status":"paid"}`)
	assert.False(t, client.VerifyWebhook(reordered, sign))

	assert.False(t, client.VerifyWebhook(rawBody, "deadbeef"))
}
