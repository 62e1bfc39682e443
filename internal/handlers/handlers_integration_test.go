package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"qrific/internal/fulfillment"
	"qrific/internal/handlers"
	"qrific/internal/middleware"
	"qrific/internal/models"
	"qrific/internal/payment"
	"qrific/internal/repositories"
	"qrific/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const webhookSecret = "whsec_integration"

// recordingSender captures outgoing mail instead of delivering it.
type recordingSender struct {
	mu   sync.Mutex
	sent []string // "to: subject"
}

func (r *recordingSender) Send(to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, fmt.Sprintf("%s: %s", to, subject))
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

// testEnv wires the full stack against in-memory sqlite and mock partners.
type testEnv struct {
	app     *fiber.App
	db      *gorm.DB
	partner *fulfillment.MockClient
	sender  *recordingSender
}

func setupTestEnv(t *testing.T, dbName string) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", dbName)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.QRCode{}, &models.User{}))

	orderRepo := repositories.NewGORMOrderRepository(db)
	qrRepo := repositories.NewGORMQRCodeRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	gateway := payment.NewMockGateway()
	partner := fulfillment.NewMockClient(300, 900)
	partner.SeedVariant(fulfillment.Variant{
		ID: "var-tee-m", Title: "M / White",
		ProductID: "prod-qr-tee", ProductTitle: "Qrific T-Shirt", Price: 2500,
	})

	sender := &recordingSender{}
	notifier := services.NewNotificationService(sender, "ops@example.com", "Qrific")
	fulfiller := services.NewFulfillmentService(orderRepo, qrRepo, partner, "https://qrific.example.com")
	checkoutService := services.NewCheckoutService(
		orderRepo, gateway, partner, fulfiller, notifier, nil,
		webhookSecret, services.TaxPolicy{TaxOnShipping: true},
	)
	activationService := services.NewActivationService(qrRepo, userRepo)
	qrService := services.NewQRCodeService(qrRepo, orderRepo, userRepo)
	authService := services.NewAuthService(userRepo, "integration-secret")

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	handlers.NewCheckoutHandler(checkoutService).RegisterRoutes(apiV1)
	handlers.NewActivationHandler(activationService).RegisterRoutes(apiV1)
	handlers.NewQRCodeHandler(qrService).RegisterRoutes(apiV1)
	handlers.NewAuthHandler(authService).RegisterRoutes(apiV1)
	handlers.NewOrderHandler(checkoutService, qrService).RegisterRoutes(
		apiV1.Group("/orders", middleware.AuthRequired(authService)))

	return &testEnv{app: app, db: db, partner: partner, sender: sender}
}

func (e *testEnv) postJSON(t *testing.T, path string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	assert.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func (e *testEnv) postWebhook(t *testing.T, payload []byte, signature string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Webhook-Signature", signature)
	}
	resp, err := e.app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	var out map[string]interface{}
	assert.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func checkoutBody() map[string]interface{} {
	return map[string]interface{}{
		"items": []map[string]interface{}{
			{
				"product_id":    "prod-qr-tee",
				"product_title": "Qrific T-Shirt",
				"variant_id":    "var-tee-m",
				"variant_title": "M / White",
				"price":         2500,
				"quantity":      2,
			},
		},
		"address": map[string]interface{}{
			"email":      "buyer@example.com",
			"first_name": "Avery",
			"last_name":  "Nguyen",
			"address":    "100 Congress Ave",
			"city":       "Austin",
			"state":      "TX",
			"zip_code":   "78701",
			"country":    "US",
			"phone":      "+15125550100",
		},
		"shipping_method": "standard",
	}
}

func signedEvent(t *testing.T, eventType, intentID string) ([]byte, string) {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"id":   "evt_" + intentID,
		"type": eventType,
		"data": map[string]interface{}{
			"object": map[string]interface{}{"id": intentID},
		},
	})
	assert.NoError(t, err)
	return payload, payment.SignPayload(payload, webhookSecret, time.Now())
}

func TestCheckoutToFulfillmentFlow(t *testing.T) {
	env := setupTestEnv(t, "testdb_flow")

	// Checkout: the server quotes 2x2500 subtotal, 300 standard shipping
	// and Texas tax on both.
	resp := env.postJSON(t, "/api/v1/checkout/create-payment-intent", checkoutBody())
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	created := decodeBody(t, resp)
	assert.NotEmpty(t, created["client_secret"])
	orderNumber, _ := created["order_number"].(string)
	assert.NotEmpty(t, orderNumber)

	var order models.Order
	assert.NoError(t, env.db.First(&order, "order_number = ?", orderNumber).Error)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.EqualValues(t, 5000, order.Subtotal)
	assert.EqualValues(t, 300, order.Shipping)
	assert.EqualValues(t, 331, order.Tax)
	assert.EqualValues(t, 5631, order.Total)

	// Settle the charge through the webhook.
	payload, signature := signedEvent(t, payment.EventPaymentSucceeded, order.PaymentIntentID)
	resp = env.postWebhook(t, payload, signature)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeBody(t, resp)["received"])

	assert.NoError(t, env.db.First(&order, "order_number = ?", orderNumber).Error)
	assert.Equal(t, models.OrderStatusPaid, order.Status)
	assert.True(t, order.QRGenerated)

	// One print order with one artwork file per shirt, one customer and
	// one operator mail.
	submitted := env.partner.SubmittedOrders()
	assert.Len(t, submitted, 1)
	assert.Equal(t, orderNumber, submitted[0].ExternalID)
	assert.Len(t, submitted[0].Files, 2)
	assert.Equal(t, 2, env.sender.count())

	var qrCount int64
	assert.NoError(t, env.db.Model(&models.QRCode{}).Where("order_number = ?", orderNumber).Count(&qrCount).Error)
	assert.EqualValues(t, 2, qrCount)

	// Redelivery of the same event is acknowledged without repeating the
	// side effects.
	resp = env.postWebhook(t, payload, signature)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, env.partner.SubmittedOrders(), 1)
	assert.Equal(t, 2, env.sender.count())

	// Confirmation page lookup by intent.
	resp = env.postJSON(t, "/api/v1/checkout/order-information", map[string]interface{}{
		"payment_intent_id": order.PaymentIntentID,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	info := decodeBody(t, resp)
	assert.Equal(t, orderNumber, info["order_number"])
	assert.Equal(t, string(models.OrderStatusPaid), info["status"])

	// Customer-facing status lookup.
	resp = env.postJSON(t, "/api/v1/checkout/order-status", map[string]interface{}{
		"email":        "buyer@example.com",
		"order_number": orderNumber,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCheckoutRejectsPriceMismatch(t *testing.T) {
	env := setupTestEnv(t, "testdb_mismatch")

	body := checkoutBody()
	body["items"].([]map[string]interface{})[0]["price"] = 1 // catalog says 2500
	resp := env.postJSON(t, "/api/v1/checkout/create-payment-intent", body)

	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)

	var count int64
	assert.NoError(t, env.db.Model(&models.Order{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestCheckoutRejectsInvalidRequest(t *testing.T) {
	env := setupTestEnv(t, "testdb_invalid")

	body := checkoutBody()
	body["shipping_method"] = "teleport"
	resp := env.postJSON(t, "/api/v1/checkout/create-payment-intent", body)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body = checkoutBody()
	body["items"] = []map[string]interface{}{}
	resp = env.postJSON(t, "/api/v1/checkout/create-payment-intent", body)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	env := setupTestEnv(t, "testdb_badsig")

	payload, _ := signedEvent(t, payment.EventPaymentSucceeded, "pi_whatever")

	resp := env.postWebhook(t, payload, "t=1700000000,v1=deadbeef")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.postWebhook(t, payload, "")
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestWebhookAcknowledgesUnknownIntent(t *testing.T) {
	env := setupTestEnv(t, "testdb_orphan")

	// An intent with no local order (the write never landed) still gets a
	// success acknowledgment so the provider stops redelivering.
	payload, signature := signedEvent(t, payment.EventPaymentSucceeded, "pi_orphan")
	resp := env.postWebhook(t, payload, signature)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeBody(t, resp)["received"])
}

func TestPaymentFailedMarksOrderFailed(t *testing.T) {
	env := setupTestEnv(t, "testdb_failed")

	resp := env.postJSON(t, "/api/v1/checkout/create-payment-intent", checkoutBody())
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	orderNumber := decodeBody(t, resp)["order_number"].(string)

	var order models.Order
	assert.NoError(t, env.db.First(&order, "order_number = ?", orderNumber).Error)

	payload, signature := signedEvent(t, payment.EventPaymentFailed, order.PaymentIntentID)
	resp = env.postWebhook(t, payload, signature)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.NoError(t, env.db.First(&order, "order_number = ?", orderNumber).Error)
	assert.Equal(t, models.OrderStatusFailed, order.Status)
	assert.Empty(t, env.partner.SubmittedOrders())
	assert.Equal(t, 0, env.sender.count())
}

func TestOrderStatusNotFound(t *testing.T) {
	env := setupTestEnv(t, "testdb_notfound")

	resp := env.postJSON(t, "/api/v1/checkout/order-status", map[string]interface{}{
		"email":        "nobody@example.com",
		"order_number": "QR-20260901-000000",
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = env.postJSON(t, "/api/v1/checkout/order-information", map[string]interface{}{
		"payment_intent_id": "pi_missing",
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAuthProtectsOrderListing(t *testing.T) {
	env := setupTestEnv(t, "testdb_auth")

	// No token.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// Register an operator and log in.
	resp = env.postJSON(t, "/api/v1/auth/register", map[string]interface{}{
		"email":    "ops@example.com",
		"password": "hunter22",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp = env.postJSON(t, "/api/v1/auth/login", map[string]interface{}{
		"email":    "ops@example.com",
		"password": "hunter22",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	token := decodeBody(t, resp)["token"].(string)
	assert.NotEmpty(t, token)

	// Duplicate registration is rejected.
	resp = env.postJSON(t, "/api/v1/auth/register", map[string]interface{}{
		"email":    "ops@example.com",
		"password": "hunter22",
	})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	// With the token the listing is reachable.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminOrderDetail(t *testing.T) {
	env := setupTestEnv(t, "testdb_orderdetail")

	resp := env.postJSON(t, "/api/v1/checkout/create-payment-intent", checkoutBody())
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	orderNumber := decodeBody(t, resp)["order_number"].(string)

	var order models.Order
	assert.NoError(t, env.db.First(&order, "order_number = ?", orderNumber).Error)
	payload, signature := signedEvent(t, payment.EventPaymentSucceeded, order.PaymentIntentID)
	resp = env.postWebhook(t, payload, signature)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.postJSON(t, "/api/v1/auth/register", map[string]interface{}{
		"email":    "ops@example.com",
		"password": "hunter22",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp = env.postJSON(t, "/api/v1/auth/login", map[string]interface{}{
		"email":    "ops@example.com",
		"password": "hunter22",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	token := decodeBody(t, resp)["token"].(string)

	// Detail view carries the order and every QR code minted for it.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderNumber, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	httpResp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, httpResp.StatusCode)

	detail := decodeBody(t, httpResp)
	orderBody, ok := detail["order"].(map[string]interface{})
	assert.True(t, ok)
	assert.Equal(t, orderNumber, orderBody["order_number"])
	codes, ok := detail["qr_codes"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, codes, 2)

	// Unknown order number 404s; missing token is rejected.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/QR-20260901-000000", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	httpResp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, httpResp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/"+orderNumber, nil)
	httpResp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, httpResp.StatusCode)
}

func TestActivationFlow(t *testing.T) {
	env := setupTestEnv(t, "testdb_activation")

	// Buy and pay for a shirt so QR codes exist.
	resp := env.postJSON(t, "/api/v1/checkout/create-payment-intent", checkoutBody())
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	orderNumber := decodeBody(t, resp)["order_number"].(string)

	var order models.Order
	assert.NoError(t, env.db.First(&order, "order_number = ?", orderNumber).Error)
	payload, signature := signedEvent(t, payment.EventPaymentSucceeded, order.PaymentIntentID)
	resp = env.postWebhook(t, payload, signature)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var qr models.QRCode
	assert.NoError(t, env.db.First(&qr, "order_number = ?", orderNumber).Error)
	assert.True(t, qr.Purchased)
	assert.False(t, qr.Activated)

	// The printed artwork resolves to a public scan page. Before activation
	// it shows an unclaimed shirt.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/qr/"+qr.URLCode, nil)
	resp, err := env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	scan := decodeBody(t, resp)
	assert.Equal(t, qr.ShirtID, scan["shirt_id"])
	assert.Equal(t, false, scan["activated"])
	assert.Equal(t, "Qrific T-Shirt", scan["product_title"])
	assert.Nil(t, scan["wearer_email"])

	// A code that was never printed 404s.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/qr/NEVERPRINTED", nil)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	// Wrong code is rejected before account details are collected.
	resp = env.postJSON(t, "/api/v1/activation/validate", map[string]interface{}{
		"activation_code": "WRONGCODE",
		"shirt_id":        qr.ShirtID,
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = env.postJSON(t, "/api/v1/activation/validate", map[string]interface{}{
		"activation_code": qr.ActivationCode,
		"shirt_id":        qr.ShirtID,
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = env.postJSON(t, "/api/v1/activation/activate", map[string]interface{}{
		"activation_code": qr.ActivationCode,
		"shirt_id":        qr.ShirtID,
		"email":           "wearer@example.com",
		"password":        "hunter22",
	})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	assert.NoError(t, env.db.First(&qr, "id = ?", qr.ID).Error)
	assert.True(t, qr.Activated)
	assert.NotNil(t, qr.UserID)

	var user models.User
	assert.NoError(t, env.db.First(&user, "email = ?", "wearer@example.com").Error)
	assert.NotEqual(t, "hunter22", user.Password)

	// After activation the scan page shows the wearer.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/qr/"+qr.URLCode, nil)
	resp, err = env.app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	scan = decodeBody(t, resp)
	assert.Equal(t, true, scan["activated"])
	assert.Equal(t, "wearer@example.com", scan["wearer_email"])

	// A claimed shirt cannot be activated twice.
	resp = env.postJSON(t, "/api/v1/activation/activate", map[string]interface{}{
		"activation_code": qr.ActivationCode,
		"shirt_id":        qr.ShirtID,
		"email":           "second@example.com",
		"password":        "hunter22",
	})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
