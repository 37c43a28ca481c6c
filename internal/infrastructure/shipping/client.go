package shipping

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"nutrastore-backend/config"
	"nutrastore-backend/internal/domain"
	"nutrastore-backend/pkg/cache"
	"nutrastore-backend/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const tokenCacheKey = "carrier:auth-token"

var decimalHundred = decimal.NewFromInt(100)

// Client talks to a Shiprocket-style carrier API. Every call runs under its
// own timeout; the auth token is cached and refreshed once on a 401.
type Client struct {
	baseURL  string
	email    string
	password string
	timeout  time.Duration
	tokenTTL time.Duration
	pickup   string
	pkg      packageSpec

	httpClient *http.Client
	cache      cache.CacheService
	loginMu    sync.Mutex
}

type packageSpec struct {
	weight, length, breadth, height float64
}

func NewClient(cfg *config.Config, c cache.CacheService) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.CarrierBaseURL, "/"),
		email:    cfg.CarrierEmail,
		password: cfg.CarrierPassword,
		timeout:  cfg.CarrierTimeout,
		tokenTTL: cfg.CarrierTokenTTL,
		pickup:   cfg.CarrierPickupLocation,
		pkg: packageSpec{
			weight:  cfg.PackageWeightKg,
			length:  cfg.PackageLengthCm,
			breadth: cfg.PackageBreadthCm,
			height:  cfg.PackageHeightCm,
		},
		httpClient: &http.Client{},
		cache:      c,
	}
}

// carrierID accepts ids the carrier sends either as numbers or strings, and
// sends numeric ids back as numbers.
type carrierID string

func (id *carrierID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = carrierID(s)
		return nil
	}
	*id = carrierID(b)
	return nil
}

func (id carrierID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type orderItem struct {
	Name         string  `json:"name"`
	SKU          string  `json:"sku"`
	Units        int     `json:"units"`
	SellingPrice float64 `json:"selling_price"`
	Discount     float64 `json:"discount"`
}

type createOrderRequest struct {
	OrderID             string      `json:"order_id"`
	OrderDate           string      `json:"order_date"`
	PickupLocation      string      `json:"pickup_location"`
	BillingCustomerName string      `json:"billing_customer_name"`
	BillingLastName     string      `json:"billing_last_name"`
	BillingAddress      string      `json:"billing_address"`
	BillingAddress2     string      `json:"billing_address_2,omitempty"`
	BillingCity         string      `json:"billing_city"`
	BillingPincode      string      `json:"billing_pincode"`
	BillingState        string      `json:"billing_state"`
	BillingCountry      string      `json:"billing_country"`
	BillingEmail        string      `json:"billing_email"`
	BillingPhone        string      `json:"billing_phone"`
	ShippingIsBilling   bool        `json:"shipping_is_billing"`
	OrderItems          []orderItem `json:"order_items"`
	PaymentMethod       string      `json:"payment_method"`
	SubTotal            float64     `json:"sub_total"`
	Length              float64     `json:"length"`
	Breadth             float64     `json:"breadth"`
	Height              float64     `json:"height"`
	Weight              float64     `json:"weight"`
}

type createOrderResponse struct {
	OrderID    carrierID `json:"order_id"`
	ShipmentID carrierID `json:"shipment_id"`
	Status     string    `json:"status"`
	StatusCode int       `json:"status_code"`
	Message    string    `json:"message"`
}

type cancelRequest struct {
	IDs []carrierID `json:"ids"`
}

type carrierMessage struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

func (c *Client) CreateShipment(ctx context.Context, req domain.ShipmentRequest) (*domain.Shipment, error) {
	payload := c.buildCreateRequest(req)

	var out createOrderResponse
	if _, err := c.call(ctx, "/orders/create/adhoc", payload, &out); err != nil {
		return nil, err
	}
	if out.OrderID == "" {
		status := out.StatusCode
		if status == 0 {
			status = http.StatusBadGateway
		}
		msg := out.Message
		if msg == "" {
			msg = "Shipping provider did not return an order id."
		}
		return nil, domain.ShippingProviderError(status, msg, nil)
	}

	logger.WithContext(ctx).Info().
		Str("reference_id", req.ReferenceID).
		Str("shipment_order_id", string(out.OrderID)).
		Msg("carrier: shipment created")

	return &domain.Shipment{
		OrderID:    string(out.OrderID),
		ShipmentID: string(out.ShipmentID),
		Status:     out.Status,
	}, nil
}

// CancelShipment retries once when the carrier could not be reached or timed
// out. Carrier rejections are returned as-is.
func (c *Client) CancelShipment(ctx context.Context, shipmentOrderID string) (*domain.CarrierResult, error) {
	payload := cancelRequest{IDs: []carrierID{carrierID(shipmentOrderID)}}

	var (
		out    carrierMessage
		status int
		err    error
	)
	for attempt := 1; attempt <= 2; attempt++ {
		out = carrierMessage{}
		status, err = c.call(ctx, "/orders/cancel", payload, &out)
		if err == nil || !retryable(err) || ctx.Err() != nil {
			break
		}
		logger.WithContext(ctx).Warn().Err(err).Int("attempt", attempt).
			Str("shipment_order_id", shipmentOrderID).Msg("carrier: cancel failed, retrying")
	}
	if err != nil {
		return nil, err
	}

	res := &domain.CarrierResult{StatusCode: status, Message: out.Message}
	if out.StatusCode != 0 {
		res.StatusCode = out.StatusCode
	}
	if res.Message == "" {
		res.Message = "Order cancelled successfully."
	}
	return res, nil
}

func (c *Client) buildCreateRequest(req domain.ShipmentRequest) createOrderRequest {
	items := make([]orderItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, orderItem{
			Name:         it.Name,
			SKU:          it.ProductID,
			Units:        it.Quantity,
			SellingPrice: it.UnitPrice.InexactFloat64(),
			Discount:     it.UnitPrice.Mul(it.Discount).Div(decimalHundred).Round(2).InexactFloat64(),
		})
	}

	a := req.Address
	lastName := a.LastName
	if lastName == "" {
		lastName = "."
	}
	return createOrderRequest{
		OrderID:             req.ReferenceID,
		OrderDate:           req.OrderDate.Format("2006-01-02 15:04"),
		PickupLocation:      c.pickup,
		BillingCustomerName: a.FirstName,
		BillingLastName:     lastName,
		BillingAddress:      a.AddressLine,
		BillingAddress2:     a.Landmark,
		BillingCity:         a.City,
		BillingPincode:      a.PostalCode,
		BillingState:        a.State,
		BillingCountry:      a.Country,
		BillingEmail:        a.ContactEmail,
		BillingPhone:        a.Phone,
		ShippingIsBilling:   true,
		OrderItems:          items,
		PaymentMethod:       paymentMethod(req.PaymentMethod),
		SubTotal:            req.SubTotal.InexactFloat64(),
		Length:              c.pkg.length,
		Breadth:             c.pkg.breadth,
		Height:              c.pkg.height,
		Weight:              c.pkg.weight,
	}
}

func paymentMethod(m string) string {
	if m == domain.PaymentMethodPrepaid {
		return "Prepaid"
	}
	return "COD"
}

// call sends an authenticated POST. A 401 drops the cached token and the
// request is repeated once with a fresh one.
func (c *Client) call(ctx context.Context, path string, payload, out interface{}) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, domain.Unexpected(fmt.Errorf("encode carrier request: %w", err))
	}

	token, err := c.token(ctx)
	if err != nil {
		return 0, err
	}

	status, raw, err := c.post(ctx, path, body, token)
	if err != nil {
		return 0, err
	}
	if status == http.StatusUnauthorized {
		c.cache.Delete(tokenCacheKey)
		if token, err = c.token(ctx); err != nil {
			return 0, err
		}
		if status, raw, err = c.post(ctx, path, body, token); err != nil {
			return 0, err
		}
	}

	if status < 200 || status >= 300 {
		return status, carrierError(status, raw)
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return status, domain.ShippingProviderError(http.StatusBadGateway, "Shipping provider returned an unreadable response.", err)
		}
	}
	return status, nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	if v, ok := c.cache.Get(tokenCacheKey); ok {
		if t, ok := v.(string); ok && t != "" {
			return t, nil
		}
	}

	c.loginMu.Lock()
	defer c.loginMu.Unlock()
	if v, ok := c.cache.Get(tokenCacheKey); ok {
		if t, ok := v.(string); ok && t != "" {
			return t, nil
		}
	}

	body, err := json.Marshal(loginRequest{Email: c.email, Password: c.password})
	if err != nil {
		return "", domain.Unexpected(err)
	}
	status, raw, err := c.post(ctx, "/auth/login", body, "")
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", carrierError(status, raw)
	}

	var out loginResponse
	if err := json.Unmarshal(raw, &out); err != nil || out.Token == "" {
		return "", domain.ShippingProviderError(http.StatusBadGateway, "Shipping provider login returned no token.", err)
	}
	c.cache.Set(tokenCacheKey, out.Token, c.tokenTTL)
	logger.WithContext(ctx).Debug().Msg("carrier: logged in")
	return out.Token, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte, token string) (int, []byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, domain.Unexpected(fmt.Errorf("build carrier request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	otel.GetTextMapPropagator().Inject(callCtx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, transportError(callCtx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, transportError(callCtx, err)
	}
	return resp.StatusCode, raw, nil
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.ShippingProviderTimeout(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.ShippingProviderTimeout(err)
	}
	return domain.ShippingProviderError(0, "Shipping provider is unreachable.", err)
}

func carrierError(status int, raw []byte) error {
	var msg carrierMessage
	_ = json.Unmarshal(raw, &msg)
	if msg.Message == "" {
		msg.Message = http.StatusText(status)
	}
	return domain.ShippingProviderError(status, msg.Message, nil)
}

func retryable(err error) bool {
	appErr, ok := domain.AsError(err)
	if !ok {
		return false
	}
	switch appErr.Code {
	case domain.CodeShippingProviderTimeout:
		return true
	case domain.CodeShippingProviderError:
		return appErr.StatusCode == 0
	}
	return false
}
