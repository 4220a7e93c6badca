// Package gateway is the REST client for the back office API. It is
// the only place that knows the backend's endpoints and wire shapes;
// the rest of the service treats it as an opaque collaborator.
package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"storescan/internal/models"
)

// ErrNotFound is returned when the backend answers 404.
var ErrNotFound = errors.New("gateway: not found")

// Client talks to the back office REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// NewWithClient builds a Client with a caller-supplied http.Client,
// used by tests against httptest servers.
func NewWithClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: baseURL, httpClient: hc}
}

func (c *Client) doJSON(method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("gateway encode %s: %w", path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway %s %s error %d: %s", method, path, resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("gateway decode %s: %w", path, err)
		}
	}
	return nil
}

// StoreInventory fetches the product catalog of a store with current
// quantities.
func (c *Client) StoreInventory(storeID int) ([]models.Product, error) {
	var products []models.Product
	if err := c.doJSON("GET", "/api/store_products/"+strconv.Itoa(storeID), nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Product fetches a single product by id.
func (c *Client) Product(productID int) (models.Product, error) {
	var p models.Product
	if err := c.doJSON("GET", "/api/products/"+strconv.Itoa(productID), nil, &p); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// StockUpdate is one product quantity in a batch stock update.
type StockUpdate struct {
	ProductID int `json:"id_producto"`
	Quantity  int `json:"cantidad"`
}

// UpdateStock writes new stock levels for a store in one batch.
func (c *Client) UpdateStock(storeID int, updates []StockUpdate) error {
	body := map[string]interface{}{"products": updates}
	return c.doJSON("PATCH", "/api/store_products/"+strconv.Itoa(storeID), body, nil)
}

// CaptureEntry is one audit record in a batch capture write.
type CaptureEntry struct {
	UserID    int    `json:"id_usuario"`
	ProductID int    `json:"id_producto"`
	StoreID   int    `json:"id_sucursal"`
	Date      string `json:"fecha"`
}

// RecordCaptures writes the capture audit records for a commit.
func (c *Client) RecordCaptures(entries []CaptureEntry) error {
	body := map[string]interface{}{"captures": entries}
	return c.doJSON("POST", "/api/capture/", body, nil)
}

// Captures lists the capture history of a store.
func (c *Client) Captures(storeID int) ([]models.CaptureRecord, error) {
	var records []models.CaptureRecord
	if err := c.doJSON("GET", "/api/capture/"+strconv.Itoa(storeID), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// StoreOrders lists the orders assigned to a store.
func (c *Client) StoreOrders(storeID int) ([]models.Order, error) {
	var orders []models.Order
	if err := c.doJSON("GET", "/api/store_orders/"+strconv.Itoa(storeID), nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// OrderDetails fetches the expected line items of an order.
func (c *Client) OrderDetails(orderID int) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	if err := c.doJSON("GET", "/api/order_details/"+strconv.Itoa(orderID), nil, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// UpdateOrderStatus patches an order to a new status
// (pendiente, completada or incompleta).
func (c *Client) UpdateOrderStatus(orderID int, status string) error {
	body := map[string]string{"status": status}
	return c.doJSON("PATCH", "/api/orders/"+strconv.Itoa(orderID), body, nil)
}

// VerificationEntry is the audit record of an order verification.
type VerificationEntry struct {
	UserID  int    `json:"id_usuario"`
	OrderID int    `json:"id_orden"`
	StoreID int    `json:"id_sucursal"`
	Date    string `json:"fecha"`
}

// RecordVerification writes the verification audit record.
func (c *Client) RecordVerification(entry VerificationEntry) error {
	return c.doJSON("POST", "/api/verificate/", entry, nil)
}

// Verifications lists the verification history of a store.
func (c *Client) Verifications(storeID int) ([]models.VerificationRecord, error) {
	var records []models.VerificationRecord
	if err := c.doJSON("GET", "/api/verificate/"+strconv.Itoa(storeID), nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// AddStoreProduct registers a product in a store's inventory with an
// optional image, as a multipart upload.
func (c *Client) AddStoreProduct(productID, storeID, quantity int, imageName string, image io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("id_producto", strconv.Itoa(productID))
	mw.WriteField("id_sucursal", strconv.Itoa(storeID))
	mw.WriteField("cantidad", strconv.Itoa(quantity))
	if image != nil {
		part, err := mw.CreateFormFile("imagen", imageName)
		if err != nil {
			return fmt.Errorf("gateway multipart: %w", err)
		}
		if _, err := io.Copy(part, image); err != nil {
			return fmt.Errorf("gateway multipart copy: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest("POST", c.baseURL+"/api/store_products/", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway add product failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway add product error %d: %s", resp.StatusCode, string(raw))
	}
	return nil
}

// LoginResult is the backend's answer to a credential login.
type LoginResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login authenticates an operator against the back office.
func (c *Client) Login(email, password string) (LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var res LoginResult
	if err := c.doJSON("POST", "/api/login", body, &res); err != nil {
		return LoginResult{}, err
	}
	return res, nil
}

// UserStore fetches the branch an operator is assigned to.
func (c *Client) UserStore(userID int) (models.Store, error) {
	var assignment struct {
		Store models.Store `json:"Sucursal"`
	}
	if err := c.doJSON("GET", "/api/store_user/"+strconv.Itoa(userID), nil, &assignment); err != nil {
		return models.Store{}, err
	}
	return assignment.Store, nil
}
