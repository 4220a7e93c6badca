package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storescan/internal/models"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewWithClient(srv.URL, srv.Client())
}

func TestStoreInventory(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/store_products/3" || r.Method != "GET" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode([]models.Product{{ID: 1, Name: "Gorra", Quantity: 12}})
	})

	products, err := c.StoreInventory(3)
	if err != nil {
		t.Fatalf("StoreInventory: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Gorra" || products[0].Quantity != 12 {
		t.Errorf("unexpected products: %+v", products)
	}
}

func TestProductNotFound(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := c.Product(99)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStockBody(t *testing.T) {
	var got struct {
		Products []StockUpdate `json:"products"`
	}
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PATCH" || r.URL.Path != "/api/store_products/3" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true}`))
	})

	err := c.UpdateStock(3, []StockUpdate{{ProductID: 1, Quantity: 5}, {ProductID: 2, Quantity: 7}})
	if err != nil {
		t.Fatalf("UpdateStock: %v", err)
	}
	if len(got.Products) != 2 || got.Products[0].ProductID != 1 || got.Products[1].Quantity != 7 {
		t.Errorf("unexpected body: %+v", got)
	}
}

func TestRecordCapturesBody(t *testing.T) {
	var got struct {
		Captures []CaptureEntry `json:"captures"`
	}
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/capture/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true}`))
	})

	err := c.RecordCaptures([]CaptureEntry{{UserID: 7, ProductID: 1, StoreID: 3, Date: "2026-08-31"}})
	if err != nil {
		t.Fatalf("RecordCaptures: %v", err)
	}
	if len(got.Captures) != 1 || got.Captures[0].UserID != 7 || got.Captures[0].Date != "2026-08-31" {
		t.Errorf("unexpected body: %+v", got)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	var got map[string]string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PATCH" || r.URL.Path != "/api/orders/42" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true}`))
	})

	if err := c.UpdateOrderStatus(42, "completada"); err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
	if got["status"] != "completada" {
		t.Errorf("unexpected body: %v", got)
	}
}

func TestServerErrorSurfaced(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", 500)
	})

	err := c.UpdateOrderStatus(42, "completada")
	if err == nil {
		t.Fatal("expected error on 500")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error should carry the status code: %v", err)
	}
}

func TestOrderDetails(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/order_details/42" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]models.OrderLine{
			{OrderID: 42, ProductID: 1, Quantity: 2, Product: models.Product{ID: 1, Name: "Gorra"}},
		})
	})

	details, err := c.OrderDetails(42)
	if err != nil {
		t.Fatalf("OrderDetails: %v", err)
	}
	if len(details) != 1 || details[0].Product.Name != "Gorra" || details[0].Quantity != 2 {
		t.Errorf("unexpected details: %+v", details)
	}
}

func TestAddStoreProductMultipart(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if r.FormValue("id_producto") != "99" || r.FormValue("id_sucursal") != "3" || r.FormValue("cantidad") != "0" {
			t.Errorf("unexpected fields: %v", r.MultipartForm.Value)
		}
		f, hdr, err := r.FormFile("imagen")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer f.Close()
		if hdr.Filename != "product.png" {
			t.Errorf("unexpected filename: %s", hdr.Filename)
		}
		w.Write([]byte(`{"ok":true}`))
	})

	err := c.AddStoreProduct(99, 3, 0, "product.png", strings.NewReader("fake-png-bytes"))
	if err != nil {
		t.Fatalf("AddStoreProduct: %v", err)
	}
}

func TestLogin(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(LoginResult{
			Token: "tok-123",
			User:  models.User{ID: 7, Email: "laura@example.com", Role: "empleado"},
		})
	})

	res, err := c.Login("laura@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.Token != "tok-123" || res.User.ID != 7 {
		t.Errorf("unexpected result: %+v", res)
	}
}
