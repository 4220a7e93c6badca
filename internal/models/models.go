package models

// APIResponse is the standard JSON envelope for all API responses.
type APIResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total int `json:"total,omitempty"`
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// Product is a catalog product as served by the back office.
// Field names on the wire are the backend's (Spanish) schema.
type Product struct {
	ID       int     `json:"id"`
	Name     string  `json:"nombre"`
	Price    float64 `json:"precio"`
	Gender   string  `json:"genero"`
	Kind     string  `json:"tipo"`
	Quantity int     `json:"cantidad"`
	ImageS   string  `json:"imagenS"`
	Image    string  `json:"imagen"`
}

// StagedCapture is a scanned product waiting in the local staging
// list. Quantity holds the operator's counted quantity, not the
// catalog stock.
type StagedCapture struct {
	ID       int     `json:"id"`
	Name     string  `json:"nombre"`
	Price    float64 `json:"precio"`
	Gender   string  `json:"genero"`
	Kind     string  `json:"tipo"`
	Quantity int     `json:"cantidad"`
	ImageS   string  `json:"imagenS"`
	Image    string  `json:"imagen"`
}

// Staged builds a StagedCapture from a catalog product. The counted
// quantity always starts at zero and is edited by the operator.
func Staged(p Product) StagedCapture {
	return StagedCapture{
		ID:     p.ID,
		Name:   p.Name,
		Price:  p.Price,
		Gender: p.Gender,
		Kind:   p.Kind,
		ImageS: p.ImageS,
		Image:  p.Image,
	}
}

// Order is a purchase order assigned to a store.
type Order struct {
	ID          int    `json:"id"`
	StoreID     int    `json:"id_sucursal"`
	Date        string `json:"fecha"`
	Description string `json:"descripcion"`
	Status      string `json:"status"`
	StoreName   string `json:"sucursal"`
}

// OrderLine is one expected line item of an order. Read-only ground
// truth from the back office; never mutated locally.
type OrderLine struct {
	OrderID   int     `json:"id_orden"`
	ProductID int     `json:"id_producto"`
	Quantity  int     `json:"cantidad"`
	Product   Product `json:"Producto"`
}

// CaptureRecord is the audit record of a committed stock count.
type CaptureRecord struct {
	ID        int     `json:"id"`
	UserID    int     `json:"id_usuario"`
	ProductID int     `json:"id_producto"`
	StoreID   int     `json:"id_sucursal"`
	Date      string  `json:"fecha"`
	User      User    `json:"Usuario"`
	Product   Product `json:"Producto"`
}

// VerificationRecord is the audit record of an order verification.
type VerificationRecord struct {
	ID      int    `json:"id"`
	UserID  int    `json:"id_usuario"`
	OrderID int    `json:"id_orden"`
	StoreID int    `json:"id_sucursal"`
	Date    string `json:"fecha"`
	User    User   `json:"Usuario"`
	Order   Order  `json:"Orden"`
}

// User is an account as served by the back office.
type User struct {
	ID           int    `json:"id"`
	Name         string `json:"nombre"`
	PaternalName string `json:"apellido_paterno"`
	MaternalName string `json:"apellido_materno"`
	Email        string `json:"email"`
	Role         string `json:"rol"`
}

// Store is a retail branch.
type Store struct {
	ID      int    `json:"id"`
	Name    string `json:"nombre"`
	Address string `json:"direccion"`
	Phone   string `json:"telefono"`
}
