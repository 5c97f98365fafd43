package directory

import (
	"fmt"
	"sync"

	"mazadi/internal/auctionerrors"
	model "mazadi/internal/models"
)

// ProductDirectory resolves externally-owned product records.
type ProductDirectory interface {
	GetProduct(productID string) (model.Product, error)
}

// UserDirectory resolves externally-owned user records, used for
// bidder display names in broadcast payloads.
type UserDirectory interface {
	GetUser(userID string) (model.User, error)
}

// MemoryDirectory is an in-memory ProductDirectory and UserDirectory,
// used for wiring without the external catalog services and for tests.
type MemoryDirectory struct {
	mu       sync.RWMutex
	products map[string]model.Product
	users    map[string]model.User
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		products: make(map[string]model.Product),
		users:    make(map[string]model.User),
	}
}

func (d *MemoryDirectory) GetProduct(productID string) (model.Product, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	p, ok := d.products[productID]
	if !ok {
		return model.Product{}, fmt.Errorf("get product %s: %w", productID, auctionerrors.ErrProductNotFound)
	}
	return p, nil
}

func (d *MemoryDirectory) GetUser(userID string) (model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return u, nil
}

// AddProduct registers a product record.
func (d *MemoryDirectory) AddProduct(p model.Product) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.products[p.ProductID] = p
}

// AddUser registers a user record.
func (d *MemoryDirectory) AddUser(u model.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.UserID] = u
}
