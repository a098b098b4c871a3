package cart

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Cart maps product ids to positive quantities. The zero value is an empty
// cart ready to use.
type Cart struct {
	items map[int]int
}

// Line is one (product, quantity) pair of a cart.
type Line struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

func New() *Cart {
	return &Cart{items: map[int]int{}}
}

// Add increments the quantity of productID by one.
func (c *Cart) Add(productID int) {
	if c.items == nil {
		c.items = map[int]int{}
	}
	c.items[productID]++
}

func (c *Cart) Quantity(productID int) int {
	return c.items[productID]
}

func (c *Cart) Remove(productID int) {
	delete(c.items, productID)
}

func (c *Cart) Len() int { return len(c.items) }

func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// Lines returns the cart contents ordered by product id.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.items))
	for id, qty := range c.items {
		out = append(out, Line{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// ProductIDs returns the ids held by the cart in ascending order.
func (c *Cart) ProductIDs() []int {
	lines := c.Lines()
	ids := make([]int, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	return ids
}

func (c *Cart) Clone() *Cart {
	out := New()
	for id, qty := range c.items {
		out.items[id] = qty
	}
	return out
}

// MarshalJSON encodes the cart as an object keyed by product id, the form
// stored in the session.
func (c *Cart) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, len(c.items))
	for id, qty := range c.items {
		m[strconv.Itoa(id)] = qty
	}
	return json.Marshal(m)
}

func (c *Cart) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	c.items = make(map[int]int, len(m))
	for k, qty := range m {
		id, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("cart: invalid product id %q", k)
		}
		if qty <= 0 {
			continue
		}
		c.items[id] = qty
	}
	return nil
}
