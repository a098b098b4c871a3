package cart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_AddAndLines(t *testing.T) {
	var c Cart
	assert.True(t, c.IsEmpty())

	c.Add(5)
	c.Add(2)
	c.Add(5)
	c.Add(9)

	assert.Equal(t, 2, c.Quantity(5))
	assert.Equal(t, 1, c.Quantity(2))
	assert.Equal(t, 0, c.Quantity(7))
	assert.Equal(t, []Line{{2, 1}, {5, 2}, {9, 1}}, c.Lines())
	assert.Equal(t, []int{2, 5, 9}, c.ProductIDs())

	c.Remove(9)
	assert.Equal(t, 2, c.Len())
}

func TestCart_JSONUsesStringKeys(t *testing.T) {
	c := New()
	c.Add(2)
	c.Add(2)
	c.Add(2)

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"2":3}`, string(data))

	decoded := New()
	require.NoError(t, json.Unmarshal([]byte(`{"2":3,"4":0}`), decoded))
	assert.Equal(t, []Line{{2, 3}}, decoded.Lines())

	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), decoded))
}

func TestCart_CloneIsIndependent(t *testing.T) {
	c := New()
	c.Add(1)
	cp := c.Clone()
	cp.Add(1)
	assert.Equal(t, 1, c.Quantity(1))
	assert.Equal(t, 2, cp.Quantity(1))
}
