package drawing

// ReferenceSize is the coordinate space the built-in drawings are authored in.
var ReferenceSize = Size{Width: 200, Height: 200}

// Human returns the built-in stick figure.
func Human() *Drawing {
	return MustNew("human", "Human", ReferenceSize, []Region{
		{Name: "head", Shape: Circle{CX: 100, CY: 80, R: 20}, Reference: RGB(255, 255, 0)},
		{Name: "body", Shape: Rect{X: 80, Y: 100, W: 40, H: 60}, Reference: RGB(0, 0, 255)},
		{Name: "left_arm", Shape: Rect{X: 60, Y: 110, W: 20, H: 40}, Reference: RGB(255, 0, 0)},
		{Name: "right_arm", Shape: Rect{X: 120, Y: 110, W: 20, H: 40}, Reference: RGB(255, 0, 0)},
		{Name: "left_leg", Shape: Rect{X: 85, Y: 160, W: 15, H: 40}, Reference: RGB(0, 255, 0)},
		{Name: "right_leg", Shape: Rect{X: 100, Y: 160, W: 15, H: 40}, Reference: RGB(0, 255, 0)},
	},
		Circle{CX: 95, CY: 75, R: 3},
		Circle{CX: 105, CY: 75, R: 3},
	)
}

// Flower returns the built-in four-petal flower.
func Flower() *Drawing {
	green := RGB(0, 255, 0)
	return MustNew("flower", "Flower", ReferenceSize, []Region{
		{Name: "petal_top", Shape: Circle{CX: 100, CY: 70, R: 20}, Reference: RGB(255, 192, 203)},
		{Name: "petal_right", Shape: Circle{CX: 120, CY: 90, R: 20}, Reference: RGB(255, 255, 0)},
		{Name: "petal_bottom", Shape: Circle{CX: 100, CY: 110, R: 20}, Reference: RGB(255, 0, 255)},
		{Name: "petal_left", Shape: Circle{CX: 80, CY: 90, R: 20}, Reference: RGB(0, 255, 255)},
		{Name: "stem", Shape: Rect{X: 95, Y: 130, W: 10, H: 50}, Reference: green},
		{Name: "leaf1", Shape: Circle{CX: 110, CY: 140, R: 12}, Reference: green},
		{Name: "leaf2", Shape: Circle{CX: 85, CY: 150, R: 12}, Reference: green},
	})
}

// Catalog is an ordered, keyed set of drawings.
type Catalog struct {
	list  []*Drawing
	byKey map[string]int
}

// NewCatalog builds a catalog; later duplicates of a key are ignored.
func NewCatalog(drawings ...*Drawing) *Catalog {
	c := &Catalog{byKey: make(map[string]int, len(drawings))}
	for _, d := range drawings {
		if d == nil {
			continue
		}
		if _, dup := c.byKey[d.Key()]; dup {
			continue
		}
		c.byKey[d.Key()] = len(c.list)
		c.list = append(c.list, d)
	}
	return c
}

// Builtin returns the catalog of built-in drawings in display order.
func Builtin() *Catalog {
	return NewCatalog(Human(), Flower())
}

// Len returns the number of drawings.
func (c *Catalog) Len() int {
	return len(c.list)
}

// Keys returns drawing keys in catalog order.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.list))
	for i, d := range c.list {
		keys[i] = d.Key()
	}
	return keys
}

// Get looks up a drawing by key.
func (c *Catalog) Get(key string) (*Drawing, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return nil, false
	}
	return c.list[i], true
}

// First returns the first drawing, or nil for an empty catalog.
func (c *Catalog) First() *Drawing {
	if len(c.list) == 0 {
		return nil
	}
	return c.list[0]
}

// Next returns the drawing after key, cycling. An unknown key yields First.
func (c *Catalog) Next(key string) *Drawing {
	i, ok := c.byKey[key]
	if !ok {
		return c.First()
	}
	return c.list[(i+1)%len(c.list)]
}
