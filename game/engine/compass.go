package engine

// compassOrder is the clockwise order the compass is built in
var compassOrder = [...]Direction{North, East, South, West}

// Compass answers which direction lies next to another one. Left is one step
// counter-clockwise, Right is one step clockwise.
type Compass struct {
	points [len(compassOrder)]Direction
	size   int
}

// NewCompass builds the N, E, S, W cycle
func NewCompass() *Compass {
	c := &Compass{}
	for _, d := range compassOrder {
		c.insert(d)
	}
	return c
}

// insert appends d after the current last point, closing the cycle back to the head
func (c *Compass) insert(d Direction) {
	if c.size == len(c.points) {
		return
	}
	c.points[c.size] = d
	c.size++
}

// index scans from the head for d
func (c *Compass) index(d Direction) (int, bool) {
	for i := 0; i < c.size; i++ {
		if c.points[i] == d {
			return i, true
		}
	}
	return -1, false
}

// Lookup returns d if it is one of the compass points
func (c *Compass) Lookup(d Direction) (Direction, bool) {
	i, ok := c.index(d)
	if !ok {
		return DirectionUndefined, false
	}
	return c.points[i], true
}

// Left returns the point counter-clockwise from d, or DirectionUndefined if
// d is not on the compass.
func (c *Compass) Left(d Direction) Direction {
	i, ok := c.index(d)
	if !ok {
		return DirectionUndefined
	}
	return c.points[(i+c.size-1)%c.size]
}

// Right returns the point clockwise from d, or DirectionUndefined if d is
// not on the compass.
func (c *Compass) Right(d Direction) Direction {
	i, ok := c.index(d)
	if !ok {
		return DirectionUndefined
	}
	return c.points[(i+1)%c.size]
}
