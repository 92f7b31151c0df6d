package engine

// PriceLevel is a FIFO queue of orders sharing one price. Arrival order is
// the time priority of the level.
type PriceLevel struct {
	price    uint64
	quantity uint64 // Sum of member quantities
	orders   []*Order
}

func (level *PriceLevel) Price() uint64 { return level.price }

func (level *PriceLevel) Len() int { return len(level.orders) }

func (level *PriceLevel) Empty() bool { return len(level.orders) == 0 }

// Quantity returns the aggregate remaining quantity of the level.
func (level *PriceLevel) Quantity() uint64 { return level.quantity }

// Front returns the oldest order. Callers must not change its quantity
// directly, use shrink so the aggregate stays in step.
func (level *PriceLevel) Front() *Order { return level.orders[0] }

func (level *PriceLevel) PopFront() *Order {
	o := level.orders[0]
	level.orders[0] = nil
	level.orders = level.orders[1:]
	level.quantity -= o.Quantity
	return o
}

func (level *PriceLevel) PushBack(o *Order) {
	level.orders = append(level.orders, o)
	level.quantity += o.Quantity
}

// Remove deletes the order with the given id wherever it sits in the queue.
// This is linear in the size of the level; levels are shallow in practice
// and any other structure would have to keep the same FIFO order anyway.
func (level *PriceLevel) Remove(id string) *Order {
	for i, o := range level.orders {
		if o.ID != id {
			continue
		}
		copy(level.orders[i:], level.orders[i+1:])
		level.orders[len(level.orders)-1] = nil
		level.orders = level.orders[:len(level.orders)-1]
		level.quantity -= o.Quantity
		return o
	}
	return nil
}

// find returns the member order with the given id.
func (level *PriceLevel) find(id string) *Order {
	for _, o := range level.orders {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// shrink takes n shares off a member order.
func (level *PriceLevel) shrink(o *Order, n uint64) {
	o.Quantity -= n
	level.quantity -= n
}
