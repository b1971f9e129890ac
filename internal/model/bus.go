package model

// Bus is reference data in the `buses` table.  Capacity bounds both the
// seat numbers that can be booked on a departure and the available-seat
// counter of every schedule that uses the bus.
type Bus struct {
    ID        uint64 // buses.id
    BusNumber string // buses.bus_number
    Capacity  int    // buses.capacity
    RouteID   uint64 // buses.route_id
}
