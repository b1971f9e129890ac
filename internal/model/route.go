package model

// Route is reference data in the `routes` table: a named origin and
// destination pair with an expected trip duration in minutes.
type Route struct {
    ID          uint64 // routes.id
    RouteName   string // routes.route_name
    StartPoint  string // routes.start_point
    EndPoint    string // routes.end_point
    DurationMin int    // routes.duration_min
}
