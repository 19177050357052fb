package server

const (
	RouteRegister = "/users/register"
	RouteLogin    = "/users/login"
	RouteStatus   = "/users/status"
	RouteLogout   = "/users/logout"
	RouteHealth   = "/health"
)
