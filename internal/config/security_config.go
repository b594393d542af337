// config/security_config.go
package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
	SecurityAdmin                       // Access token with the ADMIN role required
)

// EndpointSecurityConfig maps HTTP route names to their required security level
var EndpointSecurityConfig = map[string]SecurityLevel{
	// Public
	"Health":             SecurityPublic,
	"GetVehicle":         SecurityPublic,
	"CheckAvailability":  SecurityPublic,
	"ListVehicleReviews": SecurityPublic,

	// Vehicles - Access Protected
	"RegisterVehicle":        SecurityAccess,
	"ListMyVehicles":         SecurityAccess,
	"SetVehicleAvailability": SecurityAccess,

	// Rentals - Access Protected
	"CreateRental":       SecurityAccess,
	"ListMyRentals":      SecurityAccess,
	"GetRental":          SecurityAccess,
	"SubmitCounteroffer": SecurityAccess,
	"AcceptCounteroffer": SecurityAccess,
	"RejectCounteroffer": SecurityAccess,
	"VerifyPayment":      SecurityAccess,
	"ExtendRental":       SecurityAccess,
	"CompleteRental":     SecurityAccess,
	"CancelRental":       SecurityAccess,

	// Reviews and reports - Access Protected
	"CreateVehicleReview": SecurityAccess,
	"CreateRenterReview":  SecurityAccess,
	"CreateReport":        SecurityAccess,

	// Notifications - Access Protected
	"ListNotifications":        SecurityAccess,
	"UnreadCount":              SecurityAccess,
	"MarkNotificationRead":     SecurityAccess,
	"MarkAllNotificationsRead": SecurityAccess,

	// Admin
	"VerifyVehicle": SecurityAdmin,
	"ProcessReport": SecurityAdmin,
}

// GetSecurityLevel returns the security level for a given route
func GetSecurityLevel(route string) SecurityLevel {
	if level, exists := EndpointSecurityConfig[route]; exists {
		return level
	}
	// Default to access protection for unknown routes
	return SecurityAccess
}
