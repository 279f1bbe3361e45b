package orders

import (
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/validate"
)

// ValidateComplaint checks the attachment and field rules of a complaint.
// It must pass before the complaint is sent anywhere.
func ValidateComplaint(c domain.Complaint) error {
	c.Subject = strings.TrimSpace(c.Subject)
	c.Video = strings.TrimSpace(c.Video)
	return validate.Struct(c)
}
