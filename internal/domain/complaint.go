package domain

const MaxComplaintImages = 4

// Complaint attachments are references produced by the upload transport.
type Complaint struct {
	OrderID     string   `json:"orderId" validate:"required"`
	Subject     string   `json:"subject" validate:"required"`
	Description string   `json:"description"`
	Images      []string `json:"images" validate:"min=1,max=4,dive,required"`
	Video       string   `json:"video" validate:"required"`
}
