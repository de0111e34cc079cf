package models

// ContactRequest is a storefront enquiry. Phone is optional.
type ContactRequest struct {
	Name    string `json:"name" binding:"required,notblank,min=2,max=100"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone" binding:"omitempty,in_phone"`
	Subject string `json:"subject" binding:"required,notblank,max=200"`
	Message string `json:"message" binding:"required,notblank,min=10,max=5000"`
}
