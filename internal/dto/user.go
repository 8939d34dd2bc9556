package dto

// SignupRequest is the body of POST /auth/signup.
// The password rule is registered on gin's validator in the handlers package.
type SignupRequest struct {
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,password"`
	Nickname string `json:"nickname" binding:"required,min=2,max=30"`
}
