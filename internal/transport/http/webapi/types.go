package webapi

// Request bodies accepted by the API.
type (
	credentialsRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	generateRequest struct {
		Prompt string `json:"prompt"`
	}

	markEntitledRequest struct {
		Email string `json:"email"`
	}

	paypalWebhookRequest struct {
		Email         string `json:"email"`
		PaymentStatus string `json:"paymentStatus"`
	}
)

// Response bodies returned on success.
type (
	tokenResponse struct {
		Token   string `json:"token"`
		HasPaid bool   `json:"hasPaid"`
	}

	verifyResponse struct {
		Valid   bool   `json:"valid"`
		Email   string `json:"email"`
		HasPaid bool   `json:"hasPaid"`
	}

	generateResponse struct {
		Output      string `json:"output"`
		Explanation string `json:"explanation"`
	}

	okResponse struct {
		OK bool `json:"ok"`
	}
)
