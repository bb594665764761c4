package models

// TokenClaims represents the claims carried in an access token
type TokenClaims struct {
	Sub string `json:"sub"` // Username
	Exp int64  `json:"exp"` // Expiration time
	Iat int64  `json:"iat"` // Issued at
	Iss string `json:"iss"` // Issuer
}

// TokenResponse is the payload returned from the login endpoints
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
