package models

import "google.golang.org/protobuf/types/known/timestamppb"

// -----------------------------------------------------------------------------

// AuthRequest carries the client credential pair.
type AuthRequest struct {
	ClientId     string `json:"clientId"`
	ClientSecret string `json:"clientSecret"`
}

// -----------------------------------------------------------------------------

// AuthResponse carries a signed bearer token and its absolute expiry.
type AuthResponse struct {
	AccessToken string                 `json:"accessToken"`
	ExpiresAt   *timestamppb.Timestamp `json:"expiresAt"`
}
