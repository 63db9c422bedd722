package dto

import (
	"time"

	"github.com/feral-file/consent-ledger/internal/domain"
	"github.com/feral-file/consent-ledger/internal/store/schema"
)

// ChallengeResponse represents the message a user signs to bind a wallet
type ChallengeResponse struct {
	UserID    string `json:"user_id"`
	Challenge string `json:"challenge"`
}

// WalletLinkResponse represents a wallet binding
type WalletLinkResponse struct {
	UserID        string       `json:"user_id"`
	WalletAddress string       `json:"wallet_address"`
	Chain         domain.Chain `json:"chain"`
	DID           domain.DID   `json:"did"`
	BoundAt       time.Time    `json:"bound_at"`
	SupersededAt  *time.Time   `json:"superseded_at,omitempty"`
	Active        bool         `json:"active"`
}

// WalletsResponse represents the wallets of a user
type WalletsResponse struct {
	Active  *WalletLinkResponse  `json:"active"`
	History []WalletLinkResponse `json:"history"`
}

// ConsentStateResponse represents the consent of a (patient, provider) pair
type ConsentStateResponse struct {
	PatientAddress  string              `json:"patient_address"`
	ProviderAddress string              `json:"provider_address"`
	State           domain.ConsentState `json:"state"`
}

// MapWalletLinkToDTO maps a stored link to its response
func MapWalletLinkToDTO(link *schema.WalletLink) *WalletLinkResponse {
	if link == nil {
		return nil
	}
	return &WalletLinkResponse{
		UserID:        link.UserID,
		WalletAddress: link.WalletAddress,
		Chain:         link.Chain,
		DID:           domain.NewDID(link.WalletAddress, link.Chain),
		BoundAt:       link.BoundAt,
		SupersededAt:  link.SupersededAt,
		Active:        link.Active(),
	}
}

// MapWalletsToDTO maps the active link and history of a user
func MapWalletsToDTO(active *schema.WalletLink, links []schema.WalletLink) *WalletsResponse {
	history := make([]WalletLinkResponse, 0, len(links))
	for i := range links {
		history = append(history, *MapWalletLinkToDTO(&links[i]))
	}
	return &WalletsResponse{
		Active:  MapWalletLinkToDTO(active),
		History: history,
	}
}
