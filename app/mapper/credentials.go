package mapper

import (
	"time"

	"github.com/vibast-solutions/ms-go-book-payments/app/entity"
	"github.com/vibast-solutions/ms-go-book-payments/app/types"
)

const maskedVisible = 4

func CredentialSetToDTO(item *entity.CredentialSet) *types.CredentialSet {
	if item == nil {
		return nil
	}
	return &types.CredentialSet{
		Id:            item.ID,
		Mode:          string(item.Mode),
		ProjectId:     item.ProjectID,
		ProjectSecret: MaskSecret(item.ProjectSecret),
		SignatureKey:  MaskSecret(item.SignatureKey),
		ApiBaseUrl:    item.BaseURL(),
		IsActive:      item.IsActive,
		CreatedAt:     item.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     item.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func CredentialSetsToDTO(items []*entity.CredentialSet) []*types.CredentialSet {
	result := make([]*types.CredentialSet, 0, len(items))
	for _, item := range items {
		result = append(result, CredentialSetToDTO(item))
	}
	return result
}

// MaskSecret keeps the last few characters so operators can tell sets apart.
// Short secrets are masked entirely.
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= maskedVisible*2 {
		return "****"
	}
	return "****" + secret[len(secret)-maskedVisible:]
}
