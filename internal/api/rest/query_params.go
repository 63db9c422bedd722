package rest

import (
	"github.com/gin-gonic/gin"

	apierrors "github.com/feral-file/consent-ledger/internal/api/shared/errors"
)

// BlockWindowQueryParams holds the block window of list endpoints
type BlockWindowQueryParams struct {
	SinceBlock *uint64 `form:"since_block"`
}

// ParseBlockWindowQuery parses ?since_block=
func ParseBlockWindowQuery(c *gin.Context) (*BlockWindowQueryParams, error) {
	var params BlockWindowQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, apierrors.NewValidationError("since_block must be a block number")
	}
	return &params, nil
}

// TransactionQueryParams holds query parameters for GET /consents/transactions/:tx_hash
type TransactionQueryParams struct {
	Wait bool `form:"wait,default=false"`
}

// ParseTransactionQuery parses ?wait=
func ParseTransactionQuery(c *gin.Context) (*TransactionQueryParams, error) {
	var params TransactionQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, apierrors.NewValidationError("wait must be a boolean")
	}
	return &params, nil
}

// ConsentStateQueryParams holds query parameters for GET /consents/:provider_address
type ConsentStateQueryParams struct {
	PatientAddress string `form:"patient_address"`
}
