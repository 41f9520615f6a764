package rest

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-sovereignty/internal/api/shared/constants"
	"github.com/feral-file/ff-sovereignty/internal/domain"
	"github.com/feral-file/ff-sovereignty/internal/store/schema"
)

// ListTerritoriesQueryParams holds query parameters for GET /territories
type ListTerritoriesQueryParams struct {
	// Filters
	RulerID     string `form:"ruler_id"`
	Sovereignty string `form:"sovereignty"`

	// Pagination
	Limit  int    `form:"limit,default=20"`
	Offset uint64 `form:"offset,default=0"`
}

// ListBidsQueryParams holds query parameters for GET /auctions/:id/bids
type ListBidsQueryParams struct {
	Limit  int    `form:"limit,default=20"`
	Offset uint64 `form:"offset,default=0"`
}

// GetChangesQueryParams holds query parameters for GET /changes
type GetChangesQueryParams struct {
	// Filters
	SubjectType string `form:"subject_type"`
	SubjectID   string `form:"subject_id"`

	// Pagination
	Anchor *uint64 `form:"anchor"` // Only changes with a greater cursor are returned
	Limit  int     `form:"limit,default=20"`
}

// ParseListTerritoriesQuery parses query parameters for GET /territories
func ParseListTerritoriesQuery(c *gin.Context) (*ListTerritoriesQueryParams, error) {
	var params ListTerritoriesQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	// Cap limit
	if params.Limit > constants.MAX_PAGE_SIZE {
		params.Limit = constants.MAX_PAGE_SIZE
	}

	return &params, nil
}

// Validate validates the query parameters
func (p *ListTerritoriesQueryParams) Validate() error {
	if p.Limit <= 0 {
		return fmt.Errorf("limit must be positive")
	}
	if p.Sovereignty != "" && !domain.IsValidSovereignty(domain.Sovereignty(p.Sovereignty)) {
		return fmt.Errorf("invalid sovereignty: %s", p.Sovereignty)
	}
	return nil
}

// Filters returns the optional filters as pointers
func (p *ListTerritoriesQueryParams) Filters() (*string, *domain.Sovereignty) {
	var rulerID *string
	if p.RulerID != "" {
		rulerID = &p.RulerID
	}
	var sovereignty *domain.Sovereignty
	if p.Sovereignty != "" {
		s := domain.Sovereignty(p.Sovereignty)
		sovereignty = &s
	}
	return rulerID, sovereignty
}

// ParseListBidsQuery parses query parameters for GET /auctions/:id/bids
func ParseListBidsQuery(c *gin.Context) (*ListBidsQueryParams, error) {
	var params ListBidsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	if params.Limit > constants.MAX_PAGE_SIZE {
		params.Limit = constants.MAX_PAGE_SIZE
	}
	if params.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	return &params, nil
}

// ParseGetChangesQuery parses query parameters for GET /changes
func ParseGetChangesQuery(c *gin.Context) (*GetChangesQueryParams, error) {
	var params GetChangesQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return nil, err
	}

	// Cap limit
	if params.Limit > constants.MAX_PAGE_SIZE {
		params.Limit = constants.MAX_PAGE_SIZE
	}

	return &params, nil
}

// Validate validates the query parameters
func (p *GetChangesQueryParams) Validate() error {
	if p.Limit <= 0 {
		return fmt.Errorf("limit must be positive")
	}
	switch schema.SubjectType(p.SubjectType) {
	case "", schema.SubjectTypeTerritory, schema.SubjectTypeAuction:
	default:
		return fmt.Errorf("invalid subject_type: %s", p.SubjectType)
	}
	if p.SubjectID != "" && p.SubjectType == "" {
		return fmt.Errorf("subject_id requires subject_type")
	}
	return nil
}

// Filters returns the optional filters as pointers
func (p *GetChangesQueryParams) Filters() (*schema.SubjectType, *string) {
	var subjectType *schema.SubjectType
	if p.SubjectType != "" {
		st := schema.SubjectType(p.SubjectType)
		subjectType = &st
	}
	var subjectID *string
	if p.SubjectID != "" {
		subjectID = &p.SubjectID
	}
	return subjectType, subjectID
}
