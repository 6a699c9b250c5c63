package handlers

import (
	"net/http"

	bursarapi "github.com/rafaelfelix66/supernosso-coins/pkg/api/bursar"
	"github.com/rafaelfelix66/supernosso-coins/pkg/logging"
	"github.com/rafaelfelix66/supernosso-coins/pkg/middleware"
)

// ListAttributes returns the recognition catalog. Regular users see only
// active entries; admins can pass include_inactive=true to see everything.
func ListAttributes(c middleware.Context) {
	activeOnly := true
	if c.Query("include_inactive") == "true" && c.GetString("role") == "admin" {
		activeOnly = false
	}

	attributes, err := coinLedger.ListAttributes(c.Request.Context(), activeOnly)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, bursarapi.ListAttributesResponse{
		Attributes: attributes,
		Count:      len(attributes),
	})
}

// CreateAttribute adds a new recognition attribute (admin)
func CreateAttribute(c middleware.Context) {
	var req bursarapi.CreateAttributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bursarapi.ErrorResponse{Error: "name and a cost of at least 1 are required"})
		return
	}

	attr, err := coinLedger.CreateAttribute(c.Request.Context(), req.Name, req.Description, req.Cost, req.Icon, req.Color)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	logger.WithFields(logging.Fields{
		"attribute_id": attr.ID,
		"name":         attr.Name,
		"cost":         attr.Cost,
		"created_by":   c.GetString("user_id"),
	}).Info("Attribute created")

	c.JSON(http.StatusCreated, attr)
}

// UpdateAttribute partially updates an attribute (admin)
func UpdateAttribute(c middleware.Context) {
	id := c.Param("id")

	var req bursarapi.UpdateAttributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, bursarapi.ErrorResponse{Error: "invalid request body"})
		return
	}

	attr, err := coinLedger.UpdateAttribute(c.Request.Context(), id, req.Name, req.Description, req.Cost, req.Active, req.Icon, req.Color)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, attr)
}

// DeleteAttribute removes or deactivates an attribute (admin)
func DeleteAttribute(c middleware.Context) {
	id := c.Param("id")

	outcome, err := coinLedger.DeleteAttribute(c.Request.Context(), id)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	logger.WithFields(logging.Fields{
		"attribute_id": id,
		"outcome":      string(outcome),
		"deleted_by":   c.GetString("user_id"),
	}).Info("Attribute removed")

	c.JSON(http.StatusOK, bursarapi.DeleteAttributeResponse{Outcome: string(outcome)})
}
