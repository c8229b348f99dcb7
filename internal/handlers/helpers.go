package handlers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"fittrack/internal/utils"
	"fittrack/internal/validators"
)

// currentUserID reads the authenticated user id set by the auth middleware.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}

	userID, ok := raw.(primitive.ObjectID)
	if !ok {
		utils.BadRequestResponse(c, "Invalid user ID")
		return primitive.NilObjectID, false
	}

	return userID, true
}

// pathObjectID parses an ObjectID path parameter.
func pathObjectID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+param)
		return primitive.NilObjectID, false
	}
	return id, true
}

// validateRequest runs struct validation and writes the error response on
// failure.
func validateRequest(c *gin.Context, req interface{}) bool {
	if errs := validators.ValidateStruct(req); len(errs) > 0 {
		details := make(map[string]string, len(errs))
		for _, e := range errs {
			details[e.Field] = e.Message
		}
		utils.ValidationErrorResponse(c, details)
		return false
	}
	return true
}
