package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"recycle-schedule-backend/internal/model"
)

// parkResponse represents one recycling park. Exception days and opening
// periods are forwarded exactly as the upstream service delivered them.
type parkResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Latitude       *float64        `json:"latitude"`
	Longitude      *float64        `json:"longitude"`
	Location       string          `json:"location"`
	Description    string          `json:"description"`
	ExceptionDays  json.RawMessage `json:"exceptionDays"`
	OpeningPeriods json.RawMessage `json:"openingPeriods"`
}

// GetParks handles the GET /api/addresses/{address_id}/parks request.
func GetParks(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		addressID, err := strconv.ParseInt(c.Param("address_id"), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid address ID"})
			return
		}

		var parks []model.RecyclingPark
		if err := db.Where("address_id = ?", addressID).Order("name").Find(&parks).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve recycling parks"})
			return
		}

		responses := make([]parkResponse, 0, len(parks))
		for _, p := range parks {
			responses = append(responses, parkResponse{
				ID:             p.ID,
				Name:           p.Name,
				Slug:           p.Slug,
				Latitude:       p.Latitude,
				Longitude:      p.Longitude,
				Location:       p.Location,
				Description:    p.Description,
				ExceptionDays:  rawOrEmptyList(p.ExceptionDays),
				OpeningPeriods: rawOrEmptyList(p.OpeningPeriods),
			})
		}
		c.JSON(http.StatusOK, responses)
	}
}

// rawOrEmptyList guards against rows written before the raw columns existed.
func rawOrEmptyList(stored string) json.RawMessage {
	if stored == "" || !json.Valid([]byte(stored)) {
		return json.RawMessage("[]")
	}
	return json.RawMessage(stored)
}
