package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"recycle-schedule-backend/internal/model"
)

// AddressResponse represents the API response for a single watched address.
type AddressResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	Street         string `json:"street"`
	HouseNumber    int    `json:"houseNumber"`
	ZipCode        int    `json:"zipCode"`
	Language       string `json:"language"`
	TotalFractions int64  `json:"totalFractions"`
}

// GetAddresses handles the GET /api/addresses request.
func GetAddresses(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var addresses []model.Address
		if err := db.Find(&addresses).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve addresses"})
			return
		}

		type AggRow struct {
			AddressID      int64
			TotalFractions int64
		}
		var aggs []AggRow
		if err := db.
			Model(&model.Fraction{}).
			Select("address_id as address_id, COUNT(*) as total_fractions").
			Group("address_id").
			Scan(&aggs).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate fractions"})
			return
		}

		aggMap := make(map[int64]AggRow, len(aggs))
		for _, a := range aggs {
			aggMap[a.AddressID] = a
		}

		responses := make([]AddressResponse, 0, len(addresses))
		for _, a := range addresses {
			agg := aggMap[a.ID]
			responses = append(responses, AddressResponse{
				ID:             a.ID,
				Name:           a.Name,
				Slug:           a.Slug,
				Street:         a.Street,
				HouseNumber:    a.HouseNumber,
				ZipCode:        a.ZipCode,
				Language:       a.Language,
				TotalFractions: agg.TotalFractions,
			})
		}
		c.JSON(http.StatusOK, responses)
	}
}
