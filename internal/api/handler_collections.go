package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"recycle-schedule-backend/internal/model"
	"recycle-schedule-backend/internal/parse"
)

// collectionResponse is one scheduled pickup joined with its fraction metadata.
type collectionResponse struct {
	Date       string `json:"date"`
	FractionID string `json:"fractionId"`
	Name       string `json:"name"`
	Color      string `json:"color"`
}

// GetCollections handles the GET /api/addresses/{address_id}/collections request.
// The optional "from"/"until" query parameters bound the returned window.
func GetCollections(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		addressID, err := strconv.ParseInt(c.Param("address_id"), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid address ID"})
			return
		}

		window, err := parse.ParseWindow(c.Query("from"), c.Query("until"), time.Now())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		type row struct {
			Date       time.Time
			FractionID string
			Name       string
			Color      string
		}
		var rows []row
		if err := db.
			Model(&model.CollectionDay{}).
			Select("collection_days.date, collection_days.fraction_id, fractions.name, fractions.color").
			Joins("LEFT JOIN fractions ON fractions.address_id = collection_days.address_id AND fractions.logo_id = collection_days.fraction_id").
			Where("collection_days.address_id = ? AND collection_days.date >= ? AND collection_days.date < ?",
				addressID, window.From, window.Until).
			Order("collection_days.date").
			Scan(&rows).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve collections"})
			return
		}

		responses := make([]collectionResponse, 0, len(rows))
		for _, r := range rows {
			responses = append(responses, collectionResponse{
				Date:       r.Date.Format("2006-01-02"),
				FractionID: r.FractionID,
				Name:       r.Name,
				Color:      r.Color,
			})
		}
		c.JSON(http.StatusOK, responses)
	}
}

// fractionResponse is one entry of an address's fraction catalog.
type fractionResponse struct {
	LogoID string `json:"logoId"`
	Name   string `json:"name"`
	Color  string `json:"color"`
}

// GetFractions handles the GET /api/addresses/{address_id}/fractions request.
func GetFractions(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		addressID, err := strconv.ParseInt(c.Param("address_id"), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid address ID"})
			return
		}

		var fractions []model.Fraction
		if err := db.Where("address_id = ?", addressID).Order("name").Find(&fractions).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve fractions"})
			return
		}

		responses := make([]fractionResponse, 0, len(fractions))
		for _, f := range fractions {
			responses = append(responses, fractionResponse{
				LogoID: f.LogoID,
				Name:   f.Name,
				Color:  f.Color,
			})
		}
		c.JSON(http.StatusOK, responses)
	}
}
