package carapi

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/shehrozeikram/CarWheels-sub000/models"
)

// PlaceholderImage 是車輛沒有附圖時的預設圖片
const PlaceholderImage = "/assets/images/placeholder-car.png"

// ToListing 把外部 API 的車輛轉成刊登。
// 純函式：價格顯示字串由 FormatPKR 產生，缺圖時退回預設圖片。
func ToListing(vehicle Vehicle) models.Listing {
	return models.Listing{
		ID:           vehicle.ID,
		Category:     vehicle.Model,
		Title:        strings.TrimSpace(fmt.Sprintf("%s %s %d", vehicle.Make, vehicle.Model, vehicle.Year)),
		Price:        vehicle.Price,
		PriceDisplay: models.FormatPKR(vehicle.Price),
		Year:         vehicle.Year,
		Mileage:      vehicle.Mileage,
		Location:     vehicle.City,
		FuelType:     fuelType(vehicle.Fuel),
		ImageURL:     lo.Ternary(vehicle.ImageURL != "", vehicle.ImageURL, PlaceholderImage),
		Status:       models.ListingActive,
	}
}

// ToCatalog 依車款分組，輸出可直接交給 ListingStore.Initialize 的目錄
func ToCatalog(vehicles []Vehicle) map[string][]models.Listing {
	catalog := map[string][]models.Listing{}
	for _, vehicle := range vehicles {
		listing := ToListing(vehicle)
		catalog[listing.Category] = append(catalog[listing.Category], listing)
	}
	return catalog
}

func fuelType(fuel string) models.FuelType {
	switch strings.ToLower(fuel) {
	case "diesel":
		return models.FuelDiesel
	case "hybrid":
		return models.FuelHybrid
	default:
		return models.FuelPetrol
	}
}
