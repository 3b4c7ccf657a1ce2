package store

import (
	"github.com/shehrozeikram/CarWheels-sub000/models"
)

// PlaceholderImage 是沒有照片時使用的預設圖檔
const PlaceholderImage = "/assets/images/placeholder-car.png"

func seedListing(id, title string, price int64, year, mileage int, location string, fuel models.FuelType) models.Listing {
	return models.Listing{
		ID:           id,
		Title:        title,
		Price:        price,
		PriceDisplay: models.FormatPKR(price),
		Year:         year,
		Mileage:      mileage,
		Location:     location,
		FuelType:     fuel,
		ImageURL:     PlaceholderImage,
		Status:       models.ListingActive,
	}
}

// DefaultCatalog 是 API 無法使用時的靜態後備資料，
// 也是冷啟動時的初始刊登內容。
//
// 注意："Urgent" 這類促銷分類和車款分類之間存在重複刊登，
// 這是沿用原始資料的現象，store 本身不強制單一分類。
func DefaultCatalog() map[string][]models.Listing {
	corolla2024 := seedListing("cw-seed-001", "Toyota Corolla Altis Grande 2024", 75*models.Lac, 2024, 3_500, "Karachi", models.FuelPetrol)
	corolla2024.IsNew = true
	corolla2024.IsFeatured = true

	corolla2021 := seedListing("cw-seed-002", "Toyota Corolla GLi 2021", 52*models.Lac, 2021, 48_000, "Lahore", models.FuelPetrol)
	corolla2021.Inspected = true

	civicImported := seedListing("cw-seed-003", "Honda Civic Oriel 2023 imported", 95*models.Lac, 2023, 21_000, "Islamabad", models.FuelPetrol)
	civicImported.IsCertified = true
	civicImported.Inspected = true

	civicOld := seedListing("cw-seed-004", "Honda Civic VTi 2017", 38*models.Lac, 2017, 98_000, "Rawalpindi", models.FuelPetrol)

	altoNew := seedListing("cw-seed-005", "Suzuki Alto VXL AGS 2024", 29*models.Lac, 2024, 1_200, "Karachi", models.FuelPetrol)
	altoNew.IsNew = true

	altoUsed := seedListing("cw-seed-006", "Suzuki Alto VXR 2022", 23*models.Lac, 2022, 34_000, "Multan", models.FuelPetrol)

	cultus := seedListing("cw-seed-007", "Suzuki Cultus VXL 2023", 36*models.Lac, 2023, 18_500, "Lahore", models.FuelPetrol)
	cultus.Inspected = true

	sportage := seedListing("cw-seed-008", "KIA Sportage AWD 2023", int64(1.15 * float64(models.Crore)), 2023, 26_000, "Islamabad", models.FuelPetrol)
	sportage.IsFeatured = true

	fortuner := seedListing("cw-seed-009", "Toyota Fortuner Sigma 2022 Diesel", int64(1.85 * float64(models.Crore)), 2022, 41_000, "Karachi", models.FuelDiesel)
	fortuner.IsManaged = true

	vezel := seedListing("cw-seed-010", "Honda Vezel Hybrid Z 2020 imported", 78*models.Lac, 2020, 62_000, "Peshawar", models.FuelHybrid)

	return map[string][]models.Listing{
		"Corolla":  {corolla2024, corolla2021},
		"Civic":    {civicImported, civicOld},
		"Alto":     {altoNew, altoUsed},
		"Cultus":   {cultus},
		"Sportage": {sportage},
		"Fortuner": {fortuner},
		"Vezel":    {vezel},
		// 促銷分類，與車款分類重複刊登
		"Urgent": {corolla2021, altoUsed},
	}
}
