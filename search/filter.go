package search

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/shehrozeikram/CarWheels-sub000/models"
)

// Apply 對刊登集合套用自由文字與結構化條件，回傳過濾後的子集合。
// 兩者同時存在時先用子字串縮小範圍，再用結構化條件收斂（AND 語意）。
// 輸入順序被保留，因此對相同輸入重複套用是冪等的。
func Apply(listings []models.Listing, criteria *Criteria, freeText string) []models.Listing {
	result := listings

	if freeText = strings.TrimSpace(freeText); freeText != "" {
		needle := strings.ToLower(freeText)
		result = lo.Filter(result, func(l models.Listing, _ int) bool {
			return strings.Contains(strings.ToLower(l.Title), needle)
		})
	}

	if criteria == nil {
		return result
	}

	// 候選車款是解譯階段的輸出，先用它圈出要過濾的範圍
	if len(criteria.CandidateModels) > 0 {
		result = lo.Filter(result, func(l models.Listing, _ int) bool {
			return matchCandidate(l, criteria.CandidateModels)
		})
	}

	if bound := effectiveBound(criteria); bound != nil {
		result = lo.Filter(result, func(l models.Listing, _ int) bool {
			return matchPrice(l, *bound)
		})
	}

	if criteria.Location != "" {
		needle := strings.ToLower(criteria.Location)
		result = lo.Filter(result, func(l models.Listing, _ int) bool {
			return strings.Contains(strings.ToLower(l.Location), needle)
		})
	}

	if criteria.Year != "" {
		result = lo.Filter(result, func(l models.Listing, _ int) bool {
			return matchYear(l, criteria.Year)
		})
	}

	// 特性旗標以 AND 串接，全部命中才保留
	for _, flag := range criteria.FeatureFlags {
		result = lo.Filter(result, func(l models.Listing, _ int) bool {
			return matchFlag(l, flag)
		})
	}

	return result
}

// matchCandidate 判斷刊登是否屬於任一候選車款：
// 分類名稱完全相符，或標題包含車款名稱。
func matchCandidate(l models.Listing, candidates []string) bool {
	category := strings.ToLower(l.Category)
	title := strings.ToLower(l.Title)
	for _, model := range candidates {
		needle := strings.ToLower(model)
		if category == needle || strings.Contains(title, needle) {
			return true
		}
	}
	return false
}

// effectiveBound 精確界線優先，沒有時退回粗略門檻
func effectiveBound(criteria *Criteria) *PriceBound {
	if criteria.PriceBound != nil {
		return criteria.PriceBound
	}
	return criteria.Coarse
}

// matchPrice 以顯示字串為準解析價格再套用界線，
// 解析失敗的刊登一律排除。
func matchPrice(l models.Listing, bound PriceBound) bool {
	price, err := models.ParsePKR(l.PriceDisplay)
	if err != nil {
		return false
	}
	switch bound.Type {
	case BoundUnder:
		return price <= bound.Amount
	case BoundOver:
		return price >= bound.Amount
	default:
		return true
	}
}

func matchYear(l models.Listing, yearToken string) bool {
	switch yearToken {
	case "new", "2024":
		return l.Year == 2024
	case "recent", "2023":
		return l.Year == 2023
	case "2022":
		return l.Year == 2022
	case "2021":
		return l.Year == 2021
	case "old":
		return l.Year < 2020
	default:
		return true
	}
}

// matchFlag 單一特性旗標的判斷。
// automatic/manual 目前沒有變速箱資料可以比對，維持為已知的 no-op，
// 在取得新資料來源前不應該補上判斷。
func matchFlag(l models.Listing, flag string) bool {
	switch flag {
	case "new":
		return l.IsNew
	case "used":
		return !l.IsNew
	case "fuel-efficient", "efficient":
		return l.FuelType == models.FuelPetrol && l.Mileage < 50_000
	case "hybrid":
		return l.FuelType == models.FuelHybrid
	case "diesel":
		return l.FuelType == models.FuelDiesel
	case "imported":
		return strings.Contains(strings.ToLower(l.Title), "imported")
	case "certified", "inspected":
		return l.Inspected
	case "automatic", "manual":
		return true
	default:
		return true
	}
}

// SortFeatured 精選優先，其次依 ID 遞減（新的在前），
// 給需要固定排序的消費端使用；其他情況一律保留輸入順序。
func SortFeatured(listings []models.Listing) []models.Listing {
	sorted := make([]models.Listing, len(listings))
	copy(sorted, listings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsFeatured != sorted[j].IsFeatured {
			return sorted[i].IsFeatured
		}
		return sorted[i].ID > sorted[j].ID
	})
	return sorted
}
