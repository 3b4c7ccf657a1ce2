package search

import (
	"sort"

	"github.com/samber/lo"

	"github.com/shehrozeikram/CarWheels-sub000/models"
)

// operatorWords 任何一個出現就把查詢視為自然語言而不是單純關鍵字
var operatorWords = []string{
	"under", "over", "cheap", "expensive", "new", "used",
	"above", "below", "for", "with", "in",
}

// brandModels 品牌 token 對應到候選車款
var brandModels = map[string][]string{
	"toyota":   {"Corolla", "Yaris", "Prius", "Fortuner", "Hilux", "Prado"},
	"honda":    {"Civic", "City", "BR-V", "Vezel"},
	"suzuki":   {"Alto", "Cultus", "Swift", "Wagon R", "Bolan", "Mehran"},
	"kia":      {"Sportage", "Picanto", "Stonic"},
	"hyundai":  {"Tucson", "Elantra", "Sonata"},
	"daihatsu": {"Mira", "Cuore"},
}

// bodyTypeModels 車體類型 token 對應到候選車款
var bodyTypeModels = map[string][]string{
	"suv":       {"Fortuner", "Prado", "Sportage", "Tucson", "Vezel"},
	"jeep":      {"Fortuner", "Prado"},
	"sedan":     {"Corolla", "Civic", "City", "Elantra", "Sonata", "Yaris"},
	"hatchback": {"Alto", "Cultus", "Swift", "Picanto", "Mira", "Cuore", "Wagon R"},
	"crossover": {"Vezel", "Stonic"},
	"van":       {"Bolan"},
}

// featureModels 特性 token 對應到候選車款
var featureModels = map[string][]string{
	"efficient":  {"Alto", "Cultus", "Mira", "City", "Prius"},
	"economical": {"Alto", "Mehran", "Mira", "Bolan"},
	"family":     {"Corolla", "City", "BR-V", "Wagon R"},
	"luxury":     {"Fortuner", "Prado", "Sonata", "Tucson"},
	"hybrid":     {"Prius", "Vezel"},
	"diesel":     {"Fortuner", "Hilux"},
}

// locationModels 城市 token 對應到該市場常見的候選車款
var locationModels = map[string][]string{
	"karachi":    {"Corolla", "Civic", "Alto", "Cultus", "Fortuner"},
	"lahore":     {"Corolla", "Civic", "Alto", "Swift", "Sportage"},
	"islamabad":  {"Civic", "Sportage", "Tucson", "Fortuner", "Prado"},
	"rawalpindi": {"Corolla", "Civic", "Mehran"},
	"multan":     {"Alto", "Mehran", "Bolan"},
	"peshawar":   {"Vezel", "Prado", "Hilux"},
	"faisalabad": {"Corolla", "Alto", "Wagon R"},
}

// yearModels 年份 token 對應到該年式常見的候選車款
var yearModels = map[string][]string{
	"2024":   {"Corolla", "Civic", "Alto", "Sportage", "Stonic"},
	"new":    {"Corolla", "Civic", "Alto", "Sportage", "Stonic"},
	"2023":   {"Corolla", "Civic", "Alto", "Cultus", "Sportage"},
	"recent": {"Corolla", "Civic", "Alto", "Cultus", "Sportage"},
	"2022":   {"Corolla", "Alto", "Fortuner", "Swift"},
	"2021":   {"Corolla", "Civic", "Cultus"},
	"old":    {"Mehran", "Cuore", "Bolan", "Civic"},
}

// featureFlagTokens 會被收進 Criteria.FeatureFlags 的 token
var featureFlagTokens = []string{
	"new", "used", "hybrid", "diesel", "imported", "certified",
	"inspected", "automatic", "manual", "efficient",
}

// phrase 多字詞與候選車款，獨立於單一 token 掃描
type phrase struct {
	Text      string
	Models    []string
	Flag      string // 可選，命中時加入 FeatureFlags
	CoarseMax int64  // 可選，命中時設定粗略價格上限
	BoundAmt  int64  // 可選，命中時設定精確價格界線
	BoundType BoundType
}

var phrases = []phrase{
	{Text: "fuel efficient", Models: []string{"Alto", "Cultus", "Mira", "City", "Prius"}, Flag: "fuel-efficient"},
	{Text: "low budget", Models: []string{"Alto", "Mehran", "Mira", "Bolan"}, CoarseMax: 30 * models.Lac},
	{Text: "family car", Models: []string{"Corolla", "City", "BR-V", "Wagon R"}},
	{Text: "under 30 lacs", Models: []string{"Alto", "Mehran", "Mira", "Cultus", "Wagon R"}, BoundAmt: 30 * models.Lac, BoundType: BoundUnder},
	{Text: "under 50 lacs", Models: []string{"Alto", "Cultus", "Swift", "City", "Yaris"}, BoundAmt: 50 * models.Lac, BoundType: BoundUnder},
	{Text: "brand new", Models: []string{"Corolla", "Civic", "Alto", "Sportage"}, Flag: "new"},
	{Text: "daily driver", Models: []string{"Alto", "Cultus", "Mehran", "City"}},
}

// coarseBuckets 粗略的價格關鍵字與固定門檻
var coarseBuckets = map[string]PriceBound{
	"cheap":     {Type: BoundUnder, Amount: 30 * models.Lac},
	"budget":    {Type: BoundUnder, Amount: 50 * models.Lac},
	"expensive": {Type: BoundOver, Amount: 1 * models.Crore},
	"premium":   {Type: BoundOver, Amount: 2 * models.Crore},
}

// ModelUniverse 回傳所有已知車款，排序後的複本
func ModelUniverse() []string {
	all := make([]string, 0, 32)
	for _, set := range brandModels {
		all = append(all, set...)
	}
	all = lo.Uniq(all)
	sort.Strings(all)
	return all
}
