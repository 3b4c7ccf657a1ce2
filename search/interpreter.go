// Package search 將自由文字的查詢轉成結構化的搜尋條件，
// 並對刊登集合套用這些條件。兩者都是純函式，沒有副作用，
// 所有呼叫端共用同一份實作。
package search

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/shehrozeikram/CarWheels-sub000/models"
)

// BoundType 表示價格界線的方向
type BoundType string

const (
	BoundUnder BoundType = "under"
	BoundOver  BoundType = "over"
)

// PriceBound 表示一個價格界線，例如 under 1 crore
type PriceBound struct {
	Type   BoundType `json:"type"`
	Amount int64     `json:"amount"`
}

// Criteria 是查詢字串解譯後的結構化搜尋條件
type Criteria struct {
	Query           string      `json:"query"`
	Tokens          []string    `json:"tokens"`
	NaturalLanguage bool        `json:"naturalLanguage"`
	PriceBound      *PriceBound `json:"priceBound,omitempty"`
	Coarse          *PriceBound `json:"coarse,omitempty"`
	Brand           string      `json:"brand,omitempty"`
	BodyType        string      `json:"bodyType,omitempty"`
	Location        string      `json:"location,omitempty"`
	Year            string      `json:"year,omitempty"`
	FeatureFlags    []string    `json:"featureFlags,omitempty"`
	CandidateModels []string    `json:"candidateModels"`
}

// pricePattern 固定的價格正規表達式，依序套用，第一個命中的生效
type pricePattern struct {
	re    *regexp.Regexp
	bound BoundType
	unit  int64
}

var pricePatterns = []pricePattern{
	{regexp.MustCompile(`(?:under|below|within|less than)\s*(\d+(?:\.\d+)?)\s*(?:lacs?|lakhs?)`), BoundUnder, models.Lac},
	{regexp.MustCompile(`(?:under|below|within|less than)\s*(\d+(?:\.\d+)?)\s*crores?`), BoundUnder, models.Crore},
	{regexp.MustCompile(`(?:over|above|more than)\s*(\d+(?:\.\d+)?)\s*(?:lacs?|lakhs?)`), BoundOver, models.Lac},
	{regexp.MustCompile(`(?:over|above|more than)\s*(\d+(?:\.\d+)?)\s*crores?`), BoundOver, models.Crore},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:lacs?|lakhs?)\s*(?:or less|max)`), BoundUnder, models.Lac},
	{regexp.MustCompile(`(\d+(?:\.\d+)?)\s*crores?\s*(?:or less|max)`), BoundUnder, models.Crore},
}

// Interpret 將原始查詢文字解譯成 Criteria。
// 純函式且具決定性：相同輸入永遠產生相同輸出。
//
// 解譯永遠不會回傳空的候選集合：字典與片語都沒有命中時，
// 退回對所有已知車款做子字串比對；再沒有就回傳完整車款清單，
// 由後續的過濾階段負責收斂。
func Interpret(text string) Criteria {
	lowered := strings.ToLower(strings.TrimSpace(text))
	tokens := strings.Fields(lowered)

	criteria := Criteria{
		Query:  text,
		Tokens: tokens,
	}
	if len(tokens) == 0 {
		criteria.CandidateModels = ModelUniverse()
		return criteria
	}

	// 分類：多個 token 或包含運算字詞就視為自然語言查詢
	criteria.NaturalLanguage = len(tokens) > 1 || lo.Some(tokens, operatorWords)
	if !criteria.NaturalLanguage {
		criteria.CandidateModels = matchModelSubstring(lowered)
		return criteria
	}

	// 固定的價格正規表達式，第一個命中的設定 exact bound
	for _, p := range pricePatterns {
		if m := p.re.FindStringSubmatch(lowered); m != nil {
			amount, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			criteria.PriceBound = &PriceBound{Type: p.bound, Amount: int64(math.Round(amount * float64(p.unit)))}
			break
		}
	}

	var candidates []string

	// 單一 token 的字典查詢，聯集所有命中的候選車款
	for _, token := range tokens {
		if set, ok := brandModels[token]; ok {
			candidates = append(candidates, set...)
			if criteria.Brand == "" {
				criteria.Brand = token
			}
		}
		if set, ok := bodyTypeModels[token]; ok {
			candidates = append(candidates, set...)
			if criteria.BodyType == "" {
				criteria.BodyType = token
			}
		}
		if set, ok := featureModels[token]; ok {
			candidates = append(candidates, set...)
		}
		if set, ok := locationModels[token]; ok {
			candidates = append(candidates, set...)
			if criteria.Location == "" {
				criteria.Location = token
			}
		}
		if set, ok := yearModels[token]; ok {
			candidates = append(candidates, set...)
			if criteria.Year == "" {
				criteria.Year = token
			}
		}
		if lo.Contains(featureFlagTokens, token) {
			criteria.FeatureFlags = append(criteria.FeatureFlags, token)
		}
		if bucket, ok := coarseBuckets[token]; ok && criteria.Coarse == nil {
			bucket := bucket
			criteria.Coarse = &bucket
		}
	}

	// 多字詞掃描，獨立於單一 token，結果合併
	for _, p := range phrases {
		if !strings.Contains(lowered, p.Text) {
			continue
		}
		candidates = append(candidates, p.Models...)
		if p.Flag != "" {
			criteria.FeatureFlags = append(criteria.FeatureFlags, p.Flag)
		}
		if p.CoarseMax > 0 && criteria.Coarse == nil {
			criteria.Coarse = &PriceBound{Type: BoundUnder, Amount: p.CoarseMax}
		}
		if p.BoundAmt > 0 && criteria.PriceBound == nil {
			criteria.PriceBound = &PriceBound{Type: p.BoundType, Amount: p.BoundAmt}
		}
	}

	criteria.FeatureFlags = lo.Uniq(criteria.FeatureFlags)

	// 後備：先做子字串比對，再退回完整車款清單
	if len(candidates) == 0 {
		candidates = matchModelSubstring(lowered)
	}
	criteria.CandidateModels = lo.Uniq(candidates)
	return criteria
}

// matchModelSubstring 對所有已知車款做不分大小寫的子字串比對，
// 沒有任何命中時回傳完整車款清單，這個階段永遠不會回傳空集合。
func matchModelSubstring(lowered string) []string {
	universe := ModelUniverse()
	matched := lo.Filter(universe, func(model string, _ int) bool {
		return strings.Contains(strings.ToLower(model), lowered) ||
			strings.Contains(lowered, strings.ToLower(model))
	})
	if len(matched) == 0 {
		return universe
	}
	return matched
}
