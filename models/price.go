package models

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// 巴基斯坦市場慣用的價格單位
const (
	Lac   int64 = 100_000
	Crore int64 = 10_000_000
)

var ErrUnparsablePrice = errors.New("unparsable price string")

// 支援 "PKR 45 lacs"、"PKR 2.5 crore"、"PKR 1,200"、"1200" 等格式
var priceUnitPattern = regexp.MustCompile(`^([\d.]+)\s*(lacs?|lakhs?|crores?)?$`)

// ParsePKR 將顯示用的價格字串轉為正規化的 PKR 數值。
// 所有需要比較價格的地方都必須透過這個函式，避免各處解析規則不一致。
func ParsePKR(display string) (int64, error) {
	s := strings.ToLower(strings.TrimSpace(display))
	s = strings.TrimPrefix(s, "pkr")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	m := priceUnitPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrUnparsablePrice, display)
	}
	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnparsablePrice, display)
	}
	switch {
	case strings.HasPrefix(m[2], "lac"), strings.HasPrefix(m[2], "lakh"):
		amount *= float64(Lac)
	case strings.HasPrefix(m[2], "crore"):
		amount *= float64(Crore)
	}
	// 小數單位（例如 2.5 crore）經過浮點運算後需要修正誤差
	return int64(math.Round(amount)), nil
}

// FormatPKR 將正規化數值轉為顯示字串，例如 4500000 -> "PKR 45 lacs"。
// 低於一個 lac 的價格使用千分位格式，例如 1200 -> "PKR 1,200"。
func FormatPKR(amount int64) string {
	switch {
	case amount >= Crore && amount%Lac == 0:
		return "PKR " + trimFloat(float64(amount)/float64(Crore)) + " crore"
	case amount >= Lac && amount%Lac == 0:
		return fmt.Sprintf("PKR %d lacs", amount/Lac)
	default:
		return "PKR " + groupDigits(amount)
	}
}

// FormatMileage 將里程數轉為顯示字串，例如 45000 -> "45,000 km"
func FormatMileage(km int) string {
	return groupDigits(int64(km)) + " km"
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// groupDigits 加入千分位逗號
func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
