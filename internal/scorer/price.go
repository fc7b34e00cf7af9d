package scorer

import (
	"fmt"
	"math"

	"github.com/sells-group/parcel-risk/internal/model"
)

// sqmPerPyeong is the area of one pyeong in square metres.
const sqmPerPyeong = 3.3

const (
	neutralPriceScore = 50
	aboutAverage      = "동 평균과 비슷한 가격"
)

// PricePerPyeong converts a price and an area in m² to a price per pyeong.
func PricePerPyeong(price int64, areaSqm float64) float64 {
	return float64(price) / areaSqm * sqmPerPyeong
}

// AreaAverage is the mean price per pyeong over the comparables. With no
// comparables the subject's own value is returned, so the deviation is zero.
func AreaAverage(subject float64, comps []model.ComparableTransaction) float64 {
	if len(comps) == 0 {
		return subject
	}
	var sum float64
	for _, c := range comps {
		sum += PricePerPyeong(c.Price, c.AreaSqm)
	}
	return sum / float64(len(comps))
}

// DiffPercent is the subject's deviation from the average, in percent.
// Evaluated as ratio then scale; reordering changes which side of the floor
// some integer inputs land on.
func DiffPercent(subject, average float64) float64 {
	if average == 0 {
		return 0
	}
	return (subject - average) / average * 100
}

// PriceScore scores a subject price per pyeong against the area average.
// Pricier than average scores lower.
func PriceScore(subject, average float64) int {
	return neutralPriceScore - int(math.Floor(DiffPercent(subject, average)*0.5))
}

// PriceRationale describes the deviation from the area average.
func PriceRationale(diffPercent float64) string {
	if math.Abs(diffPercent) < 1 {
		return aboutAverage
	}
	n := int(math.Floor(math.Abs(diffPercent)))
	if diffPercent > 0 {
		return fmt.Sprintf("동 평균 대비 약 %d%% 높은 가격", n)
	}
	return fmt.Sprintf("동 평균 대비 약 %d%% 낮은 가격", n)
}

// ScorePrice scores a deal against comparable transactions. price and
// areaSqm must be positive; callers validate.
func ScorePrice(price int64, areaSqm float64, deal model.DealType, comps []model.ComparableTransaction) model.PriceScoreResult {
	subject := PricePerPyeong(price, areaSqm)
	average := AreaAverage(subject, comps)
	diff := DiffPercent(subject, average)

	return model.PriceScoreResult{
		Score:     PriceScore(subject, average),
		Rationale: PriceRationale(diff),
		Metrics: model.PriceMetrics{
			PricePerPyeong:            subject,
			AreaAveragePricePerPyeong: average,
			DealType:                  string(deal),
		},
	}
}
