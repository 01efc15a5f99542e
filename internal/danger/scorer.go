package danger

import (
	"image"

	"roof-watch-go/internal/mask"
)

// Веса вкладов в итоговый балл
const (
	WaterOverlapWeight = 60
	RoofEdgeWeight     = 20
	SubmersionWeight   = 20

	MinScore = 0
	MaxScore = 100

	// RoofEdgeWidth ширина краевой полосы крыши в пикселях
	RoofEdgeWidth = 10
	// SubmersionRatio доля строк рамки с водой, после которой человек считается погруженным
	SubmersionRatio = 0.4
)

// BBox рамка человека в пикселях кадра. Ожидается X1<X2, Y1<Y2, но это не проверяется.
type BBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Height высота рамки (может быть <= 0 для вырожденной рамки)
func (b BBox) Height() int {
	return b.Y2 - b.Y1
}

// Rect возвращает рамку как image.Rectangle без перестановки углов:
// рамка с X2 <= X1 или Y2 <= Y1 пуста
func (b BBox) Rect() image.Rectangle {
	return image.Rectangle{Min: image.Pt(b.X1, b.Y1), Max: image.Pt(b.X2, b.Y2)}
}

// Assessment результат оценки одного человека
type Assessment struct {
	Score           int   `json:"score"`
	Level           Level `json:"level"`
	WaterOverlap    bool  `json:"water_overlap"`
	RoofEdgeContact bool  `json:"roof_edge_contact"`
	Submerged       bool  `json:"submerged"`
}

// Scene маски воды и крыши одного кадра, подготовленные для оценки всех людей в нем.
// Краевая полоса крыши считается один раз на кадр.
type Scene struct {
	water    *mask.Grid
	roofEdge *mask.Grid
}

// NewScene бинаризует маски воды и крыши и строит краевую полосу крыши
func NewScene(water, roof *mask.Mask) *Scene {
	return &Scene{
		water:    mask.Binarize(water, mask.DefaultThreshold),
		roofEdge: mask.EdgeBand(mask.Binarize(roof, mask.DefaultThreshold), RoofEdgeWidth),
	}
}

// Assess оценивает опасность для человека с маской person и рамкой box
func (s *Scene) Assess(person *mask.Mask, box BBox) Assessment {
	personGrid := mask.Binarize(person, mask.DefaultThreshold)

	var a Assessment
	score := 0

	if mask.Overlaps(personGrid, s.water) {
		a.WaterOverlap = true
		score += WaterOverlapWeight
	}

	if mask.Overlaps(personGrid, s.roofEdge) {
		a.RoofEdgeContact = true
		score += RoofEdgeWeight
	}

	if personGrid.SameShape(s.water) && submerged(s.water, box) {
		a.Submerged = true
		score += SubmersionWeight
	}

	a.Score = clamp(score)
	a.Level = Classify(a.Score)
	return a
}

// Assess оценивает одного человека без предварительной подготовки сцены
func Assess(person, water, roof *mask.Mask, box BBox) Assessment {
	return NewScene(water, roof).Assess(person, box)
}

// Score возвращает балл [0,100] и уровень опасности
func Score(person, water, roof *mask.Mask, box BBox) (int, Level) {
	a := Assess(person, water, roof, box)
	return a.Score, a.Level
}

// submerged считает строки рамки, в которых есть вода. Рамка обрезается по границам
// маски, знаменатель остается полной высотой рамки.
func submerged(water *mask.Grid, box BBox) bool {
	height := box.Height()
	rect := box.Rect()
	if height <= 0 || rect.Empty() {
		return false
	}

	region := rect.Intersect(water.Bounds())
	if region.Empty() {
		return false
	}

	wetRows := 0
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			if water.At(x, y) {
				wetRows++
				break
			}
		}
	}

	return float64(wetRows)/float64(height) > SubmersionRatio
}

func clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
