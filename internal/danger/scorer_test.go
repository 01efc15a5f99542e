package danger

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"roof-watch-go/internal/mask"
)

func filled(w, h int, rects ...image.Rectangle) *mask.Mask {
	m := mask.New(w, h)
	for _, r := range rects {
		m.Fill(r, 255)
	}
	return m
}

func TestClassify_Boundaries(t *testing.T) {
	cases := []struct {
		score int
		want  Level
	}{
		{0, LevelSafe},
		{30, LevelSafe},
		{31, LevelWarning},
		{60, LevelWarning},
		{61, LevelHigh},
		{80, LevelHigh},
		{81, LevelCritical},
		{100, LevelCritical},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Classify(tc.score), "score %d", tc.score)
	}
}

func TestClassify_PartitionIsOrdered(t *testing.T) {
	prev := Classify(0).Rank()
	for s := 1; s <= MaxScore; s++ {
		r := Classify(s).Rank()
		assert.GreaterOrEqual(t, r, prev, "level rank must not decrease at score %d", s)
		prev = r
	}
}

func TestScore_DisjointPersonAndWater(t *testing.T) {
	person := filled(20, 20, image.Rect(0, 0, 10, 10))
	water := filled(20, 20, image.Rect(10, 10, 20, 20))
	roof := mask.New(20, 20)

	score, level := Score(person, water, roof, BBox{0, 0, 10, 10})

	assert.Equal(t, 0, score)
	assert.Equal(t, LevelSafe, level)
}

func TestScore_FullOverlap(t *testing.T) {
	person := filled(20, 20, image.Rect(0, 0, 20, 20))
	water := filled(20, 20, image.Rect(0, 0, 20, 20))
	roof := mask.New(20, 20)

	score, level := Score(person, water, roof, BBox{0, 0, 10, 10})

	assert.GreaterOrEqual(t, score, 60)
	assert.Contains(t, []Level{LevelHigh, LevelCritical}, level)
}

func TestScore_RoofEdgeOnly(t *testing.T) {
	roof := filled(100, 100, image.Rect(10, 10, 70, 70))
	edge := mask.EdgeBand(mask.Binarize(roof, mask.DefaultThreshold), RoofEdgeWidth)
	person := mask.New(100, 100)
	for i, c := range edge.Cells {
		if c {
			person.Pix[i] = 255
		}
	}
	water := mask.New(100, 100)

	score, level := Score(person, water, roof, BBox{10, 10, 70, 70})

	assert.Equal(t, 20, score)
	assert.Equal(t, LevelSafe, level)
}

func TestScore_WaterAndSubmersionIsHigh(t *testing.T) {
	water := filled(50, 50, image.Rect(0, 25, 50, 50))
	person := filled(50, 50, image.Rect(10, 10, 20, 40))
	roof := mask.New(50, 50)

	a := Assess(person, water, roof, BBox{10, 10, 20, 40})

	assert.True(t, a.WaterOverlap)
	assert.True(t, a.Submerged)
	assert.False(t, a.RoofEdgeContact)
	assert.Equal(t, 80, a.Score)
	assert.Equal(t, LevelHigh, a.Level)
}

func TestScore_AllContributionsIsCritical(t *testing.T) {
	roof := filled(60, 60, image.Rect(0, 0, 60, 30))
	water := filled(60, 60, image.Rect(0, 30, 60, 60))
	person := filled(60, 60, image.Rect(20, 20, 30, 50))

	a := Assess(person, water, roof, BBox{20, 20, 30, 50})

	assert.True(t, a.WaterOverlap)
	assert.True(t, a.RoofEdgeContact)
	assert.True(t, a.Submerged)
	assert.Equal(t, 100, a.Score)
	assert.Equal(t, LevelCritical, a.Level)
}

func TestScore_SubmersionRatioIsStrict(t *testing.T) {
	// 4 строки из 10 = ровно 0.4, вклад не засчитывается.
	water := filled(20, 20, image.Rect(0, 6, 20, 10))
	person := mask.New(20, 20)

	a := Assess(person, water, mask.New(20, 20), BBox{0, 0, 10, 10})
	assert.False(t, a.Submerged)

	water = filled(20, 20, image.Rect(0, 5, 20, 10))
	a = Assess(person, water, mask.New(20, 20), BBox{0, 0, 10, 10})
	assert.True(t, a.Submerged)
	assert.Equal(t, 20, a.Score)
}

func TestScore_SubmersionOnlyCountsColumnsInsideBox(t *testing.T) {
	water := filled(40, 40, image.Rect(30, 0, 40, 40))
	person := mask.New(40, 40)

	a := Assess(person, water, mask.New(40, 40), BBox{0, 0, 10, 20})

	assert.False(t, a.Submerged)
}

func TestScore_BoxOutsideFrameIsClipped(t *testing.T) {
	water := filled(20, 20, image.Rect(0, 0, 20, 20))
	person := mask.New(20, 20)

	// Внутри кадра 10 строк из 20, доля 0.5.
	a := Assess(person, water, mask.New(20, 20), BBox{5, 10, 25, 30})
	assert.True(t, a.Submerged)

	// Внутри кадра 5 строк из 20, доля 0.25.
	a = Assess(person, water, mask.New(20, 20), BBox{5, 15, 25, 35})
	assert.False(t, a.Submerged)

	// Рамка полностью вне кадра.
	a = Assess(person, water, mask.New(20, 20), BBox{100, 100, 120, 140})
	assert.False(t, a.Submerged)
	assert.Equal(t, 0, a.Score)
}

func TestScore_DegenerateBox(t *testing.T) {
	water := filled(20, 20, image.Rect(0, 0, 20, 20))

	a := Assess(mask.New(20, 20), water, mask.New(20, 20), BBox{5, 10, 15, 10})
	assert.False(t, a.Submerged)

	a = Assess(mask.New(20, 20), water, mask.New(20, 20), BBox{5, 12, 15, 4})
	assert.False(t, a.Submerged)

	// x1 > x2 при положительной высоте
	a = Assess(mask.New(20, 20), water, mask.New(20, 20), BBox{15, 0, 5, 10})
	assert.False(t, a.Submerged)
	assert.Equal(t, 0, a.Score)
	assert.Equal(t, LevelSafe, a.Level)

	a = Assess(mask.New(20, 20), water, mask.New(20, 20), BBox{10, 0, 10, 10})
	assert.False(t, a.Submerged)
	assert.Equal(t, 0, a.Score)
}

func TestScore_MismatchedShapesDegradeToZero(t *testing.T) {
	person := filled(20, 20, image.Rect(0, 0, 20, 20))
	water := filled(30, 10, image.Rect(0, 0, 30, 10))
	roof := filled(5, 5, image.Rect(0, 0, 5, 5))

	assert.NotPanics(t, func() {
		score, level := Score(person, water, roof, BBox{0, 0, 10, 10})
		assert.Equal(t, 0, score)
		assert.Equal(t, LevelSafe, level)
	})
}

func TestScore_NilMasksDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		score, level := Score(nil, nil, nil, BBox{0, 0, 10, 10})
		assert.Equal(t, 0, score)
		assert.Equal(t, LevelSafe, level)
	})
}

func TestScore_IsIdempotent(t *testing.T) {
	roof := filled(60, 60, image.Rect(0, 0, 60, 30))
	water := filled(60, 60, image.Rect(0, 30, 60, 60))
	person := filled(60, 60, image.Rect(20, 20, 30, 50))
	box := BBox{20, 20, 30, 50}

	s1, l1 := Score(person, water, roof, box)
	s2, l2 := Score(person, water, roof, box)

	assert.Equal(t, s1, s2)
	assert.Equal(t, l1, l2)
}

func TestScore_Monotonic(t *testing.T) {
	const w, h = 60, 60
	person := filled(w, h, image.Rect(20, 0, 30, 20))
	// Рамка шире человека, чтобы вода могла покрыть ее строки, не касаясь маски человека.
	box := BBox{20, 0, 35, 20}

	overlapWater := image.Rect(25, 19, 26, 20) // один пиксель на человеке, 1 строка из 20
	coverWater := image.Rect(31, 0, 32, 20)    // все строки рамки, мимо человека
	farRoof := image.Rect(0, 40, 25, 60)
	touchingRoof := image.Rect(15, 15, 60, 60)

	assess := func(overlap, edge, cover bool) Assessment {
		var water []image.Rectangle
		if overlap {
			water = append(water, overlapWater)
		}
		if cover {
			water = append(water, coverWater)
		}
		roof := farRoof
		if edge {
			roof = touchingRoof
		}
		return Assess(person, filled(w, h, water...), filled(w, h, roof), box)
	}

	for combo := 0; combo < 8; combo++ {
		overlap, edge, cover := combo&1 != 0, combo&2 != 0, combo&4 != 0
		base := assess(overlap, edge, cover)

		assert.Equal(t, overlap, base.WaterOverlap)
		assert.Equal(t, edge, base.RoofEdgeContact)
		assert.Equal(t, cover, base.Submerged)
		assert.GreaterOrEqual(t, base.Score, MinScore)
		assert.LessOrEqual(t, base.Score, MaxScore)
		assert.Equal(t, Classify(base.Score), base.Level)

		if !overlap {
			assert.GreaterOrEqual(t, assess(true, edge, cover).Score, base.Score)
		}
		if !edge {
			assert.GreaterOrEqual(t, assess(overlap, true, cover).Score, base.Score)
		}
		if !cover {
			assert.GreaterOrEqual(t, assess(overlap, edge, true).Score, base.Score)
		}
	}

	assert.Equal(t, 100, assess(true, true, true).Score)
}

func TestScene_ReusedAcrossPersons(t *testing.T) {
	water := filled(50, 50, image.Rect(0, 25, 50, 50))
	scene := NewScene(water, mask.New(50, 50))

	dry := scene.Assess(filled(50, 50, image.Rect(0, 0, 10, 10)), BBox{0, 0, 10, 10})
	wet := scene.Assess(filled(50, 50, image.Rect(10, 10, 20, 40)), BBox{10, 10, 20, 40})

	assert.Equal(t, 0, dry.Score)
	assert.Equal(t, 80, wet.Score)
}
