// Package danger оценивает опасность для человека на крыше во время наводнения.
package danger

// Level категория опасности
type Level string

const (
	LevelSafe     Level = "safe"
	LevelWarning  Level = "warning"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Границы уровней (включительно сверху)
const (
	safeMax    = 30
	warningMax = 60
	highMax    = 80
)

// Classify переводит балл в уровень опасности
func Classify(score int) Level {
	switch {
	case score <= safeMax:
		return LevelSafe
	case score <= warningMax:
		return LevelWarning
	case score <= highMax:
		return LevelHigh
	default:
		return LevelCritical
	}
}

// Rank возвращает порядковый номер уровня, неизвестный уровень равен -1
func (l Level) Rank() int {
	switch l {
	case LevelSafe:
		return 0
	case LevelWarning:
		return 1
	case LevelHigh:
		return 2
	case LevelCritical:
		return 3
	default:
		return -1
	}
}

// IsCritical сообщает, требует ли уровень экстренного оповещения
func (l Level) IsCritical() bool {
	return l == LevelCritical
}

func (l Level) String() string {
	return string(l)
}
