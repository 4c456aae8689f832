package entity

import "fmt"

// Framework identifies a proficiency framework: a static ordered level
// sequence used to bucket content difficulty.
type Framework string

const (
	FrameworkCEFR  Framework = "CEFR"
	FrameworkJLPT  Framework = "JLPT"
	FrameworkHSK   Framework = "HSK"
	FrameworkTOPIK Framework = "TOPIK"
)

// frameworkLevels is the process-wide immutable level table. Order matters:
// index position is the level's rank within the framework.
var frameworkLevels = map[Framework][]string{
	FrameworkCEFR:  {"A1", "A2", "B1", "B2", "C1", "C2"},
	FrameworkJLPT:  {"N5", "N4", "N3", "N2", "N1"},
	FrameworkHSK:   {"HSK1", "HSK2", "HSK3", "HSK4", "HSK5", "HSK6"},
	FrameworkTOPIK: {"TOPIK1", "TOPIK2", "TOPIK3", "TOPIK4", "TOPIK5", "TOPIK6"},
}

// Levels returns the ordered level list for the framework.
func (f Framework) Levels() []string {
	return frameworkLevels[f]
}

// FrameworkFor maps a language to its proficiency framework. CEFR is the
// default for languages without a dedicated framework.
func FrameworkFor(lang Language) Framework {
	switch lang {
	case LanguageJapanese:
		return FrameworkJLPT
	case LanguageChinese:
		return FrameworkHSK
	case LanguageKorean:
		return FrameworkTOPIK
	default:
		return FrameworkCEFR
	}
}

// ExpandLevelRange resolves a level_min/level_max pair to the explicit set of
// allowed level names within the framework's ordered sequence. Empty bounds
// are open-ended. Bounds outside the framework yield ErrUnknownLevel.
func ExpandLevelRange(f Framework, levelMin, levelMax string) ([]string, error) {
	levels := f.Levels()
	if len(levels) == 0 {
		return nil, fmt.Errorf("%w: framework %s", ErrUnknownLevel, f)
	}

	lo, hi := 0, len(levels)-1
	if levelMin != "" {
		idx := levelIndex(levels, levelMin)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s %s", ErrUnknownLevel, f, levelMin)
		}
		lo = idx
	}
	if levelMax != "" {
		idx := levelIndex(levels, levelMax)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s %s", ErrUnknownLevel, f, levelMax)
		}
		hi = idx
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	allowed := make([]string, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		allowed = append(allowed, levels[i])
	}
	return allowed, nil
}

func levelIndex(levels []string, name string) int {
	for i, level := range levels {
		if level == name {
			return i
		}
	}
	return -1
}

// LevelRating attaches one framework level to a card. Multiple ratings may
// coexist per card across frameworks and languages.
type LevelRating struct {
	CardID    int64
	Framework Framework
	Level     string
	Language  Language
}
