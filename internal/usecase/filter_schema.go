package usecase

import (
	"errors"

	"github.com/eslsoft/subsearch/internal/entity"
	"github.com/eslsoft/subsearch/pkg/filterexpr"
)

// searchFilterSchema whitelists the fields a CEL filter expression may set on
// a search request. Every field mirrors a structured request field; the
// expression form exists for callers that assemble filters dynamically.
var searchFilterSchema = filterexpr.Schema[entity.SearchRequest]{
	"lang": {
		Kind: filterexpr.KindString,
		Ops:  filterexpr.Ops(filterexpr.OpEQ),
		Set: func(dst *entity.SearchRequest, _ filterexpr.Op, value any) error {
			lang := entity.ParseLanguage(value.(string))
			if lang == entity.LanguageUnspecified {
				return errors.New("unsupported language code")
			}
			dst.MainLanguage = lang
			return nil
		},
	},
	"subtitle_langs": {
		Kind: filterexpr.KindString,
		Ops:  filterexpr.Ops(filterexpr.OpIN),
		Set: func(dst *entity.SearchRequest, _ filterexpr.Op, value any) error {
			codes := value.([]string)
			langs := make([]entity.Language, 0, len(codes))
			for _, code := range codes {
				lang := entity.ParseLanguage(code)
				if lang == entity.LanguageUnspecified {
					return errors.New("unsupported language code")
				}
				langs = append(langs, lang)
			}
			dst.SubtitleLanguages = langs
			return nil
		},
	},
	"difficulty": {
		Kind: filterexpr.KindNumber,
		Ops:  filterexpr.Ops(filterexpr.OpGTE, filterexpr.OpLTE),
		Set: func(dst *entity.SearchRequest, op filterexpr.Op, value any) error {
			return setRangeBound(&dst.Difficulty, op, value)
		},
	},
	"length": {
		Kind: filterexpr.KindNumber,
		Ops:  filterexpr.Ops(filterexpr.OpGTE, filterexpr.OpLTE),
		Set: func(dst *entity.SearchRequest, op filterexpr.Op, value any) error {
			return setRangeBound(&dst.Length, op, value)
		},
	},
	"review": {
		Kind: filterexpr.KindNumber,
		Ops:  filterexpr.Ops(filterexpr.OpGTE, filterexpr.OpLTE),
		Set: func(dst *entity.SearchRequest, op filterexpr.Op, value any) error {
			return setRangeBound(&dst.Review, op, value)
		},
	},
	"level_min": {
		Kind: filterexpr.KindString,
		Ops:  filterexpr.Ops(filterexpr.OpEQ),
		Set: func(dst *entity.SearchRequest, _ filterexpr.Op, value any) error {
			dst.LevelMin = value.(string)
			return nil
		},
	},
	"level_max": {
		Kind: filterexpr.KindString,
		Ops:  filterexpr.Ops(filterexpr.OpEQ),
		Set: func(dst *entity.SearchRequest, _ filterexpr.Op, value any) error {
			dst.LevelMax = value.(string)
			return nil
		},
	},
	"duration_max_ms": {
		Kind: filterexpr.KindNumber,
		Ops:  filterexpr.Ops(filterexpr.OpLTE, filterexpr.OpEQ),
		Set: func(dst *entity.SearchRequest, _ filterexpr.Op, value any) error {
			ms, err := filterexpr.AsInt64(value)
			if err != nil {
				return err
			}
			dst.DurationMaxMS = ms
			return nil
		},
	},
}

func setRangeBound(r *entity.IntRange, op filterexpr.Op, value any) error {
	n, err := filterexpr.AsInt32(value)
	if err != nil {
		return err
	}
	switch op {
	case filterexpr.OpGTE:
		r.Min = &n
	case filterexpr.OpLTE:
		r.Max = &n
	default:
		return errors.New("unsupported range operator")
	}
	return nil
}
