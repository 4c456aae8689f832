package httpapi

import (
	"github.com/eslsoft/subsearch/internal/entity"
)

type intRange struct {
	Min *int32 `json:"min,omitempty"`
	Max *int32 `json:"max,omitempty"`
}

type searchRequest struct {
	Query         string   `json:"q"`
	Lang          string   `json:"lang,omitempty"`
	SubtitleLangs []string `json:"subtitle_langs,omitempty"`
	SourceIDs     []int64  `json:"source_ids,omitempty"`
	Difficulty    intRange `json:"difficulty"`
	LevelMin      string   `json:"level_min,omitempty"`
	LevelMax      string   `json:"level_max,omitempty"`
	Length        intRange `json:"length"`
	DurationMaxMS int64    `json:"duration_max_ms,omitempty"`
	Review        intRange `json:"review"`
	UserID        int64    `json:"user_id,omitempty"`
	Filter        string   `json:"filter,omitempty"`
	WithTotal     bool     `json:"with_total,omitempty"`
	Page          int32    `json:"page,omitempty"`
	Size          int32    `json:"size,omitempty"`
}

func (r *searchRequest) toEntity() *entity.SearchRequest {
	langs := make([]entity.Language, 0, len(r.SubtitleLangs))
	for _, code := range r.SubtitleLangs {
		langs = append(langs, entity.ParseLanguage(code))
	}
	return &entity.SearchRequest{
		FreeText:          r.Query,
		MainLanguage:      entity.ParseLanguage(r.Lang),
		SubtitleLanguages: langs,
		SourceIDs:         r.SourceIDs,
		Difficulty:        entity.IntRange{Min: r.Difficulty.Min, Max: r.Difficulty.Max},
		LevelMin:          r.LevelMin,
		LevelMax:          r.LevelMax,
		Length:            entity.IntRange{Min: r.Length.Min, Max: r.Length.Max},
		DurationMaxMS:     r.DurationMaxMS,
		Review:            entity.IntRange{Min: r.Review.Min, Max: r.Review.Max},
		UserID:            r.UserID,
		Filter:            r.Filter,
		WithTotal:         r.WithTotal,
		Page:              r.Page,
		Size:              r.Size,
	}
}

type cardDTO struct {
	ID         int64  `json:"id"`
	EpisodeID  int64  `json:"episode_id"`
	Position   int32  `json:"position"`
	StartMS    int64  `json:"start_ms"`
	EndMS      int64  `json:"end_ms"`
	DurationMS int64  `json:"duration_ms"`
	Difficulty int32  `json:"difficulty"`
	MediaURL   string `json:"media_url,omitempty"`
	AudioURL   string `json:"audio_url,omitempty"`
}

type ratingDTO struct {
	Framework string `json:"framework"`
	Level     string `json:"level"`
	Language  string `json:"language,omitempty"`
}

type searchItemDTO struct {
	Card        cardDTO           `json:"card"`
	SourceID    int64             `json:"source_id"`
	SourceTitle string            `json:"source_title,omitempty"`
	Subtitles   map[string]string `json:"subtitles"`
	Ratings     []ratingDTO       `json:"ratings,omitempty"`
}

type searchResponseDTO struct {
	Items       []searchItemDTO `json:"items"`
	ApproxTotal int64           `json:"approx_total"`
	Page        int32           `json:"page"`
	Size        int32           `json:"size"`
	Degraded    bool            `json:"degraded,omitempty"`
}

type sourceCountDTO struct {
	SourceID int64  `json:"source_id"`
	Title    string `json:"title,omitempty"`
	Count    int64  `json:"count"`
}

type suggestTermDTO struct {
	Term      string `json:"term"`
	Language  string `json:"language"`
	Frequency int64  `json:"frequency"`
}

func toSearchResponseDTO(resp *entity.SearchResponse) searchResponseDTO {
	items := make([]searchItemDTO, 0, len(resp.Items))
	for _, item := range resp.Items {
		subtitles := make(map[string]string, len(item.Subtitles))
		for lang, text := range item.Subtitles {
			subtitles[lang.Code()] = text
		}
		ratings := make([]ratingDTO, 0, len(item.Ratings))
		for _, rating := range item.Ratings {
			ratings = append(ratings, ratingDTO{
				Framework: string(rating.Framework),
				Level:     rating.Level,
				Language:  rating.Language.Code(),
			})
		}
		items = append(items, searchItemDTO{
			Card: cardDTO{
				ID:         item.Card.ID,
				EpisodeID:  item.Card.EpisodeID,
				Position:   item.Card.Position,
				StartMS:    item.Card.StartMS,
				EndMS:      item.Card.EndMS,
				DurationMS: item.Card.DurationMS,
				Difficulty: item.Card.Difficulty,
				MediaURL:   item.Card.MediaURL,
				AudioURL:   item.Card.AudioURL,
			},
			SourceID:    item.SourceID,
			SourceTitle: item.SourceTitle,
			Subtitles:   subtitles,
			Ratings:     ratings,
		})
	}
	return searchResponseDTO{
		Items:       items,
		ApproxTotal: resp.ApproxTotal,
		Page:        resp.Page,
		Size:        resp.Size,
		Degraded:    resp.Degraded,
	}
}
