/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/eslsoft/subsearch/internal/infrastructure/config"
	infraDB "github.com/eslsoft/subsearch/internal/infrastructure/database"
)

// importCmd loads a subtitle card dataset from an NDJSON file. One line per
// card, with its source, episode, subtitle texts and optional level ratings.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "导入字幕卡片数据集 (NDJSON)",
	RunE: func(cmd *cobra.Command, args []string) error {
		input, _ := cmd.Flags().GetString("input")
		gzipEnabled, _ := cmd.Flags().GetBool("gzip")
		if input == "" {
			return fmt.Errorf("请通过 --input 指定数据文件或使用 - 表示标准输入")
		}
		if !gzipEnabled && input != "-" && strings.HasSuffix(strings.ToLower(input), ".gz") {
			gzipEnabled = true
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		pool, cleanup, err := infraDB.NewConnection(cfg)
		if err != nil {
			return fmt.Errorf("连接数据库失败: %w", err)
		}
		defer cleanup()

		if err := infraDB.Migrate(cmd.Context(), pool); err != nil {
			return fmt.Errorf("执行数据库迁移失败: %w", err)
		}

		reader, closeFn, err := openImportInput(input, gzipEnabled)
		if err != nil {
			return err
		}
		defer closeFn()

		imported, err := importCards(cmd.Context(), pool, reader)
		if err != nil {
			return err
		}
		cmd.Printf("imported %d cards\n", imported)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("input", "", "NDJSON 数据文件路径, - 表示标准输入")
	importCmd.Flags().Bool("gzip", false, "输入为 gzip 压缩")
}

type importRecord struct {
	Source struct {
		Title        string `json:"title"`
		MainLanguage string `json:"main_language"`
		Kind         string `json:"kind"`
	} `json:"source"`
	Episode struct {
		Season int32  `json:"season"`
		Number int32  `json:"number"`
		Title  string `json:"title"`
	} `json:"episode"`
	Card struct {
		Position   int32  `json:"position"`
		StartMS    int64  `json:"start_ms"`
		EndMS      int64  `json:"end_ms"`
		Difficulty int32  `json:"difficulty"`
		MediaURL   string `json:"media_url"`
		AudioURL   string `json:"audio_url"`
	} `json:"card"`
	Subtitles map[string]string `json:"subtitles"`
	Ratings   []struct {
		Framework string `json:"framework"`
		Level     string `json:"level"`
		Language  string `json:"language"`
	} `json:"ratings"`
}

func openImportInput(path string, gzipEnabled bool) (io.Reader, func(), error) {
	var raw io.ReadCloser
	if path == "-" {
		raw = io.NopCloser(os.Stdin)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("打开数据文件失败: %w", err)
		}
		raw = f
	}

	if !gzipEnabled {
		return raw, func() { _ = raw.Close() }, nil
	}

	gz, err := gzip.NewReader(raw)
	if err != nil {
		_ = raw.Close()
		return nil, nil, fmt.Errorf("解压数据文件失败: %w", err)
	}
	return gz, func() { _ = gz.Close(); _ = raw.Close() }, nil
}

// importCards streams NDJSON records into the content tables. Sources and
// episodes are deduplicated by natural key within one run.
func importCards(ctx context.Context, pool *pgxpool.Pool, r io.Reader) (int64, error) {
	sourceIDs := make(map[string]int64)
	episodeIDs := make(map[string]int64)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)

	var imported int64
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var rec importRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return imported, fmt.Errorf("line %d: decode record: %w", line, err)
		}
		if err := importOne(ctx, pool, &rec, sourceIDs, episodeIDs); err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		imported++
	}
	if err := scanner.Err(); err != nil {
		return imported, fmt.Errorf("read input: %w", err)
	}
	return imported, nil
}

func importOne(ctx context.Context, pool *pgxpool.Pool, rec *importRecord, sourceIDs, episodeIDs map[string]int64) error {
	sourceKey := rec.Source.Title
	sourceID, ok := sourceIDs[sourceKey]
	if !ok {
		err := pool.QueryRow(ctx, `INSERT INTO content_items (title, main_language, kind)
			VALUES ($1, $2, $3) RETURNING id`,
			rec.Source.Title, rec.Source.MainLanguage, rec.Source.Kind).Scan(&sourceID)
		if err != nil {
			return fmt.Errorf("insert source: %w", err)
		}
		sourceIDs[sourceKey] = sourceID
	}

	episodeKey := fmt.Sprintf("%d|%d|%d", sourceID, rec.Episode.Season, rec.Episode.Number)
	episodeID, ok := episodeIDs[episodeKey]
	if !ok {
		err := pool.QueryRow(ctx, `INSERT INTO episodes (content_item_id, season, number, title)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			sourceID, rec.Episode.Season, rec.Episode.Number, rec.Episode.Title).Scan(&episodeID)
		if err != nil {
			return fmt.Errorf("insert episode: %w", err)
		}
		episodeIDs[episodeKey] = episodeID
	}

	var cardID int64
	err := pool.QueryRow(ctx, `INSERT INTO cards
		(episode_id, position, start_ms, end_ms, duration_ms, difficulty, media_url, audio_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		episodeID, rec.Card.Position, rec.Card.StartMS, rec.Card.EndMS,
		rec.Card.EndMS-rec.Card.StartMS, rec.Card.Difficulty,
		rec.Card.MediaURL, rec.Card.AudioURL).Scan(&cardID)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}

	for lang, text := range rec.Subtitles {
		if strings.TrimSpace(text) == "" {
			continue
		}
		_, err := pool.Exec(ctx, `INSERT INTO subtitle_texts (card_id, language, text)
			VALUES ($1, $2, $3)
			ON CONFLICT (card_id, language) DO UPDATE SET text = EXCLUDED.text`,
			cardID, lang, text)
		if err != nil {
			return fmt.Errorf("insert subtitle %s: %w", lang, err)
		}
		_, err = pool.Exec(ctx, `INSERT INTO language_coverage (card_id, language)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`, cardID, lang)
		if err != nil {
			return fmt.Errorf("index coverage %s: %w", lang, err)
		}
	}

	for _, rating := range rec.Ratings {
		_, err := pool.Exec(ctx, `INSERT INTO level_ratings (card_id, framework, level, language)
			VALUES ($1, $2, $3, $4)`,
			cardID, rating.Framework, rating.Level, rating.Language)
		if err != nil {
			return fmt.Errorf("insert rating: %w", err)
		}
	}
	return nil
}
