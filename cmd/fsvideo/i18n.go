// Package main provides localization for the fsvideo CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Playback": "再生",
		"Surface":  "描画面",
		"Output":   "出力先",
		"Logging":  "ログ",

		// Commands
		"Play image sequences and videos onto a drawing surface": "画像シーケンスと動画を描画面に再生",
		"Play sources in a window":                               "ウィンドウでソースを再生",
		"Play sources headless and record the result":            "ウィンドウなしでソースを再生し結果を記録",
		"Show container, codec and size of sources":              "ソースのコンテナ、コーデック、サイズを表示",
		"Show version information":                               "バージョン情報を表示",
		"fsvideo version %s":                                     "fsvideo バージョン %s",

		// Playback flags
		"Playlist config file (YAML)":                                       "プレイリスト設定ファイル（YAML）",
		"Frame rate (default: %d)":                                          "フレームレート（デフォルト: %d）",
		"Restart the playlist after the last source":                        "最後のソースの後にプレイリストを先頭から再開",
		"Frame filter (grayscale, invert, sepia, caption=TEXT), repeatable": "フレームフィルター（grayscale, invert, sepia, caption=TEXT）、複数指定可",
		"Path to ffmpeg executable":                                         "ffmpeg実行ファイルのパス",
		"Reload the playlist when the config file changes":                  "設定ファイルの変更時にプレイリストを再読み込み",

		// Surface flags
		"Surface width in pixels":               "描画面の幅（ピクセル）",
		"Surface height in pixels":              "描画面の高さ（ピクセル）",
		"Background color (hex, e.g., #808080)": "背景色（16進数、例: #808080）",
		"Scaling quality (fast, smooth)":        "拡大縮小の品質（fast, smooth）",
		"Window title":                          "ウィンドウタイトル",

		// Output flags
		"Output MP4 file path":                              "出力MP4ファイルパス",
		"Video CRF value (0-51, lower is better)":           "動画のCRF値（0-51、低いほど高品質）",
		"Output playback summary to file (Markdown format)": "再生サマリーをファイルに出力（Markdown形式）",
		"Stop rendering after this duration":                "この時間が経過したらレンダリングを停止",

		// Logging flags
		"Directory for presented frames and geometry": "描画フレームとジオメトリの出力ディレクトリ",
		"Log level (debug, info, warn, error)":        "ログレベル（debug, info, warn, error）",
		"Suppress all log output":                     "全てのログ出力を抑制",

		// Errors and probe output
		"Error: %s":                       "エラー: %s",
		"playback failed":                 "再生に失敗しました",
		"at least one source is required": "ソースを1つ以上指定してください",
		"%s: image sequence, %d frames":   "%s: 画像シーケンス, %d フレーム",
		"%s: %s %dx%d, %d samples, %s":    "%s: %s %dx%d, %d サンプル, %s",

		// Summary content
		"Playback Summary":  "再生サマリー",
		"Generated":         "生成日時",
		"Settings":          "設定",
		"Item":              "項目",
		"Value":             "値",
		"Frame Rate":        "フレームレート",
		"Loop":              "ループ",
		"Yes":               "はい",
		"No":                "いいえ",
		"Filters":           "フィルター",
		"None":              "なし",
		"Sources":           "ソース",
		"No sources played": "再生されたソースはありません",
		"Source":            "ソース",
		"Frames":            "フレーム数",
		"Dropped":           "ドロップ数",
		"Result":            "結果",
		"OK":                "成功",
		"Failed":            "失敗",
		"Outcome":           "再生結果",
		"Not finished":      "未完了",
		"Completed":         "完了",
		"Total Frames":      "合計フレーム数",
		"Total Dropped":     "合計ドロップ数",
		"Duration":          "再生時間",
	})
}
