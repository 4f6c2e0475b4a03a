package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Player
		"Frame rate %d exceeds %d fps, frames may be dropped": "フレームレート %d は %d fps を超えています。フレームが落ちる可能性があります",
		"Playlist set: %d sources at %d fps":                  "プレイリストを設定: %d ソース, %d fps",
		"Paused at source %d":                                 "ソース %d で一時停止しました",
		"Resumed at source %d":                                "ソース %d から再開しました",
		"Playing source %d: %s":                               "ソース %d を再生中: %s",
		"Failed to open source %d: %s":                        "ソース %d を開けませんでした: %s",
		"Source %d failed: %s":                                "ソース %d が失敗しました: %s",
		"Source %d ended after %d frames":                     "ソース %d が %d フレームで終了しました",
		"Playlist restarted":                                  "プレイリストを先頭から再開しました",
		"Playback finished (ok=%t)":                           "再生が終了しました (ok=%t)",
		"Failed to save geometry: %s":                         "描画ジオメトリの保存に失敗しました: %s",

		// Pump
		"Pumping every %s":                          "%s ごとにフレームを描画します",
		"Pump paused":                               "描画を一時停止しました",
		"Pump resumed":                              "描画を再開しました",
		"Failed to close source: %s":                "ソースのクローズに失敗しました: %s",
		"Transform returned no image for frame %d": "フレーム %d の変換結果が空です",
		"Failed to compose frame %d: %s":            "フレーム %d の合成に失敗しました: %s",

		// Sources
		"Decoding %s (%s, %dx%d)": "%s をデコード中 (%s, %dx%d)",
		"Fetching %s":             "%s を取得中",

		// Runtime
		"Interrupted, shutting down...":    "中断されました。シャットダウン中...",
		"Rendering %d sources at %d fps...": "%d ソースを %d fps でレンダリング中...",
		"Stopped after %s":                 "%s 経過したため停止しました",
		"Output saved to %s":               "出力を %s に保存しました",
		"Summary saved to %s":              "サマリーを %s に保存しました",
		"Failed to write summary: %s":      "サマリーの書き込みに失敗しました: %s",
		"Playback ended with a failure":    "再生は失敗で終了しました",
		"Failed to toggle pause: %s":       "一時停止の切り替えに失敗しました: %s",

		// Config reload
		"Reloading playlist from %s":     "%s からプレイリストを再読み込みします",
		"Ignoring invalid config %s: %s": "無効な設定 %s を無視します: %s",
		"Failed to reload playlist: %s":  "プレイリストの再読み込みに失敗しました: %s",
		"Config watcher error: %s":       "設定ファイル監視エラー: %s",
	})
}
