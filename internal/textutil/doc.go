// Package textutil provides small text helpers shared by the bot, the
// metadata clients and the formatter.
//
// The helpers cover:
//   - cleaning user and OCR supplied titles before searching
//   - extracting years and IMDb ids from free text
//   - human friendly runtimes, ratings, byte sizes and lists
//   - Telegram Markdown escaping and rune-safe truncation
//   - Unicode-aware key folding for cache lookups
package textutil
