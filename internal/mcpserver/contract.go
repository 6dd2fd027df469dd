package mcpserver

// ArtifactFormatContract describes how generated posts are stored and
// addressed, for LLM consumers reading them through the tools.
const ArtifactFormatContract = `# seopress Artifact Format

Every generated post that is saved becomes an immutable artifact file.

## Location and ids

- Manual runs live in ` + "`manual/`" + `, daily runs in ` + "`daily/`" + `.
- The file name is ` + "`<id>.post`" + `.
- Daily ids are ` + "`daily-<keyword-key>-<YYYYMMDD>`" + `. There is at most one per keyword per
  calendar day in the configured timezone.
- Manual ids are ` + "`manual-<keyword-key>-<YYYYMMDDTHHMMSS>`" + `, with ` + "`-2`" + `, ` + "`-3`" + `, ...
  appended when two runs land in the same second.
- The key is the keyword folded to ASCII ` + "`[a-z0-9-]`" + ` followed by an 8-digit hex hash
  of the exact keyword, so "café" and "cafe" never share an id.

## File structure

` + "```" + `
---
id: daily-wireless-earbuds-83f9aa89-20261019
keyword: wireless earbuds
title: The Ultimate Guide to wireless earbuds: Everything You Need to Know
meta_description: Complete guide to wireless earbuds...
tags: [wireless earbuds, review, guide]
word_count: 642
estimated_reading_minutes: 4
created_at: 2026-10-19T09:00:00Z
source: fallback          # ai | fallback
trigger: daily            # manual | daily
checksum: <sha256 hex of the HTML below>
seo:
  keyword: wireless earbuds
  monthly_search_volume: 10000
  difficulty: 45
  cpc: 1.25
  related_keywords: [...]
---
<!DOCTYPE html>
<html lang="en">...</html>
` + "```" + `

## Rules

1. The YAML front matter comes first, fenced by ` + "`---`" + ` lines.
2. Everything after the closing fence is the complete HTML page, byte for byte.
3. ` + "`checksum`" + ` is the SHA-256 of that HTML; a mismatch marks the file as corrupt.
4. Artifacts are never rewritten. A new run produces a new id.
5. Affiliate links in the HTML carry ` + "`rel=\"sponsored noopener\"`" + `.
`
