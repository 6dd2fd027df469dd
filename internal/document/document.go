// Package document encodes artifacts as files: a YAML front matter block
// followed by the rendered HTML page.
package document

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/seopress/internal/models"
)

// Ext is the file extension of encoded artifacts.
const Ext = ".post"

const delim = "---\n"

// ErrMalformed is returned when data is not a valid artifact document.
var ErrMalformed = errors.New("malformed artifact document")

type frontMatter struct {
	ID                      string            `yaml:"id"`
	Keyword                 string            `yaml:"keyword"`
	Title                   string            `yaml:"title"`
	MetaDescription         string            `yaml:"meta_description"`
	Tags                    []string          `yaml:"tags"`
	WordCount               int               `yaml:"word_count"`
	EstimatedReadingMinutes int               `yaml:"estimated_reading_minutes"`
	CreatedAt               time.Time         `yaml:"created_at"`
	Source                  models.Source     `yaml:"source"`
	Trigger                 models.Trigger    `yaml:"trigger"`
	Checksum                string            `yaml:"checksum"`
	SEO                     models.SeoMetrics `yaml:"seo"`
}

// Checksum returns the hex sha256 of body.
func Checksum(body string) string {
	h := sha256.Sum256([]byte(body))
	return hex.EncodeToString(h[:])
}

// Encode serializes a. The checksum is recomputed from the HTML body.
func Encode(a models.Artifact) ([]byte, error) {
	fm := frontMatter{
		ID:                      a.ID,
		Keyword:                 a.Keyword,
		Title:                   a.Title,
		MetaDescription:         a.MetaDescription,
		Tags:                    a.Tags,
		WordCount:               a.WordCount,
		EstimatedReadingMinutes: a.EstimatedReadingMinutes,
		CreatedAt:               a.CreatedAt.UTC(),
		Source:                  a.Source,
		Trigger:                 a.Trigger,
		Checksum:                Checksum(a.HTMLBody),
		SEO:                     a.SEO,
	}
	head, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("document: marshal front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(head) + len(a.HTMLBody) + 2*len(delim))
	buf.WriteString(delim)
	buf.Write(head)
	buf.WriteString(delim)
	buf.WriteString(a.HTMLBody)
	return buf.Bytes(), nil
}

// Decode parses data produced by Encode and verifies the body checksum.
func Decode(data []byte) (models.Artifact, error) {
	if !bytes.HasPrefix(data, []byte(delim)) {
		return models.Artifact{}, fmt.Errorf("document: missing front matter: %w", ErrMalformed)
	}
	rest := data[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return models.Artifact{}, fmt.Errorf("document: unterminated front matter: %w", ErrMalformed)
	}
	head := rest[:idx+1]
	body := string(rest[idx+1+len(delim):])

	var fm frontMatter
	if err := yaml.Unmarshal(head, &fm); err != nil {
		return models.Artifact{}, fmt.Errorf("document: front matter: %w: %w", ErrMalformed, err)
	}
	if fm.ID == "" || !fm.Trigger.Valid() {
		return models.Artifact{}, fmt.Errorf("document: incomplete front matter: %w", ErrMalformed)
	}
	if fm.Checksum != Checksum(body) {
		return models.Artifact{}, fmt.Errorf("document: checksum mismatch for %s: %w", fm.ID, ErrMalformed)
	}

	return models.Artifact{
		ID:                      fm.ID,
		Keyword:                 fm.Keyword,
		Title:                   fm.Title,
		MetaDescription:         fm.MetaDescription,
		Tags:                    fm.Tags,
		WordCount:               fm.WordCount,
		EstimatedReadingMinutes: fm.EstimatedReadingMinutes,
		CreatedAt:               fm.CreatedAt,
		Source:                  fm.Source,
		Trigger:                 fm.Trigger,
		SEO:                     fm.SEO,
		Checksum:                fm.Checksum,
		HTMLBody:                body,
	}, nil
}
