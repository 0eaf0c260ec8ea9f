// Package util provides content hashing and markdown front matter parsing.
package util

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/gomarkdown/markdown"

	"github.com/mmarkdown/mmark/v2/mast"
)

// FrontMatter is the mmark title block plus the post fields the admin
// needs when importing a markdown file.
type FrontMatter struct {
	*mast.TitleData
	Meta      string   `toml:"meta"`
	Tags      []string `toml:"tags"`
	Featured  bool     `toml:"featured"`
	Thumbnail string   `toml:"thumbnail"`

	Consumed int `toml:"-"`
}

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func ContentHashString(content string) string {
	return ContentHash([]byte(content))
}

// GetFrontMatter parses a leading %%% TOML %%% block.
func GetFrontMatter(md []byte) (*FrontMatter, error) {
	md = markdown.NormalizeNewlines(md)
	trimmed := bytes.TrimLeft(md, "\n \t\r")
	skipped := len(md) - len(trimmed)
	md = trimmed

	delimiter := []byte("%%%")

	if len(md) < 2*len(delimiter) {
		return nil, fmt.Errorf("invalid front matter format")
	}

	first := bytes.Index(md[:len(delimiter)+1], delimiter)
	if first == -1 {
		return nil, fmt.Errorf("invalid front matter format")
	}

	second := bytes.Index(md[first+len(delimiter):], delimiter)
	if second == -1 {
		return nil, fmt.Errorf("invalid front matter format")
	}

	end := second + 2*len(delimiter) + 1
	if end > len(md) {
		return nil, fmt.Errorf("invalid front matter format")
	}

	block := md[len(delimiter) : end-len(delimiter)-1]
	info := &FrontMatter{
		TitleData: &mast.TitleData{},
	}

	if _, err := toml.Decode(string(block), info); err != nil {
		return nil, fmt.Errorf("failed to decode front matter: %w", err)
	}

	if info.Language == "" {
		info.Language = "en"
	}
	info.Consumed = skipped + end

	return info, nil
}

// StripFrontMatter returns the markdown body after the front matter block.
func StripFrontMatter(md []byte, fm *FrontMatter) []byte {
	md = markdown.NormalizeNewlines(md)
	if fm == nil {
		return md
	}
	if fm.Consumed >= len(md) {
		return nil
	}
	return bytes.TrimLeft(md[fm.Consumed:], "\n")
}
