// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package summary derives short session titles from early user messages.
package summary

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/convexport/internal/model"
)

const (
	// userMessages and eventWindow bound the text that is analyzed.
	userMessages = 5
	eventWindow  = 10

	actionKeywords = 3
	plainKeywords  = 4

	// MaxSlugLength caps the slug used in export file names.
	MaxSlugLength = 50
)

var (
	fenceRe      = regexp.MustCompile("(?s)```.*?```")
	urlRe        = regexp.MustCompile(`https?://\S+`)
	pathRe       = regexp.MustCompile(`/[\w/.-]+`)
	inlineCodeRe = regexp.MustCompile("`[^`]+`")
	wordRe       = regexp.MustCompile(`\b[a-z]{3,}\b`)
	slugSepRe    = regexp.MustCompile(`[^a-z0-9]+`)
)

type action struct {
	re    *regexp.Regexp
	label string
}

// actions are tried in order against the first user message.
var actions = []action{
	{regexp.MustCompile(`\b(create|build|make|develop|implement)\b.*?\b\w+`), "building"},
	{regexp.MustCompile(`\b(fix|debug|solve|resolve)\b.*?\b\w+`), "fixing"},
	{regexp.MustCompile(`\b(add|integrate|include)\b.*?\b\w+`), "adding"},
	{regexp.MustCompile(`\b(update|modify|change|edit)\b.*?\b\w+`), "updating"},
	{regexp.MustCompile(`\b(setup|configure|install)\b.*?\b\w+`), "setting up"},
	{regexp.MustCompile(`\b(export|convert|transform)\b.*?\b\w+`), "exporting"},
	{regexp.MustCompile(`\b(test|verify|check)\b.*?\b\w+`), "testing"},
	{regexp.MustCompile(`\b(refactor|optimize|improve)\b.*?\b\w+`), "improving"},
}

var stopWords = toSet(`
i me my we our you your the a an is are was were be been being have has had
do does did will would could should may might must shall can to of in for on
with at by from as into through during before after above below between under
again further then once here there when where why how all each few more most
other some such no nor not only own same so than too very just and but if or
because until while this that these those am it its also about like want need
please help make get let see look thing something anything everything nothing
use using used`)

func toSet(words string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(words) {
		set[w] = true
	}
	return set
}

// Generate returns the summary for a session. project names the fallback
// ("<project> session") used when no keywords survive filtering.
func Generate(sess *model.Session, project string) string {
	return FromTexts(sess.UserTexts(userMessages, eventWindow), project)
}

// FromTexts builds a summary from user message texts, oldest first.
func FromTexts(texts []string, project string) string {
	fallback := "Session"
	if project != "" {
		fallback = project + " session"
	}
	if len(texts) == 0 {
		return fallback
	}

	keywords := Keywords(strings.Join(texts, " "))
	if len(keywords) == 0 {
		return fallback
	}

	first := strings.ToLower(texts[0])
	for _, a := range actions {
		if a.re.MatchString(first) {
			return title(a.label + " " + strings.Join(head(keywords, actionKeywords), " "))
		}
	}
	return title(strings.Join(head(keywords, plainKeywords), " "))
}

// Keywords returns the meaningful words of text ranked by frequency, ties
// broken by first occurrence.
func Keywords(text string) []string {
	text = strings.ToLower(text)
	text = fenceRe.ReplaceAllString(text, "")
	text = urlRe.ReplaceAllString(text, "")
	text = pathRe.ReplaceAllString(text, "")
	text = inlineCodeRe.ReplaceAllString(text, "")

	counts := make(map[string]int)
	var order []string
	for _, w := range wordRe.FindAllString(text, -1) {
		if stopWords[w] {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	// Insertion sort keeps first-occurrence order among equal counts.
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && counts[order[j]] > counts[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	return order
}

func head(words []string, n int) []string {
	if len(words) > n {
		return words[:n]
	}
	return words
}

func title(s string) string {
	return cases.Title(language.English).String(s)
}

// Slugify turns a summary into a lowercase, hyphenated, ASCII file name
// fragment of at most MaxSlugLength bytes. Accents are folded; characters
// with no ASCII form are dropped. An empty result becomes "session".
func Slugify(s string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		folded = s
	}
	slug := slugSepRe.ReplaceAllString(strings.ToLower(folded), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > MaxSlugLength {
		slug = strings.TrimRight(slug[:MaxSlugLength], "-")
	}
	if slug == "" {
		return "session"
	}
	return slug
}
