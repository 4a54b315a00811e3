package egov

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/aoba-labs/lawdex/internal/core/domain"
	"github.com/aoba-labs/lawdex/internal/logger"
)

// extractLawMeta pulls the law title and number out of the API payload.
// Falls back to the law ID when the document is unparseable or the title
// element is absent.
func extractLawMeta(xmlText, lawID string) (name, num string) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xmlText); err != nil {
		logger.Warn("law metadata parse failed: %s (%v)", lawID, err)
		return lawID, ""
	}

	root := doc.Root()
	if root == nil {
		return lawID, ""
	}

	name = lawID
	if el := findFirst(root, "LawTitle"); el != nil {
		if t := strings.TrimSpace(el.Text()); t != "" {
			name = t
		}
	}
	if el := findFirst(root, "LawNum"); el != nil {
		num = strings.TrimSpace(el.Text())
	}
	return name, num
}

// extractArticles returns the articles under MainProvision sections only.
// Supplementary provisions (SupplProvision) are deliberately excluded: they
// hold transitional rules, not the operative text users search for.
func extractArticles(xmlText string) []domain.Article {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xmlText); err != nil {
		logger.Warn("article extraction parse failed: %v", err)
		return nil
	}

	root := doc.Root()
	if root == nil {
		return nil
	}

	// Path query first, then a tag-only descendant scan for payloads whose
	// namespace prefixes defeat the path matcher.
	articleEls := doc.FindElements("//MainProvision//Article")
	if len(articleEls) == 0 {
		for _, main := range findAll(root, "MainProvision") {
			articleEls = append(articleEls, findAll(main, "Article")...)
		}
	}

	articles := make([]domain.Article, 0, len(articleEls))
	for _, el := range articleEls {
		article, ok := parseArticle(el, len(articles))
		if !ok {
			continue
		}
		articles = append(articles, article)
	}

	logger.Debug("extracted %d articles from main provisions", len(articles))
	return articles
}

// parseArticle flattens one Article element. Articles whose paragraphs
// carry no text are dropped.
func parseArticle(el *etree.Element, index int) (domain.Article, bool) {
	caption := childText(el, "ArticleCaption")
	title := childText(el, "ArticleTitle")

	var paragraphs []string
	for _, p := range childElements(el, "Paragraph") {
		if t := flattenText(p); t != "" {
			paragraphs = append(paragraphs, t)
		}
	}
	body := strings.Join(paragraphs, "\n")
	if body == "" {
		return domain.Article{}, false
	}

	num := el.SelectAttrValue("Num", "")
	if num == "" {
		num = fmt.Sprintf("Article_%d", index+1)
	}

	text := strings.TrimSpace(caption + "\n" + title + "\n" + body)

	return domain.Article{
		ArticleNumber: num,
		Caption:       caption,
		Title:         title,
		Text:          text,
		SectionType:   "law_article",
	}, true
}

// flattenText collapses an element's mixed content into a single
// space-joined string, preserving document order of text runs.
func flattenText(el *etree.Element) string {
	var parts []string
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		for _, tok := range e.Child {
			switch t := tok.(type) {
			case *etree.CharData:
				if s := strings.TrimSpace(t.Data); s != "" {
					parts = append(parts, s)
				}
			case *etree.Element:
				walk(t)
			}
		}
	}
	walk(el)
	return strings.Join(parts, " ")
}

// childText returns the flattened text of the first direct child with the
// given local tag, or "".
func childText(el *etree.Element, tag string) string {
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			return strings.TrimSpace(flattenText(child))
		}
	}
	return ""
}

// childElements returns direct children matching the local tag.
func childElements(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
	}
	return out
}

// findFirst finds the first descendant with the local tag, depth first.
func findFirst(el *etree.Element, tag string) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			return child
		}
		if found := findFirst(child, tag); found != nil {
			return found
		}
	}
	return nil
}

// findAll collects every descendant with the local tag.
func findAll(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Tag == tag {
			out = append(out, child)
		}
		out = append(out, findAll(child, tag)...)
	}
	return out
}
