package video

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ppiankov/lieblocker/internal/model"
)

var titleSelectors = []string{
	"h1.ytd-video-primary-info-renderer",
	"h1.title",
	".ytd-video-primary-info-renderer h1",
	"h1.ytd-watch-metadata",
}

var channelSelectors = []string{
	"#channel-name a",
	".ytd-channel-name a",
	"ytd-channel-name a",
}

// ExtractMetadata reads the title and channel name from a watch page.
// Server-rendered pages only carry meta tags, which are used as a fallback.
func ExtractMetadata(doc *goquery.Document, id model.VideoID) model.VideoMetadata {
	meta := model.VideoMetadata{
		Title:       model.UnknownTitle,
		ChannelName: model.UnknownChannel,
		VideoID:     id,
	}
	if doc == nil {
		return meta
	}

	if title := firstText(doc, titleSelectors); title != "" {
		meta.Title = title
	} else if title, ok := doc.Find(`meta[name="title"]`).Attr("content"); ok && strings.TrimSpace(title) != "" {
		meta.Title = strings.TrimSpace(title)
	}

	if channel := firstText(doc, channelSelectors); channel != "" {
		meta.ChannelName = channel
	} else if channel, ok := doc.Find(`link[itemprop="name"]`).Attr("content"); ok && strings.TrimSpace(channel) != "" {
		meta.ChannelName = strings.TrimSpace(channel)
	}

	return meta
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}
