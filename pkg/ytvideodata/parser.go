package ytvideodata

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/net/html"
)

func (c *Client) getFromPage(ctx context.Context, videoId string) (*VideoData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pageURL+videoId, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, err
	}

	var videoData VideoData
	videoData.Title = getTitle(doc)
	videoData.ThumbnailUrl = fmt.Sprintf("https://i.ytimg.com/vi/%s/hqdefault.jpg", videoId)
	videoData.AuthorName = getLinkContent(doc)
	return &videoData, nil
}

func getTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
		return n.FirstChild.Data
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := getTitle(c); title != "" {
			return title
		}
	}
	return ""
}

func getLinkContent(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "link" {
		var isName bool
		var content string
		for _, attr := range n.Attr {
			switch attr.Key {
			case "itemprop":
				isName = attr.Val == "name"
			case "content":
				content = attr.Val
			}
		}
		if isName {
			return content
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if content := getLinkContent(c); content != "" {
			return content
		}
	}
	return ""
}
