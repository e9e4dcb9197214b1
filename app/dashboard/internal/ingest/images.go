package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-shiori/go-readability"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/news_dashboard/app/dashboard/internal/repo"
)

// DefaultImages 找不到可用配图时轮流使用的占位图
var DefaultImages = []string{
	"https://images.unsplash.com/photo-1677442136019-21780ecad995?w=1200&h=600&fit=crop",
	"https://images.unsplash.com/photo-1620712943543-bcc4688e7485?w=1200&h=600&fit=crop",
	"https://images.unsplash.com/photo-1655635949384-f737c5133dfe?w=1200&h=600&fit=crop",
}

const (
	userAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	maxPageBytes = 5 << 20
)

// ImageOptions 配图修复选项
type ImageOptions struct {
	// MissingOnly 只处理没有配图的条目，不检查已有链接
	MissingOnly bool
	// Defaults 提取失败时轮流使用，为空则保持原样
	Defaults []string
	// Interval 两次页面抓取之间的最小间隔
	Interval time.Duration
}

// ImageStats 配图修复结果统计
type ImageStats struct {
	Checked   int
	Broken    int
	Extracted int
	Defaulted int
	Failed    int
}

// ImageFixer 检查文章与增强条目的配图，失效时从页面重新提取
type ImageFixer struct {
	store  repo.AdminBackend
	client *http.Client
	log    *log.Helper
}

func NewImageFixer(store repo.AdminBackend, client *http.Client, logger log.Logger) *ImageFixer {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ImageFixer{store: store, client: client, log: log.NewHelper(logger)}
}

// Fix 同一页面只抓取一次，增强条目复用所属文章页面的结果
func (f *ImageFixer) Fix(ctx context.Context, opts ImageOptions) (ImageStats, error) {
	refs, err := f.store.ListImageRefs(ctx)
	if err != nil {
		return ImageStats{}, err
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Interval), 1)
	}
	pages := make(map[string]string)

	var stats ImageStats
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Checked++
		if ref.ImageURL != "" && (opts.MissingOnly || f.imageOK(ctx, ref.ImageURL)) {
			continue
		}
		stats.Broken++

		image, ok := pages[ref.PageURL]
		if !ok {
			if err := limiter.Wait(ctx); err != nil {
				return stats, err
			}
			image, err = f.extract(ctx, ref.PageURL)
			if err != nil {
				f.log.Warnf("Could not extract image from %s: %v", ref.PageURL, err)
			}
			pages[ref.PageURL] = image
		}

		defaulted := false
		if image == "" {
			if len(opts.Defaults) == 0 {
				f.log.Warnf("No working image for %s %s: %s", ref.Key.Kind, ref.Key.ID, ref.Title)
				continue
			}
			image = opts.Defaults[stats.Defaulted%len(opts.Defaults)]
			defaulted = true
		}

		if err := f.store.SetImageURL(ctx, ref.Key, image); err != nil {
			f.log.Errorf("Error updating %s %s: %v", ref.Key.Kind, ref.Key.ID, err)
			stats.Failed++
			continue
		}
		if defaulted {
			stats.Defaulted++
		} else {
			stats.Extracted++
		}
		f.log.Infof("Updated %s %s with %s", ref.Key.Kind, ref.Key.ID, image)
	}
	return stats, nil
}

func (f *ImageFixer) newRequest(ctx context.Context, method, target string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}

// imageOK HEAD 请求跟随重定向后返回 200 即视为可用
func (f *ImageFixer) imageOK(ctx context.Context, imageURL string) bool {
	req, err := f.newRequest(ctx, http.MethodHead, imageURL)
	if err != nil {
		return false
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// extract 依次尝试页面上的候选图片，最后使用 readability 识别的主图
func (f *ImageFixer) extract(ctx context.Context, pageURL string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	req, err := f.newRequest(ctx, http.MethodGet, pageURL)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}

	candidates, err := ImageCandidates(bytes.NewReader(body), base)
	if err != nil {
		return "", err
	}
	for _, c := range candidates {
		if f.imageOK(ctx, c) {
			return c, nil
		}
	}

	article, err := readability.FromReader(bytes.NewReader(body), base)
	if err != nil {
		return "", nil
	}
	if image := resolveImage(base, article.Image); image != "" && f.imageOK(ctx, image) {
		return image, nil
	}
	return "", nil
}

// ImageCandidates 按优先级返回页面中的图片链接：og:image、twitter:image、
// 正文第一张图、带主图 class 的图片
func ImageCandidates(r io.Reader, base *url.URL) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var out []string
	seen := make(map[string]bool)
	add := func(raw string) {
		if u := resolveImage(base, raw); u != "" && !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}

	doc.Find(`meta[property="og:image"]`).Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("content", ""))
	})
	doc.Find(`meta[name="twitter:image"]`).Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("content", ""))
	})
	if src, ok := doc.Find("article img").First().Attr("src"); ok {
		add(src)
	}
	doc.Find("img.featured-image, img.post-image, img.hero-image").Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("src", ""))
	})
	return out, nil
}

// resolveImage 相对链接按页面地址补全，只接受 http(s)
func resolveImage(base *url.URL, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
