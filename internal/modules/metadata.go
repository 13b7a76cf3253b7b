package modules

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"github.com/agobrik/webtesttool-sub001/internal/crawler"
	"github.com/agobrik/webtesttool-sub001/internal/model"
	"github.com/agobrik/webtesttool-sub001/internal/pipeline"
)

// Metadata extracts EXIF metadata from images published on the site.
// EXIF data can contain GPS coordinates, author information, and device
// serial numbers that the site operator probably did not mean to publish.
type Metadata struct {
	// maxImages bounds how many images are downloaded per scan.
	maxImages int

	// exifFormats matches image URLs in formats that can carry EXIF.
	exifFormats *regexp.Regexp
}

// NewMetadata creates the metadata module.
func NewMetadata() *Metadata {
	return &Metadata{
		maxImages:   20,
		exifFormats: regexp.MustCompile(`(?i)\.(jpe?g|tiff?|heic)(?:\?[^"'\s]*)?$`),
	}
}

// Name returns the module name.
func (m *Metadata) Name() string { return "metadata" }

// Category returns the assessment category.
func (m *Metadata) Category() string { return "metadata" }

// Execute downloads images referenced by crawled pages and inspects their
// EXIF metadata. Only same-host images in EXIF-capable formats are
// fetched, and the total count is bounded.
func (m *Metadata) Execute(ctx context.Context, sctx *pipeline.Context) ([]model.Finding, error) {
	if sctx.Fetcher == nil {
		return nil, nil
	}

	root, err := url.Parse(sctx.TargetURL)
	if err != nil {
		return nil, nil
	}

	findings := make([]model.Finding, 0)
	processed := make(map[string]bool)

	for _, page := range sctx.Pages {
		select {
		case <-ctx.Done():
			return findings, ctx.Err()
		default:
		}

		for _, imgURL := range imageURLs(page) {
			if len(processed) >= m.maxImages {
				return findings, nil
			}
			if processed[imgURL] {
				continue
			}
			processed[imgURL] = true

			if !m.exifFormats.MatchString(imgURL) || !sameHost(root, imgURL) {
				continue
			}

			resp, err := sctx.Fetcher.Get(ctx, imgURL)
			if err != nil || resp == nil || resp.StatusCode != 200 {
				continue
			}

			findings = append(findings, analyzeEXIF(resp.Body, imgURL, page.URL)...)
		}
	}

	return findings, nil
}

// imageURLs collects image references from a crawled page.
func imageURLs(page *model.CrawledPage) []string {
	if !page.IsHTML() || !page.Succeeded() || len(page.Body) == 0 {
		return nil
	}
	parser, err := crawler.NewParser(page.URL)
	if err != nil {
		return nil
	}
	parsed, err := parser.Parse(bytes.NewReader(page.Body), page.ContentType)
	if err != nil {
		return nil
	}
	return parsed.Images
}

// sameHost reports whether the image lives on the scanned host.
func sameHost(root *url.URL, imgURL string) bool {
	u, err := url.Parse(imgURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), root.Hostname())
}

// analyzeEXIF extracts EXIF entries from image bytes and reports the
// privacy-relevant ones.
func analyzeEXIF(imageData []byte, imageURL, pageURL string) []model.Finding {
	findings := make([]model.Finding, 0)

	rawExif, err := exif.SearchAndExtractExif(imageData)
	if err != nil || rawExif == nil {
		return findings
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return findings
	}

	location := pageURL + " -> " + imageURL

	for _, entry := range entries {
		evidence := entry.TagName + ": " + entry.Formatted

		switch entry.TagName {
		case "GPSLatitude", "GPSLongitude", "GPSLatitudeRef", "GPSLongitudeRef":
			findings = append(findings, model.NewFinding(
				"exif_gps",
				"GPS coordinates in image EXIF",
				evidence,
				location,
			))

		case "Artist", "Copyright", "XPAuthor", "OwnerName", "CameraOwnerName":
			findings = append(findings, model.NewFinding(
				"exif_author",
				"Author information in image EXIF",
				evidence,
				location,
			))

		case "SerialNumber", "CameraSerialNumber", "BodySerialNumber", "LensSerialNumber":
			findings = append(findings, model.NewFinding(
				"exif_serial",
				"Device serial number in image EXIF",
				evidence,
				location,
			))
		}
	}

	return findings
}
