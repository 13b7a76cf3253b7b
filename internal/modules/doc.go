// Package modules contains the built-in assessment modules.
//
// Each module inspects the crawl output for one concern:
//
//   - security: response headers, cookies, forms, and information leaks
//   - performance: compression, caching, and page weight
//   - seo: titles, meta descriptions, robots.txt, and sitemaps
//   - accessibility: alt text, labels, language, and heading structure
//   - api: discovered endpoints and their exposure
//   - functional: forms and broken internal links
//   - metadata: EXIF data leaking from published images
//
// All registers them in a fixed order so scan reports are stable.
package modules
