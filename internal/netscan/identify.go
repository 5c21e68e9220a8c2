package netscan

import (
	"fmt"
	"strings"

	"github.com/svcscan/svcscan/internal/catalog"
	"github.com/svcscan/svcscan/internal/model"
)

// abbreviationLimit is the number of visible characters kept before a
// banner-derived summary is truncated with a trailing "...", matching the
// original SvcInfo::abbreviate(data, 25) call.
const abbreviationLimit = 25

// Identify fuses a banner, an optional HTTP response, and the service
// catalog into a (service, summary, banner) triple per section 4.7. The
// caller is responsible for attaching TLS info and the HTTP
// request/response onto the resulting record; neither affects identity.
func Identify(banner string, httpResp *model.HttpResponse, port model.Port, cat *catalog.Catalog) (service, summary, outBanner string) {
	outBanner = banner

	switch {
	case strings.Count(banner, "-") >= 2:
		fields := strings.SplitN(banner, "-", 3)
		service = fmt.Sprintf("%s (%s)", strings.ToLower(fields[0]), strings.ToLower(fields[1]))
		summary = strings.ReplaceAll(fields[2], "_", " ")

	case banner != "":
		service = "unknown"
		summary = abbreviate(banner, abbreviationLimit)

	case httpResp != nil && httpResp.Valid:
		server := httpResp.Headers["Server"]
		service = fmt.Sprintf("http (%s)", httpResp.Version)
		summary = strings.ReplaceAll(strings.ReplaceAll(server, "_", " "), "/", " ")
		outBanner = server
	}

	if service == "" || service == "unknown" {
		if entry, ok := cat.Lookup(port, "tcp"); ok {
			service = entry.Service
			summary = entry.Summary
		}
	}

	if service == "" {
		service = "unknown"
	}

	return service, summary, outBanner
}

// abbreviate truncates s to max visible characters, appending "..." when
// truncation occurred.
func abbreviate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
