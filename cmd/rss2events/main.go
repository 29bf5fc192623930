// Command rss2events fetches the municipal calendar RSS feed and
// regenerates the events table from it. Unlike the page, which must
// render whatever it is given, this generator is allowed to fail loud:
// a broken feed should stop the refresh rather than overwrite a good
// table with an empty one.
package main

import (
	"encoding/csv"
	"encoding/xml"
	"flag"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	appLog "civicline/internal/log"
)

const defaultFeedURL = "https://www.charleston-sc.gov/RSSFeed.aspx?ModID=58&CID=All-calendar.xml"

var csvFields = []string{
	"event_id",
	"group_id",
	"body_name",
	"event_type",
	"jurisdiction",
	"date",
	"time",
	"location",
	"address",
	"basis",
	"source_url",
	"notes",
}

const (
	groupID      = "RSS"
	bodyName     = "City of Charleston Calendar"
	jurisdiction = "City of Charleston"
	basis        = "City calendar RSS feed"
	notes        = "Generated from Charleston calendar RSS feed"
)

// rss mirrors the feed structure, including the calendar-extension
// namespace elements carrying structured date/time/location.
type rss struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
	EventDates  string `xml:"EventDates"`
	EventTimes  string `xml:"EventTimes"`
	Location    string `xml:"Location"`
}

func main() {
	var feedURL, outPath string
	flag.StringVar(&feedURL, "url", defaultFeedURL, "RSS feed URL")
	flag.StringVar(&outPath, "out", "data/events.csv", "Output CSV path")
	flag.Parse()

	body, err := fetchFeed(feedURL)
	if err != nil {
		appLog.Error("failed to fetch RSS feed", err, "url", feedURL)
		os.Exit(1)
	}

	events, err := buildEvents(body)
	if err != nil {
		appLog.Error("failed to parse RSS feed", err, "url", feedURL)
		os.Exit(1)
	}
	if len(events) == 0 {
		appLog.Error("no events parsed from RSS feed", nil, "url", feedURL)
		os.Exit(1)
	}

	if err := writeEvents(outPath, events); err != nil {
		appLog.Error("failed to write events table", err, "path", outPath)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d events to %s\n", len(events), outPath)
}

func fetchFeed(url string) ([]byte, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

var (
	spaceRe  = regexp.MustCompile(`\s+`)
	brRe     = regexp.MustCompile(`<br\s*/?>`)
	strongRe = regexp.MustCompile(`</?strong>`)
	timeRe   = regexp.MustCompile(`(?i)^(\d{1,2}:\d{2}\s*[AP]M)`)
	eidRe    = regexp.MustCompile(`EID=(\d+)`)
)

func normalizeSpace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// parseFeedDate converts the feed's long-form dates ("January 2, 2006"
// or "Jan 2, 2006") to ISO. Unparseable input yields "".
func parseFeedDate(raw string) string {
	raw = normalizeSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range []string{"January 2, 2006", "Jan 2, 2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// parseFeedTime extracts a leading "H:MM AM" clock from the feed's
// free-form time field, passing anything else through unchanged.
func parseFeedTime(raw string) string {
	raw = normalizeSpace(raw)
	if raw == "" {
		return ""
	}
	if m := timeRe.FindStringSubmatch(raw); m != nil {
		return strings.ToUpper(normalizeSpace(m[1]))
	}
	return raw
}

// extractDescriptionFields pulls "Event Date:", "Event Time:" and
// "Location:" lines out of the HTML description. Location may span
// several lines following its label.
func extractDescriptionFields(description string) (date, tm, location string) {
	if description == "" {
		return "", "", ""
	}
	desc := html.UnescapeString(description)
	desc = strings.ReplaceAll(desc, "\r", "")
	desc = strongRe.ReplaceAllString(desc, "")

	var locationLines []string
	captureLocation := false
	for _, part := range brRe.Split(desc, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lower := strings.ToLower(part)
		switch {
		case strings.HasPrefix(lower, "event date:"):
			date = strings.TrimSpace(part[len("event date:"):])
			captureLocation = false
		case strings.HasPrefix(lower, "event time:"):
			tm = strings.TrimSpace(part[len("event time:"):])
			captureLocation = false
		case strings.HasPrefix(lower, "location:"):
			if loc := strings.TrimSpace(part[len("location:"):]); loc != "" {
				locationLines = append(locationLines, loc)
			}
			captureLocation = true
		case captureLocation:
			locationLines = append(locationLines, part)
		}
	}
	return date, tm, strings.Join(locationLines, ", ")
}

func buildEvents(xmlText []byte) ([][]string, error) {
	var feed rss
	if err := xml.Unmarshal(xmlText, &feed); err != nil {
		return nil, err
	}

	var rows [][]string
	for _, item := range feed.Channel.Items {
		title := strings.TrimSpace(html.UnescapeString(item.Title))
		link := strings.TrimSpace(item.Link)

		descDate, descTime, descLocation := extractDescriptionFields(item.Description)

		dateValue := parseFeedDate(firstNonEmpty(strings.TrimSpace(item.EventDates), descDate))
		timeValue := parseFeedTime(firstNonEmpty(strings.TrimSpace(item.EventTimes), descTime))
		locationValue := normalizeSpace(firstNonEmpty(descLocation, strings.TrimSpace(item.Location)))

		eventID := ""
		if m := eidRe.FindStringSubmatch(link); m != nil {
			eventID = "RSS-" + m[1]
		} else if m := eidRe.FindStringSubmatch(strings.TrimSpace(item.GUID)); m != nil {
			eventID = "RSS-" + m[1]
		}

		eventType := title
		if eventType == "" {
			eventType = "Event"
		}

		rows = append(rows, []string{
			eventID,
			groupID,
			bodyName,
			eventType,
			jurisdiction,
			dateValue,
			timeValue,
			locationValue,
			locationValue,
			basis,
			link,
			notes,
		})
	}
	return rows, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func writeEvents(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvFields); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
