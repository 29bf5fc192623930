package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeedDate(t *testing.T) {
	assert.Equal(t, "2024-06-01", parseFeedDate("June 1, 2024"))
	assert.Equal(t, "2024-06-01", parseFeedDate("Jun 1, 2024"))
	assert.Equal(t, "2024-06-01", parseFeedDate("  June   1,  2024 "))
	assert.Equal(t, "", parseFeedDate("next Tuesday"))
	assert.Equal(t, "", parseFeedDate(""))
}

func TestParseFeedTime(t *testing.T) {
	assert.Equal(t, "6:00 PM", parseFeedTime("6:00 PM"))
	assert.Equal(t, "6:00 PM", parseFeedTime("6:00 pm - 8:00 pm"))
	assert.Equal(t, "10:30 AM", parseFeedTime("10:30 AM until done"))
	assert.Equal(t, "All day", parseFeedTime("All day"))
	assert.Equal(t, "", parseFeedTime(""))
}

func TestExtractDescriptionFields(t *testing.T) {
	desc := "<strong>Event Date:</strong> June 1, 2024<br/>" +
		"<strong>Event Time:</strong> 6:00 PM<br/>" +
		"<strong>Location:</strong> Council Chamber<br/>" +
		"80 Broad Street<br/>" +
		"Charleston, SC"

	date, tm, location := extractDescriptionFields(desc)
	assert.Equal(t, "June 1, 2024", date)
	assert.Equal(t, "6:00 PM", tm)
	assert.Equal(t, "Council Chamber, 80 Broad Street, Charleston, SC", location)
}

func TestExtractDescriptionFields_LabelStopsLocationCapture(t *testing.T) {
	desc := "Location: Council Chamber<br>80 Broad Street<br>Event Time: 6:00 PM"
	_, tm, location := extractDescriptionFields(desc)
	assert.Equal(t, "6:00 PM", tm)
	assert.Equal(t, "Council Chamber, 80 Broad Street", location)
}

func TestExtractDescriptionFields_Empty(t *testing.T) {
	date, tm, location := extractDescriptionFields("")
	assert.Equal(t, "", date)
	assert.Equal(t, "", tm)
	assert.Equal(t, "", location)
}

func TestBuildEvents(t *testing.T) {
	feed := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:calendar="urn:schemas:calendar">
  <channel>
    <item>
      <title>City Council Meeting</title>
      <link>https://www.charleston-sc.gov/Calendar.aspx?EID=12345</link>
      <description>&lt;strong&gt;Event Date:&lt;/strong&gt; June 1, 2024&lt;br/&gt;&lt;strong&gt;Event Time:&lt;/strong&gt; 5:00 PM&lt;br/&gt;&lt;strong&gt;Location:&lt;/strong&gt; Council Chamber</description>
      <calendar:EventDates>June 1, 2024</calendar:EventDates>
      <calendar:EventTimes>5:00 PM</calendar:EventTimes>
    </item>
  </channel>
</rss>`

	rows, err := buildEvents([]byte(feed))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	require.Len(t, row, len(csvFields))
	assert.Equal(t, "RSS-12345", row[0])
	assert.Equal(t, "RSS", row[1])
	assert.Equal(t, "City Council Meeting", row[3])
	assert.Equal(t, "2024-06-01", row[5])
	assert.Equal(t, "5:00 PM", row[6])
	assert.Equal(t, "Council Chamber", row[7])
	assert.Equal(t, "https://www.charleston-sc.gov/Calendar.aspx?EID=12345", row[10])
}

func TestBuildEvents_MalformedXML(t *testing.T) {
	_, err := buildEvents([]byte("not xml at all <"))
	assert.Error(t, err)
}
