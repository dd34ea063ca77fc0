package connector

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"studio-availability-backend/internal/model"
	"studio-availability-backend/internal/scrape"
)

// Studio246 scrapes the studio246.net reservation timeline. Each bookable
// cell carries a data-time; the minute offset of that time pins the cell to
// one of four rooms, each booking hour-long units starting at 0, 15, 30 or
// 45 minutes past the hour.
type Studio246 struct {
	baseURL string
	ajaxURL string
	client  *scrape.Client
	shopID  string
}

// NewStudio246 creates the connector with its own fetch client.
func NewStudio246(cfg scrape.FetchConfig) (*Studio246, error) {
	return &Studio246{
		baseURL: "https://www.studio246.net/reserve/",
		ajaxURL: "https://www.studio246.net/reserve/ajax/ajax_timeline_contents.php",
		client:  scrape.NewClient(cfg),
	}, nil
}

// Name implements scrape.Strategy.
func (s *Studio246) Name() string { return "studio246" }

// EstablishConnection loads the reserve page and verifies the source issued
// a PHP session cookie; the jar carries it on subsequent requests.
func (s *Studio246) EstablishConnection(ctx context.Context, shopID string) error {
	if shopID == "" {
		return fmt.Errorf("%w: studio246 requires a shop id", scrape.ErrConnection)
	}

	pageURL := fmt.Sprintf("%s?si=%s", s.baseURL, url.QueryEscape(shopID))
	if _, err := s.client.Get(ctx, pageURL, nil); err != nil {
		return fmt.Errorf("%w: %w", scrape.ErrConnection, err)
	}

	base, err := url.Parse(s.baseURL)
	if err != nil {
		return fmt.Errorf("%w: %v", scrape.ErrConnection, err)
	}
	if _, ok := s.client.Cookie(base, "PHPSESSID"); !ok {
		return fmt.Errorf("%w: no session cookie issued", scrape.ErrAuthentication)
	}

	s.shopID = shopID
	return nil
}

// FetchAvailableTimes fetches the timeline fragment for the date and groups
// the free cells into per-offset rooms.
func (s *Studio246) FetchAvailableTimes(ctx context.Context, date time.Time) ([]model.RoomAvailability, error) {
	if s.shopID == "" {
		return nil, fmt.Errorf("%w: connection not established", scrape.ErrConnection)
	}

	header := http.Header{"X-Requested-With": {"XMLHttpRequest"}}
	form := url.Values{
		"si":   {s.shopID},
		"date": {date.Format("2006-01-02")},
	}
	body, err := s.client.PostForm(ctx, s.ajaxURL, header, form)
	if err != nil {
		return nil, err
	}
	return s.parseTimeline(body, date)
}

func (s *Studio246) parseTimeline(body []byte, date time.Time) ([]model.RoomAvailability, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", scrape.ErrParse, err)
	}

	dateStr := date.Format("2006-01-02")
	var block *goquery.Selection
	doc.Find("div.timeline_block").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if d, ok := sel.Attr("data-date"); ok && d == dateStr {
			block = sel
			return false
		}
		return true
	})
	if block == nil {
		return nil, nil
	}

	byOffset := make(map[int][]model.TimeSlot)
	var parseErr error
	block.Find("td.time_cell").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		if !isFreeCell(cell) {
			return true
		}
		timeStr, ok := cell.Attr("data-time")
		if !ok {
			return true
		}

		hour, minute, err := splitClock(timeStr)
		if err != nil {
			parseErr = fmt.Errorf("%w: data-time %q: %v", scrape.ErrParse, timeStr, err)
			return false
		}
		// Cells at 24:00 and later belong to the next day; a fetch is scoped
		// to one date, so they are dropped.
		if hour >= 24 {
			return true
		}

		slot, err := granuleSlot(time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC), time.Hour)
		if err != nil {
			parseErr = fmt.Errorf("%w: data-time %q: %v", scrape.ErrParse, timeStr, err)
			return false
		}
		byOffset[minute] = append(byOffset[minute], slot)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	offsets := make([]int, 0, len(byOffset))
	for offset := range byOffset {
		offsets = append(offsets, offset)
	}
	sort.Ints(offsets)

	var rooms []model.RoomAvailability
	for _, offset := range offsets {
		room, err := model.NewRoomAvailability(
			fmt.Sprintf("Room %d", offset),
			date,
			byOffset[offset],
			[]int{offset},
			false,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: offset %d: %v", scrape.ErrParse, offset, err)
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

func isFreeCell(cell *goquery.Selection) bool {
	if cell.HasClass("bg_black") {
		return false
	}
	state, _ := cell.Attr("state")
	return state == "posi"
}

func splitClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM")
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return hour, minute, nil
}
